package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Enhancement parameters.
const (
	blurSigma      = 1.1
	blurRadius     = 2
	claheClip      = 2.0
	claheTiles     = 8
	vignetteSpread = 2.5
)

// Enhance prepares a photograph for vision analysis. It smooths sensor
// noise with a 5x5 Gaussian blur, equalizes local contrast on the
// lightness channel (CLAHE, clip limit 2, 8x8 tiles), and darkens the
// borders with a Gaussian vignette so the subject at the centre stands
// out. The result is always JPEG.
func Enhance(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	px := newPlane(src)
	px.blur()

	light := px.lightness()
	light.equalize()
	px.setLightness(light)

	px.vignette()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, px.nrgba(), &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// plane holds an image as linear rows of RGB samples in 0..255.
type plane struct {
	w, h int
	rgb  [][3]float64
}

func newPlane(src image.Image) *plane {
	b := src.Bounds()
	p := &plane{w: b.Dx(), h: b.Dy(), rgb: make([][3]float64, b.Dx()*b.Dy())}

	for y := range p.h {
		for x := range p.w {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			p.rgb[y*p.w+x] = [3]float64{float64(c.R), float64(c.G), float64(c.B)}
		}
	}
	return p
}

func (p *plane) nrgba() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, p.w, p.h))
	for i, c := range p.rgb {
		out.Pix[i*4] = clampByte(c[0])
		out.Pix[i*4+1] = clampByte(c[1])
		out.Pix[i*4+2] = clampByte(c[2])
		out.Pix[i*4+3] = 255
	}
	return out
}

// blur applies a separable Gaussian with reflected borders.
func (p *plane) blur() {
	k := gaussian(2*blurRadius+1, blurSigma)
	tmp := make([][3]float64, len(p.rgb))

	for y := range p.h {
		for x := range p.w {
			var acc [3]float64
			for i, wt := range k {
				src := p.rgb[y*p.w+reflect(x+i-blurRadius, p.w)]
				for ch := range 3 {
					acc[ch] += wt * src[ch]
				}
			}
			tmp[y*p.w+x] = acc
		}
	}

	for y := range p.h {
		for x := range p.w {
			var acc [3]float64
			for i, wt := range k {
				src := tmp[reflect(y+i-blurRadius, p.h)*p.w+x]
				for ch := range 3 {
					acc[ch] += wt * src[ch]
				}
			}
			p.rgb[y*p.w+x] = acc
		}
	}
}

// lab pairs a lightness channel in 0..255 with the untouched a and b
// components of each pixel.
type lab struct {
	w, h   int
	l      []float64
	chroma [][2]float64
}

func (p *plane) lightness() *lab {
	out := &lab{w: p.w, h: p.h, l: make([]float64, len(p.rgb)), chroma: make([][2]float64, len(p.rgb))}
	for i, c := range p.rgb {
		l, a, b := colorful.Color{R: c[0] / 255, G: c[1] / 255, B: c[2] / 255}.Lab()
		out.l[i] = math.Round(min(max(l, 0), 1) * 255)
		out.chroma[i] = [2]float64{a, b}
	}
	return out
}

func (p *plane) setLightness(in *lab) {
	for i := range p.rgb {
		c := colorful.Lab(in.l[i]/255, in.chroma[i][0], in.chroma[i][1]).Clamped()
		p.rgb[i] = [3]float64{c.R * 255, c.G * 255, c.B * 255}
	}
}

// equalize runs contrast-limited adaptive histogram equalization over
// the lightness channel, blending the four nearest tile mappings.
func (in *lab) equalize() {
	nx, ny := min(claheTiles, in.w), min(claheTiles, in.h)
	if nx == 0 || ny == 0 {
		return
	}

	luts := make([][256]float64, nx*ny)
	for ty := range ny {
		for tx := range nx {
			x0, x1 := tx*in.w/nx, (tx+1)*in.w/nx
			y0, y1 := ty*in.h/ny, (ty+1)*in.h/ny
			luts[ty*nx+tx] = in.tileLUT(x0, x1, y0, y1)
		}
	}

	tileW, tileH := float64(in.w)/float64(nx), float64(in.h)/float64(ny)
	out := make([]float64, len(in.l))

	for y := range in.h {
		gy := (float64(y)+0.5)/tileH - 0.5
		y0, fy := split(gy, ny)
		y1 := min(y0+1, ny-1)

		for x := range in.w {
			gx := (float64(x)+0.5)/tileW - 0.5
			x0, fx := split(gx, nx)
			x1 := min(x0+1, nx-1)

			v := int(in.l[y*in.w+x])
			top := (1-fx)*luts[y0*nx+x0][v] + fx*luts[y0*nx+x1][v]
			bottom := (1-fx)*luts[y1*nx+x0][v] + fx*luts[y1*nx+x1][v]
			out[y*in.w+x] = math.Round((1-fy)*top + fy*bottom)
		}
	}
	in.l = out
}

func (in *lab) tileLUT(x0, x1, y0, y1 int) [256]float64 {
	var hist [256]int
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[int(in.l[y*in.w+x])]++
		}
	}

	area := (x1 - x0) * (y1 - y0)
	limit := max(int(claheClip*float64(area)/256), 1)

	excess := 0
	for i, n := range hist {
		if n > limit {
			excess += n - limit
			hist[i] = limit
		}
	}

	bonus, rest := excess/256, excess%256
	for i := range hist {
		hist[i] += bonus
		if i < rest {
			hist[i]++
		}
	}

	var lut [256]float64
	scale := 255 / float64(area)
	sum := 0
	for i, n := range hist {
		sum += n
		lut[i] = math.Round(float64(sum) * scale)
	}
	return lut
}

// vignette scales every pixel by a centred Gaussian mask normalized to
// 1 at its peak, with sigma a 2.5th of each dimension.
func (p *plane) vignette() {
	kx := gaussian(p.w, float64(p.w)/vignetteSpread)
	ky := gaussian(p.h, float64(p.h)/vignetteSpread)
	peak := maxOf(kx) * maxOf(ky)

	for y := range p.h {
		for x := range p.w {
			m := kx[x] * ky[y] / peak
			c := &p.rgb[y*p.w+x]
			for ch := range 3 {
				c[ch] *= m
			}
		}
	}
}

// gaussian returns a normalized kernel of n taps centred on (n-1)/2.
func gaussian(n int, sigma float64) []float64 {
	k := make([]float64, n)
	centre := float64(n-1) / 2
	sum := 0.0
	for i := range k {
		d := float64(i) - centre
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

func maxOf(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		m = max(m, x)
	}
	return m
}

// split clamps a tile coordinate and returns its lower tile index and
// the fraction toward the next tile.
func split(g float64, n int) (int, float64) {
	if g <= 0 {
		return 0, 0
	}
	if g >= float64(n-1) {
		return n - 1, 0
	}
	i := int(g)
	return i, g - float64(i)
}

// reflect mirrors an out-of-range index without repeating the edge.
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

func clampByte(v float64) uint8 {
	return uint8(math.Round(min(max(v, 0), 255)))
}
