// Package imaging loads, inspects, and annotates plant photographs.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	_ "golang.org/x/image/webp"

	"github.com/JaimeStill/floracare/pkg/storage"
)

// BoxScale is the normalized coordinate space used for bounding boxes.
const BoxScale = 1000

var (
	// ErrUnsupportedFormat indicates the data is not a JPEG, PNG, or WebP image.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrEmptyImage indicates a zero-length image payload.
	ErrEmptyImage = errors.New("image is empty")
)

var mimeTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// Info describes a decoded image header.
type Info struct {
	Width  int
	Height int
	Format string
	MIME   string
}

// Inspect decodes the image header and reports its dimensions and MIME type.
func Inspect(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrEmptyImage
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	mime, ok := mimeTypes[format]
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return Info{
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
		MIME:   mime,
	}, nil
}

// FileLoader reads images from the local filesystem.
type FileLoader struct{}

func (FileLoader) Load(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	return data, nil
}

// BlobLoader reads images from blob storage, treating the path as the blob key.
type BlobLoader struct {
	Store storage.System
}

func (l BlobLoader) Load(ctx context.Context, path string) ([]byte, error) {
	body, err := l.Store.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", path, err)
	}
	return data, nil
}

// Box is a labeled region in (ymin, xmin, ymax, xmax) order on the 0..1000 scale.
type Box struct {
	Label string
	YMin  int
	XMin  int
	YMax  int
	XMax  int
}

// Scale converts the box to a pixel rectangle for an image of the given size.
func (b Box) Scale(width, height int) image.Rectangle {
	return image.Rect(
		b.XMin*width/BoxScale,
		b.YMin*height/BoxScale,
		b.XMax*width/BoxScale,
		b.YMax*height/BoxScale,
	)
}

var outline = color.RGBA{R: 255, A: 255}

const strokeWidth = 3

// Annotate draws each box as a red outline and re-encodes the image.
// JPEG input stays JPEG; everything else is encoded as PNG.
// Returns the encoded bytes and their MIME type.
func Annotate(data []byte, boxes []Box) ([]byte, string, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Src)

	for _, b := range boxes {
		r := b.Scale(bounds.Dx(), bounds.Dy()).Add(bounds.Min).Intersect(bounds)
		if r.Empty() {
			continue
		}
		strokeRect(canvas, r)
	}

	var buf bytes.Buffer
	if format == "jpeg" {
		if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: 90}); err != nil {
			return nil, "", fmt.Errorf("encode jpeg: %w", err)
		}
		return buf.Bytes(), mimeTypes["jpeg"], nil
	}

	if err := png.Encode(&buf, canvas); err != nil {
		return nil, "", fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), mimeTypes["png"], nil
}

func strokeRect(img *image.RGBA, r image.Rectangle) {
	fill := image.NewUniform(outline)
	w := min(strokeWidth, r.Dx(), r.Dy())

	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w),
		image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y),
		image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e, fill, image.Point{}, draw.Src)
	}
}
