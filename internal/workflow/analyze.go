package workflow

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/JaimeStill/floracare/internal/prompts"
	"github.com/JaimeStill/floracare/pkg/formatting"
	"github.com/JaimeStill/floracare/pkg/imaging"
)

type rawObject struct {
	Name        *string   `json:"name"`
	BoundingBox []float64 `json:"bounding_box"`
	Box2D       []float64 `json:"box_2d"`
}

type rawAnalysis struct {
	PlantType        *string     `json:"plant_type"`
	DiagnosedDisease *string     `json:"diagnosed_disease"`
	VisualSymptoms   []string    `json:"visual_symptoms"`
	Confidence       *float64    `json:"confidence"`
	SeverityScore    *float64    `json:"severity_score"`
	AffectedArea     *string     `json:"affected_area"`
	Description      *string     `json:"description"`
	DetectedObjects  []rawObject `json:"detected_objects"`
}

// Analyze loads the request image and asks the vision model for a
// structured analysis. Any load, decode, model, or validation failure
// is returned wrapped in ErrAnalysisFailed.
func Analyze(ctx context.Context, rt *Runtime, req Request) (*Analyzed, error) {
	data, err := rt.Images.Load(ctx, req.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	info, err := imaging.Inspect(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	prompt, err := prompts.Compose(
		ctx, rt.Prompts, prompts.StageAnalyze,
		fmt.Sprintf("Return at most %d detected objects.", rt.Options.MaxObjects),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	text, err := rt.Vision.Vision(ctx, prompt, data, info.MIME)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	analysis, err := DecodeAnalysis(text, rt.Options.MaxObjects)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	rt.Logger.InfoContext(
		ctx, "analyze stage complete",
		"plant_type", analysis.PlantType,
		"confidence", analysis.Confidence,
		"symptoms", len(analysis.VisualSymptoms),
		"objects", len(analysis.DetectedObjects),
	)

	return &Analyzed{Request: req, Image: info, Analysis: analysis}, nil
}

// DecodeAnalysis parses a vision model response into an ImageAnalysis.
// Confidence is clamped to [0,1] and severity to [1,10]. Box coordinates
// are clamped to the 0..1000 scale; a box with the wrong arity or with
// min greater than max is rejected. When more than maxObjects are
// reported, the largest boxes are kept in their original order.
func DecodeAnalysis(text string, maxObjects int) (*ImageAnalysis, error) {
	raw, err := formatting.Parse[rawAnalysis](text)
	if err != nil {
		return nil, err
	}

	if raw.PlantType == nil || strings.TrimSpace(*raw.PlantType) == "" {
		return nil, &ValidationError{Field: "plant_type", Reason: "required"}
	}
	if raw.VisualSymptoms == nil {
		return nil, &ValidationError{Field: "visual_symptoms", Reason: "required"}
	}
	if raw.Confidence == nil {
		return nil, &ValidationError{Field: "confidence", Reason: "required"}
	}
	if raw.Description == nil {
		return nil, &ValidationError{Field: "description", Reason: "required"}
	}

	a := &ImageAnalysis{
		PlantType:        strings.TrimSpace(*raw.PlantType),
		DiagnosedDisease: nonBlank(raw.DiagnosedDisease),
		VisualSymptoms:   raw.VisualSymptoms,
		Confidence:       clamp(*raw.Confidence, 0, 1),
		AffectedArea:     nonBlank(raw.AffectedArea),
		Description:      *raw.Description,
		DetectedObjects:  []DetectedObject{},
	}

	if raw.SeverityScore != nil {
		s := clamp(*raw.SeverityScore, 1, 10)
		a.SeverityScore = &s
	}

	for i, ro := range raw.DetectedObjects {
		obj, err := decodeObject(i, ro)
		if err != nil {
			return nil, err
		}
		a.DetectedObjects = append(a.DetectedObjects, obj)
	}

	a.DetectedObjects = capObjects(a.DetectedObjects, maxObjects)
	return a, nil
}

func decodeObject(i int, ro rawObject) (DetectedObject, error) {
	field := fmt.Sprintf("detected_objects[%d]", i)

	if ro.Name == nil {
		return DetectedObject{}, &ValidationError{Field: field + ".name", Reason: "required"}
	}

	coords := ro.BoundingBox
	if coords == nil {
		coords = ro.Box2D
	}

	obj := DetectedObject{Name: *ro.Name}
	if coords == nil {
		return obj, nil
	}

	if len(coords) != 4 {
		return DetectedObject{}, &ValidationError{
			Field:  field + ".bounding_box",
			Reason: fmt.Sprintf("want 4 coordinates, got %d", len(coords)),
		}
	}

	var box BoundingBox
	for j, v := range coords {
		box[j] = int(math.Round(clamp(v, 0, imaging.BoxScale)))
	}

	if box[0] > box[2] || box[1] > box[3] {
		return DetectedObject{}, &ValidationError{
			Field:  field + ".bounding_box",
			Reason: fmt.Sprintf("min exceeds max in %v", box),
		}
	}

	obj.BoundingBox = &box
	return obj, nil
}

// capObjects keeps the n objects with the largest boxes, preferring earlier
// objects on ties, and returns them in their original order. Objects
// without a box rank below any boxed object.
func capObjects(objs []DetectedObject, n int) []DetectedObject {
	if n < 1 || len(objs) <= n {
		return objs
	}

	idx := make([]int, len(objs))
	for i := range idx {
		idx[i] = i
	}

	area := func(i int) int {
		if b := objs[i].BoundingBox; b != nil {
			return b.Area()
		}
		return -1
	}

	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(area(b), area(a))
	})

	keep := idx[:n]
	slices.Sort(keep)

	out := make([]DetectedObject, 0, n)
	for _, i := range keep {
		out = append(out, objs[i])
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return min(max(v, lo), hi)
}

func nonBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
