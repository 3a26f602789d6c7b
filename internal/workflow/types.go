package workflow

import (
	"time"

	"github.com/JaimeStill/floracare/internal/knowledge"
	"github.com/JaimeStill/floracare/internal/plants"
	"github.com/JaimeStill/floracare/pkg/imaging"
	"github.com/JaimeStill/floracare/pkg/weather"
)

// BoundingBox is [ymin, xmin, ymax, xmax] on the 0..1000 scale.
type BoundingBox [4]int

// Area returns the box area in normalized units.
func (b BoundingBox) Area() int {
	return (b[2] - b[0]) * (b[3] - b[1])
}

// Box converts the bounding box into an imaging.Box with the given label.
func (b BoundingBox) Box(label string) imaging.Box {
	return imaging.Box{Label: label, YMin: b[0], XMin: b[1], YMax: b[2], XMax: b[3]}
}

// DetectedObject is a region of interest reported by the vision model.
type DetectedObject struct {
	Name        string       `json:"name"`
	BoundingBox *BoundingBox `json:"bounding_box,omitempty"`
}

// ImageAnalysis is the structured result of the vision stage.
type ImageAnalysis struct {
	PlantType        string           `json:"plant_type"`
	DiagnosedDisease *string          `json:"diagnosed_disease,omitempty"`
	VisualSymptoms   []string         `json:"visual_symptoms"`
	Confidence       float64          `json:"confidence"`
	SeverityScore    *float64         `json:"severity_score,omitempty"`
	AffectedArea     *string          `json:"affected_area,omitempty"`
	Description      string           `json:"description"`
	DetectedObjects  []DetectedObject `json:"detected_objects"`
}

// Boxes returns the detected objects that carry geometry, ready for annotation.
func (a *ImageAnalysis) Boxes() []imaging.Box {
	var boxes []imaging.Box
	for _, o := range a.DetectedObjects {
		if o.BoundingBox != nil {
			boxes = append(boxes, o.BoundingBox.Box(o.Name))
		}
	}
	return boxes
}

// DiagnosisReport is the final output of a pipeline run.
type DiagnosisReport struct {
	Analysis          *ImageAnalysis    `json:"analysis"`
	Diagnosis         string            `json:"diagnosis"`
	TreatmentPlan     []string          `json:"treatment_plan"`
	UserQueryAnswer   *string           `json:"user_query_answer"`
	RelevantKnowledge []string          `json:"relevant_knowledge"`
	WeatherContext    *weather.Snapshot `json:"weather_context"`
}

// Request is the input to a pipeline run.
type Request struct {
	ImagePath string `json:"image_path"`
	UserQuery string `json:"user_query"`
	Location  string `json:"location"`
	PlantName string `json:"plant_name"`
}

// Analyzed is the state after the analyze stage.
type Analyzed struct {
	Request  Request
	Image    imaging.Info
	Analysis *ImageAnalysis
}

// Enriched is the state after the enrich stage. Weather is nil when
// unavailable; Plant is nil when the request names no plant.
type Enriched struct {
	Analyzed
	Weather *weather.Snapshot
	Plant   *plants.Plant
	History []string
}

// Anchor returns the most recent history entry, or "" without history.
func (e *Enriched) Anchor() string {
	if len(e.History) == 0 {
		return ""
	}
	return e.History[0]
}

// Retrieved is the state after the retrieve stage.
type Retrieved struct {
	Enriched
	Knowledge []knowledge.Chunk
}

// State is a pipeline state machine position.
type State string

// Pipeline states in execution order.
const (
	StateAnalyzing    State = "analyzing"
	StateEnriching    State = "enriching"
	StateRetrieving   State = "retrieving"
	StateSynthesizing State = "synthesizing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Transition records a state change within a run.
type Transition struct {
	From State
	To   State
	Err  error
	At   time.Time
}
