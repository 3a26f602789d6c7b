// Package plants stores named plants and their append-only diagnosis logs.
// A plant is created lazily the first time a diagnosis names it; its
// history feeds the stability anchor of later diagnoses.
package plants

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/floracare/pkg/weather"
)

// UnknownSpecies is assigned to plants created before any analysis completes.
const UnknownSpecies = "Unknown"

// Plant is a user-named plant tracked across diagnoses.
type Plant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Species   string    `json:"species"`
	CreatedAt time.Time `json:"created_at"`
}

// LogEntry is one persisted diagnosis for a plant.
type LogEntry struct {
	ID              uuid.UUID         `json:"id"`
	PlantID         uuid.UUID         `json:"plant_id"`
	Timestamp       time.Time         `json:"timestamp"`
	ImagePath       string            `json:"image_path"`
	VisualDiagnosis json.RawMessage   `json:"visual_diagnosis"`
	FinalDiagnosis  string            `json:"final_diagnosis"`
	Weather         *weather.Snapshot `json:"weather,omitempty"`
}

// Summary renders the entry the way diagnosis history is presented to the
// reasoning model: "[YYYY-MM-DD] <final diagnosis>".
func (e LogEntry) Summary() string {
	return FormatHistory(e.Timestamp, e.FinalDiagnosis)
}

// FormatHistory renders a history line using the UTC date of ts.
func FormatHistory(ts time.Time, diagnosis string) string {
	return fmt.Sprintf("[%s] %s", ts.UTC().Format(time.DateOnly), diagnosis)
}

// AppendCommand carries the data for a new diagnosis log entry.
type AppendCommand struct {
	PlantID         uuid.UUID
	ImagePath       string
	VisualDiagnosis json.RawMessage
	FinalDiagnosis  string
}
