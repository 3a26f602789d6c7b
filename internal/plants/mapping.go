package plants

import (
	"database/sql"
	"net/url"

	"github.com/JaimeStill/floracare/pkg/query"
	"github.com/JaimeStill/floracare/pkg/repository"
	"github.com/JaimeStill/floracare/pkg/weather"
)

var projection = query.
	NewProjectionMap("public", "plants", "p").
	Project("id", "ID").
	Project("name", "Name").
	Project("species", "Species").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for plant queries.
type Filters struct {
	Name    *string `json:"name,omitempty"`
	Species *string `json:"species,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("Name", f.Name).
		WhereContains("Species", f.Species)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}
	if s := values.Get("species"); s != "" {
		f.Species = &s
	}

	return f
}

func scanPlant(s repository.Scanner) (Plant, error) {
	var p Plant
	err := s.Scan(&p.ID, &p.Name, &p.Species, &p.CreatedAt)
	return p, err
}

var logProjection = query.
	NewProjectionMap("public", "diagnosis_logs", "l").
	Project("id", "ID").
	Project("plant_id", "PlantID").
	Project("created_at", "Timestamp").
	Project("image_path", "ImagePath").
	Project("visual_diagnosis", "VisualDiagnosis").
	Project("final_diagnosis", "FinalDiagnosis").
	Join("LEFT JOIN public.weather_snapshots w ON w.log_id = l.id").
	ProjectFrom("w", "temperature", "Temperature").
	ProjectFrom("w", "humidity", "Humidity").
	ProjectFrom("w", "condition", "Condition").
	ProjectFrom("w", "location", "Location")

var logSort = query.SortField{
	Field:      "Timestamp",
	Descending: true,
}

func scanLogEntry(s repository.Scanner) (LogEntry, error) {
	var (
		e         LogEntry
		visual    []byte
		temp      sql.NullFloat64
		humidity  sql.NullInt32
		condition sql.NullString
		location  sql.NullString
	)

	err := s.Scan(
		&e.ID,
		&e.PlantID,
		&e.Timestamp,
		&e.ImagePath,
		&visual,
		&e.FinalDiagnosis,
		&temp,
		&humidity,
		&condition,
		&location,
	)
	if err != nil {
		return e, err
	}

	e.VisualDiagnosis = visual
	if temp.Valid {
		e.Weather = &weather.Snapshot{
			Temperature: temp.Float64,
			Humidity:    int(humidity.Int32),
			Condition:   condition.String,
			Location:    location.String,
		}
	}
	return e, nil
}
