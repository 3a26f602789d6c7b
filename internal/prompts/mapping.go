package prompts

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/floracare/pkg/query"
	"github.com/JaimeStill/floracare/pkg/repository"
)

// returning lists the columns scanPrompt reads, for INSERT and UPDATE
// statements that cannot use the aliased projection.
const returning = "RETURNING id, name, stage, instructions, description, active"

var projection = query.
	NewProjectionMap("public", "prompts", "p").
	Project("id", "ID").
	Project("name", "Name").
	Project("stage", "Stage").
	Project("instructions", "Instructions").
	Project("description", "Description").
	Project("active", "Active")

var defaultSort = []query.SortField{
	{Field: "Stage"},
	{Field: "Name"},
}

// Filters narrows a prompt listing. Nil fields are ignored; Name
// matches case-insensitively as a substring.
type Filters struct {
	Stage  *Stage  `json:"stage,omitempty"`
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// Apply adds the filter conditions to b.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Stage", f.Stage).
		WhereContains("Name", f.Name).
		WhereEquals("Active", f.Active)
}

// FiltersFromQuery reads stage, name, and active query parameters.
// Unknown stages and unparseable booleans are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if stage, err := ParseStage(values.Get("stage")); err == nil {
		f.Stage = &stage
	}
	if name := values.Get("name"); name != "" {
		f.Name = &name
	}
	if active, err := strconv.ParseBool(values.Get("active")); err == nil {
		f.Active = &active
	}

	return f
}

func scanPrompt(s repository.Scanner) (Prompt, error) {
	var p Prompt
	err := s.Scan(&p.ID, &p.Name, &p.Stage, &p.Instructions, &p.Description, &p.Active)
	return p, err
}
