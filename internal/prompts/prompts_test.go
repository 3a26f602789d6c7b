package prompts_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/floracare/internal/prompts"
	"github.com/JaimeStill/floracare/pkg/query"
)

func ptr[T any](v T) *T { return &v }

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{prompts.ErrNotFound, http.StatusNotFound},
		{prompts.ErrDuplicate, http.StatusConflict},
		{prompts.ErrInvalidID, http.StatusBadRequest},
		{prompts.ErrInvalidStage, http.StatusBadRequest},
		{prompts.ErrEmptyField, http.StatusBadRequest},
		{fmt.Errorf("update prompt: %w", prompts.ErrNotFound), http.StatusNotFound},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := prompts.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseStage(t *testing.T) {
	for _, stage := range prompts.Stages() {
		got, err := prompts.ParseStage(string(stage))
		if err != nil || got != stage {
			t.Errorf("ParseStage(%q) = %q, %v", stage, got, err)
		}
	}

	for _, input := range []string{"", "classify", "Analyze", "banana"} {
		if _, err := prompts.ParseStage(input); !errors.Is(err, prompts.ErrInvalidStage) {
			t.Errorf("ParseStage(%q) error = %v, want ErrInvalidStage", input, err)
		}
	}
}

func TestStageUnmarshalJSON(t *testing.T) {
	type payload struct {
		Stage prompts.Stage `json:"stage"`
	}

	tests := []struct {
		name    string
		input   string
		want    prompts.Stage
		wantErr error
	}{
		{"analyze", `{"stage":"analyze"}`, prompts.StageAnalyze, nil},
		{"judge", `{"stage":"judge"}`, prompts.StageJudge, nil},
		{"unknown", `{"stage":"classify"}`, "", prompts.ErrInvalidStage},
		{"empty", `{"stage":""}`, "", prompts.ErrInvalidStage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := json.Unmarshal([]byte(tt.input), &p)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if p.Stage != tt.want {
				t.Errorf("stage = %q, want %q", p.Stage, tt.want)
			}
		})
	}

	t.Run("non-string", func(t *testing.T) {
		var p payload
		if err := json.Unmarshal([]byte(`{"stage":42}`), &p); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestDefaults(t *testing.T) {
	for _, stage := range prompts.Stages() {
		t.Run(string(stage), func(t *testing.T) {
			instructions, err := prompts.DefaultInstructions(stage)
			if err != nil || instructions == "" {
				t.Errorf("DefaultInstructions = %q, %v", instructions, err)
			}
			spec, err := prompts.DefaultSpec(stage)
			if err != nil || spec == "" {
				t.Errorf("DefaultSpec = %q, %v", spec, err)
			}
		})
	}

	if _, err := prompts.DefaultInstructions("banana"); !errors.Is(err, prompts.ErrInvalidStage) {
		t.Errorf("DefaultInstructions(banana) error = %v", err)
	}
	if _, err := prompts.DefaultSpec("banana"); !errors.Is(err, prompts.ErrInvalidStage) {
		t.Errorf("DefaultSpec(banana) error = %v", err)
	}
}

func TestFiltersFromQuery(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		want   prompts.Filters
	}{
		{
			"all present",
			url.Values{"stage": {"analyze"}, "name": {"detailed"}, "active": {"true"}},
			prompts.Filters{Stage: ptr(prompts.StageAnalyze), Name: ptr("detailed"), Active: ptr(true)},
		},
		{"empty", url.Values{}, prompts.Filters{}},
		{"active false", url.Values{"active": {"false"}}, prompts.Filters{Active: ptr(false)}},
		{"invalid active ignored", url.Values{"active": {"maybe"}}, prompts.Filters{}},
		{"unknown stage ignored", url.Values{"stage": {"classify"}, "name": {"x"}}, prompts.Filters{Name: ptr("x")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, prompts.FiltersFromQuery(tt.values)); diff != "" {
				t.Errorf("filters mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFiltersApply(t *testing.T) {
	projection := query.
		NewProjectionMap("public", "prompts", "p").
		Project("stage", "Stage").
		Project("name", "Name").
		Project("active", "Active")

	const base = "SELECT p.stage, p.name, p.active FROM public.prompts p"

	tests := []struct {
		name     string
		filters  prompts.Filters
		wantSQL  string
		wantArgs int
	}{
		{"none", prompts.Filters{}, base, 0},
		{"name", prompts.Filters{Name: ptr("terse")}, base + " WHERE p.name ILIKE $1", 1},
		{
			"all",
			prompts.Filters{Stage: ptr(prompts.StageChat), Name: ptr("terse"), Active: ptr(false)},
			base + " WHERE p.stage = $1 AND p.name ILIKE $2 AND p.active = $3",
			3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.filters.Apply(query.NewBuilder(projection)).Build()
			if sql != tt.wantSQL {
				t.Errorf("sql:\ngot  %s\nwant %s", sql, tt.wantSQL)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("args = %v, want %d", args, tt.wantArgs)
			}
		})
	}
}

type overrideSource struct {
	prompts.Defaults
	instructions map[prompts.Stage]string
}

func (s overrideSource) Instructions(ctx context.Context, stage prompts.Stage) (string, error) {
	if text, ok := s.instructions[stage]; ok {
		return text, nil
	}
	return s.Defaults.Instructions(ctx, stage)
}

func TestCompose(t *testing.T) {
	t.Run("joins instructions spec and sections", func(t *testing.T) {
		src := overrideSource{instructions: map[prompts.Stage]string{
			prompts.StageJudge: "Be a strict judge.",
		}}

		got, err := prompts.Compose(context.Background(), src, prompts.StageJudge, "Expected: Rust", "", "Predicted: Leaf Rust")
		if err != nil {
			t.Fatalf("Compose() error: %v", err)
		}

		spec, _ := prompts.DefaultSpec(prompts.StageJudge)
		want := "Be a strict judge.\n\n" + spec + "\n\nExpected: Rust\n\nPredicted: Leaf Rust"
		if got != want {
			t.Errorf("Compose() =\n%q\nwant\n%q", got, want)
		}
	})

	t.Run("defaults source", func(t *testing.T) {
		got, err := prompts.Compose(context.Background(), prompts.Defaults{}, prompts.StageAnalyze)
		if err != nil {
			t.Fatalf("Compose() error: %v", err)
		}
		if !strings.Contains(got, "plant pathologist") || !strings.Contains(got, `"detected_objects"`) {
			t.Errorf("Compose() missing default instructions or spec:\n%s", got)
		}
	})

	t.Run("invalid stage", func(t *testing.T) {
		_, err := prompts.Compose(context.Background(), prompts.Defaults{}, "banana")
		if !errors.Is(err, prompts.ErrInvalidStage) {
			t.Errorf("Compose() error = %v, want ErrInvalidStage", err)
		}
	})
}
