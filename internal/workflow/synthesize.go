package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/JaimeStill/floracare/internal/prompts"
	"github.com/JaimeStill/floracare/pkg/formatting"
)

type synthesisResponse struct {
	Diagnosis       *string  `json:"diagnosis"`
	Category        string   `json:"category"`
	Progression     string   `json:"progression"`
	TreatmentPlan   []string `json:"treatment_plan"`
	UserQueryAnswer *string  `json:"user_query_answer"`

	AnchoredTreatmentPlan   []string `json:"anchored_treatment_plan"`
	AnchoredUserQueryAnswer *string  `json:"anchored_user_query_answer"`
}

// Synthesize combines the accumulated state into a validated report with
// a single reasoning call. When the plant has history, the most recent
// diagnosis is the anchor: a different category is accepted only when the
// analysis confidence exceeds the override threshold, otherwise the
// diagnosis is pinned to the anchor and the treatment plan and query
// answer come from the anchored fields of the reply.
func Synthesize(ctx context.Context, rt *Runtime, r *Retrieved) (*DiagnosisReport, error) {
	prompt, err := prompts.Compose(
		ctx, rt.Prompts, prompts.StageSynthesize,
		analysisSection(r.Analysis),
		weatherSection(r),
		historySection(r, rt.Options.OverrideThreshold),
		knowledgeSection(r),
		querySection(r.Request.UserQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}

	text, err := rt.Reasoning.Chat(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}

	resp, err := formatting.Parse[synthesisResponse](text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}

	if err := resp.validate(r.Request.UserQuery); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}

	diagnosis := strings.TrimSpace(*resp.Diagnosis)
	plan, answer := resp.TreatmentPlan, resp.UserQueryAnswer
	if anchor := AnchorCategory(r.Anchor()); anchor != "" {
		category := resp.Category
		if strings.TrimSpace(category) == "" {
			category = AnchorCategory(diagnosis)
		}

		if !SameCategory(anchor, category) && r.Analysis.Confidence <= rt.Options.OverrideThreshold {
			if err := resp.validateAnchored(r.Request.UserQuery); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
			}

			pinned := pinDiagnosis(anchor, resp.Progression)
			rt.Logger.WarnContext(
				ctx, "category change rejected",
				"anchor", anchor,
				"proposed", category,
				"confidence", r.Analysis.Confidence,
				"diagnosis", pinned,
			)
			diagnosis = pinned
			plan, answer = resp.AnchoredTreatmentPlan, resp.AnchoredUserQueryAnswer
		}
	}

	report := &DiagnosisReport{
		Analysis:          r.Analysis,
		Diagnosis:         diagnosis,
		TreatmentPlan:     plan,
		RelevantKnowledge: make([]string, len(r.Knowledge)),
		WeatherContext:    r.Weather,
	}

	for i, c := range r.Knowledge {
		report.RelevantKnowledge[i] = c.Citation()
	}

	if strings.TrimSpace(r.Request.UserQuery) != "" {
		text := strings.TrimSpace(*answer)
		report.UserQueryAnswer = &text
	}

	rt.Logger.InfoContext(
		ctx, "synthesize stage complete",
		"diagnosis", report.Diagnosis,
		"treatment_steps", len(report.TreatmentPlan),
		"answered", report.UserQueryAnswer != nil,
	)

	return report, nil
}

func (s synthesisResponse) validate(userQuery string) error {
	if s.Diagnosis == nil || strings.TrimSpace(*s.Diagnosis) == "" {
		return &ValidationError{Field: "diagnosis", Reason: "required"}
	}
	if s.TreatmentPlan == nil {
		return &ValidationError{Field: "treatment_plan", Reason: "required"}
	}
	if strings.TrimSpace(userQuery) != "" {
		if s.UserQueryAnswer == nil || strings.TrimSpace(*s.UserQueryAnswer) == "" {
			return &ValidationError{Field: "user_query_answer", Reason: "required when a query is given"}
		}
	}
	return nil
}

func (s synthesisResponse) validateAnchored(userQuery string) error {
	if s.AnchoredTreatmentPlan == nil {
		return &ValidationError{Field: "anchored_treatment_plan", Reason: "required when the prior diagnosis is kept"}
	}
	if strings.TrimSpace(userQuery) != "" {
		if s.AnchoredUserQueryAnswer == nil || strings.TrimSpace(*s.AnchoredUserQueryAnswer) == "" {
			return &ValidationError{Field: "anchored_user_query_answer", Reason: "required when the prior diagnosis is kept"}
		}
	}
	return nil
}

var (
	datePrefix    = regexp.MustCompile(`^\[[^\]]*\]\s*`)
	trailingParen = regexp.MustCompile(`\s*\([^()]*\)\s*$`)
)

// AnchorCategory reduces a history line such as "[2024-05-01] Early Blight (worsening)"
// to its disease category, "Early Blight".
func AnchorCategory(line string) string {
	s := datePrefix.ReplaceAllString(strings.TrimSpace(line), "")
	return strings.TrimSpace(trailingParen.ReplaceAllString(s, ""))
}

// SameCategory reports whether two disease names refer to the same
// category. Names are compared whole after case, punctuation and spacing
// are dropped, so "Blight" and "Bacterial Blight" differ.
func SameCategory(a, b string) bool {
	return normalize(a) == normalize(b)
}

func normalize(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func pinDiagnosis(anchor, progression string) string {
	p := strings.ToLower(strings.TrimSpace(progression))
	if p == "" || p == "new" {
		return anchor
	}
	return fmt.Sprintf("%s (%s)", anchor, p)
}

func analysisSection(a *ImageAnalysis) string {
	var sb strings.Builder
	sb.WriteString("Patient Plant Analysis:\n")
	fmt.Fprintf(&sb, "- Type: %s\n", a.PlantType)
	fmt.Fprintf(&sb, "- Symptoms: %s\n", strings.Join(a.VisualSymptoms, ", "))
	fmt.Fprintf(&sb, "- Confidence: %.2f\n", a.Confidence)
	if a.SeverityScore != nil {
		fmt.Fprintf(&sb, "- Severity: %.0f/10\n", *a.SeverityScore)
	}
	if a.AffectedArea != nil {
		fmt.Fprintf(&sb, "- Affected Area: %s\n", *a.AffectedArea)
	}
	fmt.Fprintf(&sb, "- Visual Description: %s", a.Description)
	return sb.String()
}

func weatherSection(r *Retrieved) string {
	if r.Weather == nil {
		return "Current Weather: Not available. Do not make any claims about the weather."
	}
	return fmt.Sprintf(
		"Current Weather (%s): %s\nExplicitly reference the weather if it is relevant to the diagnosis or treatment.",
		r.Weather.Location, r.Weather.Summary(),
	)
}

func historySection(r *Retrieved, threshold float64) string {
	if len(r.History) == 0 {
		return `Diagnosis History: None. Set progression to "new".`
	}

	var sb strings.Builder
	sb.WriteString("Diagnosis History (newest first):\n")
	for _, h := range r.History {
		fmt.Fprintf(&sb, "- %s\n", h)
	}
	fmt.Fprintf(
		&sb,
		"STABILITY RULE: The most recent diagnosis, %q, is authoritative. "+
			"Keep its category unless the current visual evidence supports a different disease "+
			"with confidence above %.0f%%. Describe the progression (improving, stable, worsening) instead of re-diagnosing.\n"+
			"Always fill anchored_treatment_plan, and anchored_user_query_answer when a query is given, for %q at the current progression.",
		AnchorCategory(r.Anchor()), threshold*100, AnchorCategory(r.Anchor()),
	)
	return sb.String()
}

func knowledgeSection(r *Retrieved) string {
	if len(r.Knowledge) == 0 {
		return "Reference Knowledge: None retrieved. Rely on the visual analysis and do not cite sources."
	}

	var sb strings.Builder
	sb.WriteString("Reference Knowledge:")
	for _, c := range r.Knowledge {
		fmt.Fprintf(&sb, "\n- %s", c.Citation())
	}
	return sb.String()
}

func querySection(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return "User Query: None. Set user_query_answer to null."
	}
	return fmt.Sprintf(
		"User Query: %q\nAnswer the query directly in user_query_answer. "+
			"If the query is unrelated to the plant or its care, say so in user_query_answer. "+
			"Do not invent facts that are not supported by the context above.",
		query,
	)
}
