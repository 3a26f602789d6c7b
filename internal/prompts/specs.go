package prompts

import (
	"context"
	"fmt"
	"strings"
)

const analyzeSpec = `Respond with a JSON object matching this exact structure:

{
  "plant_type": "<common name>",
  "diagnosed_disease": "<disease name or null>",
  "visual_symptoms": ["<symptom1>", "<symptom2>"],
  "confidence": 0.0,
  "description": "<what the image shows>",
  "severity_score": 1,
  "affected_area": "<percentage, e.g. 15%>",
  "detected_objects": [
    {"name": "<lesion or pest>", "bounding_box": [0, 0, 0, 0]}
  ]
}

Field constraints:
- plant_type: Required. Common name of the plant.
- diagnosed_disease: Most likely disease, or null for a healthy plant.
- visual_symptoms: Required. Short phrases, empty array when healthy.
- confidence: Required. Number between 0 and 1.
- description: Required. One or two sentences.
- severity_score: Number from 1 to 10 where 10 is a dead plant.
- bounding_box: [ymin, xmin, ymax, xmax] normalized to 0-1000.
- detected_objects: Include at least one object whenever symptoms are
  visible. Prioritize the largest or most severe regions.

Behavioral constraints:
- Always respond with strict JSON, no markdown fencing
- Report only what is visible in this photograph`

const synthesizeSpec = `Respond with a JSON object matching this exact structure:

{
  "diagnosis": "<condition>",
  "category": "<disease category>",
  "progression": "<new|improving|stable|worsening>",
  "treatment_plan": ["<step1>", "<step2>"],
  "user_query_answer": "<answer or null>",
  "anchored_treatment_plan": ["<step1>", "<step2>"],
  "anchored_user_query_answer": "<answer or null>"
}

Field constraints:
- diagnosis: Required. Name of the condition, followed by the progression
  in parentheses when a prior diagnosis exists, e.g. "Early Blight (worsening)".
- category: Required. The disease name alone, without qualifiers.
- progression: "new" when there is no prior diagnosis.
- treatment_plan: Required. Ordered list of concrete steps.
- user_query_answer: Follow the query rules given with the context below.
- anchored_treatment_plan: Required when a diagnosis history is given.
  Treatment steps for the most recent prior diagnosis at the current
  progression, written as if that diagnosis were kept. null without history.
- anchored_user_query_answer: Required when both a diagnosis history and a
  user query are given. The query answer consistent with the most recent
  prior diagnosis. null otherwise.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Do not invent weather, history, or sources that are not provided`

const chatSpec = `Respond in plain prose, not JSON.

Behavioral constraints:
- Answer only the latest user message
- Do not contradict the diagnosis report unless the user supplies new evidence
- Keep the answer under 150 words`

const judgeSpec = `Respond with a JSON object matching this exact structure:

{
  "is_correct": false
}

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Output only the verdict`

var specs = map[Stage]string{
	StageAnalyze:    analyzeSpec,
	StageSynthesize: synthesizeSpec,
	StageChat:       chatSpec,
	StageJudge:      judgeSpec,
}

// DefaultSpec returns the output specification for a stage.
// Specifications are not overridable.
// Returns ErrInvalidStage if the stage is not recognized.
func DefaultSpec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}

// Source resolves the instructions and output spec for a stage.
type Source interface {
	Instructions(ctx context.Context, stage Stage) (string, error)
	Spec(ctx context.Context, stage Stage) (string, error)
}

// Defaults is a Source backed only by the built-in text.
type Defaults struct{}

func (Defaults) Instructions(_ context.Context, stage Stage) (string, error) {
	return DefaultInstructions(stage)
}

func (Defaults) Spec(_ context.Context, stage Stage) (string, error) {
	return DefaultSpec(stage)
}

// Compose joins the stage instructions and spec, followed by any
// context sections, separated by blank lines.
func Compose(ctx context.Context, src Source, stage Stage, sections ...string) (string, error) {
	inst, err := src.Instructions(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load %s instructions: %w", stage, err)
	}

	spec, err := src.Spec(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load %s spec: %w", stage, err)
	}

	parts := []string{inst, spec}
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
