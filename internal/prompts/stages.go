package prompts

import (
	"encoding/json"
	"slices"
)

// Stage identifies a model call whose instructions can be overridden.
type Stage string

// Valid prompt stages.
const (
	StageAnalyze    Stage = "analyze"
	StageSynthesize Stage = "synthesize"
	StageChat       Stage = "chat"
	StageJudge      Stage = "judge"
)

var stages = []Stage{
	StageAnalyze,
	StageSynthesize,
	StageChat,
	StageJudge,
}

// Stages returns the list of valid prompt stages.
func Stages() []Stage {
	return stages
}

// UnmarshalJSON validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStage(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStage validates a string as a known prompt stage.
// Returns ErrInvalidStage if the value is not recognized.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}
