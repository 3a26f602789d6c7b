package benchmark

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInvalidGroundTruth indicates a malformed ground truth file.
var ErrInvalidGroundTruth = errors.New("invalid ground truth")

var resultColumns = []string{
	"filename",
	"is_correct",
	"expected_disease",
	"predicted_disease",
	"confidence_score",
	"trust_label",
	"reasoning",
	"visual_severity_score",
	"expected_min_severity",
}

// ReadCases parses a ground truth CSV with the header columns
// filename, expected_disease, and expected_min_severity in any order.
func ReadCases(r io.Reader) ([]Case, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrInvalidGroundTruth, err)
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.TrimSpace(strings.ToLower(h))] = i
	}
	for _, required := range []string{"filename", "expected_disease", "expected_min_severity"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrInvalidGroundTruth, required)
		}
	}

	var cases []Case
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidGroundTruth, err)
		}

		sev, err := strconv.ParseFloat(strings.TrimSpace(rec[cols["expected_min_severity"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: expected_min_severity: %w", ErrInvalidGroundTruth, line, err)
		}

		cases = append(cases, Case{
			Filename:            strings.TrimSpace(rec[cols["filename"]]),
			ExpectedDisease:     strings.TrimSpace(rec[cols["expected_disease"]]),
			ExpectedMinSeverity: sev,
		})
	}

	return cases, nil
}

// WriteResults writes one CSV row per result under a fixed header.
func WriteResults(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultColumns); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.Filename,
			strconv.FormatBool(r.IsCorrect),
			r.ExpectedDisease,
			r.PredictedDisease,
			strconv.FormatFloat(r.Confidence, 'f', 2, 64),
			r.TrustLabel,
			r.Reasoning,
			strconv.FormatFloat(r.VisualSeverity, 'f', 1, 64),
			strconv.FormatFloat(r.ExpectedMinSeverity, 'f', 1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
