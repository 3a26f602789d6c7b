package benchmark_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"

	"github.com/JaimeStill/floracare/internal/benchmark"
	"github.com/JaimeStill/floracare/internal/prompts"
	"github.com/JaimeStill/floracare/internal/workflow"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTrustLabel(t *testing.T) {
	tests := []struct {
		confidence float64
		want       string
	}{
		{0.95, benchmark.TrustHigh},
		{0.86, benchmark.TrustHigh},
		{0.85, benchmark.TrustMedium},
		{0.61, benchmark.TrustMedium},
		{0.6, benchmark.TrustLow},
		{0, benchmark.TrustLow},
	}

	for _, tt := range tests {
		if got := benchmark.TrustLabel(tt.confidence); got != tt.want {
			t.Errorf("TrustLabel(%v) = %s, want %s", tt.confidence, got, tt.want)
		}
	}
}

func TestPredicted(t *testing.T) {
	disease := "Late Blight"
	blank := "  "

	tests := []struct {
		name     string
		analysis workflow.ImageAnalysis
		want     string
	}{
		{"disease", workflow.ImageAnalysis{DiagnosedDisease: &disease, VisualSymptoms: []string{"spots"}}, "Late Blight"},
		{"first symptom", workflow.ImageAnalysis{DiagnosedDisease: &blank, VisualSymptoms: []string{"rust pustules", "wilting"}}, "rust pustules"},
		{"unknown", workflow.ImageAnalysis{VisualSymptoms: []string{}}, benchmark.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := benchmark.Predicted(&tt.analysis); got != tt.want {
				t.Errorf("Predicted() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		expected, predicted string
		want                bool
	}{
		{"Early Blight", "Tomato early blight", true},
		{"Powdery Mildew", "powderymildew", true},
		{"Leaf Spot", "Septoria Leaf  Spot", true},
		{"Rust", "Early Blight", false},
		{"", "anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.expected+"/"+tt.predicted, func(t *testing.T) {
			if got := benchmark.Matches(tt.expected, tt.predicted); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.expected, tt.predicted, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	results := []benchmark.Result{
		{ExpectedDisease: "Blight", PredictedDisease: "Early Blight", IsCorrect: true, Confidence: 0.9},
		{ExpectedDisease: "Blight", PredictedDisease: "Rust", Confidence: 0.5},
		{ExpectedDisease: "Rust", PredictedDisease: "Rust", IsCorrect: true, Confidence: 0.7},
		{ExpectedDisease: "Healthy", PredictedDisease: "Unknown", Confidence: 0.3},
	}

	got := benchmark.Summarize(results)

	// Blight: tp=1 fp=0 fn=1 -> p=1, r=0.5
	// Rust: tp=1 fp=1 fn=0 -> p=0.5, r=1
	// Healthy: tp=0 fp=0 fn=1 -> p=0, r=0
	want := benchmark.Summary{
		Total:          4,
		Correct:        2,
		Accuracy:       50,
		AvgConfidence:  0.6,
		MacroPrecision: 50,
		MacroRecall:    50,
	}

	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	if empty := benchmark.Summarize(nil); empty.Total != 0 || math.IsNaN(empty.Accuracy) {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestReadCases(t *testing.T) {
	input := "expected_disease, filename, expected_min_severity\nEarly Blight, tomato_1.jpg, 4\nHealthy,basil.png,0\n"

	cases, err := benchmark.ReadCases(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCases() error = %v", err)
	}

	want := []benchmark.Case{
		{Filename: "tomato_1.jpg", ExpectedDisease: "Early Blight", ExpectedMinSeverity: 4},
		{Filename: "basil.png", ExpectedDisease: "Healthy", ExpectedMinSeverity: 0},
	}
	if diff := cmp.Diff(want, cases); diff != "" {
		t.Errorf("cases mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCasesInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing column", "filename,expected_disease\na.jpg,Rust\n"},
		{"bad severity", "filename,expected_disease,expected_min_severity\na.jpg,Rust,high\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := benchmark.ReadCases(strings.NewReader(tt.input))
			if !errors.Is(err, benchmark.ErrInvalidGroundTruth) {
				t.Errorf("error = %v, want ErrInvalidGroundTruth", err)
			}
		})
	}
}

func TestWriteResults(t *testing.T) {
	var buf bytes.Buffer
	err := benchmark.WriteResults(&buf, []benchmark.Result{{
		Filename:            "a.jpg",
		IsCorrect:           true,
		ExpectedDisease:     "Rust",
		PredictedDisease:    "Leaf Rust",
		Confidence:          0.9,
		TrustLabel:          benchmark.TrustHigh,
		Reasoning:           "Orange pustules, scattered",
		VisualSeverity:      5,
		ExpectedMinSeverity: 3,
	}})
	if err != nil {
		t.Fatalf("WriteResults() error = %v", err)
	}

	want := "filename,is_correct,expected_disease,predicted_disease,confidence_score,trust_label,reasoning,visual_severity_score,expected_min_severity\n" +
		"a.jpg,true,Rust,Leaf Rust,0.90,HIGH,\"Orange pustules, scattered\",5.0,3.0\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

type imageLoader struct {
	data []byte
}

func (l imageLoader) Load(_ context.Context, path string) ([]byte, error) {
	if strings.Contains(path, "missing") {
		return nil, errors.New("no such file")
	}
	return l.data, nil
}

type fixedVision string

func (v fixedVision) Vision(context.Context, string, []byte, string) (string, error) {
	return string(v), nil
}

type judge struct {
	mu      sync.Mutex
	prompts []string
	verdict string
}

func (j *judge) Chat(_ context.Context, prompt string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.prompts = append(j.prompts, prompt)
	return j.verdict, nil
}

func TestRun(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode: %v", err)
	}

	j := &judge{verdict: `{"is_correct": true}`}
	runner := &benchmark.Runner{
		Vision: fixedVision(`{"plant_type": "Wheat", "diagnosed_disease": "Stripe Rust", "visual_symptoms": ["yellow stripes"],
			"confidence": 0.9, "severity_score": 6, "description": "Yellow rust stripes."}`),
		Judge:       j,
		Images:      imageLoader{data: buf.Bytes()},
		Prompts:     prompts.Defaults{},
		Concurrency: 2,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	cases := []benchmark.Case{
		{Filename: "wheat.jpg", ExpectedDisease: "Rust", ExpectedMinSeverity: 3},
		{Filename: "wheat2.jpg", ExpectedDisease: "Yellow Rust", ExpectedMinSeverity: 3},
		{Filename: "missing.jpg", ExpectedDisease: "Rust", ExpectedMinSeverity: 3},
	}

	report, err := runner.Run(context.Background(), cases, filepath.Join("data", "images"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	direct, judged, failed := report.Results[0], report.Results[1], report.Results[2]

	if !direct.IsCorrect || direct.Judged {
		t.Errorf("direct match = %+v, want correct without judge", direct)
	}
	if direct.TrustLabel != benchmark.TrustHigh || direct.VisualSeverity != 6 {
		t.Errorf("direct scoring = %+v", direct)
	}

	if !judged.IsCorrect || !judged.Judged {
		t.Errorf("judged = %+v, want correct via judge", judged)
	}
	if len(j.prompts) != 1 || !strings.Contains(j.prompts[0], `EXPECTED: "Yellow Rust"`) {
		t.Errorf("judge prompts = %v", j.prompts)
	}

	if failed.IsCorrect || failed.TrustLabel != benchmark.TrustError || failed.PredictedDisease != "Error" {
		t.Errorf("failed = %+v, want error result", failed)
	}

	if report.Summary.Total != 3 || report.Summary.Correct != 2 {
		t.Errorf("summary = %+v", report.Summary)
	}
}

type capturingVision struct {
	mu   sync.Mutex
	mime []string
}

func (v *capturingVision) Vision(_ context.Context, _ string, _ []byte, mimeType string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mime = append(v.mime, mimeType)
	return `{"plant_type": "Wheat", "diagnosed_disease": "Stripe Rust", "visual_symptoms": [],
		"confidence": 0.7, "description": "Rust."}`, nil
}

func TestRunEnhance(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16))); err != nil {
		t.Fatalf("encode: %v", err)
	}

	tests := []struct {
		name     string
		enhance  bool
		data     []byte
		wantMIME string
	}{
		{"enhanced to jpeg", true, buf.Bytes(), "image/jpeg"},
		{"disabled keeps png", false, buf.Bytes(), "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vision := &capturingVision{}
			runner := &benchmark.Runner{
				Vision:  vision,
				Judge:   &judge{verdict: `{"is_correct": false}`},
				Images:  imageLoader{data: tt.data},
				Prompts: prompts.Defaults{},
				Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
				Enhance: tt.enhance,
			}

			report, err := runner.Run(context.Background(), []benchmark.Case{{Filename: "wheat.png", ExpectedDisease: "Rust"}}, ".")
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if !report.Results[0].IsCorrect {
				t.Errorf("result = %+v, want correct", report.Results[0])
			}
			if len(vision.mime) != 1 || vision.mime[0] != tt.wantMIME {
				t.Errorf("vision mime = %v, want %s", vision.mime, tt.wantMIME)
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &benchmark.Runner{
		Images:  imageLoader{},
		Prompts: prompts.Defaults{},
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	_, err := runner.Run(ctx, []benchmark.Case{{Filename: "a.jpg"}}, ".")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
