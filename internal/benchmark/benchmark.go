// Package benchmark scores the vision stage against a labeled image set.
// Each image is analyzed on its own, without history, weather, or
// retrieval, and the prediction is compared to the expected disease by
// substring match with an LLM judge as fallback.
package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/floracare/internal/prompts"
	"github.com/JaimeStill/floracare/internal/workflow"
	"github.com/JaimeStill/floracare/pkg/formatting"
	"github.com/JaimeStill/floracare/pkg/imaging"
)

// Trust labels.
const (
	TrustHigh   = "HIGH"
	TrustMedium = "MEDIUM"
	TrustLow    = "LOW"
	TrustError  = "ERROR"
)

// Unknown is the prediction reported when the analysis names neither a
// disease nor a symptom.
const Unknown = "Unknown"

// Case is one labeled benchmark image.
type Case struct {
	Filename            string
	ExpectedDisease     string
	ExpectedMinSeverity float64
}

// Result is the scored outcome for one case.
type Result struct {
	Filename            string
	IsCorrect           bool
	Judged              bool
	ExpectedDisease     string
	PredictedDisease    string
	Confidence          float64
	TrustLabel          string
	Reasoning           string
	VisualSeverity      float64
	ExpectedMinSeverity float64
}

// Summary aggregates a benchmark run. Percentages are in 0..100.
type Summary struct {
	Total          int
	Correct        int
	Accuracy       float64
	AvgConfidence  float64
	MacroPrecision float64
	MacroRecall    float64
	Duration       time.Duration
}

// Report is the full output of Run.
type Report struct {
	Results []Result
	Summary Summary
}

// Runner scores cases against a vision model and an LLM judge.
type Runner struct {
	Vision      workflow.VisionModel
	Judge       workflow.ReasoningModel
	Images      workflow.ImageLoader
	Prompts     prompts.Source
	MaxObjects  int
	Concurrency int
	Logger      *slog.Logger

	// Enhance runs imaging.Enhance on each image before analysis.
	// Images that cannot be enhanced are analyzed as loaded.
	Enhance bool
}

// TrustLabel buckets a confidence: HIGH above 0.85, MEDIUM above 0.6, else LOW.
func TrustLabel(confidence float64) string {
	switch {
	case confidence > 0.85:
		return TrustHigh
	case confidence > 0.6:
		return TrustMedium
	default:
		return TrustLow
	}
}

// Predicted returns the analysis's diagnosed disease, falling back to the
// first visual symptom and then Unknown.
func Predicted(a *workflow.ImageAnalysis) string {
	if a.DiagnosedDisease != nil && strings.TrimSpace(*a.DiagnosedDisease) != "" {
		return *a.DiagnosedDisease
	}
	if len(a.VisualSymptoms) > 0 {
		return a.VisualSymptoms[0]
	}
	return Unknown
}

// Matches reports whether the expected disease appears in the prediction,
// ignoring case and, as a second attempt, spaces.
func Matches(expected, predicted string) bool {
	exp := strings.ToLower(strings.TrimSpace(expected))
	pred := strings.ToLower(predicted)
	if exp == "" {
		return false
	}
	if strings.Contains(pred, exp) {
		return true
	}
	return strings.Contains(
		strings.ReplaceAll(pred, " ", ""),
		strings.ReplaceAll(exp, " ", ""),
	)
}

// Run analyzes every case found under imagesDir. Per-case failures are
// recorded as ERROR results and never abort the run; only context
// cancellation does.
func (r *Runner) Run(ctx context.Context, cases []Case, imagesDir string) (*Report, error) {
	start := time.Now()
	results := make([]Result, len(cases))

	limit := r.Concurrency
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	done := 0

	for i, c := range cases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.score(gctx, c, filepath.Join(imagesDir, c.Filename))

			mu.Lock()
			done++
			r.Logger.InfoContext(
				gctx, "benchmark case scored",
				"file", c.Filename,
				"correct", results[i].IsCorrect,
				"predicted", results[i].PredictedDisease,
				"progress", fmt.Sprintf("%d/%d", done, len(cases)),
			)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := Summarize(results)
	summary.Duration = time.Since(start)

	return &Report{Results: results, Summary: summary}, nil
}

func (r *Runner) score(ctx context.Context, c Case, path string) Result {
	res := Result{
		Filename:            c.Filename,
		ExpectedDisease:     c.ExpectedDisease,
		ExpectedMinSeverity: c.ExpectedMinSeverity,
	}

	opts := workflow.DefaultOptions()
	if r.MaxObjects > 0 {
		opts.MaxObjects = r.MaxObjects
	}

	var images workflow.ImageLoader = r.Images
	if r.Enhance {
		images = enhancedLoader{next: r.Images, logger: r.Logger}
	}

	rt := &workflow.Runtime{
		Vision:  r.Vision,
		Images:  images,
		Prompts: r.Prompts,
		Options: opts,
		Logger:  r.Logger,
	}

	analyzed, err := workflow.Analyze(ctx, rt, workflow.Request{ImagePath: path})
	if err != nil {
		res.PredictedDisease = "Error"
		res.TrustLabel = TrustError
		res.Reasoning = err.Error()
		return res
	}

	a := analyzed.Analysis
	res.PredictedDisease = Predicted(a)
	res.Confidence = a.Confidence
	res.TrustLabel = TrustLabel(a.Confidence)
	res.Reasoning = a.Description
	if a.SeverityScore != nil {
		res.VisualSeverity = *a.SeverityScore
	}

	if Matches(c.ExpectedDisease, res.PredictedDisease) {
		res.IsCorrect = true
		return res
	}

	res.Judged = true
	res.IsCorrect = r.judge(ctx, c.ExpectedDisease, res.PredictedDisease, res.Reasoning)
	return res
}

type verdict struct {
	IsCorrect bool `json:"is_correct"`
}

// judge asks the reasoning model whether predicted matches expected.
// Any failure counts as incorrect.
func (r *Runner) judge(ctx context.Context, expected, predicted, reasoning string) bool {
	if r.Judge == nil {
		return false
	}

	prompt, err := prompts.Compose(
		ctx, r.Prompts, prompts.StageJudge,
		fmt.Sprintf("EXPECTED: %q\nPREDICTED: %q\nREASONING: %q", expected, predicted, reasoning),
	)
	if err != nil {
		r.Logger.WarnContext(ctx, "judge prompt failed", "error", err)
		return false
	}

	text, err := r.Judge.Chat(ctx, prompt)
	if err != nil {
		r.Logger.WarnContext(ctx, "judge call failed", "error", err)
		return false
	}

	v, err := formatting.Parse[verdict](text)
	if err != nil {
		r.Logger.WarnContext(ctx, "judge verdict unparseable", "error", err)
		return false
	}
	return v.IsCorrect
}

// Summarize computes accuracy, mean confidence, and macro precision and
// recall over the expected classes. A correct result counts as a
// prediction of its expected class.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	if s.Total == 0 {
		return s
	}

	var confidence float64
	truth := make([]string, len(results))
	pred := make([]string, len(results))
	classes := map[string]struct{}{}

	for i, r := range results {
		confidence += r.Confidence
		truth[i] = r.ExpectedDisease
		pred[i] = r.PredictedDisease
		if r.IsCorrect {
			s.Correct++
			pred[i] = r.ExpectedDisease
		}
		classes[r.ExpectedDisease] = struct{}{}
	}

	s.Accuracy = float64(s.Correct) / float64(s.Total) * 100
	s.AvgConfidence = confidence / float64(s.Total)

	var precision, recall float64
	for cls := range classes {
		var tp, fp, fn int
		for i := range truth {
			switch {
			case truth[i] == cls && pred[i] == cls:
				tp++
			case truth[i] != cls && pred[i] == cls:
				fp++
			case truth[i] == cls && pred[i] != cls:
				fn++
			}
		}
		if tp+fp > 0 {
			precision += float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			recall += float64(tp) / float64(tp+fn)
		}
	}

	s.MacroPrecision = precision / float64(len(classes)) * 100
	s.MacroRecall = recall / float64(len(classes)) * 100
	return s
}

type enhancedLoader struct {
	next   workflow.ImageLoader
	logger *slog.Logger
}

func (l enhancedLoader) Load(ctx context.Context, path string) ([]byte, error) {
	data, err := l.next.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	enhanced, err := imaging.Enhance(data)
	if err != nil {
		l.logger.WarnContext(ctx, "image enhancement failed", "file", path, "error", err)
		return data, nil
	}
	return enhanced, nil
}
