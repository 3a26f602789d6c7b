package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/floracare/internal/benchmark"
	"github.com/JaimeStill/floracare/pkg/imaging"
)

func newBenchmarkCmd() *cobra.Command {
	var (
		truthPath   string
		imagesDir   string
		outPath     string
		concurrency int
		enhance     bool
	)

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Score the vision stage against a labelled image set",
		Long: `Run the vision stage on every image listed in a ground-truth CSV
(columns filename, expected_disease, expected_min_severity), judge each
prediction against its label, and write per-image results to a CSV.`,
		Example: `  floracare benchmark
  floracare benchmark --ground-truth labels.csv --images ./leaves --concurrency 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(truthPath)
			if err != nil {
				return fmt.Errorf("open ground truth: %w", err)
			}
			cases, err := benchmark.ReadCases(f)
			f.Close()
			if err != nil {
				return err
			}

			s, err := openModels(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			runner := &benchmark.Runner{
				Vision:      s.infra.Models,
				Judge:       s.infra.Models,
				Images:      imaging.FileLoader{},
				Prompts:     s.prompts,
				MaxObjects:  s.cfg.Pipeline.MaxObjects,
				Concurrency: concurrency,
				Logger:      s.logger.With("system", "benchmark"),
				Enhance:     enhance,
			}

			report, err := runner.Run(ctx, cases, imagesDir)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return err
			}
			out, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := benchmark.WriteResults(out, report.Results); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			sum := report.Summary
			fmt.Fprintf(w, "Results saved to %s\n\n", outPath)
			fmt.Fprintf(w, "Images:          %d\n", sum.Total)
			fmt.Fprintf(w, "Accuracy:        %.2f%%\n", sum.Accuracy)
			fmt.Fprintf(w, "Avg confidence:  %.2f\n", sum.AvgConfidence)
			fmt.Fprintf(w, "Macro precision: %.1f%%\n", sum.MacroPrecision)
			fmt.Fprintf(w, "Macro recall:    %.1f%%\n", sum.MacroRecall)
			fmt.Fprintf(w, "Elapsed:         %s\n", sum.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&truthPath, "ground-truth", "tests/benchmark_ground_truth.csv", "Ground-truth CSV")
	cmd.Flags().StringVar(&imagesDir, "images", "data/test_images", "Directory holding the listed images")
	cmd.Flags().StringVarP(&outPath, "out", "o", "data/benchmark_results.csv", "Where to write per-image results")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "Images scored in parallel")
	cmd.Flags().BoolVar(&enhance, "enhance", true, "Denoise, contrast-equalize and vignette each image before analysis")

	return cmd
}
