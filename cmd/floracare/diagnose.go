package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/floracare/internal/workflow"
	"github.com/JaimeStill/floracare/pkg/imaging"
)

func newDiagnoseCmd() *cobra.Command {
	var (
		req        workflow.Request
		jsonOutput bool
		annotate   string
	)

	cmd := &cobra.Command{
		Use:   "diagnose <image>",
		Short: "Diagnose a leaf image",
		Example: `  floracare diagnose leaf.jpg
  floracare diagnose leaf.jpg --plant Tom --query "Is it spreading?"
  floracare diagnose leaf.jpg --annotate boxes.png --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			req.ImagePath = path
			return runDiagnose(cmd, req, jsonOutput, annotate)
		},
	}

	cmd.Flags().StringVarP(&req.PlantName, "plant", "p", "", "Track the diagnosis under this plant name")
	cmd.Flags().StringVarP(&req.Location, "location", "l", "", "Free-text location for the weather lookup")
	cmd.Flags().StringVarP(&req.UserQuery, "query", "q", "", "Question to answer alongside the diagnosis")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Print the full report as JSON")
	cmd.Flags().StringVar(&annotate, "annotate", "", "Write the image with detected regions outlined to this path")

	return cmd
}

func runDiagnose(cmd *cobra.Command, req workflow.Request, jsonOutput bool, annotate string) error {
	ctx := cmd.Context()

	s, err := openModels(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := workflow.Execute(ctx, s.pipeline(), req)
	if err != nil {
		return err
	}

	if annotate != "" {
		if err := writeAnnotated(req.ImagePath, annotate, report.Analysis); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(out, report)
	return nil
}

func writeAnnotated(src, dst string, analysis *workflow.ImageAnalysis) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	annotated, _, err := imaging.Annotate(data, analysis.Boxes())
	if err != nil {
		return fmt.Errorf("annotate image: %w", err)
	}

	return os.WriteFile(dst, annotated, 0o644)
}

func printReport(w io.Writer, r *workflow.DiagnosisReport) {
	fmt.Fprintf(w, "Plant:      %s\n", r.Analysis.PlantType)
	fmt.Fprintf(w, "Diagnosis:  %s\n", r.Diagnosis)
	fmt.Fprintf(w, "Confidence: %.2f\n", r.Analysis.Confidence)

	if r.WeatherContext != nil {
		fmt.Fprintf(w, "Weather:    %s (%s)\n", r.WeatherContext.Summary(), r.WeatherContext.Location)
	}

	if len(r.TreatmentPlan) > 0 {
		fmt.Fprintln(w, "\nTreatment plan:")
		for i, step := range r.TreatmentPlan {
			fmt.Fprintf(w, "  %d. %s\n", i+1, step)
		}
	}

	if r.UserQueryAnswer != nil {
		fmt.Fprintf(w, "\nAnswer: %s\n", *r.UserQueryAnswer)
	}

	if len(r.RelevantKnowledge) > 0 {
		fmt.Fprintf(w, "\nSources: %s\n", strings.Join(r.RelevantKnowledge, "; "))
	}
}
