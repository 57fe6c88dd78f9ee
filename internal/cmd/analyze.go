package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/MeKo-Tech/undertone/internal/acquire"
	"github.com/MeKo-Tech/undertone/internal/batch"
	"github.com/MeKo-Tech/undertone/internal/imageio"
	"github.com/MeKo-Tech/undertone/internal/overlay"
	"github.com/MeKo-Tech/undertone/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Classify a single image",
	Long: `Classify the undertone of one still image.

When the file name is a label (warm.jpg, cool.png, ...) it is reported as
the expected result next to the detected one. --expected overrides the
label taken from the file name.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("annotate", "", "Write a copy of the image with the result drawn on it")
	analyzeCmd.Flags().String("expected", "", "Expected label (WARM, COOL, NEUTRAL, NO_SKIN); defaults to the file name")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"analyze.annotate", "annotate"},
		{"analyze.expected", "expected"},
	}
	for _, b := range bindFlags {
		if err := viper.BindPFlag(b.key, analyzeCmd.Flags().Lookup(b.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	annotatePath := viper.GetString("analyze.annotate")

	if logger == nil {
		initLogging()
	}

	path := args[0]
	entry := batch.EntriesFromPaths([]string{path})[0]
	if override := viper.GetString("analyze.expected"); override != "" {
		entry.Expected = override
	}
	expected, hasExpected, err := entry.ExpectedLabel()
	if err != nil {
		return fmt.Errorf("invalid expected label: %w", err)
	}

	frame, outcome, err := acquire.Once(cmd.Context(), acquire.StillImage{Path: path}, pipeline.NewAnalyzer(logger))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nResult for %s:\n", filepath.Base(path))
	if hasExpected {
		fmt.Fprintf(out, "Expected: %s\n", expected)
	}
	fmt.Fprintf(out, "Detected: %s\n", outcome.Label)
	printDiagnostics(out, outcome)

	if annotatePath != "" {
		line := overlay.LabelLine(outcome.Label)
		if hasExpected {
			line = overlay.ComparisonLine(expected, outcome.Label, outcome.FrameMeans)
		}
		if err := imageio.Save(annotatePath, overlay.Annotate(frame, line)); err != nil {
			return fmt.Errorf("failed to write annotated image: %w", err)
		}
		logger.Info("Annotated image written", "path", annotatePath)
	}

	if !outcome.OK() {
		return fmt.Errorf("analysis failed: %w", outcome.Fault)
	}
	return nil
}

func printDiagnostics(w io.Writer, o pipeline.Outcome) {
	if !o.OK() {
		fmt.Fprintf(w, "Error: %v\n", o.Fault)
		return
	}
	s := o.Summary
	fmt.Fprintf(w, "Skin a*/b*: %.1f/%.1f (diff %.1f, ratio %.3f, %d of %d skin pixels)\n",
		s.MeanGR, s.MeanBY, s.Diff(), s.Ratio(), s.SampleCount, s.MaskedCount)
	fmt.Fprintf(w, "Frame a*/b*: %.1f/%.1f\n", o.FrameMeans.GR, o.FrameMeans.BY)
}
