package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/MeKo-Tech/undertone/internal/batch"
	"github.com/MeKo-Tech/undertone/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var batchCmd = &cobra.Command{
	Use:   "batch [images...]",
	Short: "Classify a set of images and compare against expected labels",
	Long: `Classify many still images in parallel.

Images come from a CSV manifest (--manifest, columns "path,expected"), from
the command line, or from the batch.images list in the config file. Images
given by path use their file name as the expected label when it is one
(warm.jpg, cool.png, neutral.jpeg).`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("manifest", "", "CSV manifest with path,expected columns")
	batchCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	batchCmd.Flags().String("report", "", "Write a CSV report to this file (\"-\" for stdout)")
	batchCmd.Flags().String("annotate-dir", "", "Write annotated copies of the images into this directory")
	batchCmd.Flags().Bool("progress", true, "Show progress bar")
	batchCmd.Flags().Bool("strict", false, "Exit with an error if any image fails or does not match")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"batch.manifest", "manifest"},
		{"batch.workers", "workers"},
		{"batch.report", "report"},
		{"batch.annotate_dir", "annotate-dir"},
		{"batch.progress", "progress"},
		{"batch.strict", "strict"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, batchCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	manifest := viper.GetString("batch.manifest")
	workers := viper.GetInt("batch.workers")
	reportPath := viper.GetString("batch.report")
	annotateDir := viper.GetString("batch.annotate_dir")
	showProgress := viper.GetBool("batch.progress")
	strict := viper.GetBool("batch.strict")
	configured := viper.GetStringSlice("batch.images")

	if logger == nil {
		initLogging()
	}

	entries, err := resolveEntries(manifest, args, configured)
	if err != nil {
		return err
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("Starting batch analysis", "images", len(entries), "workers", workers)

	progress := worker.NewProgress(len(entries), showProgress)
	runner := &batch.Runner{
		Workers:     workers,
		AnnotateDir: annotateDir,
		OnProgress:  progress.Callback(),
		Logger:      logger,
	}

	report, err := runner.Run(ctx, entries)
	progress.Done()
	if err != nil && !errors.Is(err, ctx.Err()) {
		return err
	}

	out := cmd.OutOrStdout()
	printRows(out, report)
	logger.Info(progress.Summary())
	fmt.Fprintln(out, report.Summary())

	if reportPath != "" {
		if err := writeReport(out, reportPath, report); err != nil {
			return err
		}
	}

	if ctx.Err() != nil {
		return fmt.Errorf("batch interrupted: %w", ctx.Err())
	}
	if strict && report.Mismatched()+report.Failed() > 0 {
		return fmt.Errorf("%d of %d images failed or did not match", report.Mismatched()+report.Failed(), len(report.Rows))
	}
	return nil
}

// resolveEntries picks the image list: a manifest wins over arguments,
// which win over the configured list.
func resolveEntries(manifest string, args, configured []string) ([]batch.Entry, error) {
	switch {
	case manifest != "":
		if len(args) > 0 {
			return nil, errors.New("use either --manifest or image arguments, not both")
		}
		return batch.LoadManifestFile(manifest)
	case len(args) > 0:
		return batch.EntriesFromPaths(args), nil
	case len(configured) > 0:
		return batch.EntriesFromPaths(configured), nil
	}
	return nil, errors.New("no images given: pass image paths, --manifest, or set batch.images in the config")
}

func printRows(w io.Writer, report batch.Report) {
	for _, row := range report.Rows {
		fmt.Fprintf(w, "\nResult for %s:\n", filepath.Base(row.Path))
		if row.Expected != "" {
			fmt.Fprintf(w, "Expected: %s\n", row.Expected)
		}
		fmt.Fprintf(w, "Detected: %s\n", row.Detected)
		if row.Error != "" {
			fmt.Fprintf(w, "Error: %s\n", row.Error)
		}
	}
	fmt.Fprintln(w)
}

func writeReport(stdout io.Writer, path string, report batch.Report) error {
	if path == "-" {
		return report.WriteCSV(stdout)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := report.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	logger.Info("Report written", "path", path)
	return nil
}
