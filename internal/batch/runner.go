package batch

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/undertone/internal/acquire"
	"github.com/MeKo-Tech/undertone/internal/imageio"
	"github.com/MeKo-Tech/undertone/internal/overlay"
	"github.com/MeKo-Tech/undertone/internal/pipeline"
	"github.com/MeKo-Tech/undertone/internal/undertone"
	"github.com/MeKo-Tech/undertone/internal/worker"
	"github.com/jszwec/csvutil"
)

// Row statuses.
const (
	StatusMatch     = "match"
	StatusMismatch  = "mismatch"
	StatusUnlabeled = "unlabeled"
	StatusFailed    = "failed"
)

// Row is the result for one entry.
type Row struct {
	Path      string  `csv:"path"`
	Expected  string  `csv:"expected"`
	Detected  string  `csv:"detected"`
	Status    string  `csv:"status"`
	MeanGR    float64 `csv:"mean_gr"`
	MeanBY    float64 `csv:"mean_by"`
	Diff      float64 `csv:"diff"`
	Ratio     float64 `csv:"ratio"`
	Samples   int     `csv:"samples"`
	FrameGR   float64 `csv:"frame_a"`
	FrameBY   float64 `csv:"frame_b"`
	Annotated string  `csv:"annotated,omitempty"`
	Error     string  `csv:"error,omitempty"`
}

// Report collects rows in entry order.
type Report struct {
	Rows []Row
}

func (r Report) count(status string) int {
	n := 0
	for _, row := range r.Rows {
		if row.Status == status {
			n++
		}
	}
	return n
}

// Matched returns the number of rows whose detected label was expected.
func (r Report) Matched() int { return r.count(StatusMatch) }

// Mismatched returns the number of labeled rows detected differently.
func (r Report) Mismatched() int { return r.count(StatusMismatch) }

// Unlabeled returns the number of rows without an expected label.
func (r Report) Unlabeled() int { return r.count(StatusUnlabeled) }

// Failed returns the number of rows that produced no classification.
func (r Report) Failed() int { return r.count(StatusFailed) }

// Summary is a one-line tally.
func (r Report) Summary() string {
	return fmt.Sprintf("%d images: %d matched, %d mismatched, %d unlabeled, %d failed",
		len(r.Rows), r.Matched(), r.Mismatched(), r.Unlabeled(), r.Failed())
}

// WriteCSV writes the rows with a header line.
func (r Report) WriteCSV(w io.Writer) error {
	rows := r.Rows
	if rows == nil {
		rows = []Row{}
	}
	b, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Runner classifies entries on a worker pool.
type Runner struct {
	// Analyzer defaults to pipeline.NewAnalyzer(Logger).
	Analyzer acquire.Analyzer
	Workers  int
	// AnnotateDir, when set, receives a copy of every readable image with
	// the comparison banner drawn on it.
	AnnotateDir string
	OnProgress  worker.ProgressFunc
	// Load decodes images; imageio.Load when nil.
	Load   func(path string) (image.Image, error)
	Logger *slog.Logger
}

// Run classifies every entry. Unreadable images become failed rows and
// the run continues. An invalid expected label aborts before any image is
// read. When ctx is cancelled the partial report is returned with ctx.Err().
func (r *Runner) Run(ctx context.Context, entries []Entry) (Report, error) {
	tasks := make([]worker.Task, len(entries))
	for i, e := range entries {
		label, ok, err := e.ExpectedLabel()
		if err != nil {
			return Report{}, fmt.Errorf("%s: %w", e.Path, err)
		}
		tasks[i] = worker.Task{Index: i, Path: e.Path, Expected: label, HasLabel: ok}
	}

	analyzer := r.Analyzer
	if analyzer == nil {
		analyzer = pipeline.NewAnalyzer(r.Logger)
	}

	annotated := make([]string, len(tasks))
	pool := worker.New(worker.Config{
		Workers:    r.Workers,
		OnProgress: r.OnProgress,
		Processor: worker.ProcessorFunc(func(ctx context.Context, task worker.Task) (pipeline.Outcome, error) {
			frame, outcome, err := acquire.Once(ctx, acquire.StillImage{Path: task.Path, Load: r.Load}, analyzer)
			if err != nil {
				return outcome, err
			}
			if r.AnnotateDir != "" {
				out, err := r.annotate(frame, task, outcome)
				if err != nil {
					r.log().Warn("Failed to write annotated image", "path", task.Path, "error", err)
				} else {
					annotated[task.Index] = out
				}
			}
			return outcome, nil
		}),
	})

	results := pool.Run(ctx, tasks)

	report := Report{Rows: make([]Row, len(results))}
	for i, res := range results {
		report.Rows[i] = r.row(res)
		report.Rows[i].Annotated = annotated[i]
	}

	return report, ctx.Err()
}

func (r *Runner) row(res worker.Result) Row {
	row := Row{Path: res.Task.Path}
	if res.Task.HasLabel {
		row.Expected = res.Task.Expected.String()
	}

	if res.Failed() {
		row.Detected = undertone.Error.String()
		row.Status = StatusFailed
		if res.Err != nil {
			row.Error = res.Err.Error()
		} else {
			row.Error = res.Outcome.Fault.Error()
		}
		r.log().Warn("Image analysis failed", "path", res.Task.Path, "error", row.Error)
		return row
	}

	o := res.Outcome
	row.Detected = o.Label.String()
	row.MeanGR = o.Summary.MeanGR
	row.MeanBY = o.Summary.MeanBY
	row.Diff = o.Summary.Diff()
	row.Ratio = o.Summary.Ratio()
	row.Samples = o.Summary.SampleCount
	row.FrameGR = o.FrameMeans.GR
	row.FrameBY = o.FrameMeans.BY

	switch {
	case !res.Task.HasLabel:
		row.Status = StatusUnlabeled
	case res.Task.Expected == o.Label:
		row.Status = StatusMatch
	default:
		row.Status = StatusMismatch
	}

	r.log().Debug("Image classified", "path", row.Path, "expected", row.Expected,
		"detected", row.Detected, "elapsed", res.Elapsed)
	return row
}

func (r *Runner) annotate(frame image.Image, task worker.Task, o pipeline.Outcome) (string, error) {
	line := overlay.LabelLine(o.Label)
	if task.HasLabel {
		line = overlay.ComparisonLine(task.Expected, o.Label, o.FrameMeans)
	}

	base := filepath.Base(task.Path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	out := filepath.Join(r.AnnotateDir, stem+"_annotated.png")

	if err := imageio.Save(out, overlay.Annotate(frame, line)); err != nil {
		return "", err
	}
	return out, nil
}

func (r *Runner) log() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
