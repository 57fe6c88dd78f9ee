// Package worker analyzes independent still images on a bounded pool of
// goroutines.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/MeKo-Tech/undertone/internal/pipeline"
	"github.com/MeKo-Tech/undertone/internal/undertone"
)

// Processor analyzes a single task. It must be safe for concurrent use.
type Processor interface {
	Process(ctx context.Context, task Task) (pipeline.Outcome, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, task Task) (pipeline.Outcome, error)

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, task Task) (pipeline.Outcome, error) {
	return f(ctx, task)
}

// Task is one image to analyze.
type Task struct {
	Index    int // caller-assigned position, passed through untouched
	Path     string
	Expected undertone.Label
	HasLabel bool // Expected is meaningful
}

// Result is the outcome of a task. Err is set when the image could not be
// acquired; analysis faults are carried in Outcome.
type Result struct {
	Task    Task
	Outcome pipeline.Outcome
	Err     error
	Elapsed time.Duration
}

// Failed reports whether the task produced no classification.
func (r Result) Failed() bool {
	return r.Err != nil || !r.Outcome.OK()
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Processor  Processor
	OnProgress ProgressFunc
}

// Pool runs tasks in parallel.
type Pool struct {
	workers    int
	processor  Processor
	onProgress ProgressFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		processor:  cfg.Processor,
		onProgress: cfg.OnProgress,
	}
}

type indexed struct {
	index  int
	result Result
}

// Run executes all tasks and blocks until they finish or ctx is cancelled.
// Results are returned in task order; tasks never started because of
// cancellation carry ctx.Err().
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	indexCh := make(chan int, len(tasks))
	resultCh := make(chan indexed, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, tasks, indexCh, resultCh)
		}()
	}

	go func() {
		defer close(indexCh)
		for i := range tasks {
			select {
			case indexCh <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := make([]Result, len(tasks))
	seen := make([]bool, len(tasks))
	done := make(chan struct{})

	go func() {
		var completed, failed int
		for r := range resultCh {
			results[r.index] = r.result
			seen[r.index] = true

			completed++
			if r.result.Failed() {
				failed++
			}
			if p.onProgress != nil {
				p.onProgress(completed, len(tasks), failed)
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)
	<-done

	for i, ok := range seen {
		if !ok {
			results[i] = Result{Task: tasks[i], Err: ctx.Err()}
		}
	}

	return results
}

func (p *Pool) worker(ctx context.Context, tasks []Task, indexes <-chan int, results chan<- indexed) {
	for i := range indexes {
		task := tasks[i]

		select {
		case <-ctx.Done():
			results <- indexed{index: i, result: Result{Task: task, Err: ctx.Err()}}
			continue
		default:
		}

		start := time.Now()
		outcome, err := p.processor.Process(ctx, task)

		results <- indexed{index: i, result: Result{
			Task:    task,
			Outcome: outcome,
			Err:     err,
			Elapsed: time.Since(start),
		}}
	}
}
