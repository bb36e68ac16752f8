package worker

import (
	"context"
	"fmt"
	"io"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/yuya-takeyama/checklfs/pkg/pointer"
	"github.com/yuya-takeyama/checklfs/pkg/store"
	"github.com/yuya-takeyama/checklfs/pkg/verify"
)

// Job is one candidate to classify and verify
type Job struct {
	Index int
	Path  string                        // Slash separated path used in reports
	Size  int64                         // Content size, known before opening
	Open  func() (io.ReadCloser, error) // Opens the candidate content
	Err   error                         // Discovery error, recorded as-is
}

// Result represents the result of one job
type Result struct {
	Job     Job
	Outcome verify.Outcome
}

// Pool manages concurrent workers
type Pool struct {
	locator     store.Locator
	checker     *verify.Checker
	concurrency int
}

// NewPool creates a new worker pool
func NewPool(locator store.Locator, checker *verify.Checker, concurrency int) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pool{
		locator:     locator,
		checker:     checker,
		concurrency: concurrency,
	}
}

// Concurrency returns the number of workers
func (p *Pool) Concurrency() int {
	return p.concurrency
}

// Run processes jobs until the channel is closed or ctx is done. Results are
// sent in completion order. Run does not close results.
func (p *Pool) Run(ctx context.Context, jobs <-chan Job, results chan<- Result) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.concurrency; i++ {
		g.Go(func() error {
			return p.worker(ctx, jobs, results)
		})
	}
	return g.Wait()
}

// Execute runs all jobs and returns results in job order
func (p *Pool) Execute(ctx context.Context, items []Job) ([]Result, error) {
	jobs := make(chan Job, len(items))
	results := make(chan Result, len(items))

	// Send jobs
	for i, item := range items {
		item.Index = i
		jobs <- item
	}
	close(jobs)

	if err := p.Run(ctx, jobs, results); err != nil {
		return nil, err
	}
	close(results)

	// Collect results
	allResults := make([]Result, 0, len(items))
	for result := range results {
		allResults = append(allResults, result)
	}
	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].Job.Index < allResults[j].Job.Index
	})

	return allResults, nil
}

// worker processes jobs
func (p *Pool) worker(ctx context.Context, jobs <-chan Job, results chan<- Result) error {
	for {
		var job Job
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job, ok = <-jobs:
			if !ok {
				return nil
			}
		}

		result := Result{Job: job, Outcome: p.process(ctx, job)}
		if err := ctx.Err(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case results <- result:
		}
	}
}

// process handles one candidate: read, decode, locate, check
func (p *Pool) process(ctx context.Context, job Job) verify.Outcome {
	if job.Err != nil {
		return verify.Error(job.Err)
	}
	// too large for a pointer, no need to open it
	if job.Size > pointer.MaxSize {
		return verify.NotTracked()
	}

	rc, err := job.Open()
	if err != nil {
		return verify.Error(fmt.Errorf("open: %w", err))
	}
	data, err := verify.ReadCandidate(rc)
	rc.Close()
	if err != nil {
		return verify.Error(fmt.Errorf("read: %w", err))
	}

	return verify.Verify(ctx, data, p.locator, p.checker)
}
