// Package scanner verifies every LFS pointer in a working tree against the
// local object store.
package scanner

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/yuya-takeyama/checklfs/internal/walker"
	"github.com/yuya-takeyama/checklfs/internal/worker"
	"github.com/yuya-takeyama/checklfs/pkg/logger"
	"github.com/yuya-takeyama/checklfs/pkg/report"
	"github.com/yuya-takeyama/checklfs/pkg/store"
	"github.com/yuya-takeyama/checklfs/pkg/verify"
)

const phase = "scan"

// DefaultConcurrency is used when Options.Concurrency is not positive.
const DefaultConcurrency = 8

type Options struct {
	Root      string // Working tree root
	StoreRoot string // LFS object store root, e.g. .git/lfs/objects

	Excludes []string      // doublestar patterns relative to Root
	Filter   walker.Filter // nil means every file is a candidate

	Concurrency int

	// IncludeNotTracked records files that are not pointers in the report.
	IncludeNotTracked bool

	Logger logger.Logger
}

// Scan walks opts.Root and verifies every pointer it finds. Configuration
// problems (unusable root or store) are returned before any file is read.
// Per-file problems are recorded in the report; only a failure of the walk
// itself, or ctx being done, aborts the scan.
func Scan(ctx context.Context, opts Options) (*report.Report, error) {
	w, err := walker.NewWalker(opts.Root, opts.Excludes, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("invalid working tree: %w", err)
	}
	objects, err := store.NewLocal(opts.StoreRoot)
	if err != nil {
		return nil, fmt.Errorf("invalid object store: %w", err)
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	log := opts.Logger
	if log == nil {
		log = &logger.NullLogger{}
	}

	pool := worker.NewPool(objects, verify.NewChecker(objects), concurrency)
	agg := report.NewAggregator()

	jobs := make(chan worker.Job, concurrency*2)
	results := make(chan worker.Result, concurrency*2)

	log.PhaseStart(phase, -1)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		index := 0
		return w.Walk(gctx, func(fi walker.FileInfo) error {
			job := worker.Job{
				Index: index,
				Path:  fi.RelPath,
				Size:  fi.Size,
				Open:  openFile(fi.Path),
				Err:   fi.Err,
			}
			index++

			select {
			case <-gctx.Done():
				return gctx.Err()
			case jobs <- job:
				return nil
			}
		})
	})

	g.Go(func() error {
		defer close(results)
		return pool.Run(gctx, jobs, results)
	})

	processed := 0
	g.Go(func() error {
		for result := range results {
			processed++
			kind := result.Outcome.Kind
			log.ItemProcessed(phase, result.Job.Path, string(kind))
			if kind == verify.KindNotTracked && !opts.IncludeNotTracked {
				continue
			}
			if err := agg.Add(result.Job.Path, result.Outcome); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", w.Root(), err)
	}

	log.PhaseComplete(phase, processed)
	return agg.Finish(), nil
}

func openFile(path string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return os.Open(path)
	}
}
