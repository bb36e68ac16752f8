// Package treecheck checks the tree of a commit rather than the working tree.
package treecheck

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/yuya-takeyama/checklfs/internal/gitrepo"
	"github.com/yuya-takeyama/checklfs/internal/walker"
	"github.com/yuya-takeyama/checklfs/internal/worker"
	"github.com/yuya-takeyama/checklfs/pkg/attributes"
	"github.com/yuya-takeyama/checklfs/pkg/logger"
	"github.com/yuya-takeyama/checklfs/pkg/pointer"
	"github.com/yuya-takeyama/checklfs/pkg/report"
	"github.com/yuya-takeyama/checklfs/pkg/store"
	"github.com/yuya-takeyama/checklfs/pkg/verify"
)

const phase = "tree"

type FindingKind string

const (
	// ShouldBeLFS is a blob matched by filter=lfs whose content is not a pointer.
	ShouldBeLFS FindingKind = "should-be-lfs"
	// CaseConflict is a path equal to an earlier one ignoring case.
	CaseConflict FindingKind = "case-conflict"
)

// Finding is a problem with the committed tree itself.
type Finding struct {
	Kind  FindingKind `json:"kind"`
	Path  string      `json:"path"`
	Other string      `json:"other,omitempty"` // First path of a case conflict
	Size  int64       `json:"size,omitempty"`
}

func (f Finding) String() string {
	if f.Kind == CaseConflict {
		return fmt.Sprintf("%s: %s conflicts with %s", f.Kind, f.Path, f.Other)
	}
	return fmt.Sprintf("%s: %s (%d bytes)", f.Kind, f.Path, f.Size)
}

type Options struct {
	Revision    string   // Defaults to HEAD
	StoreRoot   string   // Defaults to the repository's LFS object store
	Excludes    []string // doublestar patterns; matching paths are not checked at all
	Concurrency int

	// IncludeNotTracked records blobs that are not pointers in the report.
	IncludeNotTracked bool

	Logger logger.Logger
}

// Check verifies every pointer blob of the commit against the object store and
// reports tree level findings. Blobs are read sequentially; only store objects
// are hashed concurrently.
func Check(ctx context.Context, repo *gitrepo.Repository, opts Options) (*report.Report, []Finding, error) {
	rev := opts.Revision
	if rev == "" {
		rev = "HEAD"
	}
	storeRoot := opts.StoreRoot
	if storeRoot == "" {
		storeRoot = repo.LFSDir
	}
	log := opts.Logger
	if log == nil {
		log = &logger.NullLogger{}
	}

	for _, pattern := range opts.Excludes {
		if !doublestar.ValidatePattern(strings.TrimSuffix(pattern, "/")) {
			return nil, nil, fmt.Errorf("invalid exclude pattern: %q", pattern)
		}
	}

	tree, err := resolveTree(repo, rev)
	if err != nil {
		return nil, nil, err
	}
	objects, err := store.NewLocal(storeRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid object store: %w", err)
	}

	attrs, err := loadAttributes(tree, repo.GitDir)
	if err != nil {
		return nil, nil, err
	}

	var findings []Finding
	var jobs []worker.Job
	seen := make(map[string]string)

	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walker.Excluded(opts.Excludes, f.Name) {
			return nil
		}

		lower := strings.ToLower(f.Name)
		if first, ok := seen[lower]; ok {
			findings = append(findings, Finding{Kind: CaseConflict, Path: f.Name, Other: first})
		} else {
			seen[lower] = f.Name
		}

		// a link target is neither a pointer nor LFS content
		if f.Mode == filemode.Symlink {
			return nil
		}

		job := worker.Job{Path: f.Name, Size: f.Size}
		if f.Size <= pointer.MaxSize {
			content, err := readBlob(f)
			job.Open = content
			job.Err = err
		}
		jobs = append(jobs, job)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk tree %s: %w", rev, err)
	}

	log.PhaseStart(phase, len(jobs))
	pool := worker.NewPool(objects, verify.NewChecker(objects), opts.Concurrency)
	results, err := pool.Execute(ctx, jobs)
	if err != nil {
		return nil, nil, fmt.Errorf("check tree %s: %w", rev, err)
	}

	agg := report.NewAggregator()
	for _, result := range results {
		kind := result.Outcome.Kind
		log.ItemProcessed(phase, result.Job.Path, string(kind))

		if kind == verify.KindNotTracked {
			// empty files are never converted to pointers
			if result.Job.Size > 0 && attrs.IsLFS(result.Job.Path) {
				findings = append(findings, Finding{Kind: ShouldBeLFS, Path: result.Job.Path, Size: result.Job.Size})
			}
			if !opts.IncludeNotTracked {
				continue
			}
		}
		if err := agg.Add(result.Job.Path, result.Outcome); err != nil {
			return nil, nil, err
		}
	}
	log.PhaseComplete(phase, len(results))

	return agg.Finish(), findings, nil
}

func resolveTree(repo *gitrepo.Repository, rev string) (*object.Tree, error) {
	hash, err := repo.Repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %q: %w", rev, err)
	}
	commit, err := repo.Repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree of %s: %w", hash, err)
	}
	return tree, nil
}

// loadAttributes reads the committed .gitattributes files, plus
// info/attributes from the git dir.
func loadAttributes(tree *object.Tree, gitDir string) (*attributes.Set, error) {
	set := attributes.NewSet()

	err := tree.Files().ForEach(func(f *object.File) error {
		if path.Base(f.Name) != attributes.FileName || f.Mode == filemode.Symlink {
			return nil
		}
		content, err := f.Contents()
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
		set.Add(attributes.Parse(path.Dir(f.Name), content))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if gitDir != "" {
		data, err := os.ReadFile(filepath.Join(gitDir, "info", "attributes"))
		switch {
		case err == nil:
			set.SetInfo(attributes.Parse("", string(data)))
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read info/attributes: %w", err)
		}
	}
	return set, nil
}

// readBlob loads a small blob so the pool never touches the object database.
func readBlob(f *object.File) (func() (io.ReadCloser, error), error) {
	r, err := f.Reader()
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", f.Hash, err)
	}
	defer r.Close()

	data, err := verify.ReadCandidate(r)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", f.Hash, err)
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}
