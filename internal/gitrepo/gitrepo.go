// Package gitrepo resolves the paths checklfs needs from a git repository.
package gitrepo

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// ErrNotRepository is returned when no repository encloses the path.
var ErrNotRepository = errors.New("not a git repository")

// Repository is an opened repository with its resolved paths.
type Repository struct {
	Repo     *git.Repository
	WorkTree string // "" for bare repositories
	GitDir   string
	LFSDir   string // Object store root
}

// Open finds the repository enclosing path.
func Open(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, absPath)
		}
		return nil, fmt.Errorf("opening git repo: %w", err)
	}

	r := &Repository{Repo: repo}

	storage, ok := repo.Storer.(*filesystem.Storage)
	if !ok {
		return nil, fmt.Errorf("unsupported repository storage %T", repo.Storer)
	}
	r.GitDir = storage.Filesystem().Root()

	wt, err := repo.Worktree()
	switch {
	case err == nil:
		r.WorkTree = wt.Filesystem.Root()
	case errors.Is(err, git.ErrIsBareRepository):
	default:
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	r.LFSDir, err = lfsObjectsDir(repo, r.GitDir)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// lfsObjectsDir honours lfs.storage, which git-lfs resolves relative to the
// git dir.
func lfsObjectsDir(repo *git.Repository, gitDir string) (string, error) {
	cfg, err := repo.Config()
	if err != nil {
		return "", fmt.Errorf("reading git config: %w", err)
	}

	storage := cfg.Raw.Section("lfs").Option("storage")
	if storage == "" {
		return filepath.Join(gitDir, "lfs", "objects"), nil
	}
	if !filepath.IsAbs(storage) {
		storage = filepath.Join(gitDir, storage)
	}
	return filepath.Join(storage, "objects"), nil
}
