package walker

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// gitDirName is never descended into. A file with this name (the gitfile of a
// linked worktree or submodule) is skipped too.
const gitDirName = ".git"

// FileInfo represents a candidate file
type FileInfo struct {
	Path    string // Absolute path
	RelPath string // Slash separated path relative to root
	Size    int64
	Err     error // Set when the entry could not be read
}

// Filter decides which regular files are pointer candidates
type Filter interface {
	Candidate(relPath string) bool
}

// AlwaysCandidate makes every regular file a candidate
type AlwaysCandidate struct{}

func (AlwaysCandidate) Candidate(string) bool { return true }

// Matcher is implemented by attributes.Set
type Matcher interface {
	IsLFS(relPath string) bool
}

// PatternFiltered makes files tracked by LFS attributes candidates
type PatternFiltered struct {
	Matcher Matcher
}

func (f PatternFiltered) Candidate(relPath string) bool {
	return f.Matcher.IsLFS(relPath)
}

// Walker walks local files with exclude pattern support
type Walker struct {
	root     string
	excludes []string
	filter   Filter
}

// NewWalker creates a new file walker. A nil filter means AlwaysCandidate.
func NewWalker(root string, excludes []string, filter Filter) (*Walker, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	// Validate root exists and is a directory
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", absRoot)
	}

	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(strings.TrimSuffix(pattern, "/")) {
			return nil, fmt.Errorf("invalid exclude pattern: %q", pattern)
		}
	}

	if filter == nil {
		filter = AlwaysCandidate{}
	}

	return &Walker{
		root:     absRoot,
		excludes: excludes,
		filter:   filter,
	}, nil
}

// Root returns the absolute root
func (w *Walker) Root() string {
	return w.root
}

// Walk calls fn for every candidate regular file in lexical order. Symlinks
// are not followed. Errors below the root are passed to fn through
// FileInfo.Err; an error on the root itself, an error returned by fn, or
// ctx being done stops the walk.
func (w *Walker) Walk(ctx context.Context, fn func(FileInfo) error) error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if path == w.root {
			return err
		}

		// Get relative path
		relPath, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return fmt.Errorf("get relative path: %w", relErr)
		}

		// Convert to forward slashes for pattern matching
		relPath = filepath.ToSlash(relPath)

		// unreadable entry below the root: report it, WalkDir skips the rest
		// of an unreadable directory
		if err != nil {
			return fn(FileInfo{Path: path, RelPath: relPath, Err: err})
		}

		if d.Name() == gitDirName {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if w.isExcluded(relPath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip directories, symlinks, devices, sockets
		if !d.Type().IsRegular() {
			return nil
		}

		if !w.filter.Candidate(relPath) {
			return nil
		}

		// Get file info
		info, err := d.Info()
		if err != nil {
			return fn(FileInfo{Path: path, RelPath: relPath, Err: fmt.Errorf("get file info: %w", err)})
		}

		return fn(FileInfo{
			Path:    path,
			RelPath: relPath,
			Size:    info.Size(),
		})
	})

	if err != nil {
		return fmt.Errorf("walk directory: %w", err)
	}

	return nil
}

// isExcluded checks if a path matches any exclude pattern
func (w *Walker) isExcluded(path string) bool {
	return matchAny(w.excludes, path)
}

// Excluded reports whether the slash separated relPath, or one of its parent
// directories, matches an exclude pattern. It is used where there is no
// directory walk to prune, e.g. the files of a commit tree.
func Excluded(excludes []string, relPath string) bool {
	for p := relPath; p != "." && p != ""; p = path.Dir(p) {
		if matchAny(excludes, p) {
			return true
		}
	}
	return false
}

func matchAny(excludes []string, name string) bool {
	for _, pattern := range excludes {
		// Handle directory patterns (ending with /)
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			if matched, _ := doublestar.Match(dirPattern, name); matched {
				return true
			}
		} else {
			// Regular file pattern
			if matched, _ := doublestar.Match(pattern, name); matched {
				return true
			}
		}
	}
	return false
}
