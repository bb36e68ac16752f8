// Package attributes extracts LFS tracking rules from gitattributes files.
//
// Only the filter attribute is interpreted. Everything else in the files is
// ignored.
package attributes

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/git-lfs/wildmatch/v2"
)

// FileName is the per-directory attributes file.
const FileName = ".gitattributes"

type rule struct {
	pattern string
	matcher *wildmatch.Wildmatch
	isLFS   bool
}

// File holds the LFS rules of one attributes file. Dir is the slash separated
// directory the file applies to, "" for the repository root.
type File struct {
	Dir   string
	rules []rule
}

// Parse extracts filter=lfs, -filter, !filter and filter rules from content.
func Parse(dir, content string) *File {
	f := &File{Dir: strings.Trim(path.Clean("/"+dir), "/")}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		pattern := fields[0]
		// negative patterns are forbidden in gitattributes
		if strings.HasPrefix(pattern, "!") {
			continue
		}

		// the last filter assignment on the line wins
		isLFS, assigned := false, false
		for _, attr := range fields[1:] {
			switch {
			case attr == "filter=lfs":
				isLFS, assigned = true, true
			case attr == "-filter", attr == "!filter", attr == "filter", strings.HasPrefix(attr, "filter="):
				isLFS, assigned = false, true
			}
		}

		if assigned {
			f.rules = append(f.rules, rule{
				pattern: pattern,
				matcher: compile(pattern),
				isLFS:   isLFS,
			})
		}
	}
	return f
}

// compile builds a matcher for a gitattributes pattern. Patterns without a
// slash match the basename at any depth; others are anchored to the
// directory of the attributes file.
func compile(pattern string) *wildmatch.Wildmatch {
	if anchored, ok := strings.CutPrefix(pattern, "/"); ok {
		return wildmatch.NewWildmatch(anchored)
	}
	if !strings.Contains(pattern, "/") {
		return wildmatch.NewWildmatch(pattern, wildmatch.Basename)
	}
	return wildmatch.NewWildmatch(pattern)
}

// Len returns the number of LFS related rules in the file.
func (f *File) Len() int {
	return len(f.rules)
}

// match returns the decision of the last rule matching relPath, which is
// relative to f.Dir.
func (f *File) match(relPath string) (isLFS, matched bool) {
	for _, r := range f.rules {
		if r.matcher.Match(relPath) {
			isLFS, matched = r.isLFS, true
		}
	}
	return isLFS, matched
}

// Set combines attributes files with git's precedence: deeper files override
// shallower ones, and info/attributes overrides them all.
type Set struct {
	files []*File
	info  *File
}

func NewSet() *Set {
	return &Set{}
}

// Add registers a per-directory attributes file.
func (s *Set) Add(f *File) {
	s.files = append(s.files, f)
	sort.SliceStable(s.files, func(i, j int) bool {
		return depth(s.files[i].Dir) < depth(s.files[j].Dir)
	})
}

// SetInfo registers the repository wide $GIT_DIR/info/attributes rules.
func (s *Set) SetInfo(f *File) {
	f.Dir = ""
	s.info = f
}

// Empty reports whether no LFS rules are known.
func (s *Set) Empty() bool {
	if s == nil {
		return true
	}
	for _, f := range s.files {
		if f.Len() > 0 {
			return false
		}
	}
	return s.info == nil || s.info.Len() == 0
}

// IsLFS reports whether the slash separated path is tracked by LFS.
func (s *Set) IsLFS(filePath string) bool {
	if s == nil {
		return false
	}
	filePath = strings.TrimPrefix(filePath, "/")

	isLFS := false
	for _, f := range s.files {
		rel, ok := relativeTo(f.Dir, filePath)
		if !ok {
			continue
		}
		if v, matched := f.match(rel); matched {
			isLFS = v
		}
	}
	if s.info != nil {
		if v, matched := s.info.match(filePath); matched {
			isLFS = v
		}
	}
	return isLFS
}

// LoadWorktree reads every .gitattributes under root, without following
// symlinks or entering .git, plus gitDir/info/attributes when gitDir is set.
func LoadWorktree(root, gitDir string) (*Set, error) {
	set := NewSet()

	matches, err := doublestar.Glob(os.DirFS(root), "**/"+FileName,
		doublestar.WithFilesOnly(), doublestar.WithNoFollow())
	if err != nil {
		return nil, fmt.Errorf("find %s files: %w", FileName, err)
	}

	for _, match := range matches {
		if match == ".git" || strings.HasPrefix(match, ".git/") || strings.Contains(match, "/.git/") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(match)))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", match, err)
		}
		set.Add(Parse(path.Dir(match), string(data)))
	}

	if gitDir != "" {
		data, err := os.ReadFile(filepath.Join(gitDir, "info", "attributes"))
		switch {
		case err == nil:
			set.SetInfo(Parse("", string(data)))
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read info/attributes: %w", err)
		}
	}

	return set, nil
}

func relativeTo(dir, filePath string) (string, bool) {
	if dir == "" {
		return filePath, true
	}
	if rest, ok := strings.CutPrefix(filePath, dir+"/"); ok {
		return rest, true
	}
	return "", false
}

func depth(dir string) int {
	if dir == "" {
		return 0
	}
	return strings.Count(dir, "/") + 1
}
