// Package store locates objects in a local Git LFS object store.
//
// Objects live at <root>/<oid[0:2]>/<oid[2:4]>/<oid>, the layout git-lfs
// uses under .git/lfs/objects.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/yuya-takeyama/checklfs/pkg/pointer"
)

// ErrStoreAccess wraps filesystem failures other than "not found".
var ErrStoreAccess = errors.New("object store access failed")

// Location is where an object is expected to be and what is there.
type Location struct {
	OID    string
	Path   string
	Exists bool
	Size   uint64 // only meaningful when Exists
}

// Locator resolves object ids to locations.
type Locator interface {
	Locate(oid string) (Location, error)
}

// Opener opens objects for streaming reads.
type Opener interface {
	Open(oid string) (io.ReadCloser, error)
}

// Local is a filesystem based object store.
type Local struct {
	root string
}

// NewLocal returns a store rooted at root. root must be an existing directory.
func NewLocal(root string) (*Local, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat object store: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("object store is not a directory: %s", absRoot)
	}

	return &Local{root: absRoot}, nil
}

// Root returns the absolute store root.
func (s *Local) Root() string {
	return s.root
}

// Path returns the sharded path for oid. oid must be a valid object id.
func (s *Local) Path(oid string) string {
	return filepath.Join(s.root, transformKey(oid))
}

// Locate stats the object for oid without reading it.
func (s *Local) Locate(oid string) (Location, error) {
	if !pointer.ValidOID(oid) {
		return Location{}, fmt.Errorf("invalid object id %q", oid)
	}

	loc := Location{OID: oid, Path: s.Path(oid)}
	info, err := os.Lstat(loc.Path)
	if err != nil {
		if isNotFound(err) {
			return loc, nil
		}
		return loc, fmt.Errorf("%w: %s: %w", ErrStoreAccess, oid, err)
	}
	if !info.Mode().IsRegular() {
		return loc, nil
	}

	loc.Exists = true
	loc.Size = uint64(info.Size())
	return loc, nil
}

// Open opens the object for oid.
func (s *Local) Open(oid string) (io.ReadCloser, error) {
	if !pointer.ValidOID(oid) {
		return nil, fmt.Errorf("invalid object id %q", oid)
	}
	f, err := os.Open(s.Path(oid))
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	return f, nil
}

func transformKey(oid string) string {
	return filepath.Join(oid[0:2], oid[2:4], oid)
}

// isNotFound also treats a non-directory path component (e.g. a file named
// "ab" where the "ab" shard directory should be) as absent.
func isNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
