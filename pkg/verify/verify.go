// Package verify checks LFS objects against the pointers that name them.
package verify

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/yuya-takeyama/checklfs/internal/checksum"
	"github.com/yuya-takeyama/checklfs/pkg/pointer"
	"github.com/yuya-takeyama/checklfs/pkg/store"
)

var hashers = map[pointer.Algorithm]func() hash.Hash{
	pointer.SHA256: sha256.New,
}

// Checker verifies objects. It holds no per-object state and is safe for
// concurrent use.
type Checker struct {
	opener store.Opener
}

func NewChecker(opener store.Opener) *Checker {
	return &Checker{opener: opener}
}

// Check compares the located object with ptr. Size is compared before
// the object is read; the hash is computed by streaming the object.
func (c *Checker) Check(ctx context.Context, ptr *pointer.Pointer, loc store.Location) Outcome {
	if !loc.Exists {
		return ObjectMissing(ptr.OID)
	}
	if loc.Size != ptr.Size {
		return SizeMismatch(ptr.OID, ptr.Size, loc.Size)
	}

	newHash, ok := hashers[ptr.Algorithm]
	if !ok {
		return MalformedPointer(&pointer.MalformedError{
			Reason: pointer.ReasonUnsupportedAlgorithm,
			Detail: string(ptr.Algorithm),
		})
	}

	rc, err := c.opener.Open(ptr.OID)
	if err != nil {
		return Error(err)
	}
	defer rc.Close()

	computed, n, err := checksum.Calculate(ctx, rc, newHash())
	if err != nil {
		return Error(fmt.Errorf("hash object %s: %w", ptr.OID, err))
	}
	// the object changed between stat and read
	if uint64(n) != ptr.Size {
		return SizeMismatch(ptr.OID, ptr.Size, uint64(n))
	}
	if !checksum.CompareChecksums(computed, ptr.OID) {
		return HashMismatch(ptr.OID, computed)
	}
	return OK(ptr.OID)
}

// Verify runs the whole pipeline for the raw content of one file:
// decode, locate, check.
func Verify(ctx context.Context, data []byte, locator store.Locator, checker *Checker) Outcome {
	ptr, err := pointer.Decode(data)
	if err != nil {
		var merr *pointer.MalformedError
		if errors.As(err, &merr) {
			return MalformedPointer(merr)
		}
		return Error(err)
	}
	if ptr == nil {
		return NotTracked()
	}

	loc, err := locator.Locate(ptr.OID)
	if err != nil {
		return Error(err)
	}
	return checker.Check(ctx, ptr, loc)
}

// ReadCandidate reads at most pointer.MaxSize+1 bytes from r, enough for
// Decode to tell a pointer from a larger file.
func ReadCandidate(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, pointer.MaxSize+1))
}
