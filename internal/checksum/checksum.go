package checksum

import (
	"context"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

const bufferSize = 64 * 1024 // 64KB buffer

// Calculate streams r through h and returns the hex encoded digest and the
// number of bytes read. ctx is checked between reads.
func Calculate(ctx context.Context, r io.Reader, h hash.Hash) (string, int64, error) {
	buffer := make([]byte, bufferSize)
	var total int64

	for {
		if err := ctx.Err(); err != nil {
			return "", total, err
		}

		n, err := r.Read(buffer)
		if n > 0 {
			if _, err := h.Write(buffer[:n]); err != nil {
				return "", total, fmt.Errorf("write to hash: %w", err)
			}
			total += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", total, fmt.Errorf("read: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), total, nil
}

// CompareChecksums compares two hex encoded checksums
func CompareChecksums(checksum1, checksum2 string) bool {
	return checksum1 == checksum2
}
