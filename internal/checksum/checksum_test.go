package checksum

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "empty",
			content: "",
			want:    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:    "known hash",
			content: "The quick brown fox jumps over the lazy dog",
			want:    "d7a8fbb307d7809469ca9abcb0082e4f8d5651e46d3cdb762d02d0bf37c9e592",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := Calculate(context.Background(), strings.NewReader(tt.content), sha256.New())
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Calculate() = %v, want %v", got, tt.want)
			}
			if n != int64(len(tt.content)) {
				t.Errorf("Calculate() read %d bytes, want %d", n, len(tt.content))
			}
		})
	}
}

func TestCalculateLargerThanBuffer(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdef"), bufferSize/4)
	sum := sha256.Sum256(data)

	got, n, err := Calculate(context.Background(), bytes.NewReader(data), sha256.New())
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	if got != hex.EncodeToString(sum[:]) {
		t.Errorf("Calculate() = %v, want %v", got, hex.EncodeToString(sum[:]))
	}
	if n != int64(len(data)) {
		t.Errorf("Calculate() read %d bytes, want %d", n, len(data))
	}
}

func TestCalculateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Calculate(ctx, strings.NewReader("data"), sha256.New())
	if err != context.Canceled {
		t.Errorf("Calculate() error = %v, want %v", err, context.Canceled)
	}
}
