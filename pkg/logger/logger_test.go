package logger

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestQuietLogger(t *testing.T) {
	var buf bytes.Buffer
	l := &QuietLogger{Out: &buf}

	l.PhaseStart("scan", 3)
	l.ItemProcessed("scan", "a.bin", "ok")
	l.ItemProcessed("scan", "b.txt", "not-tracked")
	l.ItemProcessed("scan", "c.bin", "hash-mismatch")
	l.PhaseComplete("scan", 3)

	if got, want := buf.String(), "hash-mismatch: c.bin\n"; got != want {
		t.Errorf("QuietLogger output = %q, want %q", got, want)
	}
}

func TestVerboseLogger(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
	})

	l := &VerboseLogger{}
	l.PhaseStart("scan", -1)
	l.PhaseStart("tree", 2)
	l.ItemProcessed("scan", "a.bin", "ok")
	l.PhaseComplete("scan", 1)

	want := []string{
		"[scan] Starting phase",
		"[tree] Starting phase with 2 items",
		"[scan] ok: a.bin",
		"[scan] Phase complete. Processed 1 items",
	}
	got := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(got) != len(want) {
		t.Fatalf("VerboseLogger wrote %d lines, want %d: %q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNullLogger(t *testing.T) {
	var l Logger = &NullLogger{}
	l.PhaseStart("scan", 1)
	l.ItemProcessed("scan", "a", "ok")
	l.PhaseComplete("scan", 1)
}
