package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger receives progress from a scan. Implementations must be safe for
// concurrent use.
type Logger interface {
	PhaseStart(phase string, totalItems int)
	ItemProcessed(phase string, item string, action string)
	PhaseComplete(phase string, processedItems int)
}

// VerboseLogger logs every item. totalItems < 0 means unknown.
type VerboseLogger struct{}

func (l *VerboseLogger) PhaseStart(phase string, totalItems int) {
	if totalItems < 0 {
		log.Printf("[%s] Starting phase", phase)
		return
	}
	log.Printf("[%s] Starting phase with %d items", phase, totalItems)
}

func (l *VerboseLogger) ItemProcessed(phase string, item string, action string) {
	log.Printf("[%s] %s: %s", phase, action, item)
}

func (l *VerboseLogger) PhaseComplete(phase string, processedItems int) {
	log.Printf("[%s] Phase complete. Processed %d items", phase, processedItems)
}

type NullLogger struct{}

func (l *NullLogger) PhaseStart(phase string, totalItems int) {}

func (l *NullLogger) ItemProcessed(phase string, item string, action string) {}

func (l *NullLogger) PhaseComplete(phase string, processedItems int) {}

// QuietLogger prints only items that are neither ok nor not-tracked.
type QuietLogger struct {
	Out io.Writer // defaults to os.Stdout
}

func (l *QuietLogger) PhaseStart(phase string, totalItems int) {}

func (l *QuietLogger) ItemProcessed(phase string, item string, action string) {
	if action == "ok" || action == "not-tracked" {
		return
	}
	out := l.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "%s: %s\n", action, item)
}

func (l *QuietLogger) PhaseComplete(phase string, processedItems int) {}
