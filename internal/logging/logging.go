package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yuya-takeyama/checklfs/pkg/report"
)

var (
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	titleStyle = lipgloss.NewStyle().Bold(true)
)

// Logger writes human readable progress and results
type Logger struct {
	quiet  bool
	out    io.Writer
	errOut io.Writer
}

// NewLogger creates a logger writing to stdout and stderr
func NewLogger(quiet bool) *Logger {
	return NewLoggerTo(quiet, os.Stdout, os.Stderr)
}

// NewLoggerTo creates a logger writing to the given writers
func NewLoggerTo(quiet bool, out, errOut io.Writer) *Logger {
	return &Logger{quiet: quiet, out: out, errOut: errOut}
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	if !l.quiet {
		fmt.Fprintf(l.out, format+"\n", args...)
	}
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	fmt.Fprintf(l.errOut, failStyle.Render("ERROR:")+" "+format+"\n", args...)
}

// Debug logs a debug message (currently same as info)
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.quiet {
		fmt.Fprintf(l.out, dimStyle.Render("DEBUG:")+" "+format+"\n", args...)
	}
}

// PrintFailures prints one line per failing entry
func (l *Logger) PrintFailures(rep *report.Report) {
	for _, e := range rep.Failures() {
		fmt.Fprintf(l.out, "%s %s\n", failStyle.Render("FAIL"), e.Path)
		fmt.Fprintf(l.out, "     %s\n", dimStyle.Render(describe(e)))
	}
}

// PrintSummary prints the outcome counts. findings counts problems found
// outside the report, e.g. by the tree check.
func (l *Logger) PrintSummary(rep *report.Report, findings int, duration time.Duration) {
	failed := !rep.Passed || findings > 0
	if l.quiet && !failed {
		return
	}

	s := rep.Summary
	fmt.Fprintln(l.out)
	fmt.Fprintln(l.out, titleStyle.Render("=== Summary ==="))
	fmt.Fprintf(l.out, "OK: %d\n", s.OK)
	if s.NotTracked > 0 {
		fmt.Fprintf(l.out, "Not tracked: %d\n", s.NotTracked)
	}
	if s.Failed() > 0 {
		fmt.Fprintf(l.out, "Size mismatch: %d\n", s.SizeMismatch)
		fmt.Fprintf(l.out, "Hash mismatch: %d\n", s.HashMismatch)
		fmt.Fprintf(l.out, "Object missing: %d\n", s.ObjectMissing)
		fmt.Fprintf(l.out, "Malformed pointer: %d\n", s.MalformedPointer)
		fmt.Fprintf(l.out, "Errors: %d\n", s.Errors)
	}
	if findings > 0 {
		fmt.Fprintf(l.out, "Tree findings: %d\n", findings)
	}
	fmt.Fprintf(l.out, "Duration: %s\n", duration.Round(time.Millisecond))

	if failed {
		fmt.Fprintln(l.out, failStyle.Render("FAILED"))
	} else {
		fmt.Fprintln(l.out, passStyle.Render("PASSED"))
	}
}

func describe(e report.Entry) string {
	o := e.Outcome
	if o.DeclaredSize != 0 || o.ActualSize != 0 {
		return fmt.Sprintf("%s: declared %s, object has %s", o.Kind,
			formatBytes(int64(o.DeclaredSize)), formatBytes(int64(o.ActualSize)))
	}
	return o.String()
}

// formatBytes formats bytes in human readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
