// Package outwriter has output and writer logic.
package outwriter

import (
	"os"

	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the output formats so that commands only deal with results.
type OutWriter struct {
	cfg *contract.Config
}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter(cfg *contract.Config) *OutWriter {
	return &OutWriter{cfg: cfg}
}

// WriteHistory prints operation records using the configured output format.
func (ow *OutWriter) WriteHistory(records []schema.OperationRecord) error {
	return WriteHistoryResults(records, ow.cfg)
}

// WriteOutcome prints the final outcome of a command using the configured output format.
func (ow *OutWriter) WriteOutcome(out schema.Outcome) error {
	return WriteOutcomeResult(out, ow.cfg)
}

// Observer returns a console observer matching the configured output format.
func (ow *OutWriter) Observer() *ConsoleObserver {
	return NewConsoleObserver(os.Stderr, ow.cfg.Output)
}

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// getMaxMessageWidth calculates the maximum width for the message column in
// the history table based on terminal width.
func getMaxMessageWidth(width int) int {
	termWidth := width
	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Started + Operation + Branch + Result + Attempts + Duration with borders/padding
	baseWidth := 70

	available := termWidth - baseWidth
	if available < 20 {
		return 20
	}
	if available > 80 {
		return 80
	}
	return available
}
