package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteHistoryResults outputs operation records, dispatching based on the output format configured.
func WriteHistoryResults(records []schema.OperationRecord, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONHistory(w, records)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistoryTable(w, records, 0)
		}, "Wrote table")
	}
}

// writeHistoryTable generates and writes the human-readable history table.
func writeHistoryTable(w io.Writer, records []schema.OperationRecord, width int) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Started", "Operation", "Branch", "Result", "Attempts", "Duration", "Message"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{
			tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignLeft,
		}
	})

	maxMessage := getMaxMessageWidth(width)
	var data [][]string
	for _, r := range records {
		data = append(data, []string{
			r.StartedAt.Local().Format(contract.DateTimeFormat),
			string(r.Operation),
			r.Branch,
			resultLabel(r),
			strconv.Itoa(r.Attempts),
			formatDuration(r.DurationMs),
			truncateMessage(firstLine(r.Message), maxMessage),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	failed := 0
	for _, r := range records {
		if !r.Success {
			failed++
		}
	}
	_, err := fmt.Fprintf(w, "Showing %d operations (%d failed)\n", len(records), failed)
	return err
}

// writeJSONHistory writes operation records in JSON format.
func writeJSONHistory(w io.Writer, records []schema.OperationRecord) error {
	if records == nil {
		records = []schema.OperationRecord{}
	}
	return writeJSON(w, records)
}

// resultLabel returns "ok" or the error kind of a failed record.
func resultLabel(r schema.OperationRecord) string {
	if r.Success {
		return contract.SuccessColor.Sprint("ok")
	}
	return contract.FailColor.Sprint(string(r.ErrorKind))
}

func formatDuration(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// truncateMessage shortens s to maxWidth runes, keeping the beginning.
func truncateMessage(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}
