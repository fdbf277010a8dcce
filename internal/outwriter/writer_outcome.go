package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/schema"
)

// WriteOutcomeResult prints the final outcome of a command. Text mode relies
// on the observer's terminal line and only prints when a file was requested.
func WriteOutcomeResult(out schema.Outcome, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, redactOutcome(out))
		}, "Wrote JSON")
	default:
		if cfg.OutputFile == "" {
			return nil
		}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeOutcomeText(w, out)
		}, "Wrote outcome")
	}
}

func writeOutcomeText(w io.Writer, out schema.Outcome) error {
	status := "success"
	if !out.Success {
		status = string(out.Kind)
	}
	if _, err := fmt.Fprintf(w, "Result: %s\n%s\n", status, out.Message); err != nil {
		return err
	}
	if out.RawOutput != "" {
		if _, err := fmt.Fprintf(w, "\nOutput:\n%s\n", out.RawOutput); err != nil {
			return err
		}
	}
	return nil
}

// redactOutcome strips embedded credentials before the outcome leaves the process.
func redactOutcome(out schema.Outcome) schema.Outcome {
	out.Message = contract.RedactCredentials(out.Message)
	out.RawOutput = contract.RedactCredentials(out.RawOutput)
	return out
}
