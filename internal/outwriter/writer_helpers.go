package outwriter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/publisher/internal/contract"
)

// writeWithFile sends a history listing or an operation outcome to stdout,
// or to outputFile when one is set. The confirmation goes to stderr so that
// piped JSON stays clean.
func writeWithFile(outputFile string, write func(io.Writer) error, what string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	toFile := file != os.Stdout
	if toFile {
		defer func() { _ = file.Close() }()
	}

	if err := write(file); err != nil {
		if toFile {
			return fmt.Errorf("failed to write %s: %w", outputFile, err)
		}
		return err
	}
	if toFile {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", what, outputFile)
	}
	return nil
}

// writeJSON encodes records and outcomes with two-space indentation.
func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
