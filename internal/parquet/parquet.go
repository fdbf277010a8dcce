// Package parquet provides data structures and functions for exporting the
// operation history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/publisher/schema"
	"github.com/parquet-go/parquet-go"
)

// Operation represents one finished repository operation.
// This struct maps to the publisher_operations database table.
type Operation struct {
	// ID is the UUID of the record
	ID string `parquet:"id,snappy"`

	// Operation is the name of the repository operation, e.g. push
	Operation string `parquet:"operation,snappy,dict"`

	// RepoPath is the working tree the operation ran in
	RepoPath string `parquet:"repo_path,snappy,dict"`

	// Branch is set for branch-scoped operations (nullable)
	Branch *string `parquet:"branch,optional,snappy"`

	Success bool `parquet:"success,snappy"`

	// ErrorKind is "none" for successful operations
	ErrorKind string `parquet:"error_kind,snappy,dict"`

	Message string `parquet:"message,snappy"`

	// Attempts counts subprocess attempts for push and pull
	Attempts int32 `parquet:"attempts,snappy"`

	// StartedAt is stored as TIMESTAMP with nanosecond precision
	StartedAt time.Time `parquet:"started_at,snappy"`

	FinishedAt time.Time `parquet:"finished_at,snappy"`

	DurationMs int64 `parquet:"duration_ms,snappy"`
}

// ConvertOperationRecords converts schema.OperationRecord to Operation for Parquet export.
func ConvertOperationRecords(records []schema.OperationRecord) []Operation {
	result := make([]Operation, len(records))
	for i, record := range records {
		var branch *string
		if record.Branch != "" {
			b := record.Branch
			branch = &b
		}
		result[i] = Operation{
			ID:         record.ID,
			Operation:  string(record.Operation),
			RepoPath:   record.RepoPath,
			Branch:     branch,
			Success:    record.Success,
			ErrorKind:  string(record.ErrorKind),
			Message:    record.Message,
			Attempts:   int32(record.Attempts),
			StartedAt:  record.StartedAt,
			FinishedAt: record.FinishedAt,
			DurationMs: record.DurationMs,
		}
	}
	return result
}

// WriteOperationsParquet writes a slice of Operation structs to a Parquet file.
func WriteOperationsParquet(data []Operation, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the Operation struct tags
	writer := parquet.NewGenericWriter[Operation](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
