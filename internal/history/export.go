package history

import (
	"errors"
	"fmt"

	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/internal/parquet"
)

// ExecuteHistoryExport writes every stored operation to <outputFile>.operations.parquet.
func ExecuteHistoryExport(mgr contract.HistoryManager, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := mgr.GetHistoryStore()
	if store == nil {
		return errors.New("history store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalOperations == 0 {
		return errors.New("no operation history found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total operations: %d\n", status.TotalOperations)

	records, err := store.GetAllOperations()
	if err != nil {
		return fmt.Errorf("failed to retrieve operations: %w", err)
	}

	operationsFile := outputFile + ".operations.parquet"
	if err := parquet.WriteOperationsParquet(parquet.ConvertOperationRecords(records), operationsFile); err != nil {
		return fmt.Errorf("failed to write operations: %w", err)
	}
	fmt.Printf("Exported %d operations to: %s\n", len(records), operationsFile)
	return nil
}
