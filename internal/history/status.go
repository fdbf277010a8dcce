package history

import (
	"fmt"
	"sort"

	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/schema"
)

// PrintHistoryStatus prints history status information.
func PrintHistoryStatus(status schema.HistoryStatus) {
	fmt.Printf("History Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Operations: %d\n", status.TotalOperations)
	if status.TotalOperations > 0 {
		fmt.Printf("Failed Operations: %d\n", status.FailedOperations)
		fmt.Printf("Last Operation: %s\n", status.LastOperation)
		fmt.Printf("Last Run: %s\n", status.LastTime.Local().Format(contract.DateTimeFormat))
		fmt.Printf("Oldest Run: %s\n", status.OldestTime.Local().Format(contract.DateTimeFormat))
	}
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	fmt.Println("Table Sizes:")
	for _, table := range tables {
		fmt.Printf("  %s: %d rows\n", table, status.TableSizes[table])
	}
}
