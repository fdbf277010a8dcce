package schema

import "time"

// HistoryStatus represents the status of the operation history store.
type HistoryStatus struct {
	Backend          string           `json:"backend"`
	Connected        bool             `json:"connected"`
	TotalOperations  int              `json:"total_operations"`
	FailedOperations int              `json:"failed_operations"`
	LastOperation    string           `json:"last_operation"`
	LastTime         time.Time        `json:"last_time"`
	OldestTime       time.Time        `json:"oldest_time"`
	TableSizes       map[string]int64 `json:"table_sizes"`
}

// OperationRecord represents a row from the publisher_operations table.
type OperationRecord struct {
	ID         string        `json:"id"`
	Operation  OperationName `json:"operation"`
	RepoPath   string        `json:"repo_path"`
	Branch     string        `json:"branch,omitempty"`
	Success    bool          `json:"success"`
	ErrorKind  ErrorKind     `json:"error_kind"`
	Message    string        `json:"message"`
	Attempts   int           `json:"attempts"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	DurationMs int64         `json:"duration_ms"`
}
