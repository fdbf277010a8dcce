// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/publisher/schema"
)

// CommandRunner runs the version-control executable as a subprocess.
// This allows the repository operations to be tested without a real git executable.
type CommandRunner interface {
	// Run executes one command in workDir and returns a fully populated outcome.
	// The subprocess is killed when ctx is cancelled or timeout elapses.
	Run(ctx context.Context, workDir string, timeout time.Duration, args ...string) schema.Outcome
}

// Prober performs outbound reachability checks.
type Prober interface {
	// CheckGeneric probes well-known endpoints and reports true on the first success.
	CheckGeneric(ctx context.Context) bool

	// CheckService probes the hosting service API within timeout.
	CheckService(ctx context.Context, timeout time.Duration) bool
}

// Observer receives lifecycle notifications from repository operations.
type Observer interface {
	Notify(event schema.Event)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(event schema.Event)

// Notify implements the Observer interface.
func (f ObserverFunc) Notify(event schema.Event) {
	f(event)
}

// MultiObserver fans a notification out to several observers in order.
type MultiObserver []Observer

// Notify implements the Observer interface.
func (m MultiObserver) Notify(event schema.Event) {
	for _, o := range m {
		if o != nil {
			o.Notify(event)
		}
	}
}

// HistoryManager defines the interface for managing the history store.
// This allows the persistence layer to be mocked for testing.
type HistoryManager interface {
	GetHistoryStore() HistoryStore
}

// HistoryStore defines the interface for tracking finished operations.
type HistoryStore interface {
	// Record stores one finished operation
	Record(record schema.OperationRecord) error

	// List returns the most recent operations, newest first
	List(limit int) ([]schema.OperationRecord, error)

	// GetAllOperations returns every stored operation, oldest first
	GetAllOperations() ([]schema.OperationRecord, error)

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection
	Close() error
}
