package contract

import (
	"context"
	"sync"
	"time"

	"github.com/huangsam/publisher/schema"
	"github.com/stretchr/testify/mock"
)

// MockCommandRunner is a mock implementation of CommandRunner for testing.
type MockCommandRunner struct {
	mock.Mock
}

var _ CommandRunner = &MockCommandRunner{} // Compile-time check

// Run implements the CommandRunner interface.
func (m *MockCommandRunner) Run(ctx context.Context, workDir string, timeout time.Duration, args ...string) schema.Outcome {
	calledArgs := []any{ctx, workDir, timeout}
	for _, a := range args {
		calledArgs = append(calledArgs, a)
	}
	ret := m.Called(calledArgs...)
	return ret.Get(0).(schema.Outcome)
}

// MockProber is a mock implementation of Prober for testing.
type MockProber struct {
	mock.Mock
}

var _ Prober = &MockProber{} // Compile-time check

// CheckGeneric implements the Prober interface.
func (m *MockProber) CheckGeneric(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

// CheckService implements the Prober interface.
func (m *MockProber) CheckService(ctx context.Context, timeout time.Duration) bool {
	return m.Called(ctx, timeout).Bool(0)
}

// EventRecorder is an Observer that keeps every event for later inspection.
type EventRecorder struct {
	mu     sync.Mutex
	events []schema.Event
}

var _ Observer = &EventRecorder{} // Compile-time check

// Notify implements the Observer interface.
func (r *EventRecorder) Notify(event schema.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *EventRecorder) Events() []schema.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]schema.Event(nil), r.events...)
}

// Types returns the recorded event types in order.
func (r *EventRecorder) Types() []schema.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]schema.EventType, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

// Count returns how many events of the given type were recorded.
func (r *EventRecorder) Count(typ schema.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}
