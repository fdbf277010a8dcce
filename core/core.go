// Package core has the repository operations, the push retry controller and
// the recursive copy used to publish a working tree.
package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/huangsam/publisher/core/retry"
	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/schema"
	"github.com/spf13/afero"
)

// cancelledMessage is shown whenever an operation stops because of Cancel.
const cancelledMessage = "Operation cancelled by user."

// Manager runs repository operations one at a time and reports their progress
// to an Observer. Cancel stops the operation in flight.
type Manager struct {
	runner   contract.CommandRunner
	prober   contract.Prober
	observer contract.Observer
	history  contract.HistoryStore
	fs       afero.Fs
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time

	commandTimeout time.Duration
	networkTimeout time.Duration
	serviceTimeout time.Duration

	mu      sync.Mutex
	current *opScope
	running atomic.Bool
	repos   sync.Map // path -> *Repository
}

// Option configures a Manager.
type Option func(*Manager)

// WithObserver sets the receiver of lifecycle events.
func WithObserver(o contract.Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithHistory records every finished operation into store.
func WithHistory(store contract.HistoryStore) Option {
	return func(m *Manager) { m.history = store }
}

// WithFs replaces the filesystem used by copy and stage checks.
func WithFs(fs afero.Fs) Option {
	return func(m *Manager) {
		if fs != nil {
			m.fs = fs
		}
	}
}

// WithSleep replaces the backoff wait. Tests use it to skip real delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(m *Manager) {
		if sleep != nil {
			m.sleep = sleep
		}
	}
}

// WithClock replaces the time source used for events and history records.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithTimeouts overrides the per-call timeouts. Zero values keep the defaults.
// The network timeout applies to push, pull and fetch.
func WithTimeouts(command, network, service time.Duration) Option {
	return func(m *Manager) {
		if command > 0 {
			m.commandTimeout = command
		}
		if network > 0 {
			m.networkTimeout = network
		}
		if service > 0 {
			m.serviceTimeout = service
		}
	}
}

// NewManager creates a Manager around a command runner and a prober.
func NewManager(runner contract.CommandRunner, prober contract.Prober, opts ...Option) *Manager {
	m := &Manager{
		runner:         runner,
		prober:         prober,
		observer:       contract.ObserverFunc(func(schema.Event) {}),
		fs:             afero.NewOsFs(),
		sleep:          retry.Wait,
		now:            time.Now,
		commandTimeout: contract.DefaultCommandTimeout,
		networkTimeout: contract.DefaultPushTimeout,
		serviceTimeout: contract.DefaultServiceTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewManagerFromConfig wires a Manager with the timeouts of a validated config.
func NewManagerFromConfig(cfg *contract.Config, runner contract.CommandRunner, prober contract.Prober, opts ...Option) *Manager {
	base := []Option{WithTimeouts(cfg.CommandTimeout, cfg.PushTimeout, cfg.ServiceTimeout)}
	return NewManager(runner, prober, append(base, opts...)...)
}

// Running reports whether an operation is in flight.
func (m *Manager) Running() bool {
	return m.running.Load()
}

// Cancel stops the operation in flight and reports whether there was one.
// The operation finishes on its own goroutine with a user_cancelled outcome.
func (m *Manager) Cancel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return false
	}
	m.current.cancel()
	return true
}

// Repository returns the cached handle for path.
func (m *Manager) Repository(path string) *Repository {
	if r, ok := m.repos.Load(path); ok {
		return r.(*Repository)
	}
	r, _ := m.repos.LoadOrStore(path, NewRepository(path))
	return r.(*Repository)
}

// emit stamps and delivers one event.
func (m *Manager) emit(ev schema.Event) {
	if ev.Time.IsZero() {
		ev.Time = m.now()
	}
	m.observer.Notify(ev)
}

// opScope is the state of one operation between begin and finish.
type opScope struct {
	m        *Manager
	ctx      context.Context
	cancel   context.CancelFunc
	name     schema.OperationName
	repo     string
	branch   string
	started  time.Time
	attempts int
}

// begin registers a new in-flight operation and emits its started event.
func (m *Manager) begin(ctx context.Context, name schema.OperationName, repo, branch, message string) *opScope {
	opCtx, cancel := context.WithCancel(ctx)
	s := &opScope{m: m, ctx: opCtx, cancel: cancel, name: name, repo: repo, branch: branch, started: m.now()}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	m.running.Store(true)

	m.emit(schema.Event{Type: schema.EventStarted, Operation: name, Message: message})
	return s
}

// finish emits the terminal event, records history and releases the scope.
func (s *opScope) finish(out schema.Outcome) schema.Outcome {
	m := s.m
	ev := schema.Event{Operation: s.name, Message: out.Message}
	switch {
	case out.Success:
		ev.Type = schema.EventSuccess
	case out.Kind == schema.UserCancelled:
		ev.Type = schema.EventCancelled
	default:
		ev.Type = schema.EventFailed
		ev.Kind = out.Kind
	}
	m.emit(ev)
	m.record(s, out)

	m.mu.Lock()
	if m.current == s {
		m.current = nil
		m.running.Store(false)
	}
	m.mu.Unlock()
	s.cancel()
	return out
}

// record writes the finished operation to the history store, if any.
func (m *Manager) record(s *opScope, out schema.Outcome) {
	if m.history == nil {
		return
	}
	finished := m.now()
	rec := schema.OperationRecord{
		Operation:  s.name,
		RepoPath:   s.repo,
		Branch:     s.branch,
		Success:    out.Success,
		ErrorKind:  out.Kind,
		Message:    out.Message,
		Attempts:   s.attempts,
		StartedAt:  s.started,
		FinishedAt: finished,
		DurationMs: finished.Sub(s.started).Milliseconds(),
	}
	if err := m.history.Record(rec); err != nil {
		contract.LogWarn("Failed to record operation history", err)
	}
}

func (s *opScope) cancelled() bool {
	return s.ctx.Err() != nil
}

func (s *opScope) cancelOutcome() schema.Outcome {
	return schema.Failed(schema.UserCancelled, cancelledMessage, "")
}

// run executes one subprocess in the operation's working tree.
func (s *opScope) run(timeout time.Duration, args ...string) schema.Outcome {
	return s.m.runner.Run(s.ctx, s.repo, timeout, args...)
}

func (s *opScope) warn(format string, args ...any) {
	s.m.emit(schema.Event{Type: schema.EventWarning, Operation: s.name, Message: fmt.Sprintf(format, args...)})
}

func (s *opScope) progress(current, total int, item string) {
	s.m.emit(schema.Event{Type: schema.EventProgress, Operation: s.name, Current: current, Total: total, Item: item})
}

// probeGeneric wraps the generic reachability check with connectivity events.
func (s *opScope) probeGeneric() bool {
	s.m.emit(schema.Event{Type: schema.EventConnectivityStarted, Operation: s.name, Message: "Checking internet connection..."})
	ok := s.m.prober.CheckGeneric(s.ctx)
	s.m.emit(schema.Event{Type: schema.EventConnectivityCompleted, Operation: s.name, Connected: ok})
	return ok
}

// probeService wraps the hosting service check with connectivity events.
func (s *opScope) probeService() bool {
	s.m.emit(schema.Event{Type: schema.EventConnectivityStarted, Operation: s.name, Message: "Checking hosting service..."})
	ok := s.m.prober.CheckService(s.ctx, s.m.serviceTimeout)
	s.m.emit(schema.Event{Type: schema.EventConnectivityCompleted, Operation: s.name, Connected: ok})
	return ok
}

// requireRepository revalidates the working tree of the operation.
func (s *opScope) requireRepository() (schema.Outcome, bool) {
	if s.m.Repository(s.repo).Valid() {
		return schema.Outcome{}, true
	}
	msg := fmt.Sprintf("Not a git repository: %s\nRun 'publisher init' first", s.repo)
	return schema.Failed(schema.InvalidRepository, msg, ""), false
}
