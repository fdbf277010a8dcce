package schema

// Custom string types for type safety.
type (
	// ErrorKind classifies the failure of an operation.
	ErrorKind string

	// EventType represents the type of a lifecycle notification.
	EventType string

	// OperationName identifies a repository operation.
	OperationName string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for history tracking.
	DatabaseBackend string
)

// All error kinds supported. The set is closed.
const (
	NoError             ErrorKind = "none"
	ToolNotInstalled    ErrorKind = "tool_not_installed"
	InvalidRepository   ErrorKind = "invalid_repository"
	RemoteNotFound      ErrorKind = "remote_not_found"
	AuthenticationError ErrorKind = "authentication_failed"
	NetworkError        ErrorKind = "network_error"
	FileNotFound        ErrorKind = "file_not_found"
	NothingToCommit     ErrorKind = "nothing_to_commit"
	Timeout             ErrorKind = "timeout"
	ProcessFailed       ErrorKind = "process_failed"
	UserCancelled       ErrorKind = "user_cancelled"
	ConnectionRefused   ErrorKind = "connection_refused"
	SSLError            ErrorKind = "ssl_error"
	ProxyError          ErrorKind = "proxy_error"
	InvalidArgument     ErrorKind = "invalid_argument"
	UnknownError        ErrorKind = "unknown"
)

// All event types emitted by operations.
const (
	EventStarted               EventType = "started"
	EventSuccess               EventType = "success"
	EventFailed                EventType = "failed"
	EventCancelled             EventType = "cancelled"
	EventRetry                 EventType = "retry"
	EventConnectivityStarted   EventType = "connectivity_started"
	EventConnectivityCompleted EventType = "connectivity_completed"
	EventProgress              EventType = "progress"
	EventWarning               EventType = "warning"
)

// All repository operations.
const (
	OpInit          OperationName = "init"
	OpSetRemote     OperationName = "set_remote"
	OpStageAll      OperationName = "stage_all"
	OpStageExplicit OperationName = "stage"
	OpCommit        OperationName = "commit"
	OpPush          OperationName = "push"
	OpPull          OperationName = "pull"
	OpPullRebase    OperationName = "pull_rebase"
	OpRemoteStatus  OperationName = "remote_status"
	OpCopy          OperationName = "copy"
	OpCopyAndStage  OperationName = "copy_and_stage"
	OpProbe         OperationName = "probe"
)

// All output modes supported.
const (
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// UnknownTotal is the progress total used when the item count is not known upfront.
const UnknownTotal = -1

// AllErrorKinds returns every error kind in declaration order.
var AllErrorKinds = []ErrorKind{
	NoError, ToolNotInstalled, InvalidRepository, RemoteNotFound, AuthenticationError,
	NetworkError, FileNotFound, NothingToCommit, Timeout, ProcessFailed, UserCancelled,
	ConnectionRefused, SSLError, ProxyError, InvalidArgument, UnknownError,
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// IsTerminal reports whether the event ends an operation.
func (t EventType) IsTerminal() bool {
	switch t {
	case EventSuccess, EventFailed, EventCancelled:
		return true
	default:
		return false
	}
}
