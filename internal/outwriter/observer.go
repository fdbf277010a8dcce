package outwriter

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/schema"
)

// ConsoleObserver prints operation events as they happen.
// In text mode each event is one colored line; in JSON mode each event is one JSON object.
type ConsoleObserver struct {
	mu   sync.Mutex
	w    io.Writer
	mode schema.OutputMode
}

var _ contract.Observer = &ConsoleObserver{} // Compile-time check

// NewConsoleObserver creates an observer writing to w.
func NewConsoleObserver(w io.Writer, mode schema.OutputMode) *ConsoleObserver {
	return &ConsoleObserver{w: w, mode: mode}
}

// Notify implements the Observer interface.
func (o *ConsoleObserver) Notify(event schema.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.mode == schema.JSONOut {
		data, err := json.Marshal(event)
		if err != nil {
			contract.LogWarn("Failed to encode event", err)
			return
		}
		_, _ = fmt.Fprintln(o.w, string(data))
		return
	}
	if line := formatEvent(event); line != "" {
		_, _ = fmt.Fprintln(o.w, line)
	}
}

// formatEvent renders one event as a human-readable line.
func formatEvent(event schema.Event) string {
	switch event.Type {
	case schema.EventStarted:
		return contract.InfoColor.Sprintf("▶ %s", startedText(event))
	case schema.EventSuccess:
		return contract.SuccessColor.Sprintf("✅ %s", event.Message)
	case schema.EventFailed:
		return contract.FailColor.Sprintf("❌ %s", event.Message) + fmt.Sprintf(" [%s]", event.Kind)
	case schema.EventCancelled:
		return contract.WarnColor.Sprintf("⚠️  %s", event.Message)
	case schema.EventWarning:
		return contract.WarnColor.Sprintf("⚠️  %s", event.Message)
	case schema.EventRetry:
		return contract.WarnColor.Sprintf("🔁 %s", event.Message)
	case schema.EventConnectivityStarted:
		return contract.InfoColor.Sprintf("🌐 %s", event.Message)
	case schema.EventConnectivityCompleted:
		if event.Connected {
			return contract.InfoColor.Sprint("🌐 Connected")
		}
		return contract.WarnColor.Sprint("🌐 Not reachable")
	case schema.EventProgress:
		if event.Total == schema.UnknownTotal {
			return fmt.Sprintf("📄 [%d] %s", event.Current, event.Item)
		}
		return fmt.Sprintf("📄 [%d/%d] %s", event.Current, event.Total, event.Item)
	default:
		return ""
	}
}

func startedText(event schema.Event) string {
	if event.Message != "" {
		return event.Message
	}
	return fmt.Sprintf("Running %s...", event.Operation)
}
