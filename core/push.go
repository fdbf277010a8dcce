package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/publisher/core/retry"
	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/schema"
)

const (
	noInternetMessage         = "No internet connection detected.\nCheck your connection and try again."
	serviceUnreachableMessage = "The hosting service is unreachable.\nCheck that it is reachable from your browser."
	lostConnectionMessage     = "Connection lost before the push could run."
)

// PushOptions selects the tree, branch and retry budget of a push.
type PushOptions struct {
	Path       string
	Branch     string
	Username   string
	Token      string
	MaxRetries int  // attempts in total; 0 or less means the default
	SkipProbe  bool // skip the reachability probes, e.g. for local remotes
}

// Push sends the branch to origin. Transient failures are retried with
// exponential backoff; authentication and missing-remote failures are not.
func (m *Manager) Push(ctx context.Context, opts PushOptions) schema.Outcome {
	s := m.begin(ctx, schema.OpPush, opts.Path, opts.Branch, fmt.Sprintf("Pushing to origin/%s...", opts.Branch))
	if strings.TrimSpace(opts.Branch) == "" {
		return s.finish(schema.Failed(schema.InvalidArgument, "Branch name is empty.", ""))
	}
	if out, ok := s.requireRepository(); !ok {
		return s.finish(out)
	}

	state := schema.RetryState{MaxAttempts: opts.MaxRetries}
	if state.MaxAttempts <= 0 {
		state.MaxAttempts = contract.DefaultMaxRetries
	}

	if !opts.SkipProbe {
		if !s.probeGeneric() {
			return s.finish(schema.Failed(schema.NetworkError, noInternetMessage, ""))
		}
		if !s.probeService() {
			return s.finish(schema.Failed(schema.NetworkError, serviceUnreachableMessage, ""))
		}
	}
	if s.cancelled() {
		return s.finish(s.cancelOutcome())
	}

	target := s.remoteTarget(opts.Username, opts.Token)
	last := schema.Failed(schema.NetworkError, lostConnectionMessage, "")

	for state.Attempt < state.MaxAttempts {
		if s.cancelled() {
			return s.finish(s.cancelOutcome())
		}

		if state.Attempt > 0 {
			m.emit(schema.Event{
				Type:        schema.EventRetry,
				Operation:   s.name,
				Message:     fmt.Sprintf("Retrying push (%d/%d)...", state.Attempt+1, state.MaxAttempts),
				Attempt:     state.Attempt + 1,
				MaxAttempts: state.MaxAttempts,
			})
			if !opts.SkipProbe && !s.probeGeneric() {
				if err := m.sleep(s.ctx, retry.Delay(state.Attempt)); err != nil {
					return s.finish(s.cancelOutcome())
				}
				state.Attempt++
				continue
			}
		}

		s.attempts++
		out := s.run(m.networkTimeout, "push", target, opts.Branch)
		if out.Success {
			return s.finish(schema.Succeeded(fmt.Sprintf("Push completed to %s", opts.Branch), out.RawOutput))
		}
		last = out
		state.LastKind = out.Kind
		if !retry.ShouldRetry(out.Kind) {
			return s.finish(enrich(out))
		}
		contract.LogDebug("push attempt %d/%d failed: %s", state.Attempt+1, state.MaxAttempts, out.Kind)

		if state.Attempt < state.MaxAttempts-1 {
			if err := m.sleep(s.ctx, retry.Delay(state.Attempt)); err != nil {
				return s.finish(s.cancelOutcome())
			}
		}
		state.Attempt++
	}

	msg := fmt.Sprintf("Push failed after %d attempts.\n\nError: %s\n\nSuggestions:\n- Check your internet connection\n- Check your proxy settings\n- Try again in a few minutes",
		state.MaxAttempts, last.Message)
	return s.finish(schema.Failed(schema.NetworkError, msg, last.RawOutput))
}
