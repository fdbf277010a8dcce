package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/huangsam/publisher/core"
	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	runner  contract.CommandRunner
	prober  contract.Prober
	mgr     contract.HistoryManager
}

// eventLog collects the events of one tool call.
type eventLog struct {
	mu     sync.Mutex
	events []schema.Event
}

func (l *eventLog) Notify(event schema.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	event.Message = contract.RedactCredentials(event.Message)
	l.events = append(l.events, event)
}

// toolResult is the JSON body returned by every repository tool.
type toolResult struct {
	Events   []schema.Event `json:"events"`
	Outcome  schema.Outcome `json:"outcome"`
	UpToDate *bool          `json:"up_to_date,omitempty"`
}

// newManager builds a manager whose events go to log.
func (h *toolHandler) newManager(log *eventLog) *core.Manager {
	opts := []core.Option{core.WithObserver(log)}
	if h.mgr != nil {
		if store := h.mgr.GetHistoryStore(); store != nil {
			opts = append(opts, core.WithHistory(store))
		}
	}
	return core.NewManagerFromConfig(h.baseCfg, h.runner, h.prober, opts...)
}

func (h *toolHandler) repoPath(request mcp.CallToolRequest) string {
	if p := request.GetString("repo_path", ""); p != "" {
		return p
	}
	return h.baseCfg.RepoPath
}

func (h *toolHandler) branch(request mcp.CallToolRequest) string {
	if b := request.GetString("branch", ""); b != "" {
		return b
	}
	return h.baseCfg.Branch
}

// respond renders the event log and outcome. Failed outcomes become tool errors.
func respond(log *eventLog, out schema.Outcome, upToDate *bool) (*mcp.CallToolResult, error) {
	out.Message = contract.RedactCredentials(out.Message)
	out.RawOutput = contract.RedactCredentials(out.RawOutput)

	log.mu.Lock()
	body := toolResult{Events: log.events, Outcome: out, UpToDate: upToDate}
	jsonData, _ := json.MarshalIndent(body, "", "  ")
	log.mu.Unlock()

	if !out.Success {
		return mcp.NewToolResultError(string(jsonData)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleInitRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := &eventLog{}
	out := h.newManager(log).Init(ctx, h.repoPath(request))
	return respond(log, out, nil)
}

func (h *toolHandler) handleSetRemote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := request.GetString("url", "")
	if strings.TrimSpace(url) == "" {
		return mcp.NewToolResultError("url is required"), nil
	}
	log := &eventLog{}
	out := h.newManager(log).SetRemote(ctx, h.repoPath(request), url)
	return respond(log, out, nil)
}

func (h *toolHandler) handleStageFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files := request.GetStringSlice("files", nil)
	log := &eventLog{}
	m := h.newManager(log)
	if len(files) == 0 {
		return respond(log, m.StageAll(ctx, h.repoPath(request)), nil)
	}
	return respond(log, m.StageExplicit(ctx, h.repoPath(request), files), nil)
}

func (h *toolHandler) handleCommit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message := request.GetString("message", "")
	if strings.TrimSpace(message) == "" {
		return mcp.NewToolResultError("message is required"), nil
	}
	log := &eventLog{}
	out := h.newManager(log).Commit(ctx, h.repoPath(request), message)
	return respond(log, out, nil)
}

func (h *toolHandler) handlePush(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	retries := request.GetInt("max_retries", h.baseCfg.MaxRetries)
	if retries < 1 || retries > contract.MaxRetriesLimit {
		return mcp.NewToolResultError(fmt.Sprintf("max_retries must be between 1 and %d", contract.MaxRetriesLimit)), nil
	}
	log := &eventLog{}
	out := h.newManager(log).Push(ctx, core.PushOptions{
		Path:       h.repoPath(request),
		Branch:     h.branch(request),
		Username:   h.baseCfg.Username,
		Token:      h.baseCfg.Token,
		MaxRetries: retries,
		SkipProbe:  h.baseCfg.SkipProbe,
	})
	return respond(log, out, nil)
}

func (h *toolHandler) handlePull(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := core.PullOptions{
		Path:     h.repoPath(request),
		Branch:   h.branch(request),
		Username: h.baseCfg.Username,
		Token:    h.baseCfg.Token,
	}
	log := &eventLog{}
	m := h.newManager(log)
	if request.GetBool("rebase", false) {
		return respond(log, m.PullRebase(ctx, opts), nil)
	}
	return respond(log, m.Pull(ctx, opts), nil)
}

func (h *toolHandler) handleRemoteStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := &eventLog{}
	upToDate, out := h.newManager(log).RemoteStatus(ctx, h.repoPath(request), h.branch(request))
	if !out.Success {
		return respond(log, out, nil)
	}
	return respond(log, out, &upToDate)
}

func (h *toolHandler) handleCheckConnectivity(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := &eventLog{}
	out := h.newManager(log).CheckConnectivity(ctx)
	return respond(log, out, nil)
}

func (h *toolHandler) handleOperationHistory(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", contract.DefaultHistoryLimit)
	if limit < 1 {
		return mcp.NewToolResultError("limit must be at least 1"), nil
	}
	if h.mgr == nil || h.mgr.GetHistoryStore() == nil {
		return mcp.NewToolResultError("operation history is disabled"), nil
	}

	records, err := h.mgr.GetHistoryStore().List(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list history: %v", err)), nil
	}
	if records == nil {
		records = []schema.OperationRecord{}
	}
	jsonData, _ := json.MarshalIndent(records, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
