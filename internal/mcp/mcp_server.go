// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/publisher/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Publisher MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, runner contract.CommandRunner, prober contract.Prober, mgr contract.HistoryManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Publisher Repository Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		runner:  runner,
		prober:  prober,
		mgr:     mgr,
	}

	// --- 1. Tool: init_repository ---
	s.AddTool(mcp.NewTool("init_repository",
		mcp.WithDescription("Create the directory if needed and initialize a git repository in it."),
		mcp.WithString("repo_path", mcp.Description("Path of the working tree (defaults to the configured repository).")),
	), h.handleInitRepository)

	// --- 2. Tool: set_remote ---
	s.AddTool(mcp.NewTool("set_remote",
		mcp.WithDescription("Point the origin remote at a URL, adding it when missing."),
		mcp.WithString("url", mcp.Description("Remote URL, e.g. https://github.com/acme/site.git."), mcp.Required()),
		mcp.WithString("repo_path", mcp.Description("Path of the working tree.")),
	), h.handleSetRemote)

	// --- 3. Tool: stage_files ---
	s.AddTool(mcp.NewTool("stage_files",
		mcp.WithDescription("Stage files for the next commit. Without files, stages every change in the tree."),
		mcp.WithArray("files", mcp.Description("Paths to stage; they must be inside the working tree."), mcp.WithStringItems()),
		mcp.WithString("repo_path", mcp.Description("Path of the working tree.")),
	), h.handleStageFiles)

	// --- 4. Tool: commit ---
	s.AddTool(mcp.NewTool("commit",
		mcp.WithDescription("Record the staged changes as a new commit."),
		mcp.WithString("message", mcp.Description("Commit message."), mcp.Required()),
		mcp.WithString("repo_path", mcp.Description("Path of the working tree.")),
	), h.handleCommit)

	// --- 5. Tool: push ---
	s.AddTool(mcp.NewTool("push",
		mcp.WithDescription("Push the branch to origin, retrying transient network failures with backoff."),
		mcp.WithString("branch", mcp.Description("Branch to push (defaults to the configured branch).")),
		mcp.WithNumber("max_retries", mcp.Description("Total push attempts (1-10).")),
		mcp.WithString("repo_path", mcp.Description("Path of the working tree.")),
	), h.handlePush)

	// --- 6. Tool: pull ---
	s.AddTool(mcp.NewTool("pull",
		mcp.WithDescription("Pull the branch from origin, merging or rebasing local commits."),
		mcp.WithString("branch", mcp.Description("Branch to pull.")),
		mcp.WithBoolean("rebase", mcp.Description("Rebase local commits instead of merging.")),
		mcp.WithString("repo_path", mcp.Description("Path of the working tree.")),
	), h.handlePull)

	// --- 7. Tool: remote_status ---
	s.AddTool(mcp.NewTool("remote_status",
		mcp.WithDescription("Fetch the branch and report whether the local tree is up to date with origin."),
		mcp.WithString("branch", mcp.Description("Branch to compare.")),
		mcp.WithString("repo_path", mcp.Description("Path of the working tree.")),
	), h.handleRemoteStatus)

	// --- 8. Tool: check_connectivity ---
	s.AddTool(mcp.NewTool("check_connectivity",
		mcp.WithDescription("Check internet access and reachability of the hosting service."),
	), h.handleCheckConnectivity)

	// --- 9. Tool: operation_history ---
	s.AddTool(mcp.NewTool("operation_history",
		mcp.WithDescription("List the most recent repository operations, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of records to return.")),
	), h.handleOperationHistory)

	return s
}

// StartMCPServer starts the Publisher MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, runner contract.CommandRunner, prober contract.Prober, mgr contract.HistoryManager) error {
	s := NewMCPServer(baseCfg, runner, prober, mgr)
	return server.ServeStdio(s)
}
