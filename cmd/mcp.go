package cmd

import (
	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/internal/mcp"
	"github.com/huangsam/publisher/internal/netprobe"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Publisher MCP server",
	Long:  `Launch an MCP server over stdio that lets AI agents initialize, stage, commit, push and pull repositories via standard tools.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return sharedSetup(rootCtx, cmd, "")
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		runner := contract.NewLocalGitClient(cfg.GitBinary)
		return mcp.StartMCPServer(rootCtx, cfg, runner, netprobe.NewFromConfig(cfg), historyManager)
	},
}
