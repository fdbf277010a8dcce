// Package cmd defines the command-line interface for publisher.
package cmd

import (
	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(remoteCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the remote subcommands to the parent remote command
	remoteCmd.AddCommand(remoteSetCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("repo", ".", "Path to the working tree")
	rootCmd.PersistentFlags().String("remote-url", "", "Remote URL used by init to configure origin")
	rootCmd.PersistentFlags().StringP("branch", "b", contract.DefaultBranch, "Branch to push, pull or compare")
	rootCmd.PersistentFlags().String("username", "", "Username for https remotes")
	rootCmd.PersistentFlags().String("token", "", "Access token for https remotes (prefer PUBLISHER_TOKEN)")
	rootCmd.PersistentFlags().Bool("token-stdin", false, "Read the access token from stdin")
	rootCmd.PersistentFlags().Bool("ask-token", false, "Prompt for the access token without echo")
	rootCmd.PersistentFlags().Int("max-retries", contract.DefaultMaxRetries, "Total push attempts (1-10)")
	rootCmd.PersistentFlags().String("push-timeout", contract.DefaultPushTimeout.String(), "Timeout for push, pull and fetch")
	rootCmd.PersistentFlags().String("command-timeout", contract.DefaultCommandTimeout.String(), "Timeout for local git commands")
	rootCmd.PersistentFlags().String("probe-endpoints", "", "Comma-separated URLs for the internet check")
	rootCmd.PersistentFlags().String("probe-timeout", contract.DefaultProbeTimeout.String(), "Timeout per internet check endpoint")
	rootCmd.PersistentFlags().String("service-url", contract.DefaultServiceURL, "Hosting service URL for the reachability check")
	rootCmd.PersistentFlags().String("service-timeout", contract.DefaultServiceTimeout.String(), "Timeout for the hosting service check")
	rootCmd.PersistentFlags().Bool("skip-probe", false, "Skip connectivity checks before pushing, e.g. for local remotes")
	rootCmd.PersistentFlags().String("git-binary", contract.DefaultGitBinary, "Path or name of the git executable")
	rootCmd.PersistentFlags().String("history-backend", string(schema.SQLiteBackend), "History backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log git invocations to stderr")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Command-local flags are read from the command itself
	stageCmd.Flags().Bool("all", false, "Stage every change in the working tree")
	commitCmd.Flags().StringP("message", "m", "", "Commit message")
	pullCmd.Flags().Bool("rebase", false, "Rebase local commits on top of the fetched branch")
	copyCmd.Flags().String("dest", "", "Destination directory (defaults to the working tree)")
	copyCmd.Flags().Bool("flat", false, "Merge folder contents into the destination instead of keeping folder names")
	copyCmd.Flags().String("subdir", "", "Subdirectory of the working tree to copy files into")
	copyCmd.Flags().Bool("stage", false, "Stage the copied files")
	publishCmd.Flags().StringP("message", "m", "", "Commit message")
	publishCmd.Flags().Bool("flat", false, "Merge folder contents into the working tree instead of keeping folder names")
	probeCmd.Flags().Bool("tool", false, "Also check that the git executable is available")
	historyListCmd.Flags().IntP("limit", "n", contract.DefaultHistoryLimit, "Number of operations to show")

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
