package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/internal/history"
	"github.com/huangsam/publisher/internal/outwriter"
	"github.com/huangsam/publisher/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, err := contract.ParseBackend(viper.GetString("history-backend"))
	if err != nil {
		return err
	}
	connStr := viper.GetString("history-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	output, err := outputSettings()
	if err != nil {
		return err
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.Output = output
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// outputSettings validates the output flags shared by history commands.
func outputSettings() (schema.OutputMode, error) {
	output := schema.OutputMode(strings.ToLower(viper.GetString("output")))
	if _, ok := schema.ValidOutputModes[output]; !ok {
		return "", fmt.Errorf("invalid output format '%s'. must be text, json", output)
	}
	colors, err := contract.ParseBoolString(viper.GetString("color"))
	if err != nil {
		return "", fmt.Errorf("invalid --color value: %w", err)
	}
	color.NoColor = !colors || !outwriter.IsTerminal()
	return output, nil
}

// historyStoreSetup runs historySetup and opens the store.
func historyStoreSetup(_ *cobra.Command, _ []string) error {
	if err := historySetup(); err != nil {
		return err
	}
	if err := history.InitStore(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}
	return nil
}

// historyCmd focused on operation history management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by repository commands. This avoids repository
// path resolution and token handling for simple history operations.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the history of repository operations",
	Long: `Manage the record of finished repository operations.

Every init, stage, commit, push, pull, status, copy and probe run is stored with
its outcome, error kind, attempts and duration.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show history statistics and connection info
  list    - Show the most recent operations
  clear   - Remove all recorded operations
  export  - Export the history to Parquet
  migrate - Move the history schema to a version`,
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display history statistics and connection details",
	PreRunE: historyStoreSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		store := historyManager.GetHistoryStore()
		if store == nil {
			return errors.New("history store is not initialized")
		}
		status, err := store.GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get history status: %w", err)
		}
		history.PrintHistoryStatus(status)
		return nil
	},
}

// historyListCmd prints the most recent operations.
var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the most recent operations, newest first",
	Long: `Show the most recent repository operations as a table or JSON.

Examples:
  publisher history list -n 50
  publisher history list --output json --output-file history.json`,
	PreRunE: historyStoreSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		store := historyManager.GetHistoryStore()
		if store == nil {
			return errors.New("history store is not initialized")
		}
		records, err := store.List(limit)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter(cfg).WriteHistory(records)
	},
}

// historyClearCmd clears the history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded operations",
	Long: `Delete all recorded operations from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Deletes the rows and keeps the migrated schema

Examples:
  publisher history clear
  PUBLISHER_HISTORY_BACKEND=mysql PUBLISHER_HISTORY_DB_CONNECT="..." publisher history clear`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historySetup()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := history.ClearHistory(cfg.HistoryBackend, contract.GetHistoryDBFilePath(), cfg.HistoryDBConnect); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Println("History cleared successfully.")
		return nil
	},
}

// historyExportCmd exports the history to Parquet.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the history to a Parquet file",
	Long: `Export every recorded operation to <output-file>.operations.parquet.

Examples:
  publisher history export --output-file ./publisher`,
	PreRunE: historyStoreSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return history.ExecuteHistoryExport(historyManager, cfg.OutputFile)
	},
}

// historyMigrateCmd runs schema migrations.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move the history schema to a version",
	Long: `Apply or roll back history schema migrations. Opening the store already
migrates to the latest version; use this to roll back or to prepare a database.

Examples:
  publisher history migrate
  publisher history migrate --target-version 0`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return historySetup()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return history.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, viper.GetInt("target-version"))
	},
}
