package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/huangsam/publisher/core"
	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/internal/history"
	"github.com/huangsam/publisher/internal/netprobe"
	"github.com/huangsam/publisher/internal/outwriter"
	"github.com/huangsam/publisher/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// historyManager is the global history manager instance.
var historyManager contract.HistoryManager = history.Manager

// stdin is where --token-stdin reads from.
var stdin io.Reader = os.Stdin

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "publisher",
	Short: "Publish local content to a remote git repository.",
	Long: `Publisher drives the git executable to initialize a repository, stage and commit
content, and push it to a remote with retries when the network is flaky.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Set config file name and paths
		viper.SetConfigName(".publisher") // Name of config file (without extension)
		viper.SetConfigType("yaml")       // We'll use YAML format
		viper.AddConfigPath(".")          // Look in the current directory
		viper.AddConfigPath("$HOME")      // Look in the home directory
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("PUBLISHER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("branch", contract.DefaultBranch)
	viper.SetDefault("max-retries", contract.DefaultMaxRetries)
	viper.SetDefault("push-timeout", contract.DefaultPushTimeout.String())
	viper.SetDefault("command-timeout", contract.DefaultCommandTimeout.String())
	viper.SetDefault("probe-timeout", contract.DefaultProbeTimeout.String())
	viper.SetDefault("service-url", contract.DefaultServiceURL)
	viper.SetDefault("service-timeout", contract.DefaultServiceTimeout.String())
	viper.SetDefault("git-binary", contract.DefaultGitBinary)
	viper.SetDefault("history-backend", schema.SQLiteBackend)
	viper.SetDefault("history-db-connect", "")
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("color", "yes")
}

// loadConfigFile reads the config file if present. A missing file is fine.
func loadConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// sharedSetup unmarshals config and runs validation. repoArg, when set,
// overrides --repo as the working tree.
func sharedSetup(_ context.Context, _ *cobra.Command, repoArg string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	input.RepoPathStr = repoArg

	// 4. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	if err := resolveToken(); err != nil {
		return err
	}

	contract.SetDebug(cfg.Debug)
	color.NoColor = !cfg.UseColors || !outwriter.IsTerminal()

	// 5. Initialize persistence layer with validated config
	if err := history.InitStore(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		contract.LogWarn("Operation history is disabled", err)
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, _ []string) error {
	return sharedSetup(rootCtx, cmd, "")
}

// resolveToken reads the token from stdin or an interactive prompt when asked to.
func resolveToken() error {
	switch {
	case viper.GetBool("token-stdin"):
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("failed to read token from stdin: %w", err)
		}
		cfg.Token = firstLine(string(data))
	case viper.GetBool("ask-token"):
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return errors.New("--ask-token needs an interactive terminal. Use --token-stdin instead")
		}
		_, _ = fmt.Fprint(os.Stderr, "Token: ")
		data, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		cfg.Token = strings.TrimSpace(string(data))
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\r\n")
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// newManager wires the core manager with the local git client, the HTTP
// prober, the console observer and the history store.
func newManager() *core.Manager {
	runner := contract.NewLocalGitClient(cfg.GitBinary)
	prober := netprobe.NewFromConfig(cfg)
	opts := []core.Option{core.WithObserver(outwriter.NewOutWriter(cfg).Observer())}
	if store := historyManager.GetHistoryStore(); store != nil {
		opts = append(opts, core.WithHistory(store))
	}
	return core.NewManagerFromConfig(cfg, runner, prober, opts...)
}

// runOperation runs op with SIGINT and SIGTERM wired to Manager.Cancel, then
// prints the outcome. A failed outcome becomes the command error.
func runOperation(op func(ctx context.Context, m *core.Manager) schema.Outcome) error {
	m := newManager()
	sigCtx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	// Deferred first so the callback is unregistered before stop cancels sigCtx
	unregister := context.AfterFunc(sigCtx, func() { m.Cancel() })
	defer unregister()

	out := op(rootCtx, m)
	if err := outwriter.NewOutWriter(cfg).WriteOutcome(out); err != nil {
		contract.LogWarn("Failed to write outcome", err)
	}
	return out.Err()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetHistoryManager sets the global history manager.
func SetHistoryManager(mgr contract.HistoryManager) {
	historyManager = mgr
}
