package contract

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/publisher/schema"
)

// Default values for configuration.
const (
	DefaultBranch         = "main"
	DefaultRemote         = "origin"
	DefaultGitBinary      = "git"
	DefaultMaxRetries     = 3
	MaxRetriesLimit       = 10
	DefaultPushTimeout    = 120 * time.Second
	DefaultCommandTimeout = 30 * time.Second
	DefaultProbeTimeout   = 3 * time.Second
	DefaultServiceTimeout = 5 * time.Second
	DefaultServiceURL     = "https://api.github.com"
	DefaultHistoryLimit   = 20
)

// DateTimeFormat is the layout used for timestamps in console output.
const DateTimeFormat = "2006-01-02 15:04:05"

// DefaultProbeEndpoints are tried in order by the generic connectivity check.
var DefaultProbeEndpoints = []string{
	"https://www.google.com",
	"https://1.1.1.1",
	"https://8.8.8.8",
}

// Config holds the runtime configuration for publishing.
// This struct remains the "final, validated" config.
type Config struct {
	RepoPath  string
	RemoteURL string
	Branch    string
	Username  string
	Token     string // Please use env var as this is plaintext

	MaxRetries     int
	PushTimeout    time.Duration
	CommandTimeout time.Duration

	ProbeEndpoints []string
	ProbeTimeout   time.Duration
	ServiceURL     string
	ServiceTimeout time.Duration
	SkipProbe      bool

	GitBinary string

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	Output     schema.OutputMode
	OutputFile string
	UseColors  bool
	Debug      bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args or --repo, so no tag
	RepoPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Repo             string `mapstructure:"repo"`
	RemoteURL        string `mapstructure:"remote-url"`
	Branch           string `mapstructure:"branch"`
	Username         string `mapstructure:"username"`
	Token            string `mapstructure:"token"`
	MaxRetries       int    `mapstructure:"max-retries"`
	PushTimeout      string `mapstructure:"push-timeout"`
	CommandTimeout   string `mapstructure:"command-timeout"`
	ProbeEndpoints   string `mapstructure:"probe-endpoints"`
	ProbeTimeout     string `mapstructure:"probe-timeout"`
	ServiceURL       string `mapstructure:"service-url"`
	ServiceTimeout   string `mapstructure:"service-timeout"`
	SkipProbe        bool   `mapstructure:"skip-probe"`
	GitBinary        string `mapstructure:"git-binary"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Color            string `mapstructure:"color"`
	Debug            bool   `mapstructure:"debug"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.ProbeEndpoints != nil {
		clone.ProbeEndpoints = make([]string, len(c.ProbeEndpoints))
		copy(clone.ProbeEndpoints, c.ProbeEndpoints)
	}
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processTimeouts(cfg, input); err != nil {
		return err
	}
	if err := processProbeSettings(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	return resolveRepoPath(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseBackend maps a raw backend string to a DatabaseBackend. An empty value
// means the default sqlite backend.
func ParseBackend(raw string) (schema.DatabaseBackend, error) {
	if strings.TrimSpace(raw) == "" {
		return schema.SQLiteBackend, nil
	}
	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", raw)
	}
	return backend, nil
}

// validateBackendConfig validates the history backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	backend, err := ParseBackend(input.HistoryBackend)
	if err != nil {
		return err
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = input.HistoryDBConnect
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.Username = strings.TrimSpace(input.Username)
	cfg.Token = strings.TrimSpace(input.Token)
	cfg.OutputFile = input.OutputFile
	cfg.SkipProbe = input.SkipProbe
	cfg.Debug = input.Debug

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Branch ---
	cfg.Branch = strings.TrimSpace(input.Branch)
	if cfg.Branch == "" {
		cfg.Branch = DefaultBranch
	}

	// --- 2. Remote URL ---
	cfg.RemoteURL = strings.TrimSpace(input.RemoteURL)

	// --- 3. Retry budget ---
	if input.MaxRetries <= 0 || input.MaxRetries > MaxRetriesLimit {
		return fmt.Errorf("max-retries must be greater than 0 and cannot exceed %d (received %d)", MaxRetriesLimit, input.MaxRetries)
	}
	cfg.MaxRetries = input.MaxRetries

	// --- 4. Output ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.TextOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, json", input.Output)
	}

	// --- 5. Git binary ---
	cfg.GitBinary = strings.TrimSpace(input.GitBinary)
	if cfg.GitBinary == "" {
		cfg.GitBinary = DefaultGitBinary
	}

	return nil
}

// processTimeouts parses every duration setting, falling back to defaults for empty values.
func processTimeouts(cfg *Config, input *ConfigRawInput) error {
	durations := []struct {
		name     string
		raw      string
		fallback time.Duration
		target   *time.Duration
	}{
		{"push-timeout", input.PushTimeout, DefaultPushTimeout, &cfg.PushTimeout},
		{"command-timeout", input.CommandTimeout, DefaultCommandTimeout, &cfg.CommandTimeout},
		{"probe-timeout", input.ProbeTimeout, DefaultProbeTimeout, &cfg.ProbeTimeout},
		{"service-timeout", input.ServiceTimeout, DefaultServiceTimeout, &cfg.ServiceTimeout},
	}

	for _, d := range durations {
		value, err := ParseDurationOrDefault(d.raw, d.fallback)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.target = value
	}
	return nil
}

// processProbeSettings validates the connectivity probe targets.
func processProbeSettings(cfg *Config, input *ConfigRawInput) error {
	cfg.ProbeEndpoints = nil
	if input.ProbeEndpoints != "" {
		for p := range strings.SplitSeq(input.ProbeEndpoints, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed == "" {
				continue
			}
			if err := validateHTTPURL(trimmed); err != nil {
				return fmt.Errorf("invalid probe endpoint: %w", err)
			}
			cfg.ProbeEndpoints = append(cfg.ProbeEndpoints, trimmed)
		}
	}
	if len(cfg.ProbeEndpoints) == 0 {
		cfg.ProbeEndpoints = append([]string(nil), DefaultProbeEndpoints...)
	}

	cfg.ServiceURL = strings.TrimSpace(input.ServiceURL)
	if cfg.ServiceURL == "" {
		cfg.ServiceURL = DefaultServiceURL
	}
	if err := validateHTTPURL(cfg.ServiceURL); err != nil {
		return fmt.Errorf("invalid service-url: %w", err)
	}
	return nil
}

// resolveRepoPath resolves the working tree path to an absolute, cleaned path.
// The path may not exist yet, which is valid for init.
func resolveRepoPath(cfg *Config, input *ConfigRawInput) error {
	searchPath := input.RepoPathStr
	if searchPath == "" {
		searchPath = input.Repo
	}
	if searchPath == "" {
		searchPath = "."
	}
	absPath, err := filepath.Abs(searchPath)
	if err != nil {
		return fmt.Errorf("cannot resolve repository path %q: %w", searchPath, err)
	}
	cfg.RepoPath = filepath.Clean(absPath)
	return nil
}

// validateHTTPURL checks that raw is an absolute http or https URL.
func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q must be an absolute http(s) URL", raw)
	}
	return nil
}
