package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
)

// Color variables for console output.
var (
	SuccessColor = color.New(color.FgGreen, color.Bold) // SuccessColor marks completed operations.
	FailColor    = color.New(color.FgRed, color.Bold)   // FailColor marks failed operations.
	WarnColor    = color.New(color.FgYellow)            // WarnColor marks skipped items and retries.
	InfoColor    = color.New(color.FgCyan)              // InfoColor marks progress and probes.
)

// debugEnabled gates LogDebug output.
var debugEnabled atomic.Bool

// credentialPattern matches the userinfo part of an http(s) URL.
var credentialPattern = regexp.MustCompile(`(https?://)[^\s@/]+@`)

// SetDebug toggles debug logging to stderr.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%s %s: %v\n", FailColor.Sprint("Fatal"), msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%s %s: %v\n", WarnColor.Sprint("Warn"), msg, err)
}

// LogDebug logs a formatted message to stderr when debug output is enabled.
func LogDebug(format string, args ...any) {
	if !debugEnabled.Load() {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "debug: "+format+"\n", args...)
}

// RedactCredentials replaces any userinfo embedded in http(s) URLs.
func RedactCredentials(s string) string {
	return credentialPattern.ReplaceAllString(s, "${1}<redacted>@")
}

// SanitizeArgs returns a copy of args with credentials redacted.
func SanitizeArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = RedactCredentials(a)
	}
	return out
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for history storage.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".publisher_history.db"
	}
	return filepath.Join(homeDir, ".publisher_history.db")
}

// SelectOutputFile returns the file handle for output. It falls back to
// os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to leave room for the "..." prefix.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// ParseDurationOrDefault parses a Go duration string. Empty input yields fallback.
// Bare integers are read as seconds.
func ParseDurationOrDefault(s string, fallback time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("duration must be positive (received %s)", s)
		}
		return d, nil
	}
	secs, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q. Expected a value like 30s, 2m or 120", s)
	}
	if secs <= 0 {
		return 0, fmt.Errorf("duration must be positive (received %s)", s)
	}
	return time.Duration(secs) * time.Second, nil
}
