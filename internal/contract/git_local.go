package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/huangsam/publisher/core/classify"
	"github.com/huangsam/publisher/schema"
)

// waitDelay bounds how long Wait keeps draining pipes after the process is killed.
const waitDelay = 2 * time.Second

// LocalGitClient implements the CommandRunner interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct {
	binary  string
	running atomic.Bool
}

var _ CommandRunner = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
// An empty binary means "git" from PATH.
func NewLocalGitClient(binary string) *LocalGitClient {
	if binary == "" {
		binary = DefaultGitBinary
	}
	return &LocalGitClient{binary: binary}
}

// Running reports whether a subprocess is currently in flight.
func (c *LocalGitClient) Running() bool {
	return c.running.Load()
}

// Run executes a git command in workDir. The subprocess is scoped to this call
// and is killed and reaped on every exit path.
func (c *LocalGitClient) Run(ctx context.Context, workDir string, timeout time.Duration, args ...string) schema.Outcome {
	c.running.Store(true)
	defer c.running.Store(false)

	if workDir != "" {
		if info, err := os.Stat(workDir); err != nil || !info.IsDir() {
			return schema.Failed(schema.InvalidRepository, fmt.Sprintf("Directory does not exist: %s", workDir), "")
		}
	}
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, c.binary, args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	LogDebug("%s %s (dir=%s, timeout=%s)", c.binary, strings.Join(SanitizeArgs(args), " "), workDir, timeout)

	if err := cmd.Start(); err != nil {
		switch {
		case errors.Is(err, exec.ErrNotFound):
			return schema.Failed(schema.ToolNotInstalled,
				fmt.Sprintf("Unable to find %q. Ensure Git is installed and available on your PATH", c.binary), err.Error())
		case ctx.Err() != nil:
			return schema.Failed(schema.UserCancelled, "Operation cancelled by user.", "")
		default:
			return schema.Failed(schema.ProcessFailed,
				fmt.Sprintf("Unable to start %s: %v. Check that it is installed", c.binary, err), err.Error())
		}
	}

	err := cmd.Wait()
	out := stdout.String()
	errOut := stderr.String()

	if err != nil {
		switch {
		case ctx.Err() != nil:
			return schema.Failed(schema.UserCancelled, "Operation cancelled by user.", RedactCredentials(errOut))
		case errors.Is(cmdCtx.Err(), context.DeadlineExceeded):
			return schema.Failed(schema.Timeout,
				fmt.Sprintf("Operation timed out after %s.", timeout), RedactCredentials(errOut))
		}

		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return schema.Failed(schema.ProcessFailed, fmt.Sprintf("%s did not complete: %v", c.binary, err), RedactCredentials(errOut))
		}

		raw := errOut
		if strings.TrimSpace(raw) == "" {
			raw = out
		}
		raw = RedactCredentials(raw)
		return schema.Failed(classify.Classify(raw), classify.HumanMessage(raw), raw)
	}

	// Some git commands write informational text to stderr even on success.
	if errOut != "" {
		out += "\n" + errOut
	}
	return schema.Succeeded("", out)
}
