package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/schema"
)

// PullOptions selects the tree, branch and optional credentials of a pull.
type PullOptions struct {
	Path     string
	Branch   string
	Username string
	Token    string
}

// IsToolAvailable reports whether the git executable can be started.
func (m *Manager) IsToolAvailable(ctx context.Context) bool {
	return m.runner.Run(ctx, "", m.commandTimeout, "--version").Success
}

// IsRepository reports whether path is a valid working tree.
func (m *Manager) IsRepository(path string) bool {
	return m.Repository(path).Valid()
}

// Init creates path if needed and initializes a repository in it.
func (m *Manager) Init(ctx context.Context, path string) schema.Outcome {
	s := m.begin(ctx, schema.OpInit, path, "", "Initializing repository...")
	if strings.TrimSpace(path) == "" {
		return s.finish(schema.Failed(schema.InvalidRepository, "Repository path is empty.", ""))
	}
	if err := m.fs.MkdirAll(path, 0o755); err != nil {
		return s.finish(schema.Failed(schema.InvalidRepository, fmt.Sprintf("Unable to create directory %s: %v", path, err), ""))
	}
	if s.cancelled() {
		return s.finish(s.cancelOutcome())
	}
	out := s.run(m.commandTimeout, "init")
	if !out.Success {
		return s.finish(out)
	}
	m.Repository(path).Revalidate()
	return s.finish(schema.Succeeded("Git repository initialized", out.RawOutput))
}

// SetRemote points origin at url, adding the remote if it does not exist yet.
func (m *Manager) SetRemote(ctx context.Context, path, url string) schema.Outcome {
	s := m.begin(ctx, schema.OpSetRemote, path, "", "Configuring remote...")
	if strings.TrimSpace(url) == "" {
		return s.finish(schema.Failed(schema.InvalidArgument, "Remote URL is empty.", ""))
	}
	if out, ok := s.requireRepository(); !ok {
		return s.finish(out)
	}

	existing := s.run(m.commandTimeout, "remote", "get-url", contract.DefaultRemote)
	if s.cancelled() {
		return s.finish(s.cancelOutcome())
	}
	var out schema.Outcome
	if existing.Success {
		out = s.run(m.commandTimeout, "remote", "set-url", contract.DefaultRemote, url)
	} else {
		out = s.run(m.commandTimeout, "remote", "add", contract.DefaultRemote, url)
	}
	if !out.Success {
		return s.finish(out)
	}
	return s.finish(schema.Succeeded("Remote configured: "+contract.RedactCredentials(url), out.RawOutput))
}

// StageAll stages every change in the working tree.
func (m *Manager) StageAll(ctx context.Context, path string) schema.Outcome {
	s := m.begin(ctx, schema.OpStageAll, path, "", "Staging all changes...")
	if out, ok := s.requireRepository(); !ok {
		return s.finish(out)
	}
	out := s.run(m.commandTimeout, "add", "-A")
	if !out.Success {
		return s.finish(out)
	}
	return s.finish(schema.Succeeded("All changes staged", out.RawOutput))
}

// StageExplicit stages the listed files one by one. Files outside the tree,
// missing files and failed adds are skipped with a warning.
func (m *Manager) StageExplicit(ctx context.Context, path string, files []string) schema.Outcome {
	s := m.begin(ctx, schema.OpStageExplicit, path, "", fmt.Sprintf("Staging %d file(s)...", len(files)))
	if len(files) == 0 {
		return s.finish(schema.Failed(schema.FileNotFound, "No files to stage.", ""))
	}
	if out, ok := s.requireRepository(); !ok {
		return s.finish(out)
	}
	root, err := filepath.Abs(path)
	if err != nil {
		return s.finish(schema.Failed(schema.InvalidRepository, err.Error(), ""))
	}

	staged := 0
	for _, file := range files {
		if s.cancelled() {
			return s.finish(s.cancelOutcome())
		}
		rel, ok := treeRelative(root, file)
		if !ok {
			s.warn("Outside the working tree, skipped: %s", file)
			continue
		}
		if _, err := m.fs.Stat(filepath.Join(root, rel)); err != nil {
			s.warn("File not found, skipped: %s", file)
			continue
		}
		out := s.run(m.commandTimeout, "add", "--", filepath.ToSlash(rel))
		if !out.Success {
			s.warn("Failed to stage %s: %s", rel, out.Message)
			continue
		}
		staged++
	}
	if staged == 0 {
		return s.finish(schema.Failed(schema.FileNotFound, "No file could be staged.", ""))
	}
	return s.finish(schema.Succeeded(fmt.Sprintf("%d file(s) staged", staged), ""))
}

// treeRelative resolves file against root and returns it relative to root.
// It returns false for paths that escape the tree.
func treeRelative(root, file string) (string, bool) {
	abs := file
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, abs)
	}
	rel, err := filepath.Rel(root, filepath.Clean(abs))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// Commit records the staged changes with message.
func (m *Manager) Commit(ctx context.Context, path, message string) schema.Outcome {
	s := m.begin(ctx, schema.OpCommit, path, "", "Creating commit...")
	if strings.TrimSpace(message) == "" {
		return s.finish(schema.Failed(schema.InvalidArgument, "Commit message is empty.", ""))
	}
	if out, ok := s.requireRepository(); !ok {
		return s.finish(out)
	}
	out := s.run(m.commandTimeout, "commit", "-m", message)
	if !out.Success {
		if strings.Contains(strings.ToLower(out.RawOutput), "nothing to commit") {
			return s.finish(schema.Failed(schema.NothingToCommit, "Nothing to commit.", out.RawOutput))
		}
		return s.finish(out)
	}
	return s.finish(schema.Succeeded("Commit created", out.RawOutput))
}

// Pull fetches and merges the branch from origin.
func (m *Manager) Pull(ctx context.Context, opts PullOptions) schema.Outcome {
	return m.pull(ctx, opts, false)
}

// PullRebase fetches the branch from origin and rebases local commits on it.
func (m *Manager) PullRebase(ctx context.Context, opts PullOptions) schema.Outcome {
	return m.pull(ctx, opts, true)
}

func (m *Manager) pull(ctx context.Context, opts PullOptions, rebase bool) schema.Outcome {
	name, label := schema.OpPull, "Pull"
	if rebase {
		name, label = schema.OpPullRebase, "Pull with rebase"
	}
	s := m.begin(ctx, name, opts.Path, opts.Branch, fmt.Sprintf("Pulling from origin/%s...", opts.Branch))
	if strings.TrimSpace(opts.Branch) == "" {
		return s.finish(schema.Failed(schema.InvalidArgument, "Branch name is empty.", ""))
	}
	if out, ok := s.requireRepository(); !ok {
		return s.finish(out)
	}

	url, err := s.originURL()
	if err != nil {
		contract.LogDebug("pull: %v", err)
		return s.finish(schema.Failed(schema.RemoteNotFound, "Unable to read the origin remote URL.\nRun 'publisher remote set <url>' first", ""))
	}
	if s.cancelled() {
		return s.finish(s.cancelOutcome())
	}

	target := contract.DefaultRemote
	if injected, ok := InjectCredentials(url, opts.Username, opts.Token); ok {
		target = injected
	}
	args := []string{"pull"}
	if rebase {
		args = append(args, "--rebase")
	}
	args = append(args, target, opts.Branch)

	s.attempts = 1
	out := s.run(m.networkTimeout, args...)
	if !out.Success {
		return s.finish(out)
	}
	return s.finish(schema.Succeeded(label+" completed", out.RawOutput))
}

// RemoteStatus fetches the branch and reports whether the local HEAD already
// contains every commit of origin/<branch>.
func (m *Manager) RemoteStatus(ctx context.Context, path, branch string) (bool, schema.Outcome) {
	s := m.begin(ctx, schema.OpRemoteStatus, path, branch, "Checking remote status...")
	if strings.TrimSpace(branch) == "" {
		return false, s.finish(schema.Failed(schema.InvalidArgument, "Branch name is empty.", ""))
	}
	if out, ok := s.requireRepository(); !ok {
		return false, s.finish(out)
	}

	out := s.run(m.networkTimeout, "fetch", contract.DefaultRemote, branch)
	if !out.Success {
		return false, s.finish(out)
	}
	if s.cancelled() {
		return false, s.finish(s.cancelOutcome())
	}

	out = s.run(m.commandTimeout, "rev-list", "--count", "HEAD..origin/"+branch)
	if !out.Success {
		return false, s.finish(out)
	}
	behind, err := strconv.Atoi(strings.TrimSpace(firstLine(out.RawOutput)))
	if err != nil {
		return false, s.finish(schema.Failed(schema.UnknownError, "Unable to read the commit count: "+strings.TrimSpace(out.RawOutput), out.RawOutput))
	}
	if behind == 0 {
		return true, s.finish(schema.Succeeded(fmt.Sprintf("Up to date with origin/%s", branch), out.RawOutput))
	}
	return false, s.finish(schema.Succeeded(fmt.Sprintf("Behind origin/%s by %d commit(s)", branch, behind), out.RawOutput))
}

// CheckConnectivity runs both reachability probes as a standalone operation.
func (m *Manager) CheckConnectivity(ctx context.Context) schema.Outcome {
	s := m.begin(ctx, schema.OpProbe, "", "", "Checking connectivity...")
	if !s.probeGeneric() {
		return s.finish(schema.Failed(schema.NetworkError, noInternetMessage, ""))
	}
	if s.cancelled() {
		return s.finish(s.cancelOutcome())
	}
	if !s.probeService() {
		return s.finish(schema.Failed(schema.NetworkError, serviceUnreachableMessage, ""))
	}
	return s.finish(schema.Succeeded("Internet and hosting service are reachable", ""))
}
