package core

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/schema"
)

// InjectCredentials embeds username and token into an https remote URL.
// It returns false, and the URL untouched, when either credential is empty
// or the URL is not https. Existing userinfo is replaced.
func InjectCredentials(remoteURL, username, token string) (string, bool) {
	raw := strings.TrimSpace(remoteURL)
	if username == "" || token == "" || !strings.HasPrefix(strings.ToLower(raw), "https://") {
		return remoteURL, false
	}
	ep, err := transport.NewEndpoint(raw)
	if err != nil || ep.Host == "" {
		return remoteURL, false
	}
	ep.User = username
	ep.Password = token
	return ep.String(), true
}

// originURL reads the origin URL from the repository config, falling back to
// asking git, which also honors url.<base>.insteadOf rewrites.
func (s *opScope) originURL() (string, error) {
	url, err := s.m.Repository(s.repo).OriginURL()
	if err == nil {
		return url, nil
	}
	contract.LogDebug("origin lookup via config failed: %v", err)
	out := s.run(s.m.commandTimeout, "remote", "get-url", contract.DefaultRemote)
	if !out.Success {
		return "", out.Err()
	}
	url = strings.TrimSpace(firstLine(out.RawOutput))
	if url == "" {
		return "", ErrNoOriginURL
	}
	return url, nil
}

// remoteTarget picks what to pass to push or pull: a credentialed URL when
// possible, otherwise the origin remote name.
func (s *opScope) remoteTarget(username, token string) string {
	if username == "" || token == "" {
		return contract.DefaultRemote
	}
	url, err := s.originURL()
	if err != nil {
		return contract.DefaultRemote
	}
	if injected, ok := InjectCredentials(url, username, token); ok {
		return injected
	}
	return contract.DefaultRemote
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// enrich layers actionable guidance over the message of a non-retryable failure.
func enrich(out schema.Outcome) schema.Outcome {
	switch out.Kind {
	case schema.AuthenticationError:
		out.Message += "\n\nCheck:\n- Your username\n- That your token is valid\n- That the token has the repo permission"
	case schema.RemoteNotFound:
		out.Message += "\n\nCheck:\n- The repository URL\n- That the repository exists on the hosting service\n- Your access permissions to the repository"
	}
	return out
}
