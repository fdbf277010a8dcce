// Package classify maps raw git output to error kinds and user-facing messages.
package classify

import (
	"strings"

	"github.com/huangsam/publisher/schema"
)

// rule pairs a set of lowercase markers with the kind they imply.
type rule struct {
	kind    schema.ErrorKind
	markers []string
}

// rules is evaluated top to bottom and the first match wins. Order matters
// because one message can carry markers from several tiers.
var rules = []rule{
	{schema.AuthenticationError, []string{
		"authentication failed",
		"could not authenticate",
		"invalid credentials",
		"403",
	}},
	{schema.NetworkError, []string{
		"could not resolve host",
		"failed to connect",
		"connection refused",
		"network unreachable",
		"connection timed out",
		"could not read from remote",
	}},
	{schema.SSLError, []string{"ssl", "certificate"}},
	{schema.ProxyError, []string{"proxy"}},
	{schema.RemoteNotFound, []string{
		"remote not found",
		"repository not found",
		"404",
	}},
	{schema.NothingToCommit, []string{"nothing to commit"}},
}

// Classify returns the error kind for raw command output.
// It never returns schema.NoError.
func Classify(raw string) schema.ErrorKind {
	text := strings.ToLower(raw)
	for _, r := range rules {
		if containsAny(text, r.markers) {
			return r.kind
		}
	}
	return schema.UnknownError
}

// message pairs markers with a short sentence for display.
type message struct {
	markers []string
	text    string
}

// messages is independent of rules and only drives display.
var messages = []message{
	{[]string{"authentication failed", "could not authenticate"}, "Authentication failed. Check your username and token."},
	{[]string{"remote not found", "could not read from remote"}, "Remote repository not found. Check the repository URL."},
	{[]string{"nothing to commit"}, "Nothing to commit."},
	{[]string{"network", "connection"}, "Network error. Check your internet connection."},
	{[]string{"permission denied"}, "Permission denied. Check your access rights."},
	{[]string{"not a git repository"}, "This directory is not a git repository."},
}

// HumanMessage returns a short sentence describing raw output. When no
// pattern matches, the trimmed output is returned as is.
func HumanMessage(raw string) string {
	text := strings.ToLower(raw)
	for _, m := range messages {
		if containsAny(text, m.markers) {
			return m.text
		}
	}
	return strings.TrimSpace(raw)
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
