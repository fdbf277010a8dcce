package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/huangsam/publisher/internal/contract"
)

// ErrNoOriginURL is returned when the origin remote has no URL configured.
var ErrNoOriginURL = errors.New("origin remote has no URL")

// Repository is a handle on a working tree with a cached validity check.
type Repository struct {
	path string

	mu      sync.Mutex
	checked bool
	valid   bool
}

// NewRepository creates an unchecked handle for path.
func NewRepository(path string) *Repository {
	return &Repository{path: path}
}

// Path returns the working tree path.
func (r *Repository) Path() string {
	return r.path
}

// Cached returns the last validity result without touching the filesystem.
// The second value is false if the handle was never checked.
func (r *Repository) Cached() (valid, checked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.valid, r.checked
}

// Valid revalidates the handle and returns the fresh result.
func (r *Repository) Valid() bool {
	return r.Revalidate()
}

// Revalidate checks that the path holds a .git entry that go-git can open.
func (r *Repository) Revalidate() bool {
	valid := false
	if r.path != "" {
		if _, err := os.Stat(filepath.Join(r.path, ".git")); err == nil {
			_, err = git.PlainOpen(r.path)
			valid = err == nil
			if err != nil {
				contract.LogDebug("open %s: %v", r.path, err)
			}
		}
	}

	r.mu.Lock()
	r.checked = true
	r.valid = valid
	r.mu.Unlock()
	return valid
}

// OriginURL reads the first URL of the origin remote from the repository config.
func (r *Repository) OriginURL() (string, error) {
	repo, err := git.PlainOpen(r.path)
	if err != nil {
		return "", fmt.Errorf("open repository %s: %w", r.path, err)
	}
	remote, err := repo.Remote(contract.DefaultRemote)
	if err != nil {
		return "", fmt.Errorf("read remote %s: %w", contract.DefaultRemote, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 || urls[0] == "" {
		return "", ErrNoOriginURL
	}
	return urls[0], nil
}
