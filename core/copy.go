package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/huangsam/publisher/schema"
	"github.com/spf13/afero"
)

// CopyOptions describes a recursive copy into a working tree.
type CopyOptions struct {
	Dest              string
	Paths             []string
	PreserveStructure bool // copy a directory under its own name instead of merging its contents into Dest
}

// CopyIntoTree copies files and directories into Dest. Individual failures
// become warnings; the copy fails only if nothing was copied.
func (m *Manager) CopyIntoTree(ctx context.Context, opts CopyOptions) schema.Outcome {
	s := m.begin(ctx, schema.OpCopy, opts.Dest, "", fmt.Sprintf("Copying %d item(s)...", len(opts.Paths)))
	if len(opts.Paths) == 0 {
		return s.finish(schema.Failed(schema.InvalidArgument, "No files or folders to copy.", ""))
	}
	if err := m.fs.MkdirAll(opts.Dest, 0o755); err != nil {
		return s.finish(schema.Failed(schema.FileNotFound, fmt.Sprintf("Unable to create %s: %v", opts.Dest, err), ""))
	}

	c := &copier{s: s, fs: m.fs, root: absPath(opts.Dest)}
	for _, src := range opts.Paths {
		if s.cancelled() {
			return s.finish(s.cancelOutcome())
		}
		info, err := m.fs.Stat(src)
		if err != nil {
			s.warn("Not found, skipped: %s", src)
			continue
		}
		if !info.IsDir() {
			c.copyFile(src, filepath.Join(opts.Dest, info.Name()))
			continue
		}
		dest := opts.Dest
		if opts.PreserveStructure {
			dest = filepath.Join(opts.Dest, info.Name())
		}
		if err := c.copyDir(src, dest); err != nil {
			return s.finish(s.cancelOutcome())
		}
	}

	if c.count == 0 {
		return s.finish(schema.Failed(schema.FileNotFound, "No file could be copied.", ""))
	}
	return s.finish(schema.Succeeded(fmt.Sprintf("%d file(s) copied", c.count), ""))
}

// CopyAndStage copies plain files into subdir of the tree (the root when
// subdir is empty) and stages each copied file.
func (m *Manager) CopyAndStage(ctx context.Context, repoPath string, files []string, subdir string) schema.Outcome {
	s := m.begin(ctx, schema.OpCopyAndStage, repoPath, "", fmt.Sprintf("Copying and staging %d file(s)...", len(files)))
	if len(files) == 0 {
		return s.finish(schema.Failed(schema.FileNotFound, "No files to copy.", ""))
	}
	if out, ok := s.requireRepository(); !ok {
		return s.finish(out)
	}
	target := filepath.Join(repoPath, subdir)
	if err := m.fs.MkdirAll(target, 0o755); err != nil {
		return s.finish(schema.Failed(schema.FileNotFound, fmt.Sprintf("Unable to create %s: %v", target, err), ""))
	}

	c := &copier{s: s, fs: m.fs, root: absPath(target)}
	var copied []string
	for _, src := range files {
		if s.cancelled() {
			return s.finish(s.cancelOutcome())
		}
		info, err := m.fs.Stat(src)
		if err != nil || info.IsDir() {
			s.warn("Not a file, skipped: %s", src)
			continue
		}
		if c.copyFile(src, filepath.Join(target, info.Name())) {
			copied = append(copied, path.Join(filepath.ToSlash(subdir), info.Name()))
		}
	}
	if len(copied) == 0 {
		return s.finish(schema.Failed(schema.FileNotFound, "No file could be copied.", ""))
	}

	for _, rel := range copied {
		if s.cancelled() {
			return s.finish(s.cancelOutcome())
		}
		if out := s.run(m.commandTimeout, "add", "--", rel); !out.Success {
			s.warn("Failed to stage %s: %s", rel, out.Message)
		}
	}
	return s.finish(schema.Succeeded(fmt.Sprintf("%d file(s) copied and staged", len(copied)), ""))
}

// errSameFile marks a copy whose source already is the destination.
var errSameFile = errors.New("source and destination are the same file")

// copier counts the files copied during one operation. root is the absolute
// destination of the operation and is never read as a source.
type copier struct {
	s     *opScope
	fs    afero.Fs
	root  string
	count int
}

// copyDir mirrors src into dst, files first and then subdirectories.
// It returns an error only when the operation was cancelled.
func (c *copier) copyDir(src, dst string) error {
	// List before creating dst so a destination nested in src is not picked up.
	entries, err := afero.ReadDir(c.fs, src)
	if err != nil {
		c.s.warn("Unable to read %s: %v", src, err)
		return nil
	}
	if err := c.fs.MkdirAll(dst, 0o755); err != nil {
		c.s.warn("Unable to create %s: %v", dst, err)
		return nil
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if c.s.cancelled() {
			return c.s.ctx.Err()
		}
		c.copyFile(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name()))
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if c.s.cancelled() {
			return c.s.ctx.Err()
		}
		sub := filepath.Join(src, e.Name())
		if absPath(sub) == c.root {
			c.s.warn("Destination inside source, skipped: %s", sub)
			continue
		}
		if err := c.copyDir(sub, filepath.Join(dst, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// copyFile copies one file, overwriting dst, and reports progress. A file
// that already is dst counts as copied and is left untouched.
func (c *copier) copyFile(src, dst string) bool {
	err := copyFile(c.fs, src, dst)
	switch {
	case errors.Is(err, errSameFile):
		c.s.warn("Already in place: %s", src)
	case err != nil:
		c.s.warn("Failed to copy %s: %v", src, err)
		return false
	}
	c.count++
	c.s.progress(c.count, schema.UnknownTotal, filepath.Base(src))
	return true
}

func copyFile(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if dstInfo, err := fs.Stat(dst); err == nil {
		if absPath(src) == absPath(dst) || os.SameFile(info, dstInfo) {
			return errSameFile
		}
		if dstInfo.IsDir() {
			return fmt.Errorf("%s is a directory", dst)
		}
		// A read-only leftover cannot be truncated in place.
		if err := fs.Remove(dst); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// absPath returns the cleaned absolute form of p, or p cleaned when the
// working directory is unknown.
func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
