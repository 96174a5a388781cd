// Package adapter contains the infrastructure adapters of crucible: file
// system access, the YAML stores and the Go toolchain plugins hosted by the
// worker processes.
package adapter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	m "gooze.dev/pkg/crucible/internal/model"
)

// SourceFSAdapter hides the file system operations needed to build and
// maintain a sandbox copy of the project under test.
type SourceFSAdapter interface {
	// FindProjectRoot searches for go.mod walking up from startPath.
	FindProjectRoot(ctx context.Context, startPath m.Path) (m.Path, error)

	// CreateTempDir creates a temporary directory.
	CreateTempDir(ctx context.Context, pattern string) (m.Path, error)

	// RemoveAll removes a directory and all its contents.
	RemoveAll(ctx context.Context, path m.Path) error

	// CopyDir recursively copies a directory tree, skipping VCS and vendor dirs.
	CopyDir(ctx context.Context, src, dst m.Path) error

	ReadFile(ctx context.Context, path m.Path) ([]byte, error)
	WriteFile(ctx context.Context, path m.Path, content []byte, perm os.FileMode) error

	// RelPath returns the relative path from base to target.
	RelPath(ctx context.Context, base, target m.Path) (m.Path, error)
}

// LocalSourceFSAdapter implements SourceFSAdapter on the local disk.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

var skippedDirs = map[string]struct{}{
	".git":         {},
	"vendor":       {},
	"node_modules": {},
	"reports":      {},
}

// FindProjectRoot implements SourceFSAdapter. startPath may be a file or a directory.
func (a *LocalSourceFSAdapter) FindProjectRoot(_ context.Context, startPath m.Path) (m.Path, error) {
	dir, err := filepath.Abs(string(startPath))
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return m.Path(dir), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent directory of %s", startPath)
		}

		dir = parent
	}
}

// CreateTempDir implements SourceFSAdapter.
func (a *LocalSourceFSAdapter) CreateTempDir(_ context.Context, pattern string) (m.Path, error) {
	tmpDir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", err
	}

	return m.Path(tmpDir), nil
}

// RemoveAll implements SourceFSAdapter.
func (a *LocalSourceFSAdapter) RemoveAll(_ context.Context, path m.Path) error {
	return os.RemoveAll(string(path))
}

// CopyDir implements SourceFSAdapter. It stops early when ctx is done.
func (a *LocalSourceFSAdapter) CopyDir(ctx context.Context, src, dst m.Path) error {
	return filepath.WalkDir(string(src), func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		relPath, err := filepath.Rel(string(src), path)
		if err != nil {
			return err
		}

		if entry.IsDir() {
			if _, skip := skippedDirs[entry.Name()]; skip && relPath != "." {
				return filepath.SkipDir
			}
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		targetPath := filepath.Join(string(dst), relPath)

		if entry.IsDir() {
			return os.MkdirAll(targetPath, info.Mode().Perm()|0o700)
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		return copyFile(path, targetPath, info.Mode().Perm())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	// #nosec G304 - src is a project file found by WalkDir
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}

	defer func() { _ = sourceFile.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	// #nosec G304 - dst is inside the sandbox
	destFile, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode|0o200)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		_ = destFile.Close()
		return err
	}

	return destFile.Close()
}

// ReadFile implements SourceFSAdapter.
func (a *LocalSourceFSAdapter) ReadFile(_ context.Context, path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// WriteFile implements SourceFSAdapter.
func (a *LocalSourceFSAdapter) WriteFile(_ context.Context, path m.Path, content []byte, perm os.FileMode) error {
	return os.WriteFile(string(path), content, perm)
}

// RelPath implements SourceFSAdapter.
func (a *LocalSourceFSAdapter) RelPath(_ context.Context, base, target m.Path) (m.Path, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", err
	}

	return m.Path(rel), nil
}
