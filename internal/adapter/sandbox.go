package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	m "gooze.dev/pkg/crucible/internal/model"
)

// Sandbox is a private copy of the project in which one mutant at a time is
// written over its source file.
type Sandbox struct {
	fs      SourceFSAdapter
	root    m.Path
	dir     m.Path
	applied *m.Path
	// original content of the file the active mutant was written to
	original []byte
}

// NewSandbox copies the module containing workingDir into a temp directory.
func NewSandbox(ctx context.Context, fs SourceFSAdapter, workingDir string) (*Sandbox, error) {
	root, err := fs.FindProjectRoot(ctx, m.Path(workingDir))
	if err != nil {
		slog.Error("Failed to find project root", "workingDir", workingDir, "error", err)
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}

	dir, err := fs.CreateTempDir(ctx, "crucible-sandbox-*")
	if err != nil {
		slog.Error("Failed to create sandbox dir", "error", err)
		return nil, fmt.Errorf("failed to create sandbox dir: %w", err)
	}

	if err := fs.CopyDir(ctx, root, dir); err != nil {
		slog.Error("Failed to copy project to sandbox", "root", root, "sandbox", dir, "error", err)
		_ = fs.RemoveAll(ctx, dir)

		return nil, fmt.Errorf("failed to copy project: %w", err)
	}

	slog.Debug("Created sandbox", "root", root, "sandbox", dir)

	return &Sandbox{fs: fs, root: root, dir: dir}, nil
}

// Dir is the sandbox root.
func (s *Sandbox) Dir() string {
	return string(s.dir)
}

// Apply restores the previous mutant and writes mt into the sandbox.
func (s *Sandbox) Apply(ctx context.Context, mt m.Mutant) error {
	if err := s.Restore(ctx); err != nil {
		return err
	}

	target, err := s.resolve(ctx, mt.FileName)
	if err != nil {
		return err
	}

	original, err := s.fs.ReadFile(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", mt.FileName, err)
	}

	mutated, err := mt.Apply(original)
	if err != nil {
		return err
	}

	if err := s.fs.WriteFile(ctx, target, mutated, 0o600); err != nil {
		slog.Error("Failed to write mutated file", "path", target, "error", err)
		return fmt.Errorf("failed to write mutated file: %w", err)
	}

	s.applied = &target
	s.original = original

	return nil
}

// Restore puts back the file changed by the last Apply.
func (s *Sandbox) Restore(ctx context.Context) error {
	if s.applied == nil {
		return nil
	}

	if err := s.fs.WriteFile(ctx, *s.applied, s.original, 0o600); err != nil {
		slog.Error("Failed to restore file", "path", *s.applied, "error", err)
		return fmt.Errorf("failed to restore %s: %w", *s.applied, err)
	}

	s.applied = nil
	s.original = nil

	return nil
}

// Remove deletes the sandbox.
func (s *Sandbox) Remove(ctx context.Context) error {
	if err := s.fs.RemoveAll(ctx, s.dir); err != nil {
		slog.Error("Failed to cleanup sandbox", "sandbox", s.dir, "error", err)
		return err
	}

	return nil
}

// resolve maps a project file name, absolute or relative to the module root,
// to its path in the sandbox.
func (s *Sandbox) resolve(ctx context.Context, name m.Path) (m.Path, error) {
	rel := name

	if filepath.IsAbs(string(name)) {
		r, err := s.fs.RelPath(ctx, s.root, name)
		if err != nil {
			return "", fmt.Errorf("failed to get relative path of %s: %w", name, err)
		}

		rel = r
	}

	cleaned := filepath.Clean(string(rel))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the project %s", name, s.root)
	}

	return m.Path(filepath.Join(string(s.dir), cleaned)), nil
}
