// Package pkg provides reusable utilities for crucible.
package pkg

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// FileSpill keeps an append-only sequence of T on disk so that large
// campaigns do not hold every result in memory.
type FileSpill[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendBatch(items []T) error
	Get(index uint64) (T, error)
	Range(f func(index uint64, item T) error) error
	Close() error
	Remove() error
}

type fileSpill[T any] struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	encoder *msgpack.Encoder
	length  uint64
}

// NewFileSpill creates a spill file in dir. An empty dir uses the system
// temp directory.
func NewFileSpill[T any](dir string) (FileSpill[T], error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "crucible-spill")
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		slog.Error("failed to create spill directory", "path", dir, "error", err)
		return nil, fmt.Errorf("failed to create spill directory: %w", err)
	}

	file, err := os.CreateTemp(dir, "spill-*.msgpack")
	if err != nil {
		slog.Error("failed to create spill file", "path", dir, "error", err)
		return nil, fmt.Errorf("failed to create spill file: %w", err)
	}

	slog.Debug("created spill", "path", file.Name())

	return &fileSpill[T]{
		path:    file.Name(),
		file:    file,
		encoder: msgpack.NewEncoder(file),
	}, nil
}

// Append implements FileSpill.
func (f *fileSpill[T]) Append(item T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return fmt.Errorf("spill %s is closed", f.path)
	}

	if err := f.encoder.Encode(item); err != nil {
		slog.Error("failed to encode item", "path", f.path, "index", f.length, "error", err)
		return fmt.Errorf("failed to encode item: %w", err)
	}

	f.length++

	return nil
}

// AppendBatch implements FileSpill.
func (f *fileSpill[T]) AppendBatch(items []T) error {
	for _, item := range items {
		if err := f.Append(item); err != nil {
			return err
		}
	}

	return nil
}

// Path implements FileSpill.
func (f *fileSpill[T]) Path() string {
	return f.path
}

// Len implements FileSpill.
func (f *fileSpill[T]) Len() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.length
}

// Get implements FileSpill. It scans from the start of the file.
func (f *fileSpill[T]) Get(index uint64) (T, error) {
	var found T

	if n := f.Len(); index >= n {
		return found, fmt.Errorf("index %d out of bounds (length %d)", index, n)
	}

	errStop := errors.New("stop")

	err := f.Range(func(i uint64, item T) error {
		if i == index {
			found = item
			return errStop
		}

		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		var zero T
		return zero, err
	}

	return found, nil
}

// Range implements FileSpill. Items are visited in append order.
func (f *fileSpill[T]) Range(fn func(index uint64, item T) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		slog.Error("failed to open spill for range", "path", f.path, "error", err)
		return fmt.Errorf("failed to open spill: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close spill reader", "path", f.path, "error", err)
		}
	}()

	decoder := msgpack.NewDecoder(file)

	for i := range f.length {
		var item T

		if err := decoder.Decode(&item); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("spill %s truncated at index %d", f.path, i)
			}

			slog.Error("failed to decode item during range", "path", f.path, "index", i, "error", err)

			return fmt.Errorf("failed to decode item at index %d: %w", i, err)
		}

		if err := fn(i, item); err != nil {
			return err
		}
	}

	return nil
}

// Close implements FileSpill. Items stay readable after Close.
func (f *fileSpill[T]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	err := f.file.Close()
	f.file = nil

	if err != nil {
		slog.Error("failed to close spill", "path", f.path, "error", err)
		return err
	}

	slog.Debug("closed spill", "path", f.path, "length", f.length)

	return nil
}

// Remove closes the spill and deletes its file.
func (f *fileSpill[T]) Remove() error {
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove spill: %w", err)
	}

	return nil
}
