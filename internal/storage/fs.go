package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystemAdapter persists each key as a file under a root directory.
//
// Writes are atomic: the value is written to a temporary file in the same
// directory and renamed over the target, so readers never observe a
// partially written snapshot.
type FileSystemAdapter struct {
	root string
}

// NewFileSystemAdapter creates a filesystem-backed adapter rooted at dir.
// The directory is created if it does not exist.
func NewFileSystemAdapter(dir string) (*FileSystemAdapter, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage root directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", dir, err)
	}
	return &FileSystemAdapter{root: dir}, nil
}

// Root returns the backing directory.
func (a *FileSystemAdapter) Root() string {
	return a.root
}

// Store persists the value under key, atomically replacing any previous
// value.
func (a *FileSystemAdapter) Store(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(a.root, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("store %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store %s: %w", key, err)
	}
	if err := os.Rename(tmpName, filepath.Join(a.root, key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// Load returns the value stored under key, or ErrNotFound.
func (a *FileSystemAdapter) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	value, err := os.ReadFile(filepath.Join(a.root, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return value, nil
}

// Delete removes the key, or returns ErrNotFound if it does not exist.
func (a *FileSystemAdapter) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(a.root, key)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("delete %s: %w", key, ErrNotFound)
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// List returns the keys matching pattern. A missing root directory yields
// an empty result, not an error, so a fresh deployment lists cleanly
// before anything was ever stored.
func (a *FileSystemAdapter) List(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(a.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list %s: %w", pattern, err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		matched, err := path.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("list: bad pattern %q: %w", pattern, err)
		}
		if matched {
			keys = append(keys, name)
		}
	}
	return keys, nil
}

// validateKey rejects keys that could escape the root directory or collide
// with temporary files.
func validateKey(key string) error {
	if key == "" || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if strings.ContainsAny(key, "/\\") {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidKey, key)
	}
	return nil
}
