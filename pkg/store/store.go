package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound reports a name with no stored entry. Callers branch on it with
// errors.Is to produce user-facing "does not exist" messages.
var ErrNotFound = errors.New("not found")

// ErrExists reports an attempt to create an entry under a taken name.
var ErrExists = errors.New("already exists")

// Store is a named key-value table of documents. Templates and recipes use
// separate stores with identical shapes.
type Store interface {
	// Fetch returns the stored content, or an error wrapping ErrNotFound.
	Fetch(name string) (string, error)
	// Exists reports whether the name has an entry.
	Exists(name string) (bool, error)
	// List returns every stored name in sorted order.
	List() ([]string, error)
	// Put creates a new entry; it fails with ErrExists for taken names.
	Put(name, content string) error
	// Update overwrites an existing entry; it fails with ErrNotFound.
	Update(name, content string) error
	// Delete removes an existing entry; it fails with ErrNotFound.
	Delete(name string) error
}

// Dir stores each entry as a file under a root directory, one file per name.
// Directory listings are already sorted, which gives List its ordering.
type Dir struct {
	root string
}

// NewDir creates the root directory if needed and returns a store over it.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("store: create %q: %w", root, err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("store: invalid name %q", name)
	}
	return filepath.Join(d.root, name), nil
}

// Fetch implements Store.
func (d *Dir) Fetch(name string) (string, error) {
	path, err := d.path(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("store: %q: %w", name, ErrNotFound)
		}
		return "", fmt.Errorf("store: read %q: %w", name, err)
	}
	return string(data), nil
}

// Exists implements Store.
func (d *Dir) Exists(name string) (bool, error) {
	path, err := d.path(name)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("store: stat %q: %w", name, err)
	}
	return true, nil
}

// List implements Store.
func (d *Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("store: list %q: %w", d.root, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Put implements Store.
func (d *Dir) Put(name, content string) error {
	path, err := d.path(name)
	if err != nil {
		return err
	}
	if exists, err := d.Exists(name); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("store: %q: %w", name, ErrExists)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("store: write %q: %w", name, err)
	}
	return nil
}

// Update implements Store.
func (d *Dir) Update(name, content string) error {
	path, err := d.path(name)
	if err != nil {
		return err
	}
	if exists, err := d.Exists(name); err != nil {
		return err
	} else if !exists {
		return fmt.Errorf("store: %q: %w", name, ErrNotFound)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("store: write %q: %w", name, err)
	}
	return nil
}

// Delete implements Store.
func (d *Dir) Delete(name string) error {
	path, err := d.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("store: %q: %w", name, ErrNotFound)
		}
		return fmt.Errorf("store: delete %q: %w", name, err)
	}
	return nil
}
