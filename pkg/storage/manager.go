package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Manager writes files under a root directory. Every write goes through a
// temporary file in the destination directory followed by a rename, so a
// reader never observes a partially written file.
type Manager struct {
	root    string
	written int
	mu      sync.Mutex
}

// NewManager creates a new storage manager rooted at dir, creating the
// directory if it does not exist
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Manager{root: dir}, nil
}

// Path returns the absolute-or-relative path of name under the root
func (m *Manager) Path(name string) string {
	return filepath.Join(m.root, name)
}

// Save streams r into name under the root. An existing file is replaced.
func (m *Manager) Save(r io.Reader, name string) (string, error) {
	path := m.Path(name)
	if err := WriteFile(r, path); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.written++
	m.mu.Unlock()

	return path, nil
}

// WriteFile streams r into path atomically. The parent directory must exist.
func WriteFile(r io.Reader, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := tmp.Name()

	_, err = io.Copy(tmp, r)
	closeErr := tmp.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write file data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// Root returns the root directory
func (m *Manager) Root() string {
	return m.root
}

// WrittenCount returns the number of files written through this manager
func (m *Manager) WrittenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written
}
