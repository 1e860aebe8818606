package identity

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SessionStore persists the session token between runs.
type SessionStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileSession keeps the token in a file readable only by the owner.
type FileSession struct {
	path string
}

// NewFileSession returns a session store backed by path.
func NewFileSession(path string) *FileSession {
	return &FileSession{path: path}
}

// Load returns "" when no session has been saved.
func (f *FileSession) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (f *FileSession) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, []byte(token), 0o600)
}

func (f *FileSession) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemorySession keeps the token in memory.
type MemorySession struct {
	mu    sync.Mutex
	token string
}

func (m *MemorySession) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemorySession) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemorySession) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
