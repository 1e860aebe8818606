package memory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"murmur/internal/docstore"

	"gopkg.in/yaml.v3"
)

// snapshot is the on-disk form: collection -> id -> document.
type snapshot map[string]map[string]map[string]any

// Open returns a store preloaded from the YAML snapshot at path. A missing
// file yields an empty store.
func Open(path string) (*Store, error) {
	s := New()
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap snapshot
	if err := yaml.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	for collection, docs := range snap {
		for id, data := range docs {
			s.setLocked(collection, id, data)
		}
	}
	return s, nil
}

// Save writes every document to path as YAML.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	snap := make(snapshot, len(s.collections))
	for collection, docs := range s.collections {
		out := make(map[string]map[string]any, len(docs))
		for id, data := range docs {
			out[id] = docstore.CopyData(data)
		}
		snap[collection] = out
	}
	s.mu.RUnlock()

	raw, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
