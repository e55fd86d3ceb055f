// Package store persists small JSON records as one file per record
// under a shared base directory. Independent agent processes read and
// write the same directories, so every write replaces a whole file via
// an atomic rename and every read tolerates records it cannot parse.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Collection names used by the rest of the system.
const (
	Agents   = "agents"
	Messages = "messages"
)

// Store is a file-backed record store. Each collection is a directory
// under the base path; each record is a <key>.json file.
type Store struct {
	base string
}

// New returns a Store rooted at base. Collection directories are
// created lazily on first use.
func New(base string) *Store {
	return &Store{base: base}
}

// Base returns the root directory of the store.
func (s *Store) Base() string {
	return s.base
}

// Dir returns the directory backing a collection, creating it if needed.
func (s *Store) Dir(collection string) (string, error) {
	dir := filepath.Join(s.base, collection)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("store: ensure %s: %w", collection, err)
	}
	return dir, nil
}

func recordPath(dir, key string) string {
	return filepath.Join(dir, key+".json")
}

// Put writes one record, replacing any previous value for the key.
// The record is written to a temp file in the same directory and
// renamed over the target so concurrent readers never observe a torn
// write.
func (s *Store) Put(collection, key string, v any) error {
	dir, err := s.Dir(collection)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal %s/%s: %w", collection, key, err)
	}
	tmp, err := os.CreateTemp(dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: put %s/%s: %w", collection, key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("store: put %s/%s: %w", collection, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store: put %s/%s: %w", collection, key, err)
	}
	if err := os.Rename(tmp.Name(), recordPath(dir, key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store: put %s/%s: %w", collection, key, err)
	}
	return nil
}

// Get reads one record into out. The first return is false when the
// key does not exist.
func (s *Store) Get(collection, key string, out any) (bool, error) {
	dir, err := s.Dir(collection)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(recordPath(dir, key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: get %s/%s: %w", collection, key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("store: decode %s/%s: %w", collection, key, err)
	}
	return true, nil
}

// Delete removes a record. Deleting a missing key is not an error.
func (s *Store) Delete(collection, key string) error {
	dir, err := s.Dir(collection)
	if err != nil {
		return err
	}
	if err := os.Remove(recordPath(dir, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: delete %s/%s: %w", collection, key, err)
	}
	return nil
}

// PruneOlderThan deletes every record whose file modification time is
// strictly before cutoff. Returns the number of records removed.
func (s *Store) PruneOlderThan(collection string, cutoff time.Time) (int, error) {
	dir, err := s.Dir(collection)
	if err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("store: prune %s: %w", collection, err)
	}
	deleted := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
				deleted++
			}
		}
	}
	return deleted, nil
}

// ListAll decodes every record in a collection, in directory
// enumeration order. Files that fail to read or parse are skipped; a
// corrupted record never aborts the listing.
func ListAll[T any](s *Store, collection string) ([]T, error) {
	dir, err := s.Dir(collection)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", collection, err)
	}
	var out []T
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		var rec T
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
