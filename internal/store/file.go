package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xaenox/inbox-sentry/internal/models"
)

// FileStore persists all contexts as one JSON document. It is the
// no-database mode; writes are atomic (temp file + rename) and serialized
// by a process-wide mutex.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context, identity string) (*models.UserContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}
	if uc, ok := all[identity]; ok {
		uc.Normalize()
		return uc, nil
	}
	return models.NewUserContext(), nil
}

func (s *FileStore) Save(ctx context.Context, identity string, uc *models.UserContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	all[identity] = uc.Clone()
	return s.write(all)
}

func (s *FileStore) All(ctx context.Context) (map[string]*models.UserContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}
	for _, uc := range all {
		uc.Normalize()
	}
	return all, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) read() (map[string]*models.UserContext, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]*models.UserContext), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading context file: %w", err)
	}

	all := make(map[string]*models.UserContext)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &all); err != nil {
			return nil, fmt.Errorf("decoding context file %s: %w", s.path, err)
		}
	}
	return all, nil
}

func (s *FileStore) write(all map[string]*models.UserContext) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding context: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing context file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing context file: %w", err)
	}
	return nil
}

// FileLedger stores processed source identifiers one per line next to the
// context file.
type FileLedger struct {
	mu   sync.Mutex
	path string
}

func NewFileLedger(contextPath string) *FileLedger {
	dir := filepath.Dir(contextPath)
	return &FileLedger{path: filepath.Join(dir, "processed_ids.txt")}
}

func (l *FileLedger) IsProcessed(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids, err := l.read()
	if err != nil {
		return false, err
	}
	_, ok := ids[id]
	return ok, nil
}

func (l *FileLedger) MarkProcessed(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids, err := l.read()
	if err != nil {
		return err
	}
	if _, ok := ids[id]; ok {
		return nil
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, id); err != nil {
		return fmt.Errorf("appending to ledger: %w", err)
	}
	return nil
}

func (l *FileLedger) Clear(ctx context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids, err := l.read()
	if err != nil {
		return 0, err
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("removing ledger: %w", err)
	}
	return int64(len(ids)), nil
}

func (l *FileLedger) read() (map[string]struct{}, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}

	ids := make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			ids[line] = struct{}{}
		}
	}
	return ids, nil
}
