package store

import (
	"context"
	"sync"

	"github.com/xaenox/inbox-sentry/internal/models"
)

// MemoryStore keeps contexts in process memory. Used for tests and for
// running without any persistence at all.
type MemoryStore struct {
	mu       sync.RWMutex
	contexts map[string]*models.UserContext
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{contexts: make(map[string]*models.UserContext)}
}

func (s *MemoryStore) Load(ctx context.Context, identity string) (*models.UserContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if uc, ok := s.contexts[identity]; ok {
		return uc.Clone(), nil
	}
	return models.NewUserContext(), nil
}

func (s *MemoryStore) Save(ctx context.Context, identity string, uc *models.UserContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contexts[identity] = uc.Clone()
	return nil
}

func (s *MemoryStore) All(ctx context.Context) (map[string]*models.UserContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*models.UserContext, len(s.contexts))
	for identity, uc := range s.contexts {
		out[identity] = uc.Clone()
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

// MemoryLedger is the in-process ProcessedLedger counterpart to MemoryStore.
type MemoryLedger struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{ids: make(map[string]struct{})}
}

func (l *MemoryLedger) IsProcessed(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.ids[id]
	return ok, nil
}

func (l *MemoryLedger) MarkProcessed(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ids[id] = struct{}{}
	return nil
}

func (l *MemoryLedger) Clear(ctx context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := int64(len(l.ids))
	l.ids = make(map[string]struct{})
	return n, nil
}
