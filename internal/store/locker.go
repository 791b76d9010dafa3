package store

import "sync"

// UserLocker serializes read-modify-write cycles on a single user's context.
// The engine, the ingestion pipeline and the reminder sweep all take the same
// lock so concurrent turns and cycles for one identity cannot interleave.
// Distinct identities never contend.
type UserLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewUserLocker() *UserLocker {
	return &UserLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock for an identity and returns its unlock function.
func (l *UserLocker) Lock(identity string) func() {
	l.mu.Lock()
	m, ok := l.locks[identity]
	if !ok {
		m = &sync.Mutex{}
		l.locks[identity] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
