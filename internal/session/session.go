// Package session stores per-user browse state: the selected summary language
// and the position in the latest-papers list. State is keyed by user id so
// concurrent users never share a cursor.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/tbourn/paper-digest/internal/domain"
)

// DefaultTTL is how long idle state is kept.
const DefaultTTL = 24 * time.Hour

var (
	ErrEmptyUser = errors.New("session: user id is required")
	// ErrConflict is returned when an Update keeps losing to concurrent
	// writers of the same user.
	ErrConflict = errors.New("session: concurrent update conflict")
)

// UpdateFunc derives the next state from the current one. It may run more
// than once and must not touch the store.
type UpdateFunc func(cur State) (State, error)

// State is one user's browse state.
type State struct {
	Language  domain.Language `json:"language"`
	Index     int             `json:"index"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Default is the state of a user with no stored session.
func Default() State { return State{Language: domain.EN} }

// Store persists State by user id. Get reports ok=false when nothing is
// stored (or it expired). Update is an atomic read-modify-write for one
// user: fn sees Default() when nothing is stored, and an error from fn
// leaves the stored state untouched.
type Store interface {
	Get(ctx context.Context, userID string) (st State, ok bool, err error)
	Put(ctx context.Context, userID string, st State) error
	Update(ctx context.Context, userID string, fn UpdateFunc) (State, error)
	Delete(ctx context.Context, userID string) error
}

type memEntry struct {
	st      State
	expires time.Time
}

// MemoryStore is an in-process Store with TTL expiry. Expired entries are
// dropped lazily on access and by an opportunistic sweep on writes.
type MemoryStore struct {
	mu    sync.Mutex
	m     map[string]memEntry
	ttl   time.Duration
	now   func() time.Time
	puts  int
	sweep int
}

// NewMemoryStore returns a MemoryStore; ttl <= 0 selects DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{m: make(map[string]memEntry), ttl: ttl, now: time.Now, sweep: 1024}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (State, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return State{}, false, ErrEmptyUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.getLocked(userID)
	return st, ok, nil
}

func (s *MemoryStore) getLocked(userID string) (State, bool) {
	e, ok := s.m[userID]
	if !ok {
		return State{}, false
	}
	if s.now().After(e.expires) {
		delete(s.m, userID)
		return State{}, false
	}
	return e.st, true
}

func (s *MemoryStore) Put(_ context.Context, userID string, st State) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrEmptyUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(userID, st)
	return nil
}

// Update runs fn under the store lock, so concurrent updates of one user
// are serialized.
func (s *MemoryStore) Update(_ context.Context, userID string, fn UpdateFunc) (State, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return State{}, ErrEmptyUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.getLocked(userID)
	if !ok {
		cur = Default()
	}
	next, err := fn(cur)
	if err != nil {
		return State{}, err
	}
	return s.putLocked(userID, next), nil
}

func (s *MemoryStore) putLocked(userID string, st State) State {
	now := s.now()
	st.UpdatedAt = now
	s.m[userID] = memEntry{st: st, expires: now.Add(s.ttl)}

	s.puts++
	if s.puts%s.sweep == 0 {
		for k, e := range s.m {
			if now.After(e.expires) {
				delete(s.m, k)
			}
		}
	}
	return st
}

func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.m, strings.TrimSpace(userID))
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
