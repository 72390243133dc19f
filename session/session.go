// Package session holds the authentication token for one browser.
//
// A Store is the single source of truth for whether the user is signed in:
// a non-empty token means authenticated. The token is never inspected or
// refreshed here; it is trusted until the backend rejects it.
package session

import (
	"context"
	"errors"
	"sync"
)

// Status is the authentication state derived from the token.
type Status int

const (
	// Pending means Initialize has not completed yet.
	Pending Status = iota
	Unauthenticated
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "pending"
	}
}

// ErrNotInitialized is returned by SetToken and Clear before Initialize.
var ErrNotInitialized = errors.New("session: store not initialized")

// Slot is the durable storage for one token. Load reports ok=false when no
// token has been saved.
type Slot interface {
	Load(ctx context.Context) (token string, ok bool, err error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// Store keeps the current token in memory, backed by a Slot.
type Store struct {
	slot Slot

	mu          sync.RWMutex
	token       string
	initialized bool
	initErr     error
}

// NewStore returns a Store over slot. Call Initialize before use.
func NewStore(slot Slot) *Store {
	return &Store{slot: slot}
}

// Initialize reads the persisted token into memory. Only the first call
// touches the slot; later calls return the same result.
func (s *Store) Initialize(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return s.token != "", s.initErr
	}
	token, ok, err := s.slot.Load(ctx)
	s.initialized = true
	if err != nil {
		s.initErr = err
		return false, err
	}
	if ok {
		s.token = token
	}
	return s.token != "", nil
}

// SetToken stores token in memory and in the slot. An empty token clears
// the session.
func (s *Store) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.Clear(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	if err := s.slot.Save(ctx, token); err != nil {
		return err
	}
	s.token = token
	s.initErr = nil
	return nil
}

// Clear removes the token from the slot, then from memory. If the slot
// delete fails the session stays signed in. Clearing an empty session is
// not an error.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	if err := s.slot.Delete(ctx); err != nil {
		return err
	}
	s.token = ""
	return nil
}

// Token returns the current token or "". It is safe to call on a nil Store.
func (s *Store) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Status returns the current authentication state.
func (s *Store) Status() Status {
	if s == nil {
		return Pending
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case !s.initialized || s.initErr != nil:
		return Pending
	case s.token != "":
		return Authenticated
	default:
		return Unauthenticated
	}
}

// Authenticated reports whether a token is present.
func (s *Store) Authenticated() bool {
	return s.Status() == Authenticated
}

// MemorySlot is a Slot held in memory. The zero value is empty and ready.
type MemorySlot struct {
	mu    sync.Mutex
	token string
	set   bool
}

func (m *MemorySlot) Load(context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.set, nil
}

func (m *MemorySlot) Save(_ context.Context, token string) error {
	m.mu.Lock()
	m.token, m.set = token, true
	m.mu.Unlock()
	return nil
}

func (m *MemorySlot) Delete(context.Context) error {
	m.mu.Lock()
	m.token, m.set = "", false
	m.mu.Unlock()
	return nil
}
