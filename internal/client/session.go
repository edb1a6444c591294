package client

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/plan2protect/platform/internal/core/domain"
	"github.com/plan2protect/platform/internal/core/ports"
)

// View is the read-only side of the session. Components that only need to
// know who is signed in receive a View, never the Store.
type View interface {
	// Current returns a copy of the signed-in identity.
	Current() (domain.Identity, bool)
	IsAdmin() bool
	IsPremium() bool
	// Token is the administrator bearer token, empty for regular identities.
	Token() string
	// Version changes on every mutation.
	Version() uint64
}

// record is the persisted form of a session.
type record struct {
	Identity  domain.Identity `json:"user"`
	Token     string          `json:"token,omitempty"`
	IsPremium bool            `json:"isPremium"`
}

// Store owns the signed-in identity and writes every change through to
// storage. Persistence failures are logged; the in-memory session stays
// authoritative.
type Store struct {
	mu      sync.RWMutex
	storage ports.SessionStorage
	log     zerolog.Logger

	ident   *domain.Identity
	token   string
	version uint64
}

var _ View = (*Store)(nil)

func NewStore(storage ports.SessionStorage, log zerolog.Logger) *Store {
	return &Store{storage: storage, log: log}
}

// Restore loads the persisted session. Absent or malformed data leaves the
// session empty.
func (s *Store) Restore(ctx context.Context) {
	data, err := s.storage.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("session restore failed, starting signed out")
		return
	}
	if len(data) == 0 {
		return
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil || rec.Identity.ID == "" {
		s.log.Warn().Err(err).Msg("discarding malformed session record")
		return
	}
	rec.Identity.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ident = &rec.Identity
	s.token = rec.Token
	s.version++
}

// Set replaces the identity and keeps the current token.
func (s *Store) Set(ctx context.Context, ident domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(ctx, ident, s.token)
}

// Establish replaces both identity and token, as after a sign-in.
func (s *Store) Establish(ctx context.Context, ident domain.Identity, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(ctx, ident, token)
}

// SetToken replaces the bearer token of the current identity. It is a no-op
// when nobody is signed in.
func (s *Store) SetToken(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ident == nil {
		return
	}
	s.setLocked(ctx, *s.ident, token)
}

// CompareAndSet applies ident only if no mutation happened since version was
// read. It reports whether the identity was applied.
func (s *Store) CompareAndSet(ctx context.Context, version uint64, ident domain.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return false
	}
	s.setLocked(ctx, ident, s.token)
	return true
}

// Clear signs the session out and removes the persisted copy.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ident = nil
	s.token = ""
	s.version++
	if err := s.storage.Delete(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to delete persisted session")
	}
}

func (s *Store) setLocked(ctx context.Context, ident domain.Identity, token string) {
	ident.Normalize()
	s.ident = &ident
	s.token = token
	s.version++

	data, err := json.Marshal(record{Identity: ident, Token: token, IsPremium: ident.IsPremium()})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode session")
		return
	}
	if err := s.storage.Save(ctx, data); err != nil {
		s.log.Warn().Err(err).Str("user_id", ident.ID).Msg("failed to persist session")
	}
}

func (s *Store) Current() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ident == nil {
		return domain.Identity{}, false
	}
	return *s.ident, true
}

func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ident != nil && s.ident.IsAdministrator
}

func (s *Store) IsPremium() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ident != nil && s.ident.IsPremium()
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
