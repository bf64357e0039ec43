// Package session owns the single auth session: the bearer token, the role and
// whether the backend still accepts them.
package session

import (
	"context"
	"fmt"
	"sync"

	"DashSync/internal/domain/models"
	drepo "DashSync/internal/domain/repository"
	"DashSync/pkg/logger"
)

// Listener is told about every session transition. It runs outside the store
// lock and may call back into the store.
type Listener func(models.Session)

// Store is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	session   models.Session
	restoring bool
	listeners []Listener

	// persistMu orders token store writes the same way as the in-memory
	// transitions. It is taken before mu and released before listeners run.
	persistMu sync.Mutex

	tokens    drepo.TokenStore
	validator drepo.TokenValidator
	log       *logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New loads the persisted token, if any. A loaded token is not trusted until
// Restore validates it; until then Restoring reports true.
func New(ctx context.Context, tokens drepo.TokenStore, validator drepo.TokenValidator, opts ...Option) *Store {
	s := &Store{tokens: tokens, validator: validator, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	creds, ok, err := tokens.Load(ctx)
	if err != nil {
		s.log.Warn("session: load persisted token failed", logger.Error(err))
		return s
	}
	if ok {
		s.session = models.Session{Token: creds.Token, Role: creds.Role}
		s.restoring = true
	}
	return s
}

// OnChange registers l. Listeners are called in registration order.
func (s *Store) OnChange(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Restoring reports whether a persisted token is waiting for validation.
func (s *Store) Restoring() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restoring
}

// CurrentToken returns the token of a valid session.
func (s *Store) CurrentToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.Valid || s.session.Token == "" {
		return "", false
	}
	return s.session.Token, true
}

// Login installs a fresh token. The in-memory session is valid even when
// persisting fails; the error is still returned so the caller can report it.
func (s *Store) Login(ctx context.Context, token string, role models.Role) error {
	creds := models.Credentials{Token: token, Role: role}

	s.persistMu.Lock()
	s.mu.Lock()
	s.session = models.Session{Token: token, Role: role, Valid: true}
	s.restoring = false
	snap := s.session
	s.mu.Unlock()

	err := s.tokens.Save(ctx, creds)
	s.persistMu.Unlock()
	if err != nil {
		s.log.Error("session: persist token failed", logger.Error(err))
		err = fmt.Errorf("persist session: %w", err)
	}
	s.notify(snap)
	return err
}

// Invalidate drops the token from memory and from the token store. Listeners
// are notified only if there was something to drop.
func (s *Store) Invalidate(ctx context.Context) {
	s.drop(ctx, func(models.Session, bool) bool { return true })
}

// InvalidateToken invalidates the session only while it still holds token.
// It reports whether the session was dropped.
func (s *Store) InvalidateToken(ctx context.Context, token string) bool {
	return s.drop(ctx, func(cur models.Session, _ bool) bool {
		return token != "" && cur.Token == token
	})
}

// drop clears the session when match accepts the current one.
func (s *Store) drop(ctx context.Context, match func(cur models.Session, restoring bool) bool) bool {
	s.persistMu.Lock()
	s.mu.Lock()
	if !match(s.session, s.restoring) {
		s.mu.Unlock()
		s.persistMu.Unlock()
		return false
	}
	changed := s.session != (models.Session{}) || s.restoring
	s.session = models.Session{}
	s.restoring = false
	s.mu.Unlock()

	if err := s.tokens.Clear(ctx); err != nil {
		s.log.Error("session: clear persisted token failed", logger.Error(err))
	}
	s.persistMu.Unlock()
	if changed {
		s.notify(models.Session{})
	}
	return true
}

// Restore validates the persisted token once. Any failure, including a
// network error, invalidates the session. A Login or Invalidate that happens
// while validation is in flight wins over the validation result.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	if !s.restoring {
		s.mu.Unlock()
		return nil
	}
	token := s.session.Token
	s.mu.Unlock()

	err := s.validator.Validate(ctx, token)
	if err != nil {
		if !s.invalidateIf(ctx, token) {
			return nil
		}
		s.log.Info("session: persisted token rejected", logger.Error(err))
		return fmt.Errorf("restore session: %w", err)
	}

	s.mu.Lock()
	if !s.restoring || s.session.Token != token {
		s.mu.Unlock()
		return nil
	}
	s.session.Valid = true
	s.restoring = false
	snap := s.session
	s.mu.Unlock()

	s.log.Info("session: restored", logger.String("role", string(snap.Role)))
	s.notify(snap)
	return nil
}

// invalidateIf drops the session only if it still holds the unvalidated token.
func (s *Store) invalidateIf(ctx context.Context, token string) bool {
	return s.drop(ctx, func(cur models.Session, restoring bool) bool {
		return restoring && cur.Token == token
	})
}

func (s *Store) notify(snap models.Session) {
	s.mu.Lock()
	ls := make([]Listener, len(s.listeners))
	copy(ls, s.listeners)
	s.mu.Unlock()

	for _, l := range ls {
		l(snap)
	}
}
