package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"DashSync/internal/domain/feederr"
	"DashSync/internal/domain/models"
	"DashSync/internal/repository"
)

type validatorFunc func(ctx context.Context, token string) error

func (f validatorFunc) Validate(ctx context.Context, token string) error { return f(ctx, token) }

func accept(context.Context, string) error { return nil }

type failingStore struct{ *repository.MemoryTokenStore }

func (failingStore) Save(context.Context, models.Credentials) error { return errors.New("disk full") }

// slowSaveStore blocks Save until release is closed.
type slowSaveStore struct {
	*repository.MemoryTokenStore
	saving  chan struct{}
	release chan struct{}
}

func (s slowSaveStore) Save(ctx context.Context, c models.Credentials) error {
	close(s.saving)
	<-s.release
	return s.MemoryTokenStore.Save(ctx, c)
}

func TestInvalidateDuringSaveLeavesNothingPersisted(t *testing.T) {
	ctx := context.Background()
	tokens := slowSaveStore{
		MemoryTokenStore: repository.NewMemoryTokenStore(),
		saving:           make(chan struct{}),
		release:          make(chan struct{}),
	}
	s := New(ctx, tokens, validatorFunc(accept))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = s.Login(ctx, "abc", models.RoleUser)
	}()
	<-tokens.saving
	go func() {
		defer wg.Done()
		s.Invalidate(ctx)
	}()
	time.Sleep(20 * time.Millisecond)
	close(tokens.release)
	wg.Wait()

	if _, ok := s.CurrentToken(); ok {
		t.Fatalf("session should be invalid")
	}
	if c, ok, _ := tokens.Load(ctx); ok {
		t.Fatalf("token %q persisted after Invalidate", c.Token)
	}
}

func TestInvalidateTokenIgnoresReplacedToken(t *testing.T) {
	ctx := context.Background()
	tokens := repository.NewMemoryTokenStore()
	s := New(ctx, tokens, validatorFunc(accept))

	_ = s.Login(ctx, "old", models.RoleUser)
	_ = s.Login(ctx, "new", models.RoleUser)

	if s.InvalidateToken(ctx, "old") {
		t.Fatalf("replaced token must not drop the session")
	}
	if tok, ok := s.CurrentToken(); !ok || tok != "new" {
		t.Fatalf("unexpected token %q %v", tok, ok)
	}
	if !s.InvalidateToken(ctx, "new") {
		t.Fatalf("current token should drop the session")
	}
	if _, ok, _ := tokens.Load(ctx); ok {
		t.Fatalf("persisted token survived InvalidateToken")
	}
}

func TestLoginInvalidate(t *testing.T) {
	ctx := context.Background()
	tokens := repository.NewMemoryTokenStore()
	s := New(ctx, tokens, validatorFunc(accept))

	var seen []models.Session
	s.OnChange(func(sess models.Session) { seen = append(seen, sess) })

	if _, ok := s.CurrentToken(); ok {
		t.Fatalf("fresh store must have no token")
	}
	if err := s.Login(ctx, "abc", models.RoleAdmin); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tok, ok := s.CurrentToken(); !ok || tok != "abc" {
		t.Fatalf("unexpected token %q %v", tok, ok)
	}
	if c, ok, _ := tokens.Load(ctx); !ok || c.Role != models.RoleAdmin {
		t.Fatalf("token not persisted: %+v", c)
	}

	s.Invalidate(ctx)
	if _, ok := s.CurrentToken(); ok {
		t.Fatalf("token survived Invalidate")
	}
	if _, ok, _ := tokens.Load(ctx); ok {
		t.Fatalf("persisted token survived Invalidate")
	}

	// A second invalidate has nothing to drop and must not notify.
	s.Invalidate(ctx)
	if len(seen) != 2 || !seen[0].Valid || seen[1].Valid {
		t.Fatalf("unexpected notifications %+v", seen)
	}
}

func TestLoginPersistFailureKeepsMemorySession(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, failingStore{repository.NewMemoryTokenStore()}, validatorFunc(accept))

	if err := s.Login(ctx, "abc", models.RoleUser); err == nil {
		t.Fatalf("expected persist error")
	}
	if _, ok := s.CurrentToken(); !ok {
		t.Fatalf("memory session should be valid")
	}
}

func TestRestoreValid(t *testing.T) {
	ctx := context.Background()
	tokens := repository.NewMemoryTokenStore()
	_ = tokens.Save(ctx, models.Credentials{Token: "persisted", Role: models.RoleUser})

	var validated string
	s := New(ctx, tokens, validatorFunc(func(_ context.Context, tok string) error {
		validated = tok
		return nil
	}))
	if !s.Restoring() {
		t.Fatalf("loaded token should be restoring")
	}
	if _, ok := s.CurrentToken(); ok {
		t.Fatalf("unvalidated token must not be handed out")
	}

	if err := s.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if validated != "persisted" {
		t.Fatalf("validator saw %q", validated)
	}
	if tok, ok := s.CurrentToken(); !ok || tok != "persisted" || s.Restoring() {
		t.Fatalf("unexpected state %q %v", tok, ok)
	}
}

func TestRestoreAnyFailureInvalidates(t *testing.T) {
	failures := []error{
		feederr.Auth("validate", nil),
		feederr.Network("validate", errors.New("connection refused")),
		feederr.DataShape("validate", "valid absent"),
	}
	for _, failure := range failures {
		ctx := context.Background()
		tokens := repository.NewMemoryTokenStore()
		_ = tokens.Save(ctx, models.Credentials{Token: "stale", Role: models.RoleUser})

		s := New(ctx, tokens, validatorFunc(func(context.Context, string) error { return failure }))
		notified := 0
		s.OnChange(func(models.Session) { notified++ })

		if err := s.Restore(ctx); err == nil {
			t.Fatalf("expected Restore to fail for %v", failure)
		}
		if _, ok := s.CurrentToken(); ok || s.Restoring() {
			t.Fatalf("session should be invalid after %v", failure)
		}
		if _, ok, _ := tokens.Load(ctx); ok {
			t.Fatalf("persisted token should be cleared after %v", failure)
		}
		if notified != 1 {
			t.Fatalf("expected one notification, got %d", notified)
		}
	}
}

func TestLoginDuringRestoreWins(t *testing.T) {
	ctx := context.Background()
	tokens := repository.NewMemoryTokenStore()
	_ = tokens.Save(ctx, models.Credentials{Token: "old", Role: models.RoleUser})

	var s *Store
	s = New(ctx, tokens, validatorFunc(func(context.Context, string) error {
		// The user logs in while validation of the old token is in flight.
		if err := s.Login(ctx, "new", models.RoleAdmin); err != nil {
			t.Errorf("Login: %v", err)
		}
		return feederr.Auth("validate", nil)
	}))

	if err := s.Restore(ctx); err != nil {
		t.Fatalf("stale validation should be ignored, got %v", err)
	}
	if tok, ok := s.CurrentToken(); !ok || tok != "new" {
		t.Fatalf("fresh login lost: %q %v", tok, ok)
	}
}
