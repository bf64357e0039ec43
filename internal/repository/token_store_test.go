package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"DashSync/internal/domain/models"
	drepo "DashSync/internal/domain/repository"
)

func exerciseStore(t *testing.T, s drepo.TokenStore) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Load(ctx); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	want := models.Credentials{Token: "abc", Role: models.RoleAdmin}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := s.Load(ctx)
	if err != nil || !ok || got != want {
		t.Fatalf("Load = %+v %v %v", got, ok, err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := s.Load(ctx); ok {
		t.Fatalf("token survived Clear")
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestMemoryTokenStore(t *testing.T) {
	exerciseStore(t, NewMemoryTokenStore())
}

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	s := NewFileTokenStore(path)
	exerciseStore(t, s)

	if err := s.Save(context.Background(), models.Credentials{Token: "t", Role: models.RoleUser}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("unexpected mode %v", info.Mode().Perm())
	}
}

func TestFileTokenStoreUnknownRole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte("auth_token: xyz\nuser_role: superuser\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, ok, err := NewFileTokenStore(path).Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("Load: %v %v", ok, err)
	}
	if c.Token != "xyz" || c.Role != models.RoleUser {
		t.Fatalf("unexpected creds %+v", c)
	}
}

func TestFileTokenStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte("auth_token: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := NewFileTokenStore(path).Load(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestRedisTokenStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisTokenStore(client, "test")
	exerciseStore(t, s)

	if err := s.Save(context.Background(), models.Credentials{Token: "tok", Role: models.RoleUser}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if v, _ := mr.Get("test:auth_token"); v != "tok" {
		t.Fatalf("unexpected stored token %q", v)
	}
	if v, _ := mr.Get("test:user_role"); v != "user" {
		t.Fatalf("unexpected stored role %q", v)
	}
}
