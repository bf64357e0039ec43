package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"DashSync/internal/domain/models"
	drepo "DashSync/internal/domain/repository"
)

var (
	_ drepo.TokenStore = (*FileTokenStore)(nil)
	_ drepo.TokenStore = (*MemoryTokenStore)(nil)
	_ drepo.TokenStore = (*RedisTokenStore)(nil)
)

// FileTokenStore keeps the session in a small yaml file readable only by the owner.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore creates a store backed by path. The file is created on first Save.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Load(ctx context.Context) (models.Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.Credentials{}, false, nil
	}
	if err != nil {
		return models.Credentials{}, false, fmt.Errorf("read token file: %w", err)
	}

	var c models.Credentials
	if err := yaml.Unmarshal(b, &c); err != nil {
		return models.Credentials{}, false, fmt.Errorf("parse token file: %w", err)
	}
	if c.Token == "" {
		return models.Credentials{}, false, nil
	}
	c.Role = models.ParseRole(string(c.Role))
	return c, true, nil
}

func (s *FileTokenStore) Save(ctx context.Context, c models.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}

	// Write then rename: readers never observe a partial file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

func (s *FileTokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// MemoryTokenStore holds credentials in process memory.
type MemoryTokenStore struct {
	mu    sync.Mutex
	creds models.Credentials
}

func NewMemoryTokenStore() *MemoryTokenStore { return &MemoryTokenStore{} }

func (s *MemoryTokenStore) Load(ctx context.Context) (models.Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, s.creds.Token != "", nil
}

func (s *MemoryTokenStore) Save(ctx context.Context, c models.Credentials) error {
	s.mu.Lock()
	s.creds = c
	s.mu.Unlock()
	return nil
}

func (s *MemoryTokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.creds = models.Credentials{}
	s.mu.Unlock()
	return nil
}
