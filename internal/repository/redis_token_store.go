package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"DashSync/internal/domain/models"
)

const (
	tokenField = "auth_token"
	roleField  = "user_role"
)

// RedisTokenStore keeps the session under two keys: <prefix>:auth_token and <prefix>:user_role.
type RedisTokenStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisTokenStore wraps an existing client. An empty prefix defaults to "dashsync".
func NewRedisTokenStore(client redis.UniversalClient, prefix string) *RedisTokenStore {
	if prefix == "" {
		prefix = "dashsync"
	}
	return &RedisTokenStore{client: client, prefix: prefix}
}

func (s *RedisTokenStore) key(field string) string { return s.prefix + ":" + field }

func (s *RedisTokenStore) Load(ctx context.Context) (models.Credentials, bool, error) {
	vals, err := s.client.MGet(ctx, s.key(tokenField), s.key(roleField)).Result()
	if err != nil {
		return models.Credentials{}, false, fmt.Errorf("redis load token: %w", err)
	}
	token, _ := vals[0].(string)
	if token == "" {
		return models.Credentials{}, false, nil
	}
	role, _ := vals[1].(string)
	return models.Credentials{Token: token, Role: models.ParseRole(role)}, true, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, c models.Credentials) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(tokenField), c.Token, 0)
		p.Set(ctx, s.key(roleField), string(c.Role), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Clear(ctx context.Context) error {
	err := s.client.Del(ctx, s.key(tokenField), s.key(roleField)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis clear token: %w", err)
	}
	return nil
}
