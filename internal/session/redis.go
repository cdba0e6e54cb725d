package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jaam8/poll_profiles/internal/models"
)

type RedisConfig struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"REDIS_PASSWD" env:"REDIS_PASSWD"`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

const keyPrefix = "session__"

// RedisStore keeps sessions as JSON values that expire after ttl.
type RedisStore struct {
	inner *redis.Client
	ttl   time.Duration
}

func NewRedisStore(ctx context.Context, config RedisConfig, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("session: redis ping: %w", err)
	}
	return &RedisStore{inner: client, ttl: ttl}, nil
}

func (r *RedisStore) Put(ctx context.Context, s *models.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: json marshal error: %w", err)
	}
	return r.inner.Set(ctx, keyPrefix+s.ID, b, r.ttl).Err()
}

func (r *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	b, err := r.inner.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: redis get: %w", err)
	}
	var s models.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("session: json unmarshal error: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.inner.Del(ctx, keyPrefix+id).Err()
}

func (r *RedisStore) Close() error {
	return r.inner.Close()
}
