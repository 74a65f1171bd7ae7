package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound возвращается, если для сессии нет сохранённого состояния.
var ErrNotFound = errors.New("session not found")

// ErrCorrupt возвращается, если сохранённое состояние не читается.
var ErrCorrupt = errors.New("session state is corrupt")

// Persister сохраняет переживающую перезапуск часть состояния сессии.
type Persister interface {
	Load(ctx context.Context, id string) (*Persisted, error)
	Save(ctx context.Context, id string, p Persisted) error
	Clear(ctx context.Context, id string) error
}

// RedisPersister хранит состояние сессии в Redis в виде JSON с TTL.
type RedisPersister struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPersister создаёт RedisPersister. Нулевой ttl означает хранение без срока.
func NewRedisPersister(client *redis.Client, ttl time.Duration) *RedisPersister {
	return &RedisPersister{client: client, ttl: ttl}
}

func key(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Load читает состояние сессии.
func (p *RedisPersister) Load(ctx context.Context, id string) (*Persisted, error) {
	const op = "session.RedisPersister.Load"
	val, err := p.client.Get(ctx, key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var res Persisted
	if err := json.Unmarshal([]byte(val), &res); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrCorrupt, err)
	}
	return &res, nil
}

// Save сохраняет состояние сессии и продлевает TTL.
func (p *RedisPersister) Save(ctx context.Context, id string, state Persisted) error {
	const op = "session.RedisPersister.Save"
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := p.client.Set(ctx, key(id), data, p.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Clear удаляет состояние сессии.
func (p *RedisPersister) Clear(ctx context.Context, id string) error {
	const op = "session.RedisPersister.Clear"
	if err := p.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
