package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis кеш, общий для нескольких экземпляров портала. Записи хранятся как JSON,
// индекс тегов — множества ключей по типу тега.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration

	notifier
}

// NewRedis создаёт кеш поверх Redis. prefix отделяет ключи кеша от остальных данных.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) entryKey(key string) string {
	return r.prefix + "entry:" + key
}

func (r *Redis) typeKey(typ string) string {
	return r.prefix + "tag:" + typ
}

func (r *Redis) seqKey() string {
	return r.prefix + "tag-seq"
}

// provideAttempts сколько раз Provide повторяет транзакцию, прерванную инвалидацией.
const provideAttempts = 3

type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func readMarks(ctx context.Context, c hashReader, key string) (Marks, error) {
	raw, err := c.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	marks := make(Marks, len(raw))
	for typ, v := range raw {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", typ, err)
		}
		marks[typ] = n
	}
	return marks, nil
}

// Get возвращает запись по ключу.
func (r *Redis) Get(ctx context.Context, key string) (Entry, bool, error) {
	const op = "querycache.Redis.Get"
	val, err := r.client.Get(ctx, r.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("%s: %w", op, err)
	}
	var e Entry
	if err := json.Unmarshal(val, &e); err != nil {
		return Entry{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return e, true, nil
}

// Marks возвращает снимок счётчиков инвалидаций.
func (r *Redis) Marks(ctx context.Context) (Marks, error) {
	const op = "querycache.Redis.Marks"
	marks, err := readMarks(ctx, r.client, r.seqKey())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return marks, nil
}

// Provide сохраняет результат и регистрирует ключ в индексе тегов. Счётчики
// инвалидаций сверяются под WATCH, поэтому инвалидация между проверкой и записью
// перезапускает транзакцию.
func (r *Redis) Provide(ctx context.Context, key string, tags []Tag, value []byte, seen Marks) error {
	const op = "querycache.Redis.Provide"

	write := func(tx *redis.Tx) error {
		cur, err := readMarks(ctx, tx, r.seqKey())
		if err != nil {
			return err
		}
		data, err := json.Marshal(Entry{
			Value:     value,
			Tags:      tags,
			Stale:     cur.movedFor(seen, tags),
			UpdatedAt: time.Now(),
		})
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.entryKey(key), data, r.ttl)
			for _, t := range tags {
				pipe.SAdd(ctx, r.typeKey(t.Type), key)
			}
			return nil
		})
		return err
	}

	var err error
	for range provideAttempts {
		err = r.client.Watch(ctx, write, r.seqKey())
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Invalidate помечает устаревшими записи, задетые тегами. Ключи истёкших записей
// вычищаются из индекса по ходу.
func (r *Redis) Invalidate(ctx context.Context, tags []Tag) ([]string, error) {
	const op = "querycache.Redis.Invalidate"
	affected := make(map[string]struct{})

	bumped := make(map[string]struct{})
	for _, t := range tags {
		if _, ok := bumped[t.Type]; ok {
			continue
		}
		bumped[t.Type] = struct{}{}
		if err := r.client.HIncrBy(ctx, r.seqKey(), t.Type, 1).Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	for _, t := range tags {
		members, err := r.client.SMembers(ctx, r.typeKey(t.Type)).Result()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		for _, key := range members {
			e, ok, err := r.Get(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			if !ok {
				r.client.SRem(ctx, r.typeKey(t.Type), key)
				continue
			}
			if !e.matches([]Tag{t}) {
				continue
			}
			affected[key] = struct{}{}
			if e.Stale {
				continue
			}
			e.Stale = true
			data, err := json.Marshal(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			if err := r.client.SetArgs(ctx, r.entryKey(key), data, redis.SetArgs{KeepTTL: true}).Err(); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	keys := sortedKeys(affected)
	r.notify(keys)
	return keys, nil
}

// Subscribe подписывает на ключи, ставшие устаревшими в этом процессе.
func (r *Redis) Subscribe(fn func(keys []string)) func() {
	return r.subscribe(fn)
}
