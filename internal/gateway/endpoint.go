package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/magabrotheeeer/kyc-portal/internal/querycache"
)

// Query описание читающего эндпоинта. Результат кешируется под теги Provides.
type Query[A, R any] struct {
	Name     string
	Path     func(A) string
	Params   func(A) url.Values
	Provides func(R, A) []querycache.Tag
}

// Mutation описание изменяющего эндпоинта. После успеха инвалидируются теги Invalidates.
type Mutation[A, R any] struct {
	Name        string
	Method      string
	Path        func(A) string
	Body        func(A) any
	Invalidates func(A) []querycache.Tag
}

// Fetch выполняет запрос с учётом кеша. Свежая запись отдаётся из кеша,
// устаревшая или отсутствующая перезапрашивается. Одновременные одинаковые
// запросы склеиваются в один.
func Fetch[A, R any](ctx context.Context, c *Client, q Query[A, R], arg A) (R, error) {
	const op = "gateway.Fetch"
	var res R

	path := q.Path(arg)
	if q.Params != nil {
		if params := q.Params(arg); len(params) > 0 {
			path += "?" + params.Encode()
		}
	}
	key := c.cacheKey(q.Name, path)

	if c.gw.cache != nil {
		e, ok, err := c.gw.cache.Get(ctx, key)
		switch {
		case err != nil:
			c.warn("failed to read query cache", key, err)
		case ok && !e.Stale:
			if err := json.Unmarshal(e.Value, &res); err == nil {
				c.gw.metrics.CacheEvent("hit", 1)
				return res, nil
			}
		case ok:
			c.gw.metrics.CacheEvent("stale", 1)
		default:
			c.gw.metrics.CacheEvent("miss", 1)
		}
	}

	v, err, _ := c.gw.group.Do(key, func() (any, error) {
		cacheable := c.gw.cache != nil && q.Provides != nil
		// Снимок до запроса: инвалидация во время запроса сделает запись устаревшей.
		var seen querycache.Marks
		if cacheable {
			marks, err := c.gw.cache.Marks(ctx)
			if err != nil {
				c.warn("failed to read invalidation marks", key, err)
				cacheable = false
			}
			seen = marks
		}

		data, err := c.do(ctx, q.Name, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		if cacheable {
			var fresh R
			if err := json.Unmarshal(data, &fresh); err != nil {
				return nil, fmt.Errorf("%s: %s: %w", op, q.Name, err)
			}
			if err := c.gw.cache.Provide(ctx, key, q.Provides(fresh, arg), data, seen); err != nil {
				c.warn("failed to write query cache", key, err)
			}
		}
		return data, nil
	})
	if err != nil {
		return res, err
	}

	if err := json.Unmarshal(v.([]byte), &res); err != nil {
		return res, fmt.Errorf("%s: %s: %w", op, q.Name, err)
	}
	return res, nil
}

// Run выполняет мутацию и после успеха инвалидирует её теги.
func Run[A, R any](ctx context.Context, c *Client, m Mutation[A, R], arg A) (R, error) {
	const op = "gateway.Run"
	var res R

	var body any
	if m.Body != nil {
		body = m.Body(arg)
	}
	data, err := c.do(ctx, m.Name, m.Method, m.Path(arg), body)
	if err != nil {
		return res, err
	}

	if c.gw.cache != nil && m.Invalidates != nil {
		keys, err := c.gw.cache.Invalidate(ctx, m.Invalidates(arg))
		if err != nil {
			c.warn("failed to invalidate query cache", m.Name, err)
		}
		c.gw.metrics.CacheEvent("invalidated", len(keys))
	}

	if len(data) == 0 {
		return res, nil
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return res, fmt.Errorf("%s: %s: %w", op, m.Name, err)
	}
	return res, nil
}

func listTags[T any](typ string, items []T, id func(T) string) []querycache.Tag {
	tags := make([]querycache.Tag, 0, len(items)+1)
	tags = append(tags, querycache.List(typ))
	for _, it := range items {
		tags = append(tags, querycache.T(typ, id(it)))
	}
	return tags
}

func fixed(path string) func(struct{}) string {
	return func(struct{}) string { return path }
}
