// Package gateway единая точка HTTP-обращений портала к REST-бэкенду KYC.
//
// Gateway общий для процесса: базовый URL, http.Client, кеш запросов и группа
// склейки одинаковых запросов. Client — представление Gateway для одной сессии:
// он берёт токен из сессии, добавляет заголовок Authorization и разделяет кеш
// по области видимости пользователя.
//
// Ретраев нет: ошибка запроса возвращается вызывающему как есть.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/magabrotheeeer/kyc-portal/internal/lib/sl"
	"github.com/magabrotheeeer/kyc-portal/internal/metrics"
	"github.com/magabrotheeeer/kyc-portal/internal/querycache"
)

const maxBodySize = 4 << 20

// ErrTransport сетевая ошибка: ответ от бэкенда не получен.
var ErrTransport = errors.New("transport failure")

// APIError ответ бэкенда со статусом вне 2xx.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// StatusOf возвращает HTTP-статус ошибки бэкенда или 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// TokenSource источник токена сессии. *session.Store удовлетворяет интерфейсу.
type TokenSource interface {
	Token() string
}

// Gateway общая часть клиентов бэкенда.
type Gateway struct {
	baseURL string
	http    *http.Client
	cache   querycache.Cache
	log     *slog.Logger
	metrics *metrics.Metrics
	group   singleflight.Group
}

// New создаёт Gateway. metrics может быть nil.
func New(baseURL string, httpClient *http.Client, cache querycache.Cache, log *slog.Logger, m *metrics.Metrics) *Gateway {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		cache:   cache,
		log:     log,
		metrics: m,
	}
}

// Client клиент бэкенда в контексте одной сессии.
type Client struct {
	gw             *Gateway
	tokens         TokenSource
	scope          string
	onUnauthorized func()
}

// For возвращает клиента для сессии. scope разделяет кеш пользователей,
// onUnauthorized вызывается на ответ 401 и может быть nil.
func (g *Gateway) For(tokens TokenSource, scope string, onUnauthorized func()) *Client {
	return &Client{
		gw:             g,
		tokens:         tokens,
		scope:          scope,
		onUnauthorized: onUnauthorized,
	}
}

func (c *Client) cacheKey(name, path string) string {
	return c.scope + "|" + name + "|" + path
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *Client) do(ctx context.Context, name, method, path string, body any) ([]byte, error) {
	const op = "gateway.do"
	start := time.Now()

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.gw.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.gw.http.Do(req)
	if err != nil {
		c.gw.metrics.GatewayRequest(name, "transport_error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%s: %s: %w: %w", op, name, ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.gw.metrics.GatewayRequest(name, "transport_error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%s: %s: %w: %w", op, name, ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.gw.metrics.GatewayRequest(name, fmt.Sprintf("http_%d", resp.StatusCode), time.Since(start).Seconds())
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data), Body: data}
	}

	c.gw.metrics.GatewayRequest(name, "ok", time.Since(start).Seconds())
	return data, nil
}

func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return http.StatusText(status)
}

func (c *Client) warn(msg, key string, err error) {
	c.gw.log.Warn(msg, slog.String("key", key), sl.Err(err))
}
