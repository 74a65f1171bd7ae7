package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/magabrotheeeer/kyc-portal/internal/lib/sl"
)

// Hook вызывается один раз для каждого Store, который появился в Manager.
// Через хуки подключаются подписчики: сохранение, события, метрики.
type Hook func(id string, store *Store)

type entry struct {
	store    *Store
	lastSeen time.Time
}

// Manager реестр сессий портала по непрозрачному идентификатору.
type Manager struct {
	persister Persister
	log       *slog.Logger
	hooks     []Hook

	mu       sync.Mutex
	sessions map[string]*entry
	group    singleflight.Group
}

// NewManager создаёт реестр сессий.
func NewManager(persister Persister, log *slog.Logger, hooks ...Hook) *Manager {
	return &Manager{
		persister: persister,
		log:       log,
		hooks:     hooks,
		sessions:  make(map[string]*entry),
	}
}

// Create заводит новую анонимную сессию.
func (m *Manager) Create() (string, *Store) {
	id := uuid.New().String()
	store := NewStore(State{})
	m.attach(id, store)
	return id, store
}

// Get возвращает Store сессии. Сессия, которой нет в памяти, гидрируется из
// хранилища; если там пусто или состояние не читается, возвращается ErrNotFound.
func (m *Manager) Get(ctx context.Context, id string) (*Store, error) {
	if store, ok := m.lookup(id); ok {
		return store, nil
	}

	v, err, _ := m.group.Do(id, func() (any, error) {
		if store, ok := m.lookup(id); ok {
			return store, nil
		}
		store := NewStore(State{})
		found, err := Initialize(ctx, store, m.persister, id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, ErrNotFound
		}
		m.attach(id, store)
		return store, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

// Rotate переносит сессию под новый идентификатор и возвращает его вместе с новым
// Store. Старый идентификатор после этого неизвестен ни реестру, ни хранилищу.
// Вызывается перед входом, чтобы идентификатор анонимной сессии не стал
// идентификатором авторизованной.
func (m *Manager) Rotate(ctx context.Context, oldID string) (string, *Store, error) {
	const op = "session.Manager.Rotate"

	m.mu.Lock()
	e, ok := m.sessions[oldID]
	delete(m.sessions, oldID)
	m.mu.Unlock()
	if !ok {
		return "", nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	state := e.store.Get()
	id := uuid.New().String()
	store := NewStore(state)
	if state.Authenticated() {
		if err := m.persister.Save(ctx, id, Persisted{Token: state.Token, User: state.User}); err != nil {
			m.mu.Lock()
			m.sessions[oldID] = e
			m.mu.Unlock()
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	m.attach(id, store)

	if err := m.persister.Clear(ctx, oldID); err != nil && !errors.Is(err, ErrNotFound) {
		m.log.Warn("failed to clear rotated session",
			slog.String("op", op),
			sl.Err(err),
		)
	}
	return id, store, nil
}

// Delete выходит из сессии и убирает её из реестра.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		e.store.Dispatch(LoggedOut{})
		return nil
	}
	if err := m.persister.Clear(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Sweep выгружает из памяти сессии, к которым не обращались дольше idle.
// Сохранённое состояние остаётся в хранилище и будет гидрировано заново.
func (m *Manager) Sweep(idle time.Duration) int {
	deadline := time.Now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.sessions {
		if e.lastSeen.Before(deadline) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper периодически вызывает Sweep до отмены ctx.
func (m *Manager) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(idle); n > 0 {
				m.log.Debug("idle sessions unloaded", slog.Int("count", n))
			}
		}
	}
}

// Len количество сессий в памяти.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) lookup(id string) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = time.Now()
	return e.store, true
}

func (m *Manager) attach(id string, store *Store) {
	store.Subscribe(PersistListener(m.persister, id, m.log))
	for _, h := range m.hooks {
		h(id, store)
	}
	m.mu.Lock()
	m.sessions[id] = &entry{store: store, lastSeen: time.Now()}
	m.mu.Unlock()
}
