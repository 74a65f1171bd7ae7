// Package querycache кеширует ответы запросов к бэкенду и помечает их устаревшими
// по тегам.
//
// Запрос при записи в кеш объявляет, какие теги он предоставляет; мутация после
// успеха инвалидирует список тегов. Граф tag → ключи запросов хранится явно,
// каждая инвалидация возвращает затронутые ключи и рассылает их подписчикам.
package querycache

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// ListID идентификатор тега коллекции.
const ListID = "LIST"

// Tag метка закешированного результата.
type Tag struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// T создаёт тег типа с идентификатором.
func T(typ, id string) Tag {
	return Tag{Type: typ, ID: id}
}

// List тег коллекции типа.
func List(typ string) Tag {
	return Tag{Type: typ, ID: ListID}
}

func (t Tag) String() string {
	if t.ID == "" {
		return t.Type
	}
	return t.Type + ":" + t.ID
}

// Matches сообщает, задевает ли инвалидация тега inv предоставленный тег provided.
// Тег без ID инвалидирует все теги своего типа; тег с ID — теги того же типа
// с тем же ID и теги типа без ID.
func Matches(inv, provided Tag) bool {
	if inv.Type != provided.Type {
		return false
	}
	return inv.ID == "" || provided.ID == "" || inv.ID == provided.ID
}

// Entry закешированный результат запроса.
type Entry struct {
	Value     json.RawMessage `json:"value"`
	Tags      []Tag           `json:"tags"`
	Stale     bool            `json:"stale"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (e Entry) matches(tags []Tag) bool {
	for _, inv := range tags {
		for _, p := range e.Tags {
			if Matches(inv, p) {
				return true
			}
		}
	}
	return false
}

// Marks счётчики инвалидаций по типам тегов.
type Marks map[string]uint64

// movedFor сообщает, была ли после снимка seen инвалидация хотя бы одного из типов tags.
// Пустой снимок ни с чем не сравнивается.
func (cur Marks) movedFor(seen Marks, tags []Tag) bool {
	if seen == nil {
		return false
	}
	for _, t := range tags {
		if cur[t.Type] != seen[t.Type] {
			return true
		}
	}
	return false
}

// Cache хранилище результатов запросов с инвалидацией по тегам.
type Cache interface {
	// Get возвращает запись по ключу. Устаревшая запись тоже возвращается, с Stale=true.
	Get(ctx context.Context, key string) (Entry, bool, error)
	// Marks возвращает снимок счётчиков инвалидаций. Снимок берётся до запроса
	// к бэкенду и передаётся в Provide.
	Marks(ctx context.Context) (Marks, error)
	// Provide сохраняет результат запроса и теги, которые он предоставляет. Если после
	// снимка seen теги запроса инвалидировались, запись сохраняется устаревшей.
	Provide(ctx context.Context, key string, tags []Tag, value []byte, seen Marks) error
	// Invalidate помечает устаревшими записи, задетые тегами, и возвращает их ключи.
	Invalidate(ctx context.Context, tags []Tag) ([]string, error)
	// Subscribe подписывает на ключи, ставшие устаревшими.
	Subscribe(fn func(keys []string)) func()
}

type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func([]string)
}

func (n *notifier) subscribe(fn func([]string)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func([]string))
	}
	n.nextID++
	id := n.nextID
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

func (n *notifier) notify(keys []string) {
	if len(keys) == 0 {
		return
	}
	n.mu.Lock()
	fns := make([]func([]string), 0, len(n.subs))
	ids := make([]int, 0, len(n.subs))
	for id := range n.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, n.subs[id])
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(keys)
	}
}
