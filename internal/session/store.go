package session

import "sync"

// Listener получает предыдущее и новое состояние вместе с применённым действием.
// Listener не должен синхронно вызывать Dispatch того же Store.
type Listener func(prev, next State, action Action)

type subscriber struct {
	id uint64
	fn Listener
}

// Store хранит состояние одной сессии.
type Store struct {
	dispatchMu sync.Mutex

	mu          sync.RWMutex
	state       State
	subscribers []subscriber
	nextID      uint64
}

// NewStore создаёт Store с начальным состоянием.
func NewStore(initial State) *Store {
	initial.User = cloneUser(initial.User)
	return &Store{state: initial}
}

// Get возвращает текущее состояние. Поле User не должно изменяться вызывающим.
func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Token возвращает текущий токен.
func (s *Store) Token() string {
	return s.Get().Token
}

// Subscribe добавляет подписчика и возвращает функцию отписки.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subscribers {
				if sub.id == id {
					s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// Dispatch применяет действие и уведомляет подписчиков. Следующее действие
// начинает применяться только после того, как все подписчики отработали.
func (s *Store) Dispatch(a Action) State {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, a)
	s.state = next
	subs := make([]subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(prev, next, a)
	}
	return next
}
