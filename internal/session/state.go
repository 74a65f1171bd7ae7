// Package session хранит состояние авторизации браузерной сессии портала.
//
// Store — единственный владелец состояния {token, user, isLoading}. Состояние меняется
// только через Dispatch, действия применяются по одному, подписчики узнают о каждом
// изменении в порядке применения действий.
package session

import "github.com/magabrotheeeer/kyc-portal/internal/models"

// State состояние авторизации сессии. Пустой Token означает, что пользователь не вошёл.
type State struct {
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	IsLoading bool         `json:"isLoading"`
}

// Authenticated сообщает, есть ли в сессии токен.
func (s State) Authenticated() bool {
	return s.Token != ""
}

// Role возвращает роль текущего пользователя или пустую роль.
func (s State) Role() models.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Persisted часть состояния, которая переживает перезапуск портала.
type Persisted struct {
	Token string       `json:"token"`
	User  *models.User `json:"user,omitempty"`
}

// Action действие над состоянием сессии.
type Action interface {
	Name() string
}

// InitializeAuth восстанавливает сессию из хранилища и снимает флаг загрузки.
type InitializeAuth struct {
	Persisted *Persisted
}

// LoginSucceeded успешный вход.
type LoginSucceeded struct {
	Token string
	User  *models.User
}

// ProfileRefreshed обновлённый профиль пользователя.
type ProfileRefreshed struct {
	User *models.User
}

// LoggedOut выход из сессии.
type LoggedOut struct{}

// SetLoading выставляет флаг загрузки.
type SetLoading struct {
	Loading bool
}

func (InitializeAuth) Name() string   { return "initializeAuth" }
func (LoginSucceeded) Name() string   { return "login" }
func (ProfileRefreshed) Name() string { return "profileRefreshed" }
func (LoggedOut) Name() string        { return "logout" }
func (SetLoading) Name() string       { return "setLoading" }

// Reduce вычисляет следующее состояние. Функция чистая: входное состояние не меняется.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case InitializeAuth:
		if a.Persisted == nil || a.Persisted.Token == "" {
			return State{}
		}
		return State{Token: a.Persisted.Token, User: cloneUser(a.Persisted.User)}
	case LoginSucceeded:
		if a.Token == "" {
			return s
		}
		return State{Token: a.Token, User: cloneUser(a.User)}
	case ProfileRefreshed:
		// профиль без токена не принимаем
		if s.Token == "" {
			return s
		}
		s.User = cloneUser(a.User)
		return s
	case LoggedOut:
		return State{}
	case SetLoading:
		s.IsLoading = a.Loading
		return s
	default:
		return s
	}
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.ActiveSubscriptions != nil {
		c.ActiveSubscriptions = append([]models.ActiveSubscription(nil), u.ActiveSubscriptions...)
	}
	return &c
}
