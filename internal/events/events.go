// Package events публикует события жизненного цикла сессий (вход, выход) в RabbitMQ.
package events

import (
	"log/slog"
	"time"

	"github.com/magabrotheeeer/kyc-portal/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/kyc-portal/internal/lib/sl"
	"github.com/magabrotheeeer/kyc-portal/internal/models"
	"github.com/magabrotheeeer/kyc-portal/internal/session"
)

// Routing keys событий.
const (
	KeyLogin  = "session.login"
	KeyLogout = "session.logout"
)

// SessionEvent сообщение о входе или выходе.
type SessionEvent struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	UserID    string      `json:"user_id,omitempty"`
	Email     string      `json:"email,omitempty"`
	Role      models.Role `json:"role,omitempty"`
	At        time.Time   `json:"at"`
}

// Publisher публикует события сессий в exchange.
type Publisher struct {
	ch       rabbitmq.Channel
	exchange string
	log      *slog.Logger
}

// NewPublisher создаёт Publisher.
func NewPublisher(ch rabbitmq.Channel, exchange string, log *slog.Logger) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, log: log}
}

// Hook подписывает Publisher на Store новой сессии.
func (p *Publisher) Hook() session.Hook {
	return func(id string, store *session.Store) {
		store.Subscribe(func(prev, next session.State, action session.Action) {
			switch action.(type) {
			case session.LoginSucceeded:
				if next.Authenticated() {
					p.publish(KeyLogin, id, next)
				}
			case session.LoggedOut:
				if prev.Authenticated() {
					p.publish(KeyLogout, id, prev)
				}
			}
		})
	}
}

func (p *Publisher) publish(key, id string, state session.State) {
	ev := SessionEvent{
		Type:      key,
		SessionID: id,
		Role:      state.Role(),
		At:        time.Now().UTC(),
	}
	if state.User != nil {
		ev.UserID = state.User.ID
		ev.Email = state.User.Email
	}
	if err := rabbitmq.PublishMessage(p.ch, p.exchange, key, ev); err != nil {
		p.log.Warn("failed to publish session event", slog.String("type", key), sl.Err(err))
	}
}
