package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/kyc-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/kyc-portal/internal/lib/sl"
)

const persistTimeout = 3 * time.Second

// Initialize гидрирует Store из хранилища: выставляет флаг загрузки, читает
// сохранённое состояние и применяет InitializeAuth. Просроченный JWT удаляется
// из хранилища, сессия остаётся анонимной. Нечитаемое состояние удаляется так же,
// как если бы его не было. found сообщает, было ли что-то сохранено под id.
func Initialize(ctx context.Context, store *Store, persister Persister, id string) (found bool, err error) {
	const op = "session.Initialize"

	store.Dispatch(SetLoading{Loading: true})

	p, err := persister.Load(ctx, id)
	switch {
	case err == nil:
		found = true
	case errors.Is(err, ErrNotFound):
	case errors.Is(err, ErrCorrupt):
		if err := persister.Clear(ctx, id); err != nil {
			store.Dispatch(InitializeAuth{})
			return false, fmt.Errorf("%s: %w", op, err)
		}
	default:
		store.Dispatch(InitializeAuth{})
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if p != nil && jwt.Expired(p.Token, time.Now()) {
		if err := persister.Clear(ctx, id); err != nil {
			store.Dispatch(InitializeAuth{})
			return found, fmt.Errorf("%s: %w", op, err)
		}
		p = nil
	}

	store.Dispatch(InitializeAuth{Persisted: p})
	return found, nil
}

// PersistListener возвращает подписчика, который сохраняет сессию после входа
// и обновления профиля и очищает хранилище после выхода.
func PersistListener(persister Persister, id string, log *slog.Logger) Listener {
	return func(_, next State, action Action) {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		var err error
		switch action.(type) {
		case LoginSucceeded, ProfileRefreshed:
			if !next.Authenticated() {
				return
			}
			err = persister.Save(ctx, id, Persisted{Token: next.Token, User: next.User})
		case LoggedOut:
			err = persister.Clear(ctx, id)
		default:
			return
		}
		if err != nil {
			log.Error("failed to persist session",
				slog.String("op", "session.PersistListener"),
				slog.String("action", action.Name()),
				sl.Err(err),
			)
		}
	}
}
