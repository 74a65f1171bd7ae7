// Package rabbitmq содержит подключение к RabbitMQ и публикацию JSON-сообщений.
package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/kyc-portal/internal/lib/sl"
)

// Retry политика повторных подключений к брокеру.
type Retry struct {
	Attempts int
	Delay    time.Duration
}

var dial = amqp.Dial

// Connect подключается к брокеру. Каждая неудачная попытка пишется в лог,
// между попытками выдерживается пауза; отмена ctx прерывает ожидание.
func Connect(ctx context.Context, log *slog.Logger, url string, retry Retry) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	log = log.With(slog.String("op", op))

	attempts := max(retry.Attempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := dial(url)
		if err == nil {
			if attempt > 1 {
				log.Info("connected to rabbitmq", slog.Int("attempt", attempt))
			}
			return conn, nil
		}
		lastErr = err
		log.Warn("rabbitmq is not reachable",
			slog.Int("attempt", attempt),
			slog.Int("of", attempts),
			sl.Err(err),
		)
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(retry.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("%s: after %d attempts: %w", op, attempts, lastErr)
}

// SetupExchange открывает канал и объявляет durable topic-exchange для событий сессий.
func SetupExchange(conn *amqp.Connection, exchange string) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupExchange"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: declare %s: %w", op, exchange, err)
	}
	return ch, nil
}
