package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// AppID отправитель сообщений в заголовке app_id.
const AppID = "kyc-portal"

// Channel часть *amqp.Channel, нужная для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishMessage публикует message как JSON под ключом маршрутизации key.
// Тип сообщения совпадает с ключом, у каждого сообщения свой message_id.
func PublishMessage(ch Channel, exchange, key string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", op, key, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         key,
		AppId:        AppID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.Publish(exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("%s: %s: %w", op, key, err)
	}
	return nil
}
