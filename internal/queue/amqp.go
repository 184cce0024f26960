package queue

import (
	"context"
	"encoding/json"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// NotificationsQueue is the durable queue the notifier consumes.
const NotificationsQueue = "notifications"

// Notification is one message to deliver to a user's Telegram chat.
type Notification struct {
	TelegramUserID int64  `json:"telegram_user_id"`
	Text           string `json:"text"`
}

type Publisher interface {
	PublishNotification(ctx context.Context, n Notification) error
	Close() error
}

type AmqpPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *zap.Logger
}

func NewAmqpPublisher(url string, log *zap.Logger) (*AmqpPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(NotificationsQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info("amqp publisher connected", zap.String("queue", NotificationsQueue))
	return &AmqpPublisher{conn: conn, ch: ch, log: log}, nil
}

func (p *AmqpPublisher) PublishNotification(_ context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.ch.Publish("", NotificationsQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (p *AmqpPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}

// Consume opens a manual-ack consumer on the notifications queue. Used by
// the notifier process.
func Consume(url string) (*amqp.Connection, <-chan amqp.Delivery, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	if _, err := ch.QueueDeclare(NotificationsQueue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, nil, err
	}

	msgs, err := ch.Consume(NotificationsQueue, "", false, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	return conn, msgs, nil
}
