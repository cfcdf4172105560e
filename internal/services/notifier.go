package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const notificationQueueName = "user_notification_queue"

// Notification is a user-facing message about a payment or withdrawal
// state change.
type Notification struct {
	ID     string `json:"id"`
	UserID uint   `json:"user_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Notifier dispatches user notifications. Dispatch is fire and forget:
// callers log failures and move on, a lost notification never unwinds a
// committed state change.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// RabbitNotifier publishes notifications to a durable RabbitMQ queue
// consumed by the (external) delivery workers.
type RabbitNotifier struct {
	ch  *amqp.Channel
	log *zap.Logger
}

// NewRabbitNotifier opens a channel and declares the durable queue
func NewRabbitNotifier(conn *amqp.Connection, log *zap.Logger) (*RabbitNotifier, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		notificationQueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &RabbitNotifier{ch: ch, log: log}, nil
}

func (r *RabbitNotifier) Notify(ctx context.Context, n Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.ch.PublishWithContext(ctx,
		"",                    // default exchange
		notificationQueueName, // routing key
		false,                 // mandatory
		false,                 // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    n.ID,
			Body:         body,
		},
	)
}

func (r *RabbitNotifier) Close() error {
	return r.ch.Close()
}

// NoopNotifier is used when no broker is configured (local development)
type NoopNotifier struct {
	log *zap.Logger
}

func NewNoopNotifier(log *zap.Logger) *NoopNotifier {
	return &NoopNotifier{log: log}
}

func (n *NoopNotifier) Notify(_ context.Context, notification Notification) error {
	n.log.Info("notification dropped: no broker configured",
		zap.Uint("user_id", notification.UserID),
		zap.String("title", notification.Title),
	)
	return nil
}
