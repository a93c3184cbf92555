package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"songstory-server/internal/model"
	"songstory-server/shared/logger"
)

// appID проставляется в AppId каждого сообщения.
const appID = "songstory-server"

// Notifier отправляет события о сгенерированных историях.
type Notifier interface {
	// NotifyStoryGenerated публикует событие. Ошибка только сообщается, история уже сохранена.
	NotifyStoryGenerated(ctx context.Context, event model.StoryGeneratedEvent) error
}

// rabbitMQNotifier публикует события в очередь RabbitMQ.
type rabbitMQNotifier struct {
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQNotifier объявляет durable-очередь и возвращает Notifier.
// Канал открывается и закрывается вызывающей стороной (main).
func NewRabbitMQNotifier(ch *amqp.Channel, queueName string, log *zap.Logger) (Notifier, error) {
	_, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue '%s': %w", queueName, err)
	}

	n := &rabbitMQNotifier{channel: ch, queueName: queueName, logger: logger.Named(log, "RabbitMQNotifier")}
	n.logger.Info("Story events queue declared", zap.String("queue", queueName))
	return n, nil
}

func (n *rabbitMQNotifier) NotifyStoryGenerated(ctx context.Context, event model.StoryGeneratedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal story event %s: %w", event.RecordID, err)
	}

	err = n.channel.PublishWithContext(ctx,
		"",
		n.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
			AppId:        appID,
			MessageId:    event.RecordID,
		},
	)
	if err != nil {
		n.logger.Error("Failed to publish story event", zap.String("record_id", event.RecordID), zap.Error(err))
		return fmt.Errorf("failed to publish story event %s: %w", event.RecordID, err)
	}

	n.logger.Info("Story event published", zap.String("record_id", event.RecordID), zap.String("queue", n.queueName))
	return nil
}

type nopNotifier struct{}

// NewNopNotifier - Notifier, который ничего не отправляет (RabbitMQ не настроен).
func NewNopNotifier() Notifier { return nopNotifier{} }

func (nopNotifier) NotifyStoryGenerated(context.Context, model.StoryGeneratedEvent) error { return nil }

// Dial подключается к RabbitMQ, повторяя попытки: брокер в docker-compose поднимается дольше сервиса.
func Dial(ctx context.Context, url string, attempts int, delay time.Duration, log *zap.Logger) (*amqp.Connection, error) {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			log.Info("Connected to RabbitMQ", zap.Int("attempt", i))
			return conn, nil
		}
		lastErr = err
		log.Warn("Failed to connect to RabbitMQ", zap.Int("attempt", i), zap.Int("max_attempts", attempts), zap.Error(err))

		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, lastErr)
}
