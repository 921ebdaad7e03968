package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Publisher sends schedule events to ScheduleQueue.  It dials the broker
// for every event, so it holds no connection state and is safe for
// concurrent use.  Failures are logged and returned; callers decide
// whether to ignore them.
type Publisher struct {
    url   string
    queue string
    log   *zap.Logger
}

func NewPublisher(url string, logger *zap.Logger) *Publisher {
    if logger == nil {
        logger = zap.NewNop()
    }
    return &Publisher{url: url, queue: ScheduleQueue, log: logger}
}

// Publish marshals ev and publishes it as a persistent message.  An event
// without an ID gets a fresh one, which also becomes the message ID.
func (p *Publisher) Publish(ctx context.Context, ev ScheduleEvent) error {
    if ev.ID == "" {
        ev.ID = uuid.NewString()
    }
    if ev.OccurredAt.IsZero() {
        ev.OccurredAt = time.Now().UTC()
    }
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    conn, err := amqp.Dial(p.url)
    if err != nil {
        p.log.Warn("rabbitmq dial failed", zap.Error(err))
        return fmt.Errorf("dial broker: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.log.Warn("rabbitmq channel open failed", zap.Error(err))
        return fmt.Errorf("open channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        p.log.Warn("rabbitmq queue declare failed", zap.String("queue", p.queue), zap.Error(err))
        return fmt.Errorf("declare queue: %w", err)
    }

    msg := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.ID,
        Type:         string(ev.Type),
        Timestamp:    ev.OccurredAt,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
        p.log.Warn("rabbitmq publish failed", zap.String("event", string(ev.Type)), zap.Error(err))
        return fmt.Errorf("publish %s: %w", ev.Type, err)
    }
    p.log.Debug("event published", zap.String("event", string(ev.Type)), zap.String("id", ev.ID))
    return nil
}
