package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// AuditConsumer appends every schedule event to a log file, one line per
// event.
type AuditConsumer struct {
    url  string
    path string
    log  *zap.Logger
}

func NewAuditConsumer(url, path string, logger *zap.Logger) *AuditConsumer {
    if logger == nil {
        logger = zap.NewNop()
    }
    return &AuditConsumer{url: url, path: path, log: logger}
}

// Run connects to the broker, declares ScheduleQueue and consumes it
// until ctx is done.  Lost connections are re-dialed with exponential
// backoff capped at 30s.  It returns ctx.Err() on shutdown.
func (c *AuditConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.Warn("audit consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.log.Warn("audit consumer: consume loop ended, reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.Warn("audit consumer: set QoS failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(ScheduleQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.ConsumeWithContext(ctx, ScheduleQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := c.handle(d.Body); err != nil {
            c.log.Error("audit consumer: handle message failed", zap.String("message_id", d.MessageId), zap.Error(err))
            // Rejected without requeue to avoid a hot loop on bad payloads.
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func (c *AuditConsumer) handle(body []byte) error {
    var ev ScheduleEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    return appendLine(c.path, formatEvent(ev))
}

func appendLine(path, line string) error {
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
    }
    f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line + "\n"); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// formatEvent renders ev as a single human-readable line.
func formatEvent(ev ScheduleEvent) string {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] %s | id=%s | branch_id=%d", ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.ID, ev.BranchID)
    if ev.Type == EventWeekGenerated {
        fmt.Fprintf(&b, " | week_start=%s | generated=%d | already_existing=%d | skipped_conflict=%d | failed=%d",
            ev.WeekStart, ev.Generated, ev.AlreadyExisting, ev.SkippedConflict, ev.Failed)
        return b.String()
    }
    if s := ev.Booking; s != nil {
        teacher := "-"
        if s.TeacherID != nil {
            teacher = fmt.Sprint(*s.TeacherID)
        }
        fmt.Fprintf(&b, " | booking=%s | hall_id=%d | teacher_id=%s | date=%s | range=%s",
            s.Ref(), s.HallID, teacher, s.Date, s.Range)
    }
    if ev.Outcome != "" {
        fmt.Fprintf(&b, " | outcome=%s | conflicts=%d", ev.Outcome, ev.Conflicts)
    }
    return b.String()
}
