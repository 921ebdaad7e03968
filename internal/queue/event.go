// Package queue defines the schedule events exchanged over the message
// broker, the publisher used by the HTTP layer, and the audit consumer.
package queue

import (
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/tutoring-schedule/internal/model"
    "github.com/iliyamo/tutoring-schedule/internal/schedule"
)

// ScheduleQueue is the durable queue every schedule event is routed to.
const ScheduleQueue = "schedule.events"

type EventType string

const (
    EventBookingCreated     EventType = "booking.created"
    EventBookingCancelled   EventType = "booking.cancelled"
    EventBookingRescheduled EventType = "booking.rescheduled"
    EventWeekGenerated      EventType = "week.generated"
)

// ScheduleEvent is published after a booking or generation change has
// been committed.  Booking fields are set for booking.* events and the
// counters for week.generated.
type ScheduleEvent struct {
    ID         string    `json:"id"`
    Type       EventType `json:"type"`
    BranchID   int64     `json:"branch_id,omitempty"`
    OccurredAt time.Time `json:"occurred_at"`

    Booking   *model.Slot `json:"booking,omitempty"`
    Outcome   string      `json:"outcome,omitempty"`
    Conflicts int         `json:"conflicts,omitempty"`

    WeekStart       string `json:"week_start,omitempty"`
    Generated       int    `json:"generated,omitempty"`
    AlreadyExisting int    `json:"already_existing,omitempty"`
    SkippedConflict int    `json:"skipped_conflict,omitempty"`
    SkippedResource int    `json:"skipped_unknown_resource,omitempty"`
    Failed          int    `json:"failed,omitempty"`
}

// NewBookingEvent describes a stored, moved or removed booking.
func NewBookingEvent(typ EventType, branchID int64, slot model.Slot, outcome string, conflicts int) ScheduleEvent {
    return ScheduleEvent{
        ID:         uuid.NewString(),
        Type:       typ,
        BranchID:   branchID,
        OccurredAt: time.Now().UTC(),
        Booking:    &slot,
        Outcome:    outcome,
        Conflicts:  conflicts,
    }
}

func NewWeekGeneratedEvent(r *schedule.GenerationResult) ScheduleEvent {
    return ScheduleEvent{
        ID:              uuid.NewString(),
        Type:            EventWeekGenerated,
        BranchID:        r.BranchID,
        OccurredAt:      time.Now().UTC(),
        WeekStart:       r.WeekStart.String(),
        Generated:       r.GeneratedCount,
        AlreadyExisting: r.AlreadyExistingCount,
        SkippedConflict: r.SkippedConflictCount,
        SkippedResource: r.SkippedResourceCount,
        Failed:          r.FailedCount,
    }
}
