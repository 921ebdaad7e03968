package model

import "time"

// Reservation is an ad hoc hall booking that does not come from a weekly
// template (exam sittings, make-up lessons, rentals).  It shares the
// conflict domain with Session.
//
// Fields:
//  ID              – primary key identifier.
//  HallID          – booked hall.
//  TeacherID       – supervising teacher, nil when none is attached.
//  Date            – day of the booking.
//  Range           – half-open time range on Date.
//  Description     – free text shown on the grid.
//  Capacity        – expected attendance.
//  HourlyRateCents – price per hour used to derive TotalCostCents.
//  TotalCostCents  – HourlyRateCents prorated over the range duration.
//  OutOfSchedule   – set when the booking was forced over a conflict.
//  CreatedAt       – creation timestamp.
type Reservation struct {
    ID              int64     `json:"id"`                   // reservations.id
    HallID          int64     `json:"hall_id"`              // reservations.hall_id
    TeacherID       *int64    `json:"teacher_id,omitempty"` // reservations.teacher_id (nullable)
    Date            Date      `json:"date"`                 // reservations.reservation_date
    Range           TimeRange `json:"range"`                // reservations.start_time / end_time
    Description     string    `json:"description"`          // reservations.description
    Capacity        int       `json:"capacity"`             // reservations.capacity
    HourlyRateCents int64     `json:"hourly_rate_cents"`    // reservations.hourly_rate_cents
    TotalCostCents  int64     `json:"total_cost_cents"`     // reservations.total_cost_cents
    OutOfSchedule   bool      `json:"out_of_schedule"`      // reservations.out_of_schedule
    CreatedAt       time.Time `json:"created_at"`           // reservations.created_at
}

// Slot projects the reservation into the conflict domain.
func (r Reservation) Slot() Slot {
    return Slot{
        Kind:          KindReservation,
        ID:            r.ID,
        HallID:        r.HallID,
        TeacherID:     r.TeacherID,
        Date:          r.Date,
        Range:         r.Range,
        OutOfSchedule: r.OutOfSchedule,
    }
}

// PriceFor prorates an hourly rate over r; it fails for an empty range.
func PriceFor(r TimeRange, hourlyRateCents int64) (int64, error) {
    minutes, err := DurationMinutes(r)
    if err != nil {
        return 0, err
    }
    return hourlyRateCents * int64(minutes) / 60, nil
}
