package model

import "fmt"

// BookingKind tags the variants of the conflict domain.
type BookingKind string

const (
	KindSession     BookingKind = "session"
	KindReservation BookingKind = "reservation"
	// KindCandidate marks a slot that has not been stored yet.
	KindCandidate BookingKind = "candidate"
)

// ParseBookingKind accepts the two stored kinds.
func ParseBookingKind(s string) (BookingKind, error) {
	switch BookingKind(s) {
	case KindSession, KindReservation:
		return BookingKind(s), nil
	}
	return "", fmt.Errorf("unknown booking kind %q", s)
}

// Booking is anything that occupies a hall (and possibly a teacher) for a
// time range on a date. Session and Reservation implement it.
type Booking interface {
	Slot() Slot
}

// Slot is the common projection the conflict detector works on.
type Slot struct {
	Kind          BookingKind `json:"kind"`
	ID            int64       `json:"id,omitempty"`
	HallID        int64       `json:"hall_id"`
	TeacherID     *int64      `json:"teacher_id,omitempty"`
	Date          Date        `json:"date"`
	Range         TimeRange   `json:"range"`
	OutOfSchedule bool        `json:"out_of_schedule,omitempty"`
}

// Slot lets a bare Slot stand in for a Booking.
func (s Slot) Slot() Slot { return s }

// Ref identifies the stored booking behind s.
func (s Slot) Ref() BookingRef { return BookingRef{Kind: s.Kind, ID: s.ID} }

// BookingRef addresses a stored session or reservation.
type BookingRef struct {
	Kind BookingKind `json:"kind"`
	ID   int64       `json:"id"`
}

func (r BookingRef) String() string { return fmt.Sprintf("%s/%d", r.Kind, r.ID) }

// ConflictKind names the resource two bookings collide on.
type ConflictKind string

const (
	ConflictHall    ConflictKind = "hall"
	ConflictTeacher ConflictKind = "teacher"
)

// Conflict is one collision between a candidate and an existing booking.
type Conflict struct {
	Kind ConflictKind `json:"kind"`
	With Slot         `json:"with"`
}

// ConflictReport lists every collision of Candidate, hall entries first.
type ConflictReport struct {
	Candidate Slot       `json:"candidate"`
	Conflicts []Conflict `json:"conflicts"`
}

func (r ConflictReport) HasConflicts() bool { return len(r.Conflicts) > 0 }

// Count returns the number of conflicts of kind k.
func (r ConflictReport) Count(k ConflictKind) int {
	n := 0
	for _, c := range r.Conflicts {
		if c.Kind == k {
			n++
		}
	}
	return n
}
