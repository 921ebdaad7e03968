package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/iliyamo/tutoring-schedule/internal/model"
	"github.com/iliyamo/tutoring-schedule/internal/repository"
	"github.com/iliyamo/tutoring-schedule/internal/schedule"
)

// BookingOutcome is the result tag of a booking proposal.
type BookingOutcome string

const (
	OutcomeOk       BookingOutcome = "ok"
	OutcomeConflict BookingOutcome = "conflict"
	// OutcomeOverlap means the booking was stored over its conflicts
	// because the caller asked for an override.
	OutcomeOverlap BookingOutcome = "overlap"
)

// BookingRequest proposes an ad hoc session or a reservation.
type BookingRequest struct {
	Kind            model.BookingKind
	BranchID        int64
	HallID          int64
	TeacherID       *int64
	SubjectID       int64 // sessions only
	Date            model.Date
	Start, End      model.TimeOfDay
	Description     string // reservations only
	Capacity        int    // reservations only
	HourlyRateCents int64  // reservations only
	Override        bool
}

// BookingResult carries the stored booking (unless Outcome is conflict)
// and the conflict report the decision was based on.
type BookingResult struct {
	Outcome BookingOutcome       `json:"outcome"`
	Booking model.Booking        `json:"booking,omitempty"`
	Report  model.ConflictReport `json:"report"`
}

// ProposeBooking validates req, checks it against every live booking of
// the day for its hall and teacher, and stores it unless it conflicts.
// With Override set a conflicting booking is stored anyway, flagged out of
// schedule, and reported as OutcomeOverlap.  The check and the insert run
// in one serializable unit of work.
//
// Errors: model.ErrInvalidRange, *UnknownResourceError, ErrStoreUnavailable.
func (s *SchedulingService) ProposeBooking(ctx context.Context, req BookingRequest) (BookingResult, error) {
	rng, err := model.NewTimeRange(req.Start, req.End)
	if err != nil {
		return BookingResult{}, err
	}
	if req.Kind != model.KindSession && req.Kind != model.KindReservation {
		return BookingResult{}, fmt.Errorf("unsupported booking kind %q", req.Kind)
	}

	var result BookingResult
	err = s.update(ctx, "propose_booking", func(tx repository.Tx) error {
		result = BookingResult{}
		if err := requireResources(ctx, tx, req.BranchID, req.HallID, req.TeacherID); err != nil {
			return err
		}

		candidate := model.Slot{Kind: model.KindCandidate, HallID: req.HallID, TeacherID: req.TeacherID, Date: req.Date, Range: rng}
		existing, err := tx.BookingsOn(ctx, req.Date, req.HallID, req.TeacherID)
		if err != nil {
			return err
		}
		report := schedule.FindConflicts(candidate, slices.Values(existing))
		result.Report = report
		if report.HasConflicts() && !req.Override {
			result.Outcome = OutcomeConflict
			return nil
		}

		booking, err := insertBooking(ctx, tx, req, rng, report.HasConflicts())
		if err != nil {
			return err
		}
		result.Booking = booking
		result.Outcome = OutcomeOk
		if report.HasConflicts() {
			result.Outcome = OutcomeOverlap
		}
		return nil
	})
	if err != nil {
		return BookingResult{}, err
	}

	s.log.Info("booking proposed",
		zap.String("kind", string(req.Kind)),
		zap.Int64("hall_id", req.HallID),
		zap.String("date", req.Date.String()),
		zap.Stringer("range", rng),
		zap.String("outcome", string(result.Outcome)),
		zap.Int("conflicts", len(result.Report.Conflicts)),
	)
	return result, nil
}

func insertBooking(ctx context.Context, tx repository.Tx, req BookingRequest, rng model.TimeRange, outOfSchedule bool) (model.Booking, error) {
	if req.Kind == model.KindSession {
		sess := model.Session{
			Date:          req.Date,
			Range:         rng,
			HallID:        req.HallID,
			TeacherID:     req.TeacherID,
			SubjectID:     req.SubjectID,
			Status:        model.SessionScheduled,
			OutOfSchedule: outOfSchedule,
		}
		if err := tx.InsertSession(ctx, &sess); err != nil {
			return nil, err
		}
		return sess, nil
	}

	cost, err := model.PriceFor(rng, req.HourlyRateCents)
	if err != nil {
		return nil, err
	}
	res := model.Reservation{
		HallID:          req.HallID,
		TeacherID:       req.TeacherID,
		Date:            req.Date,
		Range:           rng,
		Description:     req.Description,
		Capacity:        req.Capacity,
		HourlyRateCents: req.HourlyRateCents,
		TotalCostCents:  cost,
		OutOfSchedule:   outOfSchedule,
	}
	if err := tx.InsertReservation(ctx, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// GetBooking loads a live session or reservation.
func (s *SchedulingService) GetBooking(ctx context.Context, ref model.BookingRef) (model.Booking, error) {
	var booking model.Booking
	err := s.view(ctx, "get_booking", func(tx repository.Tx) error {
		var err error
		booking, err = loadBooking(ctx, tx, ref)
		return err
	})
	return booking, err
}

func loadBooking(ctx context.Context, tx repository.Tx, ref model.BookingRef) (model.Booking, error) {
	switch ref.Kind {
	case model.KindSession:
		sess, err := tx.Session(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if !sess.Active() {
			return nil, repository.ErrNotFound
		}
		return sess, nil
	case model.KindReservation:
		return tx.Reservation(ctx, ref.ID)
	}
	return nil, repository.ErrNotFound
}

// RescheduleRequest moves a stored booking.  A nil Date or HallID keeps
// the current value.
type RescheduleRequest struct {
	Date       *model.Date
	HallID     *int64
	Start, End model.TimeOfDay
	Override   bool
}

// RescheduleBooking re-runs the conflict check for the booking's new
// date, hall and range, ignoring the booking itself, and saves the move
// unless it conflicts (or Override is set).  A new hall must belong to the
// branch of the current one.  Template sessions keep their date.
func (s *SchedulingService) RescheduleBooking(ctx context.Context, ref model.BookingRef, req RescheduleRequest) (BookingResult, error) {
	rng, err := model.NewTimeRange(req.Start, req.End)
	if err != nil {
		return BookingResult{}, err
	}

	var result BookingResult
	err = s.update(ctx, "reschedule_booking", func(tx repository.Tx) error {
		result = BookingResult{}
		current, err := loadBooking(ctx, tx, ref)
		if err != nil {
			return err
		}
		slot := current.Slot()

		moved := slot
		moved.Range = rng
		if req.Date != nil {
			moved.Date = *req.Date
		}
		if sess, ok := current.(model.Session); ok && sess.TemplateID != nil && moved.Date != slot.Date {
			return ErrTemplateSessionDate
		}
		if req.HallID != nil && *req.HallID != slot.HallID {
			cur, err := tx.Hall(ctx, slot.HallID)
			if err != nil {
				return err
			}
			if err := requireHall(ctx, tx, *req.HallID, cur.BranchID); err != nil {
				return err
			}
			moved.HallID = *req.HallID
		}

		existing, err := tx.BookingsOn(ctx, moved.Date, moved.HallID, moved.TeacherID)
		if err != nil {
			return err
		}
		report := schedule.FindConflicts(moved, slices.Values(existing))
		result.Report = report
		if report.HasConflicts() && !req.Override {
			result.Outcome = OutcomeConflict
			return nil
		}
		moved.OutOfSchedule = report.HasConflicts()

		updated, err := saveMove(ctx, tx, current, moved)
		if err != nil {
			return err
		}
		result.Booking = updated
		result.Outcome = OutcomeOk
		if report.HasConflicts() {
			result.Outcome = OutcomeOverlap
		}
		return nil
	})
	if err != nil {
		return BookingResult{}, err
	}
	s.log.Info("booking rescheduled",
		zap.Stringer("ref", ref),
		zap.String("outcome", string(result.Outcome)),
	)
	return result, nil
}

func saveMove(ctx context.Context, tx repository.Tx, current model.Booking, moved model.Slot) (model.Booking, error) {
	switch b := current.(type) {
	case model.Session:
		b.Date, b.Range, b.HallID, b.OutOfSchedule = moved.Date, moved.Range, moved.HallID, moved.OutOfSchedule
		if err := tx.UpdateSession(ctx, b); err != nil {
			return nil, err
		}
		return b, nil
	case model.Reservation:
		cost, err := model.PriceFor(moved.Range, b.HourlyRateCents)
		if err != nil {
			return nil, err
		}
		b.Date, b.Range, b.HallID, b.OutOfSchedule, b.TotalCostCents = moved.Date, moved.Range, moved.HallID, moved.OutOfSchedule, cost
		if err := tx.UpdateReservation(ctx, b); err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("unsupported booking %T", current)
}

// CancelBooking removes a session or reservation from the schedule.  It
// never touches templates.  Unknown or already canceled bookings yield
// repository.ErrNotFound.
func (s *SchedulingService) CancelBooking(ctx context.Context, ref model.BookingRef) error {
	err := s.update(ctx, "cancel_booking", func(tx repository.Tx) error {
		switch ref.Kind {
		case model.KindSession:
			return tx.CancelSession(ctx, ref.ID)
		case model.KindReservation:
			return tx.DeleteReservation(ctx, ref.ID)
		}
		return repository.ErrNotFound
	})
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Error("cancel booking failed", zap.Stringer("ref", ref), zap.Error(err))
		}
		return err
	}
	s.log.Info("booking canceled", zap.Stringer("ref", ref))
	return nil
}
