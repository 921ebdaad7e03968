package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/tutoring-schedule/internal/model"
)

// BookingRepo reads sessions and reservations together as the single
// conflict domain of a day.
type BookingRepo struct {
	q querier
}

func NewBookingRepo(q querier) *BookingRepo {
	return &BookingRepo{q: q}
}

// BookingsOn loads every live booking on date that sits in hallID or,
// when teacherID is non-nil, is taught by teacherID.  Ranges are not
// filtered here; overlap is decided by the caller.
func (r *BookingRepo) BookingsOn(ctx context.Context, date model.Date, hallID int64, teacherID *int64) ([]model.Booking, error) {
	filter := func(alias string) string { return alias + `.hall_id = ?` }
	args := []any{date, hallID}
	if teacherID != nil {
		filter = func(alias string) string {
			return `(` + alias + `.hall_id = ? OR ` + alias + `.teacher_id = ?)`
		}
		args = append(args, *teacherID)
	}
	return r.load(ctx, filter, args)
}

// BookingsForHalls loads every live booking on date held in one of hallIDs.
func (r *BookingRepo) BookingsForHalls(ctx context.Context, date model.Date, hallIDs []int64) ([]model.Booking, error) {
	if len(hallIDs) == 0 {
		return []model.Booking{}, nil
	}
	args := []any{date}
	for _, id := range hallIDs {
		args = append(args, id)
	}
	marks := `?` + strings.Repeat(`, ?`, len(hallIDs)-1)
	filter := func(alias string) string { return alias + `.hall_id IN (` + marks + `)` }
	return r.load(ctx, filter, args)
}

// load runs the two per-table queries one after the other; a transaction
// connection carries a single open result set at a time.
func (r *BookingRepo) load(ctx context.Context, filter func(alias string) string, args []any) ([]model.Booking, error) {
	out := []model.Booking{}

	sq := `SELECT ` + sessionColumns + ` FROM class_sessions s
           WHERE s.session_date = ? AND s.status <> 'canceled' AND ` + filter("s") + `
           ORDER BY s.start_time ASC, s.id ASC`
	rows, err := r.q.QueryContext(ctx, sq, args...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rq := `SELECT ` + reservationColumns + ` FROM reservations r
           WHERE r.reservation_date = ? AND ` + filter("r") + `
           ORDER BY r.start_time ASC, r.id ASC`
	rows, err = r.q.QueryContext(ctx, rq, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
