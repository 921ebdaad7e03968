package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/tutoring-schedule/internal/model"
)

// ReservationRepo provides CRUD operations for ad hoc hall reservations.
// Reservations are hard-deleted on cancellation; unlike template sessions
// nothing would bring them back.
type ReservationRepo struct {
    q querier
}

// NewReservationRepo returns a new ReservationRepo bound to the given handle.
func NewReservationRepo(q querier) *ReservationRepo { return &ReservationRepo{q: q} }

const reservationColumns = `r.id, r.hall_id, r.teacher_id, r.reservation_date, r.start_time, r.end_time,
                            r.description, r.capacity, r.hourly_rate_cents, r.total_cost_cents,
                            r.out_of_schedule, r.created_at`

func scanReservation(sc scanner) (model.Reservation, error) {
    var res model.Reservation
    err := sc.Scan(
        &res.ID, &res.HallID, &res.TeacherID, &res.Date, &res.Range.Start, &res.Range.End,
        &res.Description, &res.Capacity, &res.HourlyRateCents, &res.TotalCostCents,
        &res.OutOfSchedule, &res.CreatedAt,
    )
    return res, err
}

// Reservation loads a reservation by ID or returns ErrNotFound.
func (r *ReservationRepo) Reservation(ctx context.Context, id int64) (model.Reservation, error) {
    q := `SELECT ` + reservationColumns + ` FROM reservations r WHERE r.id = ?`
    res, err := scanReservation(r.q.QueryRowContext(ctx, q, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.Reservation{}, ErrNotFound
        }
        return model.Reservation{}, err
    }
    return res, nil
}

// InsertReservation stores res and populates its ID and CreatedAt.
func (r *ReservationRepo) InsertReservation(ctx context.Context, res *model.Reservation) error {
    const q = `INSERT INTO reservations
               (hall_id, teacher_id, reservation_date, start_time, end_time, description,
                capacity, hourly_rate_cents, total_cost_cents, out_of_schedule, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    if res.CreatedAt.IsZero() {
        res.CreatedAt = time.Now().UTC().Truncate(time.Second)
    }
    result, err := r.q.ExecContext(ctx, q,
        res.HallID, res.TeacherID, res.Date, res.Range.Start, res.Range.End, res.Description,
        res.Capacity, res.HourlyRateCents, res.TotalCostCents, res.OutOfSchedule, res.CreatedAt,
    )
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = id
    return nil
}

// UpdateReservation rewrites the schedulable fields and cost of res.
func (r *ReservationRepo) UpdateReservation(ctx context.Context, res model.Reservation) error {
    const q = `UPDATE reservations
               SET hall_id = ?, teacher_id = ?, reservation_date = ?, start_time = ?, end_time = ?,
                   total_cost_cents = ?, out_of_schedule = ?
               WHERE id = ?`
    result, err := r.q.ExecContext(ctx, q,
        res.HallID, res.TeacherID, res.Date, res.Range.Start, res.Range.End,
        res.TotalCostCents, res.OutOfSchedule, res.ID,
    )
    if err != nil {
        return err
    }
    return expectOneRow(result)
}

// DeleteReservation removes a reservation or returns ErrNotFound.
func (r *ReservationRepo) DeleteReservation(ctx context.Context, id int64) error {
    result, err := r.q.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
    if err != nil {
        return err
    }
    return expectOneRow(result)
}
