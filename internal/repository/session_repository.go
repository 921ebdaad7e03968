// Package repository contains data access logic for class sessions. A
// session is one dated occurrence of a class in a hall, either
// materialized from a weekly template or booked ad hoc.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for matching sql.ErrNoRows
	"fmt"

	"github.com/iliyamo/tutoring-schedule/internal/model"
)

// sessionColumns is the select list shared by every session query.
const sessionColumns = `s.id, s.template_id, s.session_date, s.start_time, s.end_time,
                        s.hall_id, s.teacher_id, s.subject_id, s.status, s.out_of_schedule`

// SessionRepo manages persistence for class sessions.
type SessionRepo struct {
	q querier
}

// NewSessionRepo constructs a SessionRepo with the given handle.
func NewSessionRepo(q querier) *SessionRepo {
	return &SessionRepo{q: q}
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (model.Session, error) {
	var s model.Session
	err := sc.Scan(
		&s.ID, &s.TemplateID, &s.Date, &s.Range.Start, &s.Range.End,
		&s.HallID, &s.TeacherID, &s.SubjectID, &s.Status, &s.OutOfSchedule,
	)
	return s, err
}

// Session retrieves a session by its ID, canceled ones included.  It
// returns ErrNotFound if there is no matching row.
func (r *SessionRepo) Session(ctx context.Context, id int64) (model.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM class_sessions s WHERE s.id = ?`
	s, err := scanSession(r.q.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, ErrNotFound
		}
		return model.Session{}, err
	}
	return s, nil
}

// SessionForTemplate returns the session materialized from templateID on
// date, canceled ones included, or ErrNotFound.  This is the idempotence
// check of weekly generation.
func (r *SessionRepo) SessionForTemplate(ctx context.Context, templateID int64, date model.Date) (model.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM class_sessions s WHERE s.template_id = ? AND s.session_date = ?`
	s, err := scanSession(r.q.QueryRowContext(ctx, q, templateID, date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, ErrNotFound
		}
		return model.Session{}, err
	}
	return s, nil
}

// SessionsBetween lists every session, canceled ones included, held in the
// branch's halls between from and to inclusive, ordered by date, start
// time and ID.
func (r *SessionRepo) SessionsBetween(ctx context.Context, branchID int64, from, to model.Date) ([]model.Session, error) {
	q := `SELECT ` + sessionColumns + `
          FROM class_sessions s
          JOIN halls h ON h.id = s.hall_id
          WHERE h.branch_id = ? AND s.session_date BETWEEN ? AND ?
          ORDER BY s.session_date ASC, s.start_time ASC, s.id ASC`
	rows, err := r.q.QueryContext(ctx, q, branchID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// InsertSession stores s and assigns the generated ID back to it.  A
// second session for the same template and date yields ErrDuplicateSession.
func (r *SessionRepo) InsertSession(ctx context.Context, s *model.Session) error {
	const q = `INSERT INTO class_sessions
               (template_id, session_date, start_time, end_time, hall_id, teacher_id, subject_id, status, out_of_schedule)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if s.Status == "" {
		s.Status = model.SessionScheduled
	}
	res, err := r.q.ExecContext(ctx, q,
		s.TemplateID, s.Date, s.Range.Start, s.Range.End,
		s.HallID, s.TeacherID, s.SubjectID, s.Status, s.OutOfSchedule,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateSession
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

// UpdateSession rewrites the schedulable fields of a live session.  It
// returns ErrNotFound when no live row matches s.ID.
func (r *SessionRepo) UpdateSession(ctx context.Context, s model.Session) error {
	const q = `UPDATE class_sessions
               SET session_date = ?, start_time = ?, end_time = ?, hall_id = ?, teacher_id = ?,
                   out_of_schedule = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND status <> 'canceled'`
	res, err := r.q.ExecContext(ctx, q,
		s.Date, s.Range.Start, s.Range.End, s.HallID, s.TeacherID, s.OutOfSchedule, s.ID,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateSession
		}
		return err
	}
	return expectOneRow(res)
}

// CancelSession marks a live session canceled.  The row stays so that
// regenerating its week does not recreate it.
func (r *SessionRepo) CancelSession(ctx context.Context, id int64) error {
	const q = `UPDATE class_sessions SET status = 'canceled', updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND status <> 'canceled'`
	res, err := r.q.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// expectOneRow maps a zero-row UPDATE or DELETE to ErrNotFound.
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
