package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/tutoring-schedule/internal/model"
)

// TeacherRepo reads the teacher roster.
type TeacherRepo struct {
	q querier
}

func NewTeacherRepo(q querier) *TeacherRepo {
	return &TeacherRepo{q: q}
}

// Teacher loads a teacher by ID or returns ErrTeacherNotFound.
func (r *TeacherRepo) Teacher(ctx context.Context, id int64) (model.Teacher, error) {
	const q = `SELECT id, full_name, is_bookable FROM teachers WHERE id = ?`
	var t model.Teacher
	if err := r.q.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Name, &t.Bookable); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Teacher{}, ErrTeacherNotFound
		}
		return model.Teacher{}, err
	}
	return t, nil
}
