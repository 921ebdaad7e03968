package repository

import (
	"context"
	"iter"

	"github.com/iliyamo/tutoring-schedule/internal/model"
)

// TemplateRepo reads weekly recurring templates.  Template CRUD belongs to
// the administrative layer.
type TemplateRepo struct {
	q querier
}

func NewTemplateRepo(q querier) *TemplateRepo {
	return &TemplateRepo{q: q}
}

// ActiveTemplates streams the active templates whose hall belongs to
// branchID.  Each range over the returned sequence issues a fresh query,
// so the sequence can be consumed more than once.  Rows are scanned one at
// a time; stopping early closes the cursor.
func (r *TemplateRepo) ActiveTemplates(ctx context.Context, branchID int64, academicYearID *int64) iter.Seq2[model.RecurringTemplate, error] {
	const base = `SELECT t.id, t.hall_id, t.teacher_id, t.subject_id, t.day_of_week,
                         t.start_time, t.end_time, t.academic_year_id, t.is_active
                  FROM schedule_templates t
                  JOIN halls h ON h.id = t.hall_id
                  WHERE h.branch_id = ? AND t.is_active = 1`
	q := base + ` ORDER BY t.id ASC`
	args := []any{branchID}
	if academicYearID != nil {
		q = base + ` AND t.academic_year_id = ? ORDER BY t.id ASC`
		args = append(args, *academicYearID)
	}

	return func(yield func(model.RecurringTemplate, error) bool) {
		rows, err := r.q.QueryContext(ctx, q, args...)
		if err != nil {
			yield(model.RecurringTemplate{}, err)
			return
		}
		defer rows.Close()
		for rows.Next() {
			var t model.RecurringTemplate
			if err := rows.Scan(
				&t.ID, &t.HallID, &t.TeacherID, &t.SubjectID, &t.DayOfWeek,
				&t.Range.Start, &t.Range.End, &t.AcademicYearID, &t.Active,
			); err != nil {
				yield(model.RecurringTemplate{}, err)
				return
			}
			if !yield(t, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.RecurringTemplate{}, err)
		}
	}
}
