package inmem

import (
	"context"
	"errors"
	"iter"
	"maps"
	"slices"

	"github.com/iliyamo/tutoring-schedule/internal/model"
	"github.com/iliyamo/tutoring-schedule/internal/repository"
)

var errReadOnly = errors.New("inmem: write in read-only transaction")

type tx struct {
	db       *tables
	readOnly bool
}

var _ repository.Tx = (*tx)(nil)

// sortedValues returns the map's values ordered by key.
func sortedValues[V any](m map[int64]V) []V {
	out := make([]V, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, m[k])
	}
	return out
}

func (t *tx) write() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

func (t *tx) nextID() int64 {
	t.db.nextID++
	return t.db.nextID
}

func (t *tx) Branch(_ context.Context, id int64) (model.Branch, error) {
	b, ok := t.db.branches[id]
	if !ok {
		return model.Branch{}, repository.ErrBranchNotFound
	}
	return b, nil
}

func (t *tx) Hall(_ context.Context, id int64) (model.Hall, error) {
	h, ok := t.db.halls[id]
	if !ok {
		return model.Hall{}, repository.ErrHallNotFound
	}
	return h, nil
}

func (t *tx) HallsByBranch(_ context.Context, branchID int64) ([]model.Hall, error) {
	halls := []model.Hall{}
	for _, h := range sortedValues(t.db.halls) {
		if h.BranchID == branchID && h.IsActive {
			halls = append(halls, h)
		}
	}
	return halls, nil
}

func (t *tx) Teacher(_ context.Context, id int64) (model.Teacher, error) {
	teacher, ok := t.db.teachers[id]
	if !ok {
		return model.Teacher{}, repository.ErrTeacherNotFound
	}
	return teacher, nil
}

func (t *tx) ActiveTemplates(ctx context.Context, branchID int64, academicYearID *int64) iter.Seq2[model.RecurringTemplate, error] {
	return func(yield func(model.RecurringTemplate, error) bool) {
		for _, tpl := range sortedValues(t.db.templates) {
			if err := ctx.Err(); err != nil {
				yield(model.RecurringTemplate{}, err)
				return
			}
			if !tpl.Active || t.db.halls[tpl.HallID].BranchID != branchID {
				continue
			}
			if academicYearID != nil && tpl.AcademicYearID != *academicYearID {
				continue
			}
			if !yield(tpl, nil) {
				return
			}
		}
	}
}

func (t *tx) Session(_ context.Context, id int64) (model.Session, error) {
	s, ok := t.db.sessions[id]
	if !ok {
		return model.Session{}, repository.ErrNotFound
	}
	return s, nil
}

func (t *tx) SessionForTemplate(_ context.Context, templateID int64, date model.Date) (model.Session, error) {
	for _, s := range t.db.sessions {
		if s.TemplateID != nil && *s.TemplateID == templateID && s.Date == date {
			return s, nil
		}
	}
	return model.Session{}, repository.ErrNotFound
}

func (t *tx) SessionsBetween(_ context.Context, branchID int64, from, to model.Date) ([]model.Session, error) {
	var out []model.Session
	for _, s := range sortedValues(t.db.sessions) {
		if t.db.halls[s.HallID].BranchID != branchID || s.Date.Before(from) || s.Date.After(to) {
			continue
		}
		out = append(out, s)
	}
	slices.SortStableFunc(out, func(a, b model.Session) int {
		if a.Date != b.Date {
			if a.Date.Before(b.Date) {
				return -1
			}
			return 1
		}
		return int(a.Range.Start - b.Range.Start)
	})
	return out, nil
}

func (t *tx) InsertSession(ctx context.Context, s *model.Session) error {
	if err := t.write(); err != nil {
		return err
	}
	if s.TemplateID != nil {
		if _, err := t.SessionForTemplate(ctx, *s.TemplateID, s.Date); err == nil {
			return repository.ErrDuplicateSession
		}
	}
	if s.Status == "" {
		s.Status = model.SessionScheduled
	}
	s.ID = t.nextID()
	t.db.sessions[s.ID] = *s
	return nil
}

func (t *tx) UpdateSession(_ context.Context, s model.Session) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.db.sessions[s.ID]
	if !ok || !cur.Active() {
		return repository.ErrNotFound
	}
	cur.Date, cur.Range, cur.HallID, cur.TeacherID, cur.OutOfSchedule = s.Date, s.Range, s.HallID, s.TeacherID, s.OutOfSchedule
	t.db.sessions[s.ID] = cur
	return nil
}

func (t *tx) CancelSession(_ context.Context, id int64) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.db.sessions[id]
	if !ok || !cur.Active() {
		return repository.ErrNotFound
	}
	cur.Status = model.SessionCanceled
	t.db.sessions[id] = cur
	return nil
}

func (t *tx) Reservation(_ context.Context, id int64) (model.Reservation, error) {
	r, ok := t.db.reservations[id]
	if !ok {
		return model.Reservation{}, repository.ErrNotFound
	}
	return r, nil
}

func (t *tx) InsertReservation(_ context.Context, r *model.Reservation) error {
	if err := t.write(); err != nil {
		return err
	}
	r.ID = t.nextID()
	t.db.reservations[r.ID] = *r
	return nil
}

func (t *tx) UpdateReservation(_ context.Context, r model.Reservation) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.db.reservations[r.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.HallID, cur.TeacherID, cur.Date, cur.Range = r.HallID, r.TeacherID, r.Date, r.Range
	cur.TotalCostCents, cur.OutOfSchedule = r.TotalCostCents, r.OutOfSchedule
	t.db.reservations[r.ID] = cur
	return nil
}

func (t *tx) DeleteReservation(_ context.Context, id int64) error {
	if err := t.write(); err != nil {
		return err
	}
	if _, ok := t.db.reservations[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t.db.reservations, id)
	return nil
}

func (t *tx) BookingsOn(_ context.Context, date model.Date, hallID int64, teacherID *int64) ([]model.Booking, error) {
	return t.bookings(date, func(s model.Slot) bool {
		return s.HallID == hallID || (teacherID != nil && s.TeacherID != nil && *s.TeacherID == *teacherID)
	}), nil
}

func (t *tx) BookingsForHalls(_ context.Context, date model.Date, hallIDs []int64) ([]model.Booking, error) {
	return t.bookings(date, func(s model.Slot) bool {
		return slices.Contains(hallIDs, s.HallID)
	}), nil
}

func (t *tx) bookings(date model.Date, keep func(model.Slot) bool) []model.Booking {
	out := []model.Booking{}
	for _, s := range sortedValues(t.db.sessions) {
		if s.Active() && s.Date == date && keep(s.Slot()) {
			out = append(out, s)
		}
	}
	for _, r := range sortedValues(t.db.reservations) {
		if r.Date == date && keep(r.Slot()) {
			out = append(out, r)
		}
	}
	return out
}
