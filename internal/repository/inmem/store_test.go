package inmem

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tutoring-schedule/internal/model"
	"github.com/iliyamo/tutoring-schedule/internal/repository"
)

func seeded() *Store {
	s := New()
	s.AddBranch(model.Branch{ID: 1, Name: "Central"})
	s.AddHall(model.Hall{ID: 5, BranchID: 1, Name: "A", IsActive: true})
	s.AddHall(model.Hall{ID: 6, BranchID: 2, Name: "B", IsActive: true})
	return s
}

func TestUpdateRollsBackOnError(t *testing.T) {
	s := seeded()
	boom := errors.New("boom")

	err := s.Update(context.Background(), func(tx repository.Tx) error {
		sess := model.Session{HallID: 5, Date: model.MustDate("2024-06-03"), Range: model.MustTimeRange("09:00", "10:00")}
		require.NoError(t, tx.InsertSession(context.Background(), &sess))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.Sessions())
}

func TestInsertSessionDuplicateTemplateDate(t *testing.T) {
	s := seeded()
	tid := int64(1)
	ctx := context.Background()

	err := s.Update(ctx, func(tx repository.Tx) error {
		first := model.Session{TemplateID: &tid, HallID: 5, Date: model.MustDate("2024-06-03"), Range: model.MustTimeRange("09:00", "10:00")}
		if err := tx.InsertSession(ctx, &first); err != nil {
			return err
		}
		second := first
		second.ID = 0
		return tx.InsertSession(ctx, &second)
	})

	assert.ErrorIs(t, err, repository.ErrDuplicateSession)
}

func TestViewIsReadOnly(t *testing.T) {
	s := seeded()
	err := s.View(context.Background(), func(tx repository.Tx) error {
		return tx.InsertReservation(context.Background(), &model.Reservation{HallID: 5})
	})
	assert.Error(t, err)
}

func TestFailNext(t *testing.T) {
	s := seeded()
	boom := errors.New("unavailable")
	s.FailNext(boom)

	err := s.View(context.Background(), func(repository.Tx) error { return nil })
	assert.ErrorIs(t, err, boom)

	err = s.View(context.Background(), func(repository.Tx) error { return nil })
	assert.NoError(t, err)
}

func TestActiveTemplatesFiltersBranchAndYear(t *testing.T) {
	s := seeded()
	s.AddTemplate(model.RecurringTemplate{ID: 1, HallID: 5, AcademicYearID: 2024, Active: true})
	s.AddTemplate(model.RecurringTemplate{ID: 2, HallID: 5, AcademicYearID: 2023, Active: true})
	s.AddTemplate(model.RecurringTemplate{ID: 3, HallID: 5, AcademicYearID: 2024, Active: false})
	s.AddTemplate(model.RecurringTemplate{ID: 4, HallID: 6, AcademicYearID: 2024, Active: true})
	year := int64(2024)

	var ids []int64
	err := s.View(context.Background(), func(tx repository.Tx) error {
		for tpl, err := range tx.ActiveTemplates(context.Background(), 1, &year) {
			if err != nil {
				return err
			}
			ids = append(ids, tpl.ID)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

func TestReadSeed(t *testing.T) {
	doc := `{
	  "branches": [{"id": 1, "name": "Central"}],
	  "halls": [{"id": 5, "branch_id": 1, "name": "A", "capacity": 20, "is_active": true}],
	  "teachers": [{"id": 3, "name": "Sara", "bookable": true}],
	  "templates": [{"id": 1, "hall_id": 5, "teacher_id": 3, "subject_id": 2, "day_of_week": 1,
	                 "range": {"start": "09:00", "end": "10:00"}, "academic_year_id": 1, "active": true}]
	}`
	seed, err := ReadSeed(strings.NewReader(doc))
	require.NoError(t, err)

	s := New()
	s.Load(seed)
	err = s.View(context.Background(), func(tx repository.Tx) error {
		h, err := tx.Hall(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, 20, h.Capacity)
		return nil
	})
	require.NoError(t, err)

	_, err = ReadSeed(strings.NewReader(`{"templates": [{"id": 1, "range": {"start": "10:00", "end": "09:00"}}]}`))
	assert.ErrorIs(t, err, model.ErrInvalidRange)
}
