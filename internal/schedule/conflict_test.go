package schedule

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tutoring-schedule/internal/model"
)

func ptr(v int64) *int64 { return &v }

func session(id, hall int64, teacher *int64, date, start, end string) model.Session {
	return model.Session{
		ID:        id,
		HallID:    hall,
		TeacherID: teacher,
		Date:      model.MustDate(date),
		Range:     model.MustTimeRange(start, end),
		Status:    model.SessionScheduled,
	}
}

func reservation(id, hall int64, teacher *int64, date, start, end string) model.Reservation {
	return model.Reservation{
		ID:        id,
		HallID:    hall,
		TeacherID: teacher,
		Date:      model.MustDate(date),
		Range:     model.MustTimeRange(start, end),
	}
}

func candidate(hall int64, teacher *int64, date, start, end string) model.Slot {
	return model.Slot{
		Kind:      model.KindCandidate,
		HallID:    hall,
		TeacherID: teacher,
		Date:      model.MustDate(date),
		Range:     model.MustTimeRange(start, end),
	}
}

func TestFindConflictsHallOverlap(t *testing.T) {
	existing := []model.Booking{session(1, 5, ptr(3), "2024-06-03", "09:00", "10:00")}

	report := FindConflicts(candidate(5, nil, "2024-06-03", "09:30", "10:15"), slices.Values(existing))

	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, model.ConflictHall, report.Conflicts[0].Kind)
	assert.Equal(t, int64(1), report.Conflicts[0].With.ID)
	assert.Equal(t, model.KindSession, report.Conflicts[0].With.Kind)
}

func TestFindConflictsAdjacencyIsFree(t *testing.T) {
	existing := []model.Booking{session(1, 5, ptr(3), "2024-06-03", "09:00", "10:00")}

	report := FindConflicts(candidate(5, ptr(3), "2024-06-03", "10:00", "11:00"), slices.Values(existing))

	assert.False(t, report.HasConflicts())
	assert.NotNil(t, report.Conflicts)
}

func TestFindConflictsBothTags(t *testing.T) {
	existing := []model.Booking{
		reservation(7, 2, ptr(9), "2024-06-03", "09:00", "10:00"),
		session(1, 5, ptr(9), "2024-06-03", "09:00", "10:00"),
	}

	report := FindConflicts(candidate(5, ptr(9), "2024-06-03", "09:15", "09:45"), slices.Values(existing))

	require.Len(t, report.Conflicts, 3)
	assert.Equal(t, model.ConflictHall, report.Conflicts[0].Kind)
	assert.Equal(t, int64(1), report.Conflicts[0].With.ID)
	assert.Equal(t, model.ConflictTeacher, report.Conflicts[1].Kind)
	assert.Equal(t, int64(7), report.Conflicts[1].With.ID)
	assert.Equal(t, model.ConflictTeacher, report.Conflicts[2].Kind)
	assert.Equal(t, int64(1), report.Conflicts[2].With.ID)
	assert.Equal(t, 1, report.Count(model.ConflictHall))
	assert.Equal(t, 2, report.Count(model.ConflictTeacher))
}

func TestFindConflictsIgnoresOtherDatesAndNilTeachers(t *testing.T) {
	existing := []model.Booking{
		session(1, 5, nil, "2024-06-04", "09:00", "10:00"),
		session(2, 6, nil, "2024-06-03", "09:00", "10:00"),
	}

	report := FindConflicts(candidate(5, nil, "2024-06-03", "09:00", "10:00"), slices.Values(existing))

	assert.Empty(t, report.Conflicts)
}

func TestFindConflictsSkipsSelf(t *testing.T) {
	stored := session(4, 5, nil, "2024-06-03", "09:00", "10:00")
	moved := stored.Slot()
	moved.Range = model.MustTimeRange("09:30", "10:30")

	report := FindConflicts(moved, slices.Values([]model.Booking{stored}))

	assert.Empty(t, report.Conflicts)
}

func TestFindConflictsIsPure(t *testing.T) {
	existing := []model.Booking{session(1, 5, nil, "2024-06-03", "09:00", "10:00")}
	c := candidate(5, nil, "2024-06-03", "09:00", "10:00")

	first := FindConflicts(c, slices.Values(existing))
	second := FindConflicts(c, slices.Values(existing))

	assert.Equal(t, first, second)
	assert.Len(t, existing, 1)
}
