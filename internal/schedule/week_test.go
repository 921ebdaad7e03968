package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tutoring-schedule/internal/model"
)

func template(id int64, day int, active bool) model.RecurringTemplate {
	return model.RecurringTemplate{
		ID:        id,
		HallID:    5,
		TeacherID: ptr(3),
		SubjectID: 11,
		DayOfWeek: day,
		Range:     model.MustTimeRange("09:00", "10:00"),
		Active:    active,
	}
}

func TestWeekDates(t *testing.T) {
	dates := WeekDates(model.MustDate("2024-06-03"))
	require.Len(t, dates, 7)
	assert.Equal(t, "2024-06-03", dates[0].String())
	assert.Equal(t, "2024-06-09", dates[6].String())
}

func TestPlanWeekMatchesWeekday(t *testing.T) {
	templates := []model.RecurringTemplate{
		template(1, 1, true),  // Monday
		template(2, 0, true),  // Sunday
		template(3, 3, false), // inactive Wednesday
	}

	plan := PlanWeek(model.MustDate("2024-06-03"), templates)

	require.Len(t, plan, 2)
	assert.Equal(t, int64(1), plan[0].Template.ID)
	assert.Equal(t, "2024-06-03", plan[0].Date.String())
	assert.Equal(t, int64(2), plan[1].Template.ID)
	assert.Equal(t, "2024-06-09", plan[1].Date.String())

	s := plan[0].Session()
	require.NotNil(t, s.TemplateID)
	assert.Equal(t, int64(1), *s.TemplateID)
	assert.Equal(t, model.SessionScheduled, s.Status)
	assert.Equal(t, int64(5), s.HallID)
}

func TestPlanWeekFromMidweekStart(t *testing.T) {
	plan := PlanWeek(model.MustDate("2024-06-05"), []model.RecurringTemplate{template(1, 1, true)})

	require.Len(t, plan, 1)
	assert.Equal(t, "2024-06-10", plan[0].Date.String())
}

func TestGenerationResultRecord(t *testing.T) {
	r := NewGenerationResult(1, model.MustDate("2024-06-03"), 3)
	r.Record(GenerationItem{TemplateID: 1, Date: model.MustDate("2024-06-03"), Outcome: OutcomeGenerated})
	r.Record(GenerationItem{TemplateID: 2, Date: model.MustDate("2024-06-03"), Outcome: OutcomeAlreadyExists})
	r.Record(GenerationItem{TemplateID: 3, Date: model.MustDate("2024-06-04"), Outcome: OutcomeSkippedConflict})

	assert.Equal(t, 1, r.GeneratedCount)
	assert.Equal(t, 1, r.AlreadyExistingCount)
	assert.Equal(t, 1, r.SkippedConflictCount)
	assert.Equal(t, map[string]int{"monday": 2, "tuesday": 1}, r.SchedulesByDay)
	assert.Equal(t, map[string]int{"monday": 2}, r.ClassesByDay)
	assert.Equal(t, "2024-06-09", r.WeekEnd.String())
	assert.Len(t, r.Items, 3)
}
