package schedule

import (
	"strings"
	"time"

	"github.com/iliyamo/tutoring-schedule/internal/model"
)

// DaysPerWeek is the span covered by one generation run.
const DaysPerWeek = 7

// WeekDates returns weekStart and the six following days.
func WeekDates(weekStart model.Date) []model.Date {
	dates := make([]model.Date, DaysPerWeek)
	for i := range dates {
		dates[i] = weekStart.AddDays(i)
	}
	return dates
}

// Candidate is a template paired with the date it falls on in a week.
type Candidate struct {
	Template model.RecurringTemplate
	Date     model.Date
}

// Session is the unsaved session the candidate would create.
func (c Candidate) Session() model.Session { return c.Template.SessionOn(c.Date) }

// PlanWeek expands templates into one candidate per matching day of the
// seven days starting at weekStart.  Inactive templates are dropped.
// Output is ordered by date, then by template order.
func PlanWeek(weekStart model.Date, templates []model.RecurringTemplate) []Candidate {
	var out []Candidate
	for _, date := range WeekDates(weekStart) {
		for _, t := range templates {
			if t.Active && t.Weekday() == date.Weekday() {
				out = append(out, Candidate{Template: t, Date: date})
			}
		}
	}
	return out
}

// DayKey is the key used in per-day breakdowns ("monday", "tuesday", ...).
func DayKey(d time.Weekday) string { return strings.ToLower(d.String()) }
