package schedule

import "github.com/iliyamo/tutoring-schedule/internal/model"

// Outcome classifies what happened to one template on one date.
type Outcome string

const (
	OutcomeGenerated       Outcome = "generated"
	OutcomeAlreadyExists   Outcome = "already_exists"
	OutcomeSkippedConflict Outcome = "skipped_conflict"
	// OutcomeSkippedUnknownResource means the template's hall is inactive or
	// gone, or its teacher cannot take bookings.
	OutcomeSkippedUnknownResource Outcome = "skipped_unknown_resource"
	// OutcomeFailed means the store stayed unavailable for this candidate.
	OutcomeFailed Outcome = "failed"
)

type GenerationItem struct {
	TemplateID int64            `json:"template_id"`
	Date       model.Date       `json:"date"`
	Outcome    Outcome          `json:"outcome"`
	SessionID  int64            `json:"session_id,omitempty"`
	Conflicts  []model.Conflict `json:"conflicts,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// GenerationResult aggregates a week's materialization run.
// SchedulesByDay counts candidates per weekday; ClassesByDay counts the
// sessions that exist for them after the run.
type GenerationResult struct {
	BranchID             int64            `json:"branch_id"`
	WeekStart            model.Date       `json:"week_start"`
	WeekEnd              model.Date       `json:"week_end"`
	TotalTemplates       int              `json:"total_templates"`
	GeneratedCount       int              `json:"generated_count"`
	AlreadyExistingCount int              `json:"already_existing_count"`
	SkippedConflictCount int              `json:"skipped_conflict_count"`
	SkippedResourceCount int              `json:"skipped_unknown_resource_count"`
	FailedCount          int              `json:"failed_count"`
	SchedulesByDay       map[string]int   `json:"schedules_by_day"`
	ClassesByDay         map[string]int   `json:"classes_by_day"`
	Items                []GenerationItem `json:"items"`
}

func NewGenerationResult(branchID int64, weekStart model.Date, totalTemplates int) *GenerationResult {
	return &GenerationResult{
		BranchID:       branchID,
		WeekStart:      weekStart,
		WeekEnd:        weekStart.AddDays(DaysPerWeek - 1),
		TotalTemplates: totalTemplates,
		SchedulesByDay: map[string]int{},
		ClassesByDay:   map[string]int{},
		Items:          []GenerationItem{},
	}
}

// Record adds item to the result and updates the counters.
func (r *GenerationResult) Record(item GenerationItem) {
	day := DayKey(item.Date.Weekday())
	r.SchedulesByDay[day]++
	switch item.Outcome {
	case OutcomeGenerated:
		r.GeneratedCount++
		r.ClassesByDay[day]++
	case OutcomeAlreadyExists:
		r.AlreadyExistingCount++
		r.ClassesByDay[day]++
	case OutcomeSkippedConflict:
		r.SkippedConflictCount++
	case OutcomeSkippedUnknownResource:
		r.SkippedResourceCount++
	case OutcomeFailed:
		r.FailedCount++
	}
	r.Items = append(r.Items, item)
}
