package model

import "time"

// RecurringTemplate is a weekly class pattern: every DayOfWeek the
// subject is taught in HallID by TeacherID over Range.  Templates are
// deactivated, never deleted, so historical sessions stay attributable.
//
// Fields:
//  DayOfWeek      – 0 is Sunday through 6 Saturday, matching time.Weekday.
//  AcademicYearID – scope used to pick the templates of a term.
//  Active         – only active templates are materialized.
type RecurringTemplate struct {
    ID             int64     `json:"id"`                   // schedule_templates.id
    HallID         int64     `json:"hall_id"`              // schedule_templates.hall_id
    TeacherID      *int64    `json:"teacher_id,omitempty"` // schedule_templates.teacher_id (nullable)
    SubjectID      int64     `json:"subject_id"`           // schedule_templates.subject_id
    DayOfWeek      int       `json:"day_of_week"`          // schedule_templates.day_of_week
    Range          TimeRange `json:"range"`                // schedule_templates.start_time / end_time
    AcademicYearID int64     `json:"academic_year_id"`     // schedule_templates.academic_year_id
    Active         bool      `json:"active"`               // schedule_templates.is_active
}

// Weekday returns DayOfWeek as a time.Weekday.
func (t RecurringTemplate) Weekday() time.Weekday { return time.Weekday(t.DayOfWeek) }

// SessionOn builds the unsaved session this template produces on date.
func (t RecurringTemplate) SessionOn(date Date) Session {
    id := t.ID
    return Session{
        TemplateID: &id,
        Date:       date,
        Range:      t.Range,
        HallID:     t.HallID,
        TeacherID:  t.TeacherID,
        SubjectID:  t.SubjectID,
        Status:     SessionScheduled,
    }
}
