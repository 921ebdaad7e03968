// Package schedule holds the pure scheduling rules: conflict detection,
// weekly template expansion and the per-hall period grid.  Nothing here
// touches storage; callers pass in what they loaded and decide what to
// persist.
package schedule

import (
	"iter"

	"github.com/iliyamo/tutoring-schedule/internal/model"
)

// FindConflicts reports every booking in existing that collides with
// candidate.  A booking collides when it falls on the same date, shares
// the hall or the (non-nil) teacher, and its range overlaps.  One booking
// can produce both a hall and a teacher entry.  Hall entries come first,
// then teacher entries, each in input order.
//
// A booking with the same kind and ID as the candidate is skipped so a
// stored booking can be re-checked against its own day.
func FindConflicts(candidate model.Slot, existing iter.Seq[model.Booking]) model.ConflictReport {
	report := model.ConflictReport{Candidate: candidate, Conflicts: []model.Conflict{}}
	var byTeacher []model.Conflict
	for b := range existing {
		s := b.Slot()
		if isSelf(candidate, s) || s.Date != candidate.Date {
			continue
		}
		if !model.Overlaps(candidate.Range, s.Range) {
			continue
		}
		if s.HallID == candidate.HallID {
			report.Conflicts = append(report.Conflicts, model.Conflict{Kind: model.ConflictHall, With: s})
		}
		if sameTeacher(candidate.TeacherID, s.TeacherID) {
			byTeacher = append(byTeacher, model.Conflict{Kind: model.ConflictTeacher, With: s})
		}
	}
	report.Conflicts = append(report.Conflicts, byTeacher...)
	return report
}

func isSelf(candidate, s model.Slot) bool {
	return candidate.ID != 0 && candidate.Kind == s.Kind && candidate.ID == s.ID
}

func sameTeacher(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}
