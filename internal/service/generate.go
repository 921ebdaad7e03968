package service

import (
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"

	"github.com/iliyamo/tutoring-schedule/internal/model"
	"github.com/iliyamo/tutoring-schedule/internal/repository"
	"github.com/iliyamo/tutoring-schedule/internal/schedule"
)

type GenerateWeekRequest struct {
	BranchID  int64
	WeekStart model.Date
	// AcademicYearID limits generation to one academic year; nil means all.
	AcademicYearID *int64
}

// GenerateWeek materializes the branch's active templates into sessions
// for the seven days from WeekStart.  Each template-date pair is checked
// and inserted in its own serializable unit: an existing session is left
// alone, a template whose hall or teacher cannot be booked is skipped, a
// conflicting one is skipped with its report, and anything else is
// inserted.  One failing pair never stops the others.  Running it again
// for the same week changes nothing and reports every pair as existing.
//
// A cancelled ctx stops the run; the partial result is returned with the
// context error.
func (s *SchedulingService) GenerateWeek(ctx context.Context, req GenerateWeekRequest) (*schedule.GenerationResult, error) {
	var templates []model.RecurringTemplate
	err := s.view(ctx, "load_templates", func(tx repository.Tx) error {
		if err := requireBranch(ctx, tx, req.BranchID); err != nil {
			return err
		}
		var err error
		templates, err = loadTemplates(ctx, tx, req.BranchID, req.AcademicYearID)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := schedule.NewGenerationResult(req.BranchID, req.WeekStart, len(templates))
	for _, c := range schedule.PlanWeek(req.WeekStart, templates) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Record(s.materialize(ctx, req.BranchID, c))
	}

	s.log.Info("week generated",
		zap.Int64("branch_id", req.BranchID),
		zap.String("week_start", req.WeekStart.String()),
		zap.Int("templates", result.TotalTemplates),
		zap.Int("generated", result.GeneratedCount),
		zap.Int("already_existing", result.AlreadyExistingCount),
		zap.Int("skipped_conflict", result.SkippedConflictCount),
		zap.Int("skipped_unknown_resource", result.SkippedResourceCount),
		zap.Int("failed", result.FailedCount),
	)
	return result, nil
}

// materialize runs the check-then-insert unit for one candidate.
func (s *SchedulingService) materialize(ctx context.Context, branchID int64, c schedule.Candidate) schedule.GenerationItem {
	var item schedule.GenerationItem
	err := s.update(ctx, "materialize_session", func(tx repository.Tx) error {
		item = schedule.GenerationItem{TemplateID: c.Template.ID, Date: c.Date}

		existing, err := tx.SessionForTemplate(ctx, c.Template.ID, c.Date)
		if err == nil {
			item.Outcome = schedule.OutcomeAlreadyExists
			item.SessionID = existing.ID
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		sess := c.Session()
		if err := requireResources(ctx, tx, branchID, sess.HallID, sess.TeacherID); err != nil {
			var unknownErr *UnknownResourceError
			if !errors.As(err, &unknownErr) {
				return err
			}
			item.Outcome = schedule.OutcomeSkippedUnknownResource
			item.Error = unknownErr.Error()
			return nil
		}

		bookings, err := tx.BookingsOn(ctx, c.Date, sess.HallID, sess.TeacherID)
		if err != nil {
			return err
		}
		report := schedule.FindConflicts(sess.Slot(), slices.Values(bookings))
		if report.HasConflicts() {
			item.Outcome = schedule.OutcomeSkippedConflict
			item.Conflicts = report.Conflicts
			return nil
		}

		if err := tx.InsertSession(ctx, &sess); err != nil {
			return err
		}
		item.Outcome = schedule.OutcomeGenerated
		item.SessionID = sess.ID
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, repository.ErrDuplicateSession):
		// Another generator inserted the pair between our check and insert.
		item = schedule.GenerationItem{TemplateID: c.Template.ID, Date: c.Date, Outcome: schedule.OutcomeAlreadyExists}
	default:
		s.log.Error("materialize session failed",
			zap.Int64("template_id", c.Template.ID),
			zap.String("date", c.Date.String()),
			zap.Error(err),
		)
		item = schedule.GenerationItem{TemplateID: c.Template.ID, Date: c.Date, Outcome: schedule.OutcomeFailed, Error: err.Error()}
	}
	return item
}

// GenerationStatus is a read-only projection used to decide whether to
// prompt for generation.
type GenerationStatus struct {
	BranchID             int64      `json:"branch_id"`
	WeekStart            model.Date `json:"week_start"`
	ActiveTemplateCount  int        `json:"active_template_count"`
	ExistingSessionCount int        `json:"existing_session_count"`
	MissingSessionCount  int        `json:"missing_session_count"`
	// BlockedSessionCount counts missing pairs generation would skip
	// because the hall or teacher cannot be booked.
	BlockedSessionCount  int        `json:"blocked_session_count"`
	NeedsGeneration      bool       `json:"needs_generation"`
	CanGenerate          bool       `json:"can_generate"`
}

// GetGenerationStatus counts active templates and live sessions in the
// week, and reports whether some template-date pair has no session yet
// and could get one.  CanGenerate is false when the branch has no active template.
func (s *SchedulingService) GetGenerationStatus(ctx context.Context, branchID int64, weekStart model.Date, academicYearID *int64) (GenerationStatus, error) {
	status := GenerationStatus{BranchID: branchID, WeekStart: weekStart}
	err := s.view(ctx, "generation_status", func(tx repository.Tx) error {
		status = GenerationStatus{BranchID: branchID, WeekStart: weekStart}
		if err := requireBranch(ctx, tx, branchID); err != nil {
			return err
		}
		templates, err := loadTemplates(ctx, tx, branchID, academicYearID)
		if err != nil {
			return err
		}
		sessions, err := tx.SessionsBetween(ctx, branchID, weekStart, weekStart.AddDays(schedule.DaysPerWeek-1))
		if err != nil {
			return err
		}

		type key struct {
			template int64
			date     model.Date
		}
		materialized := make(map[key]bool, len(sessions))
		for _, sess := range sessions {
			if sess.Active() {
				status.ExistingSessionCount++
			}
			if sess.TemplateID != nil {
				materialized[key{*sess.TemplateID, sess.Date}] = true
			}
		}
		for _, c := range schedule.PlanWeek(weekStart, templates) {
			if materialized[key{c.Template.ID, c.Date}] {
				continue
			}
			sess := c.Session()
			err := requireResources(ctx, tx, branchID, sess.HallID, sess.TeacherID)
			var unknownErr *UnknownResourceError
			switch {
			case err == nil:
				status.MissingSessionCount++
			case errors.As(err, &unknownErr):
				status.BlockedSessionCount++
			default:
				return err
			}
		}
		status.ActiveTemplateCount = len(templates)
		status.CanGenerate = len(templates) > 0
		status.NeedsGeneration = status.MissingSessionCount > 0
		return nil
	})
	if err != nil {
		return GenerationStatus{}, err
	}
	return status, nil
}
