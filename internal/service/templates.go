package service

import (
	"context"
	"errors"
	"iter"

	"github.com/iliyamo/tutoring-schedule/internal/model"
	"github.com/iliyamo/tutoring-schedule/internal/repository"
)

// errStopped aborts the read transaction when the consumer stops ranging.
var errStopped = errors.New("iteration stopped")

// ActiveTemplatesFor lazily yields the active templates of a branch, ordered
// by ID.  A nil academicYearID selects all academic years.  Every range
// over the sequence opens its own read transaction, so the sequence can be
// restarted.  The loop body runs inside that transaction and must not call
// back into the service.
func (s *SchedulingService) ActiveTemplatesFor(ctx context.Context, branchID int64, academicYearID *int64) iter.Seq2[model.RecurringTemplate, error] {
	return func(yield func(model.RecurringTemplate, error) bool) {
		err := s.store.View(ctx, func(tx repository.Tx) error {
			for t, err := range tx.ActiveTemplates(ctx, branchID, academicYearID) {
				if err != nil {
					return err
				}
				if !yield(t, nil) {
					return errStopped
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopped) {
			yield(model.RecurringTemplate{}, err)
		}
	}
}

// loadTemplates drains the branch's active templates inside tx.
func loadTemplates(ctx context.Context, tx repository.Tx, branchID int64, academicYearID *int64) ([]model.RecurringTemplate, error) {
	var out []model.RecurringTemplate
	for t, err := range tx.ActiveTemplates(ctx, branchID, academicYearID) {
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
