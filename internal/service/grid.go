package service

import (
	"context"
	"slices"

	"github.com/iliyamo/tutoring-schedule/internal/model"
	"github.com/iliyamo/tutoring-schedule/internal/repository"
	"github.com/iliyamo/tutoring-schedule/internal/schedule"
)

type GridRequest struct {
	BranchID int64
	Date     model.Date
	Config   schedule.GridConfig
}

// BuildGrid lays out the branch's active halls against the periods of
// req.Config for one day.  The config is validated before the store is
// touched.
func (s *SchedulingService) BuildGrid(ctx context.Context, req GridRequest) (schedule.Grid, error) {
	if _, err := req.Config.Periods(); err != nil {
		return schedule.Grid{}, err
	}

	var grid schedule.Grid
	err := s.view(ctx, "build_grid", func(tx repository.Tx) error {
		if err := requireBranch(ctx, tx, req.BranchID); err != nil {
			return err
		}
		halls, err := tx.HallsByBranch(ctx, req.BranchID)
		if err != nil {
			return err
		}
		ids := make([]int64, len(halls))
		for i, h := range halls {
			ids[i] = h.ID
		}
		bookings, err := tx.BookingsForHalls(ctx, req.Date, ids)
		if err != nil {
			return err
		}
		grid, err = schedule.BuildGrid(req.BranchID, req.Date, halls, req.Config, slices.Values(bookings))
		return err
	})
	return grid, err
}
