// Package app holds process-level plumbing shared by the binaries: the
// logger factory, the migration runner and the background generation
// scheduler.
package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/tutoring-schedule/internal/model"
	"github.com/iliyamo/tutoring-schedule/internal/schedule"
	"github.com/iliyamo/tutoring-schedule/internal/service"
)

// WeekGenerator is the part of the scheduling service the scheduler drives.
type WeekGenerator interface {
	GenerateWeek(ctx context.Context, req service.GenerateWeekRequest) (*schedule.GenerationResult, error)
}

// Scheduler periodically materializes the current and the next week for
// a fixed set of branches.
type Scheduler struct {
	generator WeekGenerator
	branches  []int64
	interval  time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}

	// OnGenerated, when set, is called after every successful run for a
	// branch and week.
	OnGenerated func(ctx context.Context, result *schedule.GenerationResult)

	now func() time.Time
}

func NewScheduler(generator WeekGenerator, branches []int64, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{
		generator: generator,
		branches:  branches,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}
}

// Start runs one pass immediately and then one per interval, in the
// background, until Stop is called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("starting generation scheduler",
		zap.Int64s("branches", s.branches),
		zap.Duration("interval", s.interval),
	)
	go s.loop(ctx)
}

func (s *Scheduler) Stop() {
	s.logger.Info("stopping generation scheduler")
	close(s.stopChan)
}

func (s *Scheduler) loop(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce generates the week containing today and the week after it for
// every branch.  Failures are logged and do not stop the pass.
func (s *Scheduler) RunOnce(ctx context.Context) {
	thisWeek := model.DateOf(s.now()).StartOfWeek()
	for _, branchID := range s.branches {
		for _, week := range []model.Date{thisWeek, thisWeek.AddDays(schedule.DaysPerWeek)} {
			if ctx.Err() != nil {
				return
			}
			result, err := s.generator.GenerateWeek(ctx, service.GenerateWeekRequest{BranchID: branchID, WeekStart: week})
			if err != nil {
				s.logger.Error("scheduled generation failed",
					zap.Int64("branch_id", branchID),
					zap.String("week_start", week.String()),
					zap.Error(err),
				)
				continue
			}
			if s.OnGenerated != nil {
				s.OnGenerated(ctx, result)
			}
		}
	}
}
