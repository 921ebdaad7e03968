package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/tutoring-schedule/internal/model"
	"github.com/iliyamo/tutoring-schedule/internal/schedule"
	"github.com/iliyamo/tutoring-schedule/internal/service"
)

type fakeGenerator struct {
	calls []service.GenerateWeekRequest
	fail  map[int64]bool
}

func (f *fakeGenerator) GenerateWeek(_ context.Context, req service.GenerateWeekRequest) (*schedule.GenerationResult, error) {
	f.calls = append(f.calls, req)
	if f.fail[req.BranchID] {
		return nil, errors.New("boom")
	}
	return schedule.NewGenerationResult(req.BranchID, req.WeekStart, 0), nil
}

func TestRunOnceGeneratesCurrentAndNextWeek(t *testing.T) {
	gen := &fakeGenerator{fail: map[int64]bool{1: true}}
	s := NewScheduler(gen, []int64{1, 2}, time.Hour, zap.NewNop())
	// Thursday.
	s.now = func() time.Time { return time.Date(2024, 6, 6, 15, 0, 0, 0, time.UTC) }
	var published []int64
	s.OnGenerated = func(_ context.Context, r *schedule.GenerationResult) { published = append(published, r.BranchID) }

	s.RunOnce(context.Background())

	require.Len(t, gen.calls, 4)
	assert.Equal(t, model.MustDate("2024-06-03"), gen.calls[0].WeekStart)
	assert.Equal(t, model.MustDate("2024-06-10"), gen.calls[1].WeekStart)
	assert.Equal(t, int64(2), gen.calls[2].BranchID)
	assert.Equal(t, []int64{2, 2}, published)
}

func TestRunOnceStopsOnCancelledContext(t *testing.T) {
	gen := &fakeGenerator{}
	s := NewScheduler(gen, []int64{1}, 0, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.RunOnce(ctx)

	assert.Empty(t, gen.calls)
	assert.Equal(t, 24*time.Hour, s.interval)
}
