// Package service implements the scheduling facade: booking proposals,
// weekly materialization, generation status and the reservation grid.
// It owns transaction boundaries and the store retry policy; the rules
// themselves live in package schedule.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/iliyamo/tutoring-schedule/internal/model"
	"github.com/iliyamo/tutoring-schedule/internal/repository"
	"github.com/iliyamo/tutoring-schedule/internal/schedule"
)

// ErrStoreUnavailable is returned when the store failed twice in a row
// for the same unit of work.  Callers may retry later.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrTemplateSessionDate is returned when rescheduling would move a
// template session to another date, which would break the one session
// per template and date rule.
var ErrTemplateSessionDate = errors.New("template sessions cannot change date")

// Store runs units of work.  Update must be serializable; View may read a
// snapshot.  repository.Store and inmem.Store satisfy it.
type Store interface {
	Update(ctx context.Context, fn func(repository.Tx) error) error
	View(ctx context.Context, fn func(repository.Tx) error) error
}

// SchedulingService is stateless between calls; it is safe for
// concurrent use.
type SchedulingService struct {
	store      Store
	log        *zap.Logger
	retryDelay time.Duration
}

type Option func(*SchedulingService)

// WithRetryDelay sets the pause before the single store retry.
func WithRetryDelay(d time.Duration) Option {
	return func(s *SchedulingService) { s.retryDelay = d }
}

func NewSchedulingService(store Store, logger *zap.Logger, opts ...Option) *SchedulingService {
	if store == nil {
		panic("nil store passed to NewSchedulingService")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SchedulingService{store: store, log: logger, retryDelay: 50 * time.Millisecond}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SchedulingService) update(ctx context.Context, op string, fn func(repository.Tx) error) error {
	return s.withRetry(ctx, op, func(ctx context.Context) error { return s.store.Update(ctx, fn) })
}

func (s *SchedulingService) view(ctx context.Context, op string, fn func(repository.Tx) error) error {
	return s.withRetry(ctx, op, func(ctx context.Context) error { return s.store.View(ctx, fn) })
}

// withRetry runs f and, if it fails with a store error, runs it once more
// in a fresh transaction.  A transaction that lost a serialization race
// (deadlock, lock wait timeout) is re-run at once since the winner has
// already finished; any other store error waits retryDelay first.  Domain
// errors pass through untouched.  A store error on the second attempt is
// wrapped in ErrStoreUnavailable.
func (s *SchedulingService) withRetry(ctx context.Context, op string, f func(context.Context) error) error {
	delay := s.retryDelay
	if delay <= 0 {
		delay = time.Millisecond
	}
	storeFailure, raced := false, false
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		if raced {
			return 0, false
		}
		return delay, false
	})
	err := retry.Do(ctx, retry.WithMaxRetries(1, backoff), func(ctx context.Context) error {
		err := f(ctx)
		storeFailure = err != nil && !isDomainError(err)
		if !storeFailure {
			return err
		}
		raced = repository.IsSerializationFailure(err)
		if raced {
			s.log.Info("transaction lost a serialization race", zap.String("op", op), zap.Error(err))
		} else {
			s.log.Warn("store operation failed", zap.String("op", op), zap.Error(err))
		}
		return retry.RetryableError(err)
	})
	if err != nil && storeFailure && ctx.Err() == nil {
		return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
	}
	return err
}

// isDomainError reports errors that a re-run would reproduce.
func isDomainError(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.Is(err, model.ErrInvalidRange),
		errors.Is(err, schedule.ErrInvalidGridConfig),
		errors.Is(err, ErrUnknownResource),
		errors.Is(err, ErrTemplateSessionDate),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrDuplicateSession):
		return true
	}
	return false
}
