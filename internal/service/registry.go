package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/tutoring-schedule/internal/repository"
)

// ErrUnknownResource matches every *UnknownResourceError.
var ErrUnknownResource = errors.New("unknown resource")

type ResourceKind string

const (
	ResourceBranch  ResourceKind = "branch"
	ResourceHall    ResourceKind = "hall"
	ResourceTeacher ResourceKind = "teacher"
)

// UnknownResourceError names the branch, hall or teacher that does not
// exist or cannot take the booking.
type UnknownResourceError struct {
	Kind ResourceKind
	ID   int64
}

func (e *UnknownResourceError) Error() string {
	return fmt.Sprintf("unknown %s %d", e.Kind, e.ID)
}

func (e *UnknownResourceError) Unwrap() error { return ErrUnknownResource }

func unknown(kind ResourceKind, id int64) error {
	return &UnknownResourceError{Kind: kind, ID: id}
}

// HallExists reports whether hallID is an active hall of branchID.  It
// returns an *UnknownResourceError when no hall with that ID exists.
func (s *SchedulingService) HallExists(ctx context.Context, hallID, branchID int64) (bool, error) {
	var ok bool
	err := s.view(ctx, "hall_exists", func(tx repository.Tx) error {
		var err error
		ok, err = hallExists(ctx, tx, hallID, branchID)
		return err
	})
	return ok, err
}

// TeacherIsBookable reports whether the teacher may take new bookings.  It
// returns an *UnknownResourceError when no teacher with that ID exists.
func (s *SchedulingService) TeacherIsBookable(ctx context.Context, teacherID int64) (bool, error) {
	var ok bool
	err := s.view(ctx, "teacher_is_bookable", func(tx repository.Tx) error {
		var err error
		ok, err = teacherIsBookable(ctx, tx, teacherID)
		return err
	})
	return ok, err
}

func hallExists(ctx context.Context, tx repository.Tx, hallID, branchID int64) (bool, error) {
	h, err := tx.Hall(ctx, hallID)
	if errors.Is(err, repository.ErrHallNotFound) {
		return false, unknown(ResourceHall, hallID)
	}
	if err != nil {
		return false, err
	}
	return h.BranchID == branchID && h.IsActive, nil
}

func teacherIsBookable(ctx context.Context, tx repository.Tx, teacherID int64) (bool, error) {
	t, err := tx.Teacher(ctx, teacherID)
	if errors.Is(err, repository.ErrTeacherNotFound) {
		return false, unknown(ResourceTeacher, teacherID)
	}
	if err != nil {
		return false, err
	}
	return t.Bookable, nil
}

// requireHall fails with *UnknownResourceError unless hallID is an active
// hall of branchID.
func requireHall(ctx context.Context, tx repository.Tx, hallID, branchID int64) error {
	ok, err := hallExists(ctx, tx, hallID, branchID)
	if err != nil {
		return err
	}
	if !ok {
		return unknown(ResourceHall, hallID)
	}
	return nil
}

// requireTeacher is a no-op for a nil teacher.
func requireTeacher(ctx context.Context, tx repository.Tx, teacherID *int64) error {
	if teacherID == nil {
		return nil
	}
	ok, err := teacherIsBookable(ctx, tx, *teacherID)
	if err != nil {
		return err
	}
	if !ok {
		return unknown(ResourceTeacher, *teacherID)
	}
	return nil
}

// requireResources runs the hall and teacher checks a new booking in
// branchID must pass.
func requireResources(ctx context.Context, tx repository.Tx, branchID, hallID int64, teacherID *int64) error {
	if err := requireHall(ctx, tx, hallID, branchID); err != nil {
		return err
	}
	return requireTeacher(ctx, tx, teacherID)
}

func requireBranch(ctx context.Context, tx repository.Tx, branchID int64) error {
	_, err := tx.Branch(ctx, branchID)
	if errors.Is(err, repository.ErrBranchNotFound) {
		return unknown(ResourceBranch, branchID)
	}
	return err
}
