package repository

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/iliyamo/tutoring-schedule/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx so every repository can
// run inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is the unit of work the scheduling service runs against.  The MySQL
// Store and the in-memory store both hand one to Update and View.
type Tx interface {
	Branch(ctx context.Context, id int64) (model.Branch, error)
	Hall(ctx context.Context, id int64) (model.Hall, error)
	HallsByBranch(ctx context.Context, branchID int64) ([]model.Hall, error)
	Teacher(ctx context.Context, id int64) (model.Teacher, error)

	// ActiveTemplates streams the branch's active templates ordered by ID.
	// A nil academicYearID selects every academic year.  The sequence
	// holds a cursor open; run no other query on the Tx until it ends.
	ActiveTemplates(ctx context.Context, branchID int64, academicYearID *int64) iter.Seq2[model.RecurringTemplate, error]

	Session(ctx context.Context, id int64) (model.Session, error)
	SessionForTemplate(ctx context.Context, templateID int64, date model.Date) (model.Session, error)
	SessionsBetween(ctx context.Context, branchID int64, from, to model.Date) ([]model.Session, error)
	InsertSession(ctx context.Context, s *model.Session) error
	UpdateSession(ctx context.Context, s model.Session) error
	CancelSession(ctx context.Context, id int64) error

	Reservation(ctx context.Context, id int64) (model.Reservation, error)
	InsertReservation(ctx context.Context, r *model.Reservation) error
	UpdateReservation(ctx context.Context, r model.Reservation) error
	DeleteReservation(ctx context.Context, id int64) error

	// BookingsOn returns live sessions and reservations on date that use
	// hallID or, when non-nil, teacherID.
	BookingsOn(ctx context.Context, date model.Date, hallID int64, teacherID *int64) ([]model.Booking, error)
	// BookingsForHalls returns live sessions and reservations on date in any of hallIDs.
	BookingsForHalls(ctx context.Context, date model.Date, hallIDs []int64) ([]model.Booking, error)
}

// Store opens transactions over a MySQL database.
type Store struct {
	db *sql.DB
}

// NewStore wraps db.  The caller keeps ownership of db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying sql.DB for migrations and health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Update runs fn in a SERIALIZABLE transaction.  The transaction commits
// when fn returns nil and rolls back otherwise.  Under SERIALIZABLE InnoDB
// takes shared locks on every row fn reads, so two overlapping
// check-then-insert units cannot both commit; the loser gets a deadlock
// error (see IsSerializationFailure).
func (s *Store) Update(ctx context.Context, fn func(Tx) error) error {
	return s.run(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
}

// View runs fn in a read-only REPEATABLE READ snapshot.
func (s *Store) View(ctx context.Context, fn func(Tx) error) error {
	return s.run(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

func (s *Store) run(ctx context.Context, opts *sql.TxOptions, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(newSQLTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// sqlTx binds every repository to one *sql.Tx.
type sqlTx struct {
	*HallRepo
	*TeacherRepo
	*TemplateRepo
	*SessionRepo
	*ReservationRepo
	*BookingRepo
}

func newSQLTx(q querier) *sqlTx {
	return &sqlTx{
		HallRepo:        NewHallRepo(q),
		TeacherRepo:     NewTeacherRepo(q),
		TemplateRepo:    NewTemplateRepo(q),
		SessionRepo:     NewSessionRepo(q),
		ReservationRepo: NewReservationRepo(q),
		BookingRepo:     NewBookingRepo(q),
	}
}

var _ Tx = (*sqlTx)(nil)
