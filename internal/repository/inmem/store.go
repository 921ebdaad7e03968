// Package inmem is an in-memory implementation of the repository
// transaction API.  It backs the service tests and the memory store
// driver used for local runs.
package inmem

import (
	"context"
	"sync"

	"github.com/iliyamo/tutoring-schedule/internal/model"
	"github.com/iliyamo/tutoring-schedule/internal/repository"
)

type tables struct {
	branches     map[int64]model.Branch
	halls        map[int64]model.Hall
	teachers     map[int64]model.Teacher
	templates    map[int64]model.RecurringTemplate
	sessions     map[int64]model.Session
	reservations map[int64]model.Reservation
	nextID       int64
}

func newTables() *tables {
	return &tables{
		branches:     map[int64]model.Branch{},
		halls:        map[int64]model.Hall{},
		teachers:     map[int64]model.Teacher{},
		templates:    map[int64]model.RecurringTemplate{},
		sessions:     map[int64]model.Session{},
		reservations: map[int64]model.Reservation{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (t *tables) clone() *tables {
	return &tables{
		branches:     cloneMap(t.branches),
		halls:        cloneMap(t.halls),
		teachers:     cloneMap(t.teachers),
		templates:    cloneMap(t.templates),
		sessions:     cloneMap(t.sessions),
		reservations: cloneMap(t.reservations),
		nextID:       t.nextID,
	}
}

// Store keeps every table in maps guarded by one RWMutex.  Update holds
// the write lock for the whole unit of work, which makes units strictly
// serial; it works on a copy and swaps it in only when fn succeeds.
type Store struct {
	mutex sync.RWMutex
	db    *tables

	failMu   sync.Mutex
	failures []error
}

func New() *Store {
	return &Store{db: newTables()}
}

// FailNext makes the next len(errs) calls to Update or View return those
// errors, in order, without running their function.
func (s *Store) FailNext(errs ...error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failures = append(s.failures, errs...)
}

func (s *Store) injected() error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if len(s.failures) == 0 {
		return nil
	}
	err := s.failures[0]
	s.failures = s.failures[1:]
	return err
}

func (s *Store) Update(ctx context.Context, fn func(repository.Tx) error) error {
	if err := s.injected(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	work := s.db.clone()
	if err := fn(&tx{db: work}); err != nil {
		return err
	}
	s.db = work
	return nil
}

func (s *Store) View(ctx context.Context, fn func(repository.Tx) error) error {
	if err := s.injected(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return fn(&tx{db: s.db, readOnly: true})
}

// AddBranch, AddHall, AddTeacher and AddTemplate seed reference data.
// They overwrite any row with the same ID.
func (s *Store) AddBranch(b model.Branch) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.db.branches[b.ID] = b
}

func (s *Store) AddHall(h model.Hall) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.db.halls[h.ID] = h
}

func (s *Store) AddTeacher(t model.Teacher) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.db.teachers[t.ID] = t
}

func (s *Store) AddTemplate(t model.RecurringTemplate) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.db.templates[t.ID] = t
}

// Sessions returns a snapshot of every stored session.
func (s *Store) Sessions() []model.Session {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return sortedValues(s.db.sessions)
}

// Reservations returns a snapshot of every stored reservation.
func (s *Store) Reservations() []model.Reservation {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return sortedValues(s.db.reservations)
}
