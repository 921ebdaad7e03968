package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"       // errors lets us match sql.ErrNoRows

	"github.com/iliyamo/tutoring-schedule/internal/model"
)

// HallRepo reads branches and halls.  Both tables are maintained by the
// administrative layer; the scheduling core never writes them.
type HallRepo struct {
	q querier // q is a *sql.DB or the *sql.Tx of the current unit of work
}

// NewHallRepo constructs a HallRepo over the given handle.
func NewHallRepo(q querier) *HallRepo {
	return &HallRepo{q: q}
}

// Branch loads a branch by ID or returns ErrBranchNotFound.
func (r *HallRepo) Branch(ctx context.Context, id int64) (model.Branch, error) {
	const q = `SELECT id, name FROM branches WHERE id = ?`
	var b model.Branch
	if err := r.q.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Branch{}, ErrBranchNotFound
		}
		return model.Branch{}, err
	}
	return b, nil
}

// Hall loads a hall by ID regardless of its active flag.  It returns
// ErrHallNotFound when there is no such row.
func (r *HallRepo) Hall(ctx context.Context, id int64) (model.Hall, error) {
	const q = `SELECT id, branch_id, name, capacity, is_active FROM halls WHERE id = ?`
	var h model.Hall
	err := r.q.QueryRowContext(ctx, q, id).Scan(&h.ID, &h.BranchID, &h.Name, &h.Capacity, &h.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Hall{}, ErrHallNotFound
		}
		return model.Hall{}, err
	}
	return h, nil
}

// HallsByBranch lists the active halls of a branch ordered by ID.  It
// returns an empty slice when the branch has none.
func (r *HallRepo) HallsByBranch(ctx context.Context, branchID int64) ([]model.Hall, error) {
	const q = `SELECT id, branch_id, name, capacity, is_active
               FROM halls
               WHERE branch_id = ? AND is_active = 1
               ORDER BY id ASC`
	rows, err := r.q.QueryContext(ctx, q, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	halls := []model.Hall{}
	for rows.Next() {
		var h model.Hall
		if err := rows.Scan(&h.ID, &h.BranchID, &h.Name, &h.Capacity, &h.IsActive); err != nil {
			return nil, err
		}
		halls = append(halls, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return halls, nil
}
