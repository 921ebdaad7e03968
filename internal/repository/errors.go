// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// scheduling service and handlers to distinguish between different
// failure scenarios without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a session or reservation lookup finds no
// live row.  Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("booking not found")

// ErrBranchNotFound, ErrHallNotFound and ErrTeacherNotFound report a
// missing resource row.
var (
	ErrBranchNotFound  = errors.New("branch not found")
	ErrHallNotFound    = errors.New("hall not found")
	ErrTeacherNotFound = errors.New("teacher not found")
)

// ErrDuplicateSession is returned when a session already exists for the
// same template and date (unique key uq_session_template_date).
var ErrDuplicateSession = errors.New("session already exists for template and date")

// MySQL server error numbers the repository classifies.
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// IsSerializationFailure reports whether err is a deadlock or lock wait
// timeout, i.e. a transaction that lost a race and may be re-run.
func IsSerializationFailure(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == mysqlDeadlock || me.Number == mysqlLockWaitTimeout
}
