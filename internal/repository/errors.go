// Package repository holds the MySQL data access code for shows, seats
// and bookings.  Methods ending in Tx run inside a caller-owned
// transaction; the caller commits or rolls back.
//
// Sentinel errors defined here let higher layers tell "not found" apart
// from infrastructure failures.  Handlers translate them into HTTP 404.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrShowNotFound is returned when a show does not exist, including when
// a booking insert references an unknown show.
var ErrShowNotFound = errors.New("show not found")

// ErrBookingNotFound is returned when no booking has the requested ID.
var ErrBookingNotFound = errors.New("booking not found")

// mysqlErrNoReferencedRow is ER_NO_REFERENCED_ROW_2, raised when a
// foreign key points at a missing parent row.
const mysqlErrNoReferencedRow = 1452

func isForeignKeyViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlErrNoReferencedRow
}
