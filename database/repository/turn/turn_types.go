package turn

import (
	"database/sql"
	"errors"
	"time"
)

// Turn states. Terminal states never transition again.
const (
	StateWaiting   = "WAITING"
	StateInService = "IN_SERVICE"
	StateFinalized = "FINALIZED"
	StateCancelled = "CANCELLED"
)

// Details is a single customer appointment within one workshop
type Details struct {
	ID           string
	WorkshopID   string
	TurnNumber   int64
	CustomerName string
	Phone        string
	VehicleModel string
	Plate        string
	Problem      string
	State        string
	CreatedAt    time.Time
	StartedAt    time.Time
	FinalizedAt  time.Time
	CancelledAt  time.Time
}

// IsTerminal reports whether the turn can never transition again
func (d *Details) IsTerminal() bool {
	return d.State == StateFinalized || d.State == StateCancelled
}

// DBService is a service which allows the interaction with
// the database without a global variable
type DBService struct {
	sql    *sql.DB
	driver string
}

// ErrTurnNotFound is returned when a lookup misses
var ErrTurnNotFound = errors.New("turn not found")
