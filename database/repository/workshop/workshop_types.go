package workshop

import (
	"database/sql"
	"errors"
	"time"
)

// Details is a workshop directory entry
type Details struct {
	ID        string
	Name      string
	Address   string
	Logo      string
	Capacity  int64
	CreatedAt time.Time
}

// DBService is a service which allows the interaction with
// the database without a global variable
type DBService struct {
	sql    *sql.DB
	driver string
}

var (
	// ErrWorkshopNotFound is returned when a lookup misses
	ErrWorkshopNotFound = errors.New("workshop not found")
	// errInvalidCapacity is returned on insert/update of capacity < 1
	errInvalidCapacity = errors.New("workshop capacity must be at least 1")
)

// DefaultCapacity is the service bay size applied when none is supplied
const DefaultCapacity int64 = 3
