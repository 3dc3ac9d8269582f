// Package subsystem contains shared lifecycle errors and messages for the
// engine's managers
package subsystem

import "errors"

const (
	// MsgStarting message to return when subsystem is starting up
	MsgStarting = "starting..."
	// MsgStarted message to return when subsystem has started
	MsgStarted = "started."
	// MsgShuttingDown message to return when a subsystem is shutting down
	MsgShuttingDown = "shutting down..."
	// MsgShutdown message to return when a subsystem has shutdown
	MsgShutdown = "shutdown."
)

var (
	// ErrAlreadyStarted message to return when a subsystem is already started
	ErrAlreadyStarted = errors.New("already started")
	// ErrNotStarted message to return when subsystem not started
	ErrNotStarted = errors.New("not started")
	// ErrNil is returned when a subsystem hasn't had its Setup() func run
	ErrNil = errors.New("subsystem not setup")
	// ErrNilConfig is returned when a subsystem is provided a nil config
	ErrNilConfig = errors.New("nil config received")
)
