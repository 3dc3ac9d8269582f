package log

import "io"

// Global vars related to the logger package
var (
	// SubLoggers map of global SubLoggers
	SubLoggers = map[string]*SubLogger{}

	Global           *SubLogger
	CommunicationMgr *SubLogger
	APIServerMgr     *SubLogger
	ConfigMgr        *SubLogger
	DatabaseMgr      *SubLogger
	QueueMgr         *SubLogger
	WorkshopMgr      *SubLogger
	TimeMgr          *SubLogger
)

// SubLogger defines a sub logger can be used externally for packages wanting
// to leverage the logger features
type SubLogger struct {
	name string
	Levels
	output io.Writer
}

// logFields is used to store data in a non-global and thread-safe manner
// so logs cannot be modified mid-log causing a data-race issue
type logFields struct {
	info   bool
	warn   bool
	debug  bool
	error  bool
	name   string
	output io.Writer
	logger Logger
}
