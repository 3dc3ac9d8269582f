package log

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	errEmptyLoggerName = errors.New("cannot have empty logger name")
	// ErrSubLoggerAlreadyRegistered returned when a sub logger is registered
	// multiple times
	ErrSubLoggerAlreadyRegistered = errors.New("sub logger already registered")
)

// NewSubLogger allows for a new sub logger to be registered.
func NewSubLogger(name string) (*SubLogger, error) {
	if name == "" {
		return nil, errEmptyLoggerName
	}
	name = strings.ToUpper(name)
	RWM.RLock()
	if _, ok := SubLoggers[name]; ok {
		RWM.RUnlock()
		return nil, fmt.Errorf("'%v' %w", name, ErrSubLoggerAlreadyRegistered)
	}
	RWM.RUnlock()
	return registerNewSubLogger(name), nil
}

// SetOutput overrides the default output with a new writer
func (sl *SubLogger) SetOutput(o io.Writer) {
	RWM.Lock()
	sl.output = o
	RWM.Unlock()
}

// SetLevels overrides the default levels with new levels
func (sl *SubLogger) SetLevels(newLevels Levels) {
	RWM.Lock()
	sl.Levels = newLevels
	RWM.Unlock()
}

// GetLevels returns the current levels
func (sl *SubLogger) GetLevels() Levels {
	RWM.RLock()
	defer RWM.RUnlock()
	return sl.Levels
}

func (sl *SubLogger) getFields() *logFields {
	if sl == nil {
		return nil
	}
	RWM.RLock()
	defer RWM.RUnlock()
	if GlobalLogConfig != nil &&
		GlobalLogConfig.Enabled != nil &&
		!*GlobalLogConfig.Enabled {
		return nil
	}
	return &logFields{
		info:   sl.Info,
		warn:   sl.Warn,
		debug:  sl.Debug,
		error:  sl.Error,
		name:   sl.name,
		output: sl.output,
		logger: logger,
	}
}
