package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/thrasher-corp/tallerd/communications/base"
)

// Settings stores engine params generated by the command line flags
type Settings struct {
	ConfigFile        string
	DataDir           string
	LogFile           string
	GoMaxProcs        int
	Verbose           bool
	EnableDryRun      bool
	EnableAPI         bool
	EnableComms       bool
	APIListen         string
	GlobalHTTPTimeout time.Duration
}

// Vars for engine
var (
	errNilBot       = errors.New("nil engine received")
	errNilSettings  = errors.New("nil settings received")
	errNilWaitgroup = errors.New("nil wait group received")

	newEngineMutex sync.Mutex
)

// iCommsManager limits exposure of accessible functions to communication
// manager consumers
type iCommsManager interface {
	PushEvent(evt base.Event)
	IsRunning() bool
}
