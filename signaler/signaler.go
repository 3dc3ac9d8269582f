// Package signaler handles OS process termination signals
package signaler

import (
	"os"
	"os/signal"
	"syscall"
)

// WaitForInterrupt registers for interrupt notifications and returns the
// channel they will be delivered on
func WaitForInterrupt() <-chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	return c
}
