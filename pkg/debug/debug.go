// Package debug is vt's switchable debug log.
//
// Set VT_DEBUG to turn it on:
//
//	VT_DEBUG=1 vt tree.json
//
// Lines go to stderr until the TUI redirects them to vt-debug.log. While
// disabled every call returns after one atomic load.
package debug

import (
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const (
	prefix = "[vt] "
	flags  = log.Ltime | log.Lmicroseconds
)

var (
	on     atomic.Bool
	mu     sync.Mutex
	logger = log.New(os.Stderr, prefix, flags)
)

func init() {
	on.Store(os.Getenv("VT_DEBUG") != "")
}

// Enabled reports whether debug lines are written.
func Enabled() bool {
	return on.Load()
}

// SetEnabled turns debug logging on or off.
func SetEnabled(e bool) {
	on.Store(e)
}

// SetOutput redirects debug lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

// Log writes a printf-style line.
func Log(format string, args ...any) {
	if !on.Load() {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes how long name took.
func LogTiming(name string, d time.Duration) {
	Log("%s took %v", name, d)
}

// LogEnterExit logs entry now and exit, with the elapsed time, when the
// returned func runs:
//
//	defer debug.LogEnterExit("flush")()
func LogEnterExit(name string) func() {
	if !on.Load() {
		return func() {}
	}
	Log("-> %s", name)
	start := time.Now()
	return func() {
		Log("<- %s (%v)", name, time.Since(start))
	}
}
