package amber

import (
	"runtime"
	"sync/atomic"

	"github.com/gookit/color"
)

// isCriticalAtomic is 1 while an interruption-sensitive step (make install)
// is running and 0 otherwise. The signal handler consults it before
// cancelling the main context.
var isCriticalAtomic atomic.Int32

// Package state, initialized once in Main from config + flags.
var (
	workDir      string
	logsDir      string
	miniforgeDir string
	envName      string
	compilerID   string
	prefixRoot   string

	Debug bool

	ConfigFile = "amberinstall.conf"

	version   = "dev" // overridden at build time
	arch      = runtime.GOARCH
	buildDate = "unknown" // overridden at build time

	// Global executor (assigned in Main once the context exists)
	Exec *Executor
)

// color helpers
var (
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
	colNote    = color.Tag("notice")
)
