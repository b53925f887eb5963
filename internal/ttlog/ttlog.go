// Package ttlog provides the package-level structured logger shared by the
// storage engine and the command-line tooling.
package ttlog

import (
	log "github.com/sirupsen/logrus"
)

// Log is the shared logger instance.  Components obtain context-scoped
// entries from it via WithField/WithFields rather than logging directly at
// the package level.
var Log = log.New()

func init() {
	Log.SetLevel(log.InfoLevel)
}

// SetVerbose raises or lowers the logger to debug level.  This mirrors the
// "-v" flag wiring used throughout the command-line tooling.
func SetVerbose(verbose bool) {
	if verbose {
		Log.SetLevel(log.DebugLevel)
	} else {
		Log.SetLevel(log.InfoLevel)
	}
}

// Table returns a log entry scoped to operations on a single on-disk table.
func Table(name string) *log.Entry {
	return Log.WithField("table", name)
}

// Storage returns a log entry scoped to the storage manager's directory.
func Storage(dir string) *log.Entry {
	return Log.WithField("dir", dir)
}
