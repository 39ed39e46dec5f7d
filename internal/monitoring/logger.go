package monitoring

import (
	"io"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Diagnostics (header lines, edge markers, malformed
// units) always go here and never to the data sink.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// NewLogger returns a logger func writing to w with the given prefix, suitable
// for SetLogger. Commands use it to tag diagnostics with the session ID.
func NewLogger(w io.Writer, prefix string) func(format string, v ...interface{}) {
	l := log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
	return l.Printf
}
