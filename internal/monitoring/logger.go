// Package monitoring carries the progress logger shared by the decoder
// packages and command-line tools.
package monitoring

import "log"

// Logf is the package-level progress logger. It defaults to log.Printf and
// may be replaced with SetLogger; tests usually mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Warnf logs a message prefixed with "warning: ".
func Warnf(format string, v ...interface{}) {
	Logf("warning: "+format, v...)
}
