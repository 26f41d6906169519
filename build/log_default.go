//go:build !nolog && !stdlog
// +build !nolog,!stdlog

package build

// LoggingType is a log type that writes to the caller's backend.
const LoggingType = LogTypeDefault
