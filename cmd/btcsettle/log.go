// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btclog"
	"github.com/btcsuite/btcsettle/build"
	"github.com/btcsuite/btcsettle/chain"
	"github.com/btcsuite/btcsettle/mining"
	"github.com/btcsuite/btcsettle/payment"
	"github.com/btcsuite/btcsettle/provenance"
	"github.com/btcsuite/btcsettle/report"
	"github.com/btcsuite/btcsettle/run"
	"github.com/btcsuite/btcsettle/wallet"
	"github.com/jrick/logrotate/rotator"
)

// logWriter implements an io.Writer that outputs to both standard output and
// the write-end pipe of an initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

// Loggers per subsystem.  A single backend logger is created and all subsytem
// loggers created from it will write to the backend.  When adding new
// subsystems, add the subsystem logger variable here and to the
// subsystemLoggers map.
//
// Loggers can not be used before the log rotator has been initialized with a
// log file.  This must be performed early during application startup by
// calling initLogRotator.
var (
	// backendLog is the logging backend used to create all subsystem
	// loggers.  The backend must not be used before the log rotator has
	// been initialized, or data races and/or nil pointer dereferences will
	// occur.
	backendLog = btclog.NewBackend(logWriter{})

	// logRotator is one of the logging outputs.  It should be closed on
	// application shutdown.  It stays nil when no log file is configured.
	logRotator *rotator.Rotator

	log       = build.NewSubLogger("STTL", backendLog.Logger)
	chainLog  = build.NewSubLogger("CHAN", backendLog.Logger)
	rpccLog   = build.NewSubLogger("RPCC", backendLog.Logger)
	walletLog = build.NewSubLogger("WLLT", backendLog.Logger)
	mineLog   = build.NewSubLogger("MINE", backendLog.Logger)
	pymtLog   = build.NewSubLogger("PYMT", backendLog.Logger)
	provLog   = build.NewSubLogger("PROV", backendLog.Logger)
	rprtLog   = build.NewSubLogger("RPRT", backendLog.Logger)
	runLog    = build.NewSubLogger("RUN", backendLog.Logger)
)

// Initialize package-global logger variables.
func init() {
	chain.UseLogger(chainLog)
	rpcclient.UseLogger(rpccLog)
	wallet.UseLogger(walletLog)
	mining.UseLogger(mineLog)
	payment.UseLogger(pymtLog)
	provenance.UseLogger(provLog)
	report.UseLogger(rprtLog)
	run.UseLogger(runLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]btclog.Logger{
	"STTL": log,
	"CHAN": chainLog,
	"RPCC": rpccLog,
	"WLLT": walletLog,
	"MINE": mineLog,
	"PYMT": pymtLog,
	"PROV": provLog,
	"RPRT": rprtLog,
	"RUN":  runLog,
}

// initLogRotator initializes the logging rotater to write logs to logFile and
// create roll files in the same directory.  It must be called before the
// package-global log rotater variables are used.
func initLogRotator(logFile string) error {
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return fmt.Errorf("failed to create log directory: %w",
				err)
		}
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}

	logRotator = r
	return nil
}

// setLogLevel sets the logging level for provided subsystem.  Invalid
// subsystems are ignored.  Uninitialized subsystems are dynamically created as
// needed.
func setLogLevel(subsystemID string, logLevel string) {
	// Ignore invalid subsystems.
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}

	// Defaults to info if the log level is invalid.
	level, _ := btclog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// setLogLevels sets the log level for all subsystem loggers to the passed
// level.  It also dynamically creates the subsystem loggers as needed, so it
// can be used to initialize the logging system.
func setLogLevels(logLevel string) {
	// Configure all sub-systems with the new logging level.  Dynamically
	// create loggers as needed.
	for subsystemID := range subsystemLoggers {
		setLogLevel(subsystemID, logLevel)
	}
}
