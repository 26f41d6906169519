// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/btcsuite/btcsettle/run"
)

func main() {
	// Work around defer not working after os.Exit.
	if err := settleMain(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// settleMain is a work-around main function that is required since deferred
// functions (such as log rotator shutdown) are not called with calls to
// os.Exit.  Instead, main runs this function and checks for a non-nil error,
// at which point any defers have already run, and if the error is non-nil,
// the program can be exited with an error exit status.
func settleMain(args []string) error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	log.Infof("Settling %v from wallet %q to wallet %q on %s",
		cfg.Amount.Amount, cfg.SenderWallet, cfg.ReceiverWallet,
		cfg.params.ChainName)

	outcome, err := run.Settle(cfg.settleConfig())
	if err != nil {
		log.Errorf("Settlement failed: %v", err)
		return err
	}

	log.Infof("Settlement %v confirmed at height %d, report written to %s",
		outcome.Record.TxID, outcome.Record.BlockHeight, cfg.OutFile)

	return nil
}
