// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build !js

package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/btcsuite/btcsettle/internal/zero"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when a secret is requested but standard input is
// not attached to a terminal.
var ErrNotTerminal = errors.New("standard input is not a terminal")

// Secret prompts the user for a secret with the given prefix, reading it from
// the terminal without echo.  The prompt is repeated until a non-empty
// response is entered.
func Secret(prefix string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNotTerminal
	}

	prompt := fmt.Sprintf("%s: ", prefix)
	for {
		fmt.Print(prompt)
		pass, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		fmt.Print("\n")
		trimmed := bytes.TrimSpace(pass)
		if len(trimmed) == 0 {
			continue
		}

		secret := string(trimmed)
		zero.Bytes(pass)

		return secret, nil
	}
}

// RPCPassword prompts for the password used to authenticate with the node's
// RPC server.
func RPCPassword(user string) (string, error) {
	return Secret(fmt.Sprintf("RPC password for %q", user))
}
