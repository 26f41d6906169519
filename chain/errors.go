// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"errors"

	"github.com/btcsuite/btcd/btcjson"
)

// Error codes returned by bitcoind that callers branch on.
const (
	// ErrCodeMethodNotFound is returned for RPC methods the node does not
	// implement.
	ErrCodeMethodNotFound btcjson.RPCErrorCode = -32601

	// ErrCodeInvalidAddressOrKey is returned for unknown transactions,
	// including transactions missing from the mempool.
	ErrCodeInvalidAddressOrKey btcjson.RPCErrorCode = -5

	// ErrCodeWalletNotFound is returned when the requested wallet does not
	// exist or is not loaded.
	ErrCodeWalletNotFound btcjson.RPCErrorCode = -18

	// ErrCodeWalletAlreadyLoaded is returned by loadwallet for a wallet
	// that is already loaded.
	ErrCodeWalletAlreadyLoaded btcjson.RPCErrorCode = -35
)

var (
	// ErrMalformedResponse is returned when a result cannot be decoded into
	// the shape documented for the call.
	ErrMalformedResponse = errors.New("malformed rpc response")

	// ErrWrongNetwork is returned when the node runs on a different chain
	// than the one the endpoint was configured for.
	ErrWrongNetwork = errors.New("node is running on an unexpected " +
		"network")
)

// IsRPCError returns true if err, or any error it wraps, is an error reported
// by the node with the given code.
func IsRPCError(err error, code btcjson.RPCErrorCode) bool {
	var rpcErr *btcjson.RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	return rpcErr.Code == code
}
