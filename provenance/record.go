// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package provenance

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// SpentOutput is a previous output consumed by a transaction input.
type SpentOutput struct {
	OutPoint wire.OutPoint
	Value    btcutil.Amount
	PkScript []byte
	Address  fn.Option[btcutil.Address]
}

// Record is the settlement detail of a confirmed payment.
type Record struct {
	TxID chainhash.Hash

	// SenderAddress is the address of the output spent by the first input.
	// It is None when that output's script does not decode.
	SenderAddress fn.Option[btcutil.Address]

	// SenderInput is the total value spent by all inputs.
	SenderInput btcutil.Amount

	ReceiverAddress btcutil.Address
	ReceiverAmount  btcutil.Amount

	// ChangeAddress is None when the transaction has no change output, in
	// which case ChangeAmount is zero.
	ChangeAddress fn.Option[btcutil.Address]
	ChangeAmount  btcutil.Amount

	Fee         btcutil.Amount
	BlockHeight int32
	BlockHash   chainhash.Hash
}

// Validate checks that the payment, the change and the fee account for the
// whole input value.
func (r *Record) Validate() error {
	out := r.ReceiverAmount + r.ChangeAmount + r.Fee
	if out != r.SenderInput {
		return fmt.Errorf("%w: receiver %d + change %d + fee %d = %d "+
			"sat, inputs %d sat", ErrConservation,
			int64(r.ReceiverAmount), int64(r.ChangeAmount),
			int64(r.Fee), int64(out), int64(r.SenderInput))
	}
	return nil
}
