// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package provenance

import "errors"

var (
	// ErrOutputIndex is returned when an input spends an output index the
	// previous transaction does not have.
	ErrOutputIndex = errors.New("previous output index out of range")

	// ErrNoInputs is returned for a transaction without inputs.
	ErrNoInputs = errors.New("transaction has no inputs")

	// ErrNoPayment is returned when no output pays the receiver address.
	ErrNoPayment = errors.New("no output pays the receiver")

	// ErrAmbiguousPayment is returned when more than one output pays the
	// receiver address.
	ErrAmbiguousPayment = errors.New("more than one output pays the " +
		"receiver")

	// ErrAmbiguousChange is returned when more than one output pays an
	// address other than the receiver, so the change output cannot be
	// identified.
	ErrAmbiguousChange = errors.New("more than one change candidate " +
		"output")

	// ErrMissingFee is returned when the wallet view of a transaction
	// carries no fee.
	ErrMissingFee = errors.New("wallet transaction has no fee")

	// ErrUnconfirmed is returned when the wallet view of a transaction
	// carries no confirming block.
	ErrUnconfirmed = errors.New("transaction is not confirmed")

	// ErrConservation is returned when the payment, change and fee do not
	// add up to the value spent by the inputs.
	ErrConservation = errors.New("outputs and fee do not match inputs")
)
