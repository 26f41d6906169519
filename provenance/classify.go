// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package provenance

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Role is the economic role of a transaction output.
type Role uint8

const (
	// RoleUnrecognized marks outputs whose script does not decode to an
	// address, such as data carriers.  They are never change.
	RoleUnrecognized Role = iota

	// RolePayment marks outputs paying the receiver address.
	RolePayment

	// RoleChange marks outputs paying any other address.
	RoleChange
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleUnrecognized:
		return "unrecognized"
	case RolePayment:
		return "payment"
	case RoleChange:
		return "change"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// Output is a classified transaction output.
type Output struct {
	Index   uint32
	Value   btcutil.Amount
	Address fn.Option[btcutil.Address]
	Role    Role
}

// Classify assigns a role to every output of a transaction.  An output paying
// exactly the receiver address is a payment, any other decodable output is
// change and the rest are unrecognized.  The result is in output order.
func Classify(outputs []*wire.TxOut, receiver btcutil.Address,
	params *chaincfg.Params) []Output {

	classified := make([]Output, 0, len(outputs))
	for i, txOut := range outputs {
		out := Output{
			Index:   uint32(i),
			Value:   btcutil.Amount(txOut.Value),
			Address: DecodeScript(txOut.PkScript, params),
			Role:    RoleUnrecognized,
		}
		out.Address.WhenSome(func(addr btcutil.Address) {
			if sameAddress(addr, receiver) {
				out.Role = RolePayment
			} else {
				out.Role = RoleChange
			}
		})

		classified = append(classified, out)
	}

	return classified
}

// Split is the payment and optional change of a classified transaction.
type Split struct {
	Payment Output
	Change  fn.Option[Output]
}

// ChangeAmount returns the value of the change output, or zero without one.
func (s *Split) ChangeAmount() btcutil.Amount {
	var amount btcutil.Amount
	s.Change.WhenSome(func(o Output) {
		amount = o.Value
	})
	return amount
}

// ChangeAddress returns the address of the change output, if any.
func (s *Split) ChangeAddress() fn.Option[btcutil.Address] {
	address := fn.None[btcutil.Address]()
	s.Change.WhenSome(func(o Output) {
		address = o.Address
	})
	return address
}

// SplitOutputs picks the payment and change outputs from a classification.
// Exactly one payment and at most one change output are accepted; a
// transaction without change spent its remainder on the fee.
func SplitOutputs(outputs []Output) (*Split, error) {
	var (
		payments []Output
		changes  []Output
	)
	for _, out := range outputs {
		switch out.Role {
		case RolePayment:
			payments = append(payments, out)
		case RoleChange:
			changes = append(changes, out)
		case RoleUnrecognized:
			log.Debugf("Skipping unrecognized output %d (%v)",
				out.Index, out.Value)
		}
	}

	// Ambiguity is reported ahead of a missing payment.
	switch {
	case len(changes) > 1:
		return nil, fmt.Errorf("%w: outputs %v", ErrAmbiguousChange,
			indexes(changes))

	case len(payments) > 1:
		return nil, fmt.Errorf("%w: outputs %v", ErrAmbiguousPayment,
			indexes(payments))

	case len(payments) == 0:
		return nil, ErrNoPayment
	}

	split := &Split{
		Payment: payments[0],
		Change:  fn.None[Output](),
	}
	if len(changes) == 1 {
		split.Change = fn.Some(changes[0])
	}

	return split, nil
}

func indexes(outputs []Output) []uint32 {
	idx := make([]uint32, 0, len(outputs))
	for _, out := range outputs {
		idx = append(idx, out.Index)
	}
	return idx
}
