// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cfgutil

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/shopspring/decimal"
)

// AmountFlag embeds a btcutil.Amount and implements the flags.Marshaler and
// Unmarshaler interfaces so it can be used as a config struct field.
//
// Values are read as decimal BTC unless they carry a " sat" suffix, in which
// case they are read as an integer number of satoshis.  Both forms are parsed
// exactly, without a floating point step.
type AmountFlag struct {
	btcutil.Amount
}

// NewAmountFlag creates an AmountFlag with a default btcutil.Amount.
func NewAmountFlag(defaultValue btcutil.Amount) *AmountFlag {
	return &AmountFlag{defaultValue}
}

// MarshalFlag satisfies the flags.Marshaler interface.
func (a *AmountFlag) MarshalFlag() (string, error) {
	return a.Amount.String(), nil
}

// UnmarshalFlag satisfies the flags.Unmarshaler interface.
func (a *AmountFlag) UnmarshalFlag(value string) error {
	value = strings.TrimSpace(value)

	if sats, ok := trimUnit(value, "sat", "sats"); ok {
		n, err := strconv.ParseInt(sats, 10, 64)
		if err != nil {
			return err
		}
		amount := btcutil.Amount(n)
		if amount < 0 || amount > btcutil.MaxSatoshi {
			return fmt.Errorf("amount %v out of range", amount)
		}
		a.Amount = amount
		return nil
	}

	value, _ = trimUnit(value, "BTC")
	coins, err := decimal.NewFromString(value)
	if err != nil {
		return err
	}
	sats := coins.Shift(8)
	if !sats.IsInteger() {
		return fmt.Errorf("amount %s is more precise than one satoshi",
			value)
	}
	if sats.IsNegative() ||
		sats.GreaterThan(decimal.NewFromInt(btcutil.MaxSatoshi)) {

		return fmt.Errorf("amount %s out of range", value)
	}
	a.Amount = btcutil.Amount(sats.IntPart())
	return nil
}

// trimUnit removes the first matching unit suffix from value.
func trimUnit(value string, units ...string) (string, bool) {
	for _, unit := range units {
		if strings.HasSuffix(value, unit) {
			return strings.TrimSpace(strings.TrimSuffix(value, unit)), true
		}
	}
	return value, false
}
