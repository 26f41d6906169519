// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package provenance

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// DecodeScript returns the address pkScript pays to on the given network.
// Only single address standard forms decode; data carriers, bare multisig,
// non-standard and malformed scripts yield None.
func DecodeScript(pkScript []byte,
	params *chaincfg.Params) fn.Option[btcutil.Address] {

	class, addrs, _, err := txscript.ExtractPkScriptAddrs(pkScript, params)
	if err != nil || len(addrs) != 1 {
		return fn.None[btcutil.Address]()
	}

	switch class {
	case txscript.PubKeyHashTy, txscript.ScriptHashTy,
		txscript.WitnessV0PubKeyHashTy, txscript.WitnessV0ScriptHashTy,
		txscript.WitnessV1TaprootTy:

		return fn.Some(addrs[0])

	default:
		return fn.None[btcutil.Address]()
	}
}

// sameAddress reports whether a and b encode to the same address string.
func sameAddress(a, b btcutil.Address) bool {
	return a.EncodeAddress() == b.EncodeAddress()
}
