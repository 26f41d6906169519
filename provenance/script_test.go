// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package provenance

import (
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"
)

var netParams = &chaincfg.RegressionNetParams

func newKey(t *testing.T) *btcec.PrivateKey {
	t.Helper()

	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return key
}

// newP2WPKH returns a fresh native segwit address and its script.
func newP2WPKH(t *testing.T) (btcutil.Address, []byte) {
	t.Helper()

	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		btcutil.Hash160(newKey(t).PubKey().SerializeCompressed()),
		netParams,
	)
	require.NoError(t, err)

	return addr, payTo(t, addr)
}

func payTo(t *testing.T, addr btcutil.Address) []byte {
	t.Helper()

	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return script
}

func nullData(t *testing.T, data []byte) []byte {
	t.Helper()

	script, err := txscript.NullDataScript(data)
	require.NoError(t, err)
	return script
}

func TestDecodeScript(t *testing.T) {
	t.Parallel()

	pub := newKey(t).PubKey()
	witnessScript := []byte{txscript.OP_TRUE}
	witnessHash := sha256.Sum256(witnessScript)

	p2pkh, err := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(pub.SerializeCompressed()), netParams,
	)
	require.NoError(t, err)
	p2sh, err := btcutil.NewAddressScriptHash(witnessScript, netParams)
	require.NoError(t, err)
	p2wsh, err := btcutil.NewAddressWitnessScriptHash(
		witnessHash[:], netParams,
	)
	require.NoError(t, err)
	p2tr, err := btcutil.NewAddressTaproot(
		pub.SerializeCompressed()[1:], netParams,
	)
	require.NoError(t, err)
	p2wpkh, _ := newP2WPKH(t)

	for _, addr := range []btcutil.Address{p2pkh, p2sh, p2wpkh, p2wsh,
		p2tr} {

		decoded := DecodeScript(payTo(t, addr), netParams)
		require.True(t, decoded.IsSome(), addr.String())
		require.Equal(t, addr.EncodeAddress(),
			decoded.UnwrapOr(nil).EncodeAddress())
	}

	p2pk, err := btcutil.NewAddressPubKey(pub.SerializeCompressed(),
		netParams)
	require.NoError(t, err)

	undecodable := map[string][]byte{
		"null data":  nullData(t, []byte("btcsettle")),
		"pay to key": payTo(t, p2pk),
		"op true":    {txscript.OP_TRUE},
		"empty":      {},
		"garbage":    {0xff, 0x01},
	}
	for name, script := range undecodable {
		require.True(t, DecodeScript(script, netParams).IsNone(), name)
	}
}
