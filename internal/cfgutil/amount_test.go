// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cfgutil

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

func TestAmountFlagUnmarshal(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		value   string
		amount  btcutil.Amount
		wantErr bool
	}{
		{
			name:   "whole coins",
			value:  "20",
			amount: 20 * btcutil.SatoshiPerBitcoin,
		},
		{
			name:   "coins with unit",
			value:  "0.5 BTC",
			amount: btcutil.SatoshiPerBitcoin / 2,
		},
		{
			name:   "satoshis",
			value:  "1500 sat",
			amount: 1500,
		},
		{
			name:   "satoshis plural",
			value:  "42sats",
			amount: 42,
		},
		{
			name:   "smallest unit in coins",
			value:  "0.00000001",
			amount: 1,
		},
		{
			name:    "below one satoshi",
			value:   "0.000000001",
			wantErr: true,
		},
		{
			name:    "above supply",
			value:   "21000001",
			wantErr: true,
		},
		{
			name:    "fractional satoshis",
			value:   "1.5 sat",
			wantErr: true,
		},
		{
			name:    "negative",
			value:   "-1",
			wantErr: true,
		},
		{
			name:    "garbage",
			value:   "twenty",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			flag := NewAmountFlag(0)
			err := flag.UnmarshalFlag(tc.value)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.amount, flag.Amount)
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	t.Parallel()

	addr, err := NormalizeAddress("127.0.0.1", "18443")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:18443", addr)

	addr, err = NormalizeAddress("http://localhost:19000/", "18443")
	require.NoError(t, err)
	require.Equal(t, "localhost:19000", addr)

	_, err = NormalizeAddress("[::1", "18443")
	require.Error(t, err)
}
