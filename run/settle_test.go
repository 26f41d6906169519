// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package run

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcsettle/chain"
	"github.com/btcsuite/btcsettle/payment"
	"github.com/btcsuite/btcsettle/provenance"
	"github.com/btcsuite/btcsettle/report"
	"github.com/btcsuite/btcsettle/rpctest"
	"github.com/btcsuite/btcsettle/wallet"
	"github.com/stretchr/testify/require"
)

var netParams = &chaincfg.RegressionNetParams

const amount = btcutil.Amount(20 * btcutil.SatoshiPerBitcoin)

func newTestConfig(t *testing.T, node *rpctest.SimNode) Config {
	t.Helper()

	return Config{
		Endpoint: chain.Endpoint{
			Host:   node.Host(),
			User:   node.User(),
			Pass:   node.Pass(),
			Params: netParams,
		},
		ChainName:      "regtest",
		SenderWallet:   "A",
		ReceiverWallet: "B",
		Amount:         amount,
		ReportPath:     filepath.Join(t.TempDir(), report.DefaultPath),
	}
}

func newTestNode(t *testing.T) *rpctest.SimNode {
	t.Helper()

	node := rpctest.New(netParams)
	t.Cleanup(node.TearDown)
	return node
}

func readReport(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(data), "\n"))

	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// TestSettleEndToEnd runs a settlement on a fresh node with the regtest
// coinbase maturity.
func TestSettleEndToEnd(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)
	cfg := newTestConfig(t, node)

	outcome, err := Settle(cfg)
	require.NoError(t, err)

	maturity := int64(netParams.CoinbaseMaturity)
	require.Len(t, outcome.Wallets, 2)
	for _, h := range outcome.Wallets {
		require.Equal(t, wallet.ActionCreated, h.Action)
	}
	require.Equal(t, maturity+2, outcome.Funding.BlocksMined)
	require.Equal(t, btcutil.Amount(2*50*btcutil.SatoshiPerBitcoin),
		outcome.Funding.Balance)

	record := outcome.Record
	require.Equal(t, outcome.Transfer.TxID, record.TxID)
	require.Equal(t, amount, record.ReceiverAmount)
	require.Equal(t, record.SenderInput-amount-record.Fee,
		record.ChangeAmount)
	require.Equal(t, node.TxFee(record.TxID), record.Fee)
	require.Equal(t, node.Height(), record.BlockHeight)
	require.Equal(t, int32(maturity+3), record.BlockHeight)
	require.Equal(t, outcome.Transfer.ConfirmHeight, record.BlockHeight)
	require.Equal(t, outcome.Transfer.ConfirmHash, record.BlockHash)
	require.Equal(t, outcome.Funding.Address.EncodeAddress(),
		record.SenderAddress.UnwrapOr(nil).EncodeAddress())

	lines := readReport(t, cfg.ReportPath)
	require.Equal(t, report.Lines(record), lines)
	require.Equal(t, "20.00000000", lines[4])
	require.Equal(t, strconv.Itoa(int(record.BlockHeight)), lines[8])

	// The order of calls follows the settlement steps.
	order := strings.Join(node.CallOrder(), " ")
	require.True(t, strings.HasPrefix(order, "getblockchaininfo listwallets"))
	require.Contains(t, order, "sendtoaddress getmempoolentry "+
		"generatetoaddress")
	require.True(t, strings.HasSuffix(order, "gettransaction "+
		"gettransaction"))
}

// TestSettleWithoutTxIndex checks that a node without a transaction index
// settles, as both the payment and its inputs belong to the sender wallet.
func TestSettleWithoutTxIndex(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)
	node.SetCoinbaseMaturity(2)
	node.SetTxIndex(false)

	cfg := newTestConfig(t, node)
	cfg.CoinbaseMaturity = 2

	outcome, err := Settle(cfg)
	require.NoError(t, err)
	require.Equal(t, amount, outcome.Record.ReceiverAmount)
	require.Zero(t, node.Calls("getrawtransaction"))
	require.Equal(t, report.Lines(outcome.Record),
		readReport(t, cfg.ReportPath))
}

// TestSettleTwice checks that a second settlement reuses the wallets and the
// mining address.
func TestSettleTwice(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)
	cfg := newTestConfig(t, node)
	cfg.CoinbaseMaturity = 3
	node.SetCoinbaseMaturity(3)

	first, err := Settle(cfg)
	require.NoError(t, err)
	require.Equal(t, int64(5), first.Funding.BlocksMined)

	second, err := Settle(cfg)
	require.NoError(t, err)
	for _, h := range second.Wallets {
		require.Equal(t, wallet.ActionAlreadyLoaded, h.Action)
	}
	require.Equal(t, int64(1), second.Funding.BlocksMined)
	require.Equal(t, first.Funding.Address.EncodeAddress(),
		second.Funding.Address.EncodeAddress())
	require.NotEqual(t, first.Record.TxID, second.Record.TxID)

	require.Equal(t, 2, node.Calls("createwallet"))
	require.Equal(t, report.Lines(second.Record),
		readReport(t, cfg.ReportPath))
}

func TestSettleExistingWallets(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)
	node.SetCoinbaseMaturity(2)
	node.AddWallet("A")
	node.AddWallet("B")

	cfg := newTestConfig(t, node)
	cfg.CoinbaseMaturity = 2

	outcome, err := Settle(cfg)
	require.NoError(t, err)
	for _, h := range outcome.Wallets {
		require.Equal(t, wallet.ActionLoaded, h.Action)
	}
	require.Zero(t, node.Calls("createwallet"))
}

func TestSettleStepErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(*rpctest.SimNode, *Config)
		step  Step
		err   error
		code  btcjson.RPCErrorCode
	}{
		{
			name: "wrong network",
			setup: func(_ *rpctest.SimNode, cfg *Config) {
				cfg.ChainName = "signet"
			},
			step: StepNetwork,
			err:  chain.ErrWrongNetwork,
		},
		{
			name: "wallet not created",
			setup: func(node *rpctest.SimNode, _ *Config) {
				node.FailNext("createwallet", -4,
					"Wallet file verification failed")
			},
			step: StepMature,
			code: chain.ErrCodeWalletNotFound,
		},
		{
			name: "missing from mempool",
			setup: func(node *rpctest.SimNode, _ *Config) {
				node.FailNext("getmempoolentry",
					chain.ErrCodeInvalidAddressOrKey,
					"Transaction not in mempool")
			},
			step: StepPay,
			err:  payment.ErrNotInMempool,
		},
		{
			name: "insufficient funds",
			setup: func(_ *rpctest.SimNode, cfg *Config) {
				cfg.Amount = 500 * btcutil.SatoshiPerBitcoin
			},
			step: StepPay,
		},
		{
			name: "wallet transaction unavailable",
			setup: func(node *rpctest.SimNode, _ *Config) {
				node.FailNext("gettransaction",
					chain.ErrCodeInvalidAddressOrKey,
					"Invalid or non-wallet transaction id")
			},
			step: StepExtract,
			code: chain.ErrCodeInvalidAddressOrKey,
		},
		{
			name: "report directory missing",
			setup: func(_ *rpctest.SimNode, cfg *Config) {
				cfg.ReportPath = filepath.Join(
					filepath.Dir(cfg.ReportPath), "missing",
					report.DefaultPath,
				)
			},
			step: StepReport,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			node := newTestNode(t)
			node.SetCoinbaseMaturity(2)
			cfg := newTestConfig(t, node)
			cfg.CoinbaseMaturity = 2
			test.setup(node, &cfg)

			_, err := Settle(cfg)
			require.Error(t, err)

			var stepErr *StepError
			require.ErrorAs(t, err, &stepErr)
			require.Equal(t, test.step, stepErr.Step)
			require.True(t, strings.HasPrefix(err.Error(),
				string(test.step)+": "))
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
			}
			if test.code != 0 {
				require.True(t, chain.IsRPCError(err, test.code))
			}

			// No report is written by a failed settlement.
			_, statErr := os.Stat(cfg.ReportPath)
			require.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestStepErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := fail(StepExtract, provenance.ErrMissingFee)
	require.ErrorIs(t, err, provenance.ErrMissingFee)
	require.Equal(t, "extract provenance: wallet transaction has no fee",
		err.Error())
}
