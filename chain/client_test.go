// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcsettle/rpctest"
	"github.com/stretchr/testify/require"
)

var netParams = &chaincfg.RegressionNetParams

// newTestClient starts a simulated node and returns a node-level client for
// it.
func newTestClient(t *testing.T) (*rpctest.SimNode, Endpoint, *Client) {
	t.Helper()

	node := rpctest.New(netParams)
	t.Cleanup(node.TearDown)

	endpoint := Endpoint{
		Host:   node.Host(),
		User:   node.User(),
		Pass:   node.Pass(),
		Params: netParams,
	}
	client, err := NewClient(endpoint)
	require.NoError(t, err)
	t.Cleanup(client.Shutdown)

	return node, endpoint, client
}

func newWalletClient(t *testing.T, endpoint Endpoint, name string) *Client {
	t.Helper()

	client, err := NewClient(endpoint.ForWallet(name))
	require.NoError(t, err)
	t.Cleanup(client.Shutdown)

	return client
}

func TestEndpointForWallet(t *testing.T) {
	t.Parallel()

	base := Endpoint{
		Host:   "127.0.0.1:18443",
		User:   "alice",
		Pass:   "password",
		Params: netParams,
	}
	scoped := base.ForWallet("my wallet")

	require.Equal(t, "http://127.0.0.1:18443", base.String())
	require.Equal(t, "", base.Wallet())
	require.Equal(t, "http://127.0.0.1:18443/wallet/my%20wallet",
		scoped.String())
	require.Equal(t, "my wallet", scoped.Wallet())
	require.Equal(t, base.User, scoped.User)

	cfg := scoped.connConfig()
	require.True(t, cfg.HTTPPostMode)
	require.True(t, cfg.DisableTLS)
	require.Equal(t, "regtest", cfg.Params)
}

func TestNewClientRequiresParams(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Endpoint{Host: "127.0.0.1:18443"})
	require.Error(t, err)
}

func TestVerifyNetwork(t *testing.T) {
	t.Parallel()

	_, _, client := newTestClient(t)

	info, err := client.VerifyNetwork("regtest")
	require.NoError(t, err)
	require.Equal(t, int64(0), info.Blocks)
	require.Equal(t, netParams.GenesisHash.String(), info.BestBlockHash)

	_, err = client.VerifyNetwork("main")
	require.ErrorIs(t, err, ErrWrongNetwork)
}

func TestCallReportsNodeErrors(t *testing.T) {
	t.Parallel()

	_, _, client := newTestClient(t)

	_, err := client.LoadWallet("missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "loadwallet")
	require.True(t, IsRPCError(err, ErrCodeWalletNotFound))

	var rpcErr *btcjson.RPCError
	require.True(t, errors.As(err, &rpcErr))
	require.Contains(t, rpcErr.Message, "Path does not exist")

	_, err = client.Call("nosuchmethod")
	require.True(t, IsRPCError(err, ErrCodeMethodNotFound))
	require.False(t, IsRPCError(errors.New("plain"), ErrCodeMethodNotFound))
}

func TestCallRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	_, endpoint, _ := newTestClient(t)
	endpoint.Pass = "wrong"

	client, err := NewClient(endpoint)
	require.NoError(t, err)
	defer client.Shutdown()

	_, err = client.BlockCount()
	require.Error(t, err)
	require.False(t, IsRPCError(err, ErrCodeMethodNotFound))
}

func TestCallResultMalformed(t *testing.T) {
	t.Parallel()

	_, _, client := newTestClient(t)

	// getblockcount returns a number, which cannot decode into a struct.
	var res struct{ Field string }
	err := client.CallResult(&res, "getblockcount")
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestWalletManagement(t *testing.T) {
	t.Parallel()

	node, _, client := newTestClient(t)
	node.AddWallet("existing")

	created, err := client.CreateWallet("fresh")
	require.NoError(t, err)
	require.Equal(t, "fresh", created.Name)

	loaded, err := client.LoadWallet("existing")
	require.NoError(t, err)
	require.Equal(t, "existing", loaded.Name)

	_, err = client.LoadWallet("existing")
	require.True(t, IsRPCError(err, ErrCodeWalletAlreadyLoaded))

	names, err := client.ListWallets()
	require.NoError(t, err)
	require.Equal(t, []string{"fresh", "existing"}, names)

	onDisk, err := client.ListWalletDir()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"fresh", "existing"}, onDisk)
}

func TestSendAndInspect(t *testing.T) {
	t.Parallel()

	node, endpoint, client := newTestClient(t)
	node.SetCoinbaseMaturity(5)

	_, err := client.CreateWallet("sender")
	require.NoError(t, err)
	_, err = client.CreateWallet("receiver")
	require.NoError(t, err)

	sender := newWalletClient(t, endpoint, "sender")
	receiver := newWalletClient(t, endpoint, "receiver")

	minerAddr, err := sender.NewAddress("Mining Reward")
	require.NoError(t, err)
	require.True(t, minerAddr.IsForNet(netParams))

	hashes, err := sender.GenerateToAddress(6, minerAddr)
	require.NoError(t, err)
	require.Len(t, hashes, 6)

	count, err := client.BlockCount()
	require.NoError(t, err)
	require.Equal(t, int64(6), count)

	balance, err := sender.Balance()
	require.NoError(t, err)
	require.Equal(t, btcutil.Amount(50*btcutil.SatoshiPerBitcoin), balance)

	received, err := sender.ListReceivedByAddress()
	require.NoError(t, err)
	require.Len(t, received, 1)
	require.Equal(t, minerAddr.EncodeAddress(), received[0].Address)

	payTo, err := receiver.NewAddress("Received")
	require.NoError(t, err)

	amount := btcutil.Amount(20 * btcutil.SatoshiPerBitcoin)
	txid, err := sender.SendToAddress(payTo, amount)
	require.NoError(t, err)

	entry, err := client.MempoolEntry(txid)
	require.NoError(t, err)
	require.Positive(t, entry.VSize)

	_, err = sender.GenerateToAddress(1, minerAddr)
	require.NoError(t, err)

	_, err = client.MempoolEntry(txid)
	require.True(t, IsRPCError(err, ErrCodeInvalidAddressOrKey))

	walletTx, err := sender.WalletTransaction(txid)
	require.NoError(t, err)
	require.NotNil(t, walletTx.Fee)
	require.NotNil(t, walletTx.BlockHeight)
	require.Equal(t, int32(7), *walletTx.BlockHeight)
	require.Equal(t, int64(1), walletTx.Confirmations)

	feeAmount, err := btcutil.NewAmount(-*walletTx.Fee)
	require.NoError(t, err)
	require.Equal(t, node.TxFee(*txid), feeAmount)

	rawTx, err := client.RawTransaction(txid)
	require.NoError(t, err)
	require.Equal(t, *txid, rawTx.TxHash())
	require.Len(t, rawTx.TxOut, 2)

	// The receiver sees the credit but no fee.
	receiverTx, err := receiver.WalletTransaction(txid)
	require.NoError(t, err)
	require.Nil(t, receiverTx.Fee)
	require.Equal(t, amount.ToBTC(), receiverTx.Amount)
}

func TestSendInsufficientFunds(t *testing.T) {
	t.Parallel()

	_, endpoint, client := newTestClient(t)
	_, err := client.CreateWallet("empty")
	require.NoError(t, err)

	wallet := newWalletClient(t, endpoint, "empty")
	addr, err := wallet.NewAddress("")
	require.NoError(t, err)

	_, err = wallet.SendToAddress(addr, btcutil.SatoshiPerBitcoin)
	require.Error(t, err)
	require.Contains(t, err.Error(), "sendtoaddress")
}
