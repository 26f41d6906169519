// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ListWallets returns the names of the wallets currently loaded by the node.
func (c *Client) ListWallets() ([]string, error) {
	var names []string
	if err := c.CallResult(&names, "listwallets"); err != nil {
		return nil, err
	}
	return names, nil
}

// walletDirResult models the result of the listwalletdir command.
type walletDirResult struct {
	Wallets []struct {
		Name string `json:"name"`
	} `json:"wallets"`
}

// ListWalletDir returns the names of the wallets present in the node's wallet
// directory, loaded or not.
func (c *Client) ListWalletDir() ([]string, error) {
	var dir walletDirResult
	if err := c.CallResult(&dir, "listwalletdir"); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(dir.Wallets))
	for _, w := range dir.Wallets {
		names = append(names, w.Name)
	}
	return names, nil
}

// LoadWallet loads the named wallet from the node's wallet directory.
func (c *Client) LoadWallet(name string) (*btcjson.LoadWalletResult, error) {
	var res btcjson.LoadWalletResult
	if err := c.CallResult(&res, "loadwallet", name); err != nil {
		return nil, err
	}
	return &res, nil
}

// CreateWallet creates and loads a new wallet with the node's default
// options.
func (c *Client) CreateWallet(
	name string) (*btcjson.CreateWalletResult, error) {

	var res btcjson.CreateWalletResult
	if err := c.CallResult(&res, "createwallet", name); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListReceivedByAddress lists the wallet's addresses that have received funds
// with at least one confirmation, in the order the node returns them.
func (c *Client) ListReceivedByAddress() (
	[]btcjson.ListReceivedByAddressResult, error) {

	var res []btcjson.ListReceivedByAddressResult
	if err := c.CallResult(&res, "listreceivedbyaddress"); err != nil {
		return nil, err
	}
	return res, nil
}

// WalletTx is the wallet view of a transaction as returned by gettransaction.
// Fields the node omits for some transactions are pointers so that their
// absence can be told apart from a zero value.
type WalletTx struct {
	TxID          string   `json:"txid"`
	Amount        float64  `json:"amount"`
	Fee           *float64 `json:"fee"`
	Confirmations int64    `json:"confirmations"`
	BlockHash     string   `json:"blockhash"`
	BlockHeight   *int32   `json:"blockheight"`
	BlockIndex    int64    `json:"blockindex"`
	BlockTime     int64    `json:"blocktime"`
	Time          int64    `json:"time"`
	Hex           string   `json:"hex"`
}

// WalletTransaction returns the wallet view of txid, which carries the fee and
// confirmation data absent from the raw transaction.
func (c *Client) WalletTransaction(txid *chainhash.Hash) (*WalletTx, error) {
	var tx WalletTx
	if err := c.CallResult(&tx, "gettransaction", txid.String()); err != nil {
		return nil, err
	}
	return &tx, nil
}

// SendToAddress pays amount to addr from the wallet the client is scoped to
// and returns the id of the new transaction.  The node selects the inputs,
// the fee and the change output.
func (c *Client) SendToAddress(addr btcutil.Address,
	amount btcutil.Amount) (*chainhash.Hash, error) {

	txid, err := c.client.SendToAddress(addr, amount)
	if err != nil {
		return nil, fmt.Errorf("sendtoaddress: %w", err)
	}
	return txid, nil
}
