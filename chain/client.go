// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"
)

// Client is a request/response client to a bitcoind node, or to one wallet of
// that node, over HTTP POST.  Calls are synchronous: each one blocks until the
// node answers.  Errors reported by the node are returned as
// *btcjson.RPCError, wrapped with the name of the failing method.
type Client struct {
	endpoint Endpoint
	client   *rpcclient.Client
}

// NewClient creates a client for the node described by endpoint.  No request
// is made until the first call.
func NewClient(endpoint Endpoint) (*Client, error) {
	if endpoint.Params == nil {
		return nil, errors.New("chain params are required")
	}

	client, err := rpcclient.New(endpoint.connConfig(), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create rpc client for %v: %w",
			endpoint, err)
	}

	return &Client{
		endpoint: endpoint,
		client:   client,
	}, nil
}

// Endpoint returns the endpoint the client talks to.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// Params returns the chain parameters addresses are decoded against.
func (c *Client) Params() *chaincfg.Params {
	return c.endpoint.Params
}

// Shutdown stops the underlying rpc client.
func (c *Client) Shutdown() {
	c.client.Shutdown()
}

// Call issues method with the given positional arguments and returns the raw
// JSON result.  Each argument is JSON encoded as is, so a nil argument is sent
// as null.
func (c *Client) Call(method string, args ...interface{}) (json.RawMessage,
	error) {

	params := make([]json.RawMessage, 0, len(args))
	for i, arg := range args {
		param, err := json.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to encode argument "+
				"%d: %w", method, i, err)
		}
		params = append(params, param)
	}

	log.Tracef("%v <- %s %s", c.endpoint, method, params)

	result, err := c.client.RawRequest(method, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	return result, nil
}

// CallResult issues method like Call and decodes the result into result,
// which must be a pointer.
func (c *Client) CallResult(result interface{}, method string,
	args ...interface{}) error {

	raw, err := c.Call(method, args...)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("%s: %w: %v", method, ErrMalformedResponse,
			err)
	}

	return nil
}

// ChainInfo is the subset of the getblockchaininfo result this package reads.
type ChainInfo struct {
	Chain                string  `json:"chain"`
	Blocks               int64   `json:"blocks"`
	Headers              int64   `json:"headers"`
	BestBlockHash        string  `json:"bestblockhash"`
	Difficulty           float64 `json:"difficulty"`
	InitialBlockDownload bool    `json:"initialblockdownload"`
}

// BlockChainInfo returns the state of the node's best chain.
func (c *Client) BlockChainInfo() (*ChainInfo, error) {
	var info ChainInfo
	if err := c.CallResult(&info, "getblockchaininfo"); err != nil {
		return nil, err
	}

	log.Debugf("Blockchain info: %v", NewLogClosure(func() string {
		return spew.Sdump(info)
	}))

	return &info, nil
}

// VerifyNetwork checks that the node reports chainName, the bitcoind name of
// the network, as its chain.
func (c *Client) VerifyNetwork(chainName string) (*ChainInfo, error) {
	info, err := c.BlockChainInfo()
	if err != nil {
		return nil, err
	}
	if info.Chain != chainName {
		return nil, fmt.Errorf("%w: expected %q, got %q",
			ErrWrongNetwork, chainName, info.Chain)
	}

	return info, nil
}

// BlockCount returns the height of the node's best block.
func (c *Client) BlockCount() (int64, error) {
	count, err := c.client.GetBlockCount()
	if err != nil {
		return 0, fmt.Errorf("getblockcount: %w", err)
	}
	return count, nil
}

// Balance returns the spendable balance of the wallet the client is scoped
// to.  Immature coinbase outputs are not included.
func (c *Client) Balance() (btcutil.Amount, error) {
	balance, err := c.client.GetBalance("*")
	if err != nil {
		return 0, fmt.Errorf("getbalance: %w", err)
	}
	return balance, nil
}

// NewAddress derives a fresh receiving address with the given label.
func (c *Client) NewAddress(label string) (btcutil.Address, error) {
	addr, err := c.client.GetNewAddress(label)
	if err != nil {
		return nil, fmt.Errorf("getnewaddress: %w", err)
	}
	return addr, nil
}

// GenerateToAddress mines numBlocks blocks paying their coinbase to addr and
// returns the hashes of the new blocks.
func (c *Client) GenerateToAddress(numBlocks int64,
	addr btcutil.Address) ([]*chainhash.Hash, error) {

	hashes, err := c.client.GenerateToAddress(numBlocks, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("generatetoaddress: %w", err)
	}
	return hashes, nil
}

// RawTransaction returns the transaction with the given id as the node
// serializes it.  Confirmed transactions outside the wallet are only
// available when the node maintains a transaction index.
func (c *Client) RawTransaction(txid *chainhash.Hash) (*wire.MsgTx, error) {
	tx, err := c.client.GetRawTransaction(txid)
	if err != nil {
		return nil, fmt.Errorf("getrawtransaction %v: %w", txid, err)
	}

	log.Tracef("Raw transaction %v: %v", txid, NewLogClosure(
		func() string {
			return spew.Sdump(tx.MsgTx())
		}),
	)

	return tx.MsgTx(), nil
}

// MempoolEntry returns the unconfirmed pool entry of txid.  A transaction that
// is not in the pool results in an RPC error with code
// ErrCodeInvalidAddressOrKey.
func (c *Client) MempoolEntry(
	txid *chainhash.Hash) (*btcjson.GetMempoolEntryResult, error) {

	var entry btcjson.GetMempoolEntryResult
	err := c.CallResult(&entry, "getmempoolentry", txid.String())
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
