// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package payment

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcsettle/chain"
)

// DefaultLabel is the label of the receiver's payment address.
const DefaultLabel = "Received"

// ErrNotInMempool is returned when a transaction accepted by send cannot be
// found in the node's mempool.
var ErrNotInMempool = errors.New("transaction is not in the mempool")

// ErrInvalidAmount is returned for a non-positive payment amount.
var ErrInvalidAmount = errors.New("payment amount must be positive")

// Receiver is the RPC surface of the paid wallet.
type Receiver interface {
	NewAddress(label string) (btcutil.Address, error)
}

// Sender is the RPC surface of the paying wallet.
type Sender interface {
	SendToAddress(addr btcutil.Address,
		amount btcutil.Amount) (*chainhash.Hash, error)
	GenerateToAddress(numBlocks int64,
		addr btcutil.Address) ([]*chainhash.Hash, error)
}

// Mempool looks up unconfirmed transactions.
type Mempool interface {
	MempoolEntry(txid *chainhash.Hash) (*btcjson.GetMempoolEntryResult,
		error)
	BlockCount() (int64, error)
}

// A compile-time assertion to ensure that chain.Client implements the
// Receiver, Sender and Mempool interfaces.
var (
	_ Receiver = (*chain.Client)(nil)
	_ Sender   = (*chain.Client)(nil)
	_ Mempool  = (*chain.Client)(nil)
)

// Config holds the collaborators and settings of an Executor.
type Config struct {
	Sender   Sender
	Receiver Receiver
	Mempool  Mempool

	// MiningAddress belongs to the sender and receives the reward of the
	// confirming block.
	MiningAddress btcutil.Address

	// Label is used for the receiver's address.  DefaultLabel is used
	// when empty.
	Label string
}

// Transfer describes a confirmed payment.
type Transfer struct {
	TxID            chainhash.Hash
	ReceiverAddress btcutil.Address
	Amount          btcutil.Amount
	ConfirmHeight   int32
	ConfirmHash     chainhash.Hash
}

// Executor pays the receiver from the sender and confirms the payment.
type Executor struct {
	cfg Config
}

// New returns an Executor for cfg.
func New(cfg Config) *Executor {
	if cfg.Label == "" {
		cfg.Label = DefaultLabel
	}
	return &Executor{cfg: cfg}
}

// Pay sends amount to a new receiver address, checks the transaction reached
// the mempool and mines a block confirming it.
func (e *Executor) Pay(amount btcutil.Amount) (*Transfer, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}

	addr, err := e.cfg.Receiver.NewAddress(e.cfg.Label)
	if err != nil {
		return nil, err
	}
	log.Infof("Receiver address: %v", addr)

	txid, err := e.cfg.Sender.SendToAddress(addr, amount)
	if err != nil {
		return nil, err
	}
	log.Infof("Sent %v to %v in transaction %v", amount, addr, txid)

	entry, err := e.cfg.Mempool.MempoolEntry(txid)
	switch {
	case chain.IsRPCError(err, chain.ErrCodeInvalidAddressOrKey):
		return nil, fmt.Errorf("%w: %v", ErrNotInMempool, txid)

	case err != nil:
		return nil, err
	}
	log.Debugf("Mempool entry for %v: vsize=%d, time=%d", txid,
		entry.VSize, entry.Time)

	hashes, err := e.cfg.Sender.GenerateToAddress(1, e.cfg.MiningAddress)
	if err != nil {
		return nil, err
	}
	if len(hashes) != 1 {
		return nil, fmt.Errorf("%w: generatetoaddress returned %d "+
			"hashes for one block", chain.ErrMalformedResponse,
			len(hashes))
	}

	height, err := e.cfg.Mempool.BlockCount()
	if err != nil {
		return nil, err
	}
	log.Infof("Transaction %v confirmed in block %v at height %d", txid,
		hashes[0], height)

	return &Transfer{
		TxID:            *txid,
		ReceiverAddress: addr,
		Amount:          amount,
		ConfirmHeight:   int32(height),
		ConfirmHash:     *hashes[0],
	}, nil
}
