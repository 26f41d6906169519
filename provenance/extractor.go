// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package provenance

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcsettle/chain"
)

// WalletView returns the wallet's record of a transaction, which carries the
// fee and the confirming block.
type WalletView interface {
	WalletTransaction(txid *chainhash.Hash) (*chain.WalletTx, error)
}

// RawView returns transactions as serialized by the node.  It serves the
// transactions the wallet does not know, and for confirmed ones requires a
// node running with a transaction index.
type RawView interface {
	RawTransaction(txid *chainhash.Hash) (*wire.MsgTx, error)
}

// A compile-time assertion to ensure that chain.Client implements the
// WalletView and RawView interfaces.
var (
	_ WalletView = (*chain.Client)(nil)
	_ RawView    = (*chain.Client)(nil)
)

// Config holds the collaborators of an Extractor.
type Config struct {
	// Wallet is scoped to the sending wallet.
	Wallet WalletView

	// Node serves raw transactions.
	Node RawView

	// Params decode output scripts into addresses.
	Params *chaincfg.Params
}

// Extractor reconstructs the settlement detail of a confirmed payment from
// node data.
type Extractor struct {
	cfg Config
}

// New returns an Extractor for cfg.
func New(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract builds the Record of the payment txid made to receiver.  It either
// returns a complete record satisfying Record.Validate or an error.
func (e *Extractor) Extract(txid *chainhash.Hash,
	receiver btcutil.Address) (*Record, error) {

	walletTx, err := e.cfg.Wallet.WalletTransaction(txid)
	if err != nil {
		return nil, err
	}
	tx, err := e.fromWallet(txid, walletTx)
	if err != nil {
		return nil, err
	}
	if tx.TxHash() != *txid {
		return nil, fmt.Errorf("%w: raw transaction hashes to %v, "+
			"requested %v", chain.ErrMalformedResponse, tx.TxHash(),
			txid)
	}

	spent, err := e.SpentOutputs(tx)
	if err != nil {
		return nil, err
	}
	sender := spent[0].Address
	if sender.IsNone() {
		log.Warnf("Script of output %v spent by %v does not decode "+
			"to an address", spent[0].OutPoint, txid)
	}

	var input btcutil.Amount
	for _, s := range spent {
		input += s.Value
	}

	split, err := SplitOutputs(Classify(tx.TxOut, receiver, e.cfg.Params))
	if err != nil {
		return nil, fmt.Errorf("classify outputs of %v: %w", txid, err)
	}

	fee, err := walletFee(walletTx)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", txid, err)
	}
	height, hash, err := confirmingBlock(walletTx)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", txid, err)
	}

	record := &Record{
		TxID:            *txid,
		SenderAddress:   sender,
		SenderInput:     input,
		ReceiverAddress: receiver,
		ReceiverAmount:  split.Payment.Value,
		ChangeAddress:   split.ChangeAddress(),
		ChangeAmount:    split.ChangeAmount(),
		Fee:             fee,
		BlockHeight:     height,
		BlockHash:       *hash,
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", txid, err)
	}

	log.Infof("Extracted payment %v: %v to %v, change %v, fee %v",
		txid, record.ReceiverAmount, receiver, record.ChangeAmount,
		record.Fee)

	return record, nil
}

// SpentOutputs follows every input of tx back to the output it spends, in
// input order.  Each previous transaction is fetched once, from the wallet
// when it knows the transaction and from the node otherwise.
func (e *Extractor) SpentOutputs(tx *wire.MsgTx) ([]SpentOutput, error) {
	if len(tx.TxIn) == 0 {
		return nil, ErrNoInputs
	}

	prevTxs := make(map[chainhash.Hash]*wire.MsgTx)
	spent := make([]SpentOutput, 0, len(tx.TxIn))
	for _, txIn := range tx.TxIn {
		op := txIn.PreviousOutPoint

		prevTx, ok := prevTxs[op.Hash]
		if !ok {
			var err error
			prevTx, err = e.transaction(&op.Hash)
			if err != nil {
				return nil, err
			}
			prevTxs[op.Hash] = prevTx
		}

		if op.Index >= uint32(len(prevTx.TxOut)) {
			return nil, fmt.Errorf("%w: %v has %d outputs",
				ErrOutputIndex, op, len(prevTx.TxOut))
		}
		prevOut := prevTx.TxOut[op.Index]

		spent = append(spent, SpentOutput{
			OutPoint: op,
			Value:    btcutil.Amount(prevOut.Value),
			PkScript: prevOut.PkScript,
			Address:  DecodeScript(prevOut.PkScript, e.cfg.Params),
		})
	}

	return spent, nil
}

// transaction returns txid as recorded by the wallet, falling back to the
// node when the wallet does not know it.
func (e *Extractor) transaction(txid *chainhash.Hash) (*wire.MsgTx, error) {
	walletTx, err := e.cfg.Wallet.WalletTransaction(txid)
	switch {
	case chain.IsRPCError(err, chain.ErrCodeInvalidAddressOrKey):
		return e.cfg.Node.RawTransaction(txid)

	case err != nil:
		return nil, err
	}

	return e.fromWallet(txid, walletTx)
}

// fromWallet decodes the serialized transaction carried by the wallet view.
// Views without one are looked up on the node.
func (e *Extractor) fromWallet(txid *chainhash.Hash,
	walletTx *chain.WalletTx) (*wire.MsgTx, error) {

	if walletTx.Hex == "" {
		return e.cfg.Node.RawTransaction(txid)
	}

	serialized, err := hex.DecodeString(walletTx.Hex)
	if err != nil {
		return nil, fmt.Errorf("%w: hex of %v: %v",
			chain.ErrMalformedResponse, txid, err)
	}

	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(serialized)); err != nil {
		return nil, fmt.Errorf("%w: transaction %v: %v",
			chain.ErrMalformedResponse, txid, err)
	}
	return &tx, nil
}

// walletFee returns the fee the wallet paid, which the node reports as a
// negative BTC value.
func walletFee(tx *chain.WalletTx) (btcutil.Amount, error) {
	if tx.Fee == nil {
		return 0, ErrMissingFee
	}

	fee, err := btcutil.NewAmount(math.Abs(*tx.Fee))
	if err != nil {
		return 0, fmt.Errorf("%w: fee %v: %v",
			chain.ErrMalformedResponse, *tx.Fee, err)
	}
	return fee, nil
}

// confirmingBlock returns the height and hash of the block confirming tx.
func confirmingBlock(tx *chain.WalletTx) (int32, *chainhash.Hash, error) {
	if tx.Confirmations < 1 || tx.BlockHeight == nil ||
		tx.BlockHash == "" {

		return 0, nil, fmt.Errorf("%w: %d confirmations",
			ErrUnconfirmed, tx.Confirmations)
	}

	hash, err := chainhash.NewHashFromStr(tx.BlockHash)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: block hash %q: %v",
			chain.ErrMalformedResponse, tx.BlockHash, err)
	}
	return *tx.BlockHeight, hash, nil
}
