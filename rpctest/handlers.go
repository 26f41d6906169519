// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpctest

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

func invalidParameter(format string, args ...interface{}) *btcjson.RPCError {
	return btcjson.NewRPCError(errCodeInvalidParameter,
		fmt.Sprintf(format, args...))
}

// param decodes the positional parameter i into v.  Missing and null
// parameters leave v untouched and return false.
func param(params []json.RawMessage, i int, v interface{}) (bool,
	*btcjson.RPCError) {

	if i >= len(params) || string(params[i]) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(params[i], v); err != nil {
		return false, invalidParameter("parameter %d: %v", i+1, err)
	}
	return true, nil
}

// requiredParam decodes the positional parameter i into v and fails when it
// is missing.
func requiredParam(params []json.RawMessage, i int,
	v interface{}) *btcjson.RPCError {

	ok, err := param(params, i, v)
	if err != nil {
		return err
	}
	if !ok {
		return invalidParameter("missing parameter %d", i+1)
	}
	return nil
}

func txidParam(params []json.RawMessage, i int) (*chainhash.Hash,
	*btcjson.RPCError) {

	var s string
	if err := requiredParam(params, i, &s); err != nil {
		return nil, err
	}
	txid, err := chainhash.NewHashFromStr(s)
	if err != nil || len(s) != 2*chainhash.HashSize {
		return nil, invalidParameter("txid must be of length 64 "+
			"(not %d, for '%s')", len(s), s)
	}
	return txid, nil
}

func handleGetBlockChainInfo(n *SimNode, _ []json.RawMessage) (interface{},
	*btcjson.RPCError) {

	tip := n.tip()
	return map[string]interface{}{
		"chain":                "regtest",
		"blocks":               tip.height,
		"headers":              tip.height,
		"bestblockhash":        tip.hash.String(),
		"difficulty":           4.656542373906925e-10,
		"initialblockdownload": tip.height == 0,
		"warnings":             []string{},
	}, nil
}

func handleGetBlockCount(n *SimNode, _ []json.RawMessage) (interface{},
	*btcjson.RPCError) {

	return n.tip().height, nil
}

func handleListWallets(n *SimNode, _ []json.RawMessage) (interface{},
	*btcjson.RPCError) {

	return append([]string{}, n.loaded...), nil
}

func handleListWalletDir(n *SimNode, _ []json.RawMessage) (interface{},
	*btcjson.RPCError) {

	type entry struct {
		Name string `json:"name"`
	}
	entries := make([]entry, 0, len(n.wallets))
	for name := range n.wallets {
		entries = append(entries, entry{Name: name})
	}
	return map[string]interface{}{"wallets": entries}, nil
}

func handleLoadWallet(n *SimNode, params []json.RawMessage) (interface{},
	*btcjson.RPCError) {

	var name string
	if err := requiredParam(params, 0, &name); err != nil {
		return nil, err
	}
	if _, ok := n.wallets[name]; !ok {
		return nil, btcjson.NewRPCError(errCodeWalletNotFound,
			fmt.Sprintf("Wallet file verification failed. Failed "+
				"to load database path '%s'. Path does not "+
				"exist.", name))
	}
	if n.isLoaded(name) {
		return nil, btcjson.NewRPCError(errCodeAlreadyLoaded,
			fmt.Sprintf("Wallet \"%s\" is already loaded.", name))
	}

	n.loaded = append(n.loaded, name)
	return map[string]interface{}{"name": name, "warning": ""}, nil
}

func handleCreateWallet(n *SimNode, params []json.RawMessage) (interface{},
	*btcjson.RPCError) {

	var name string
	if err := requiredParam(params, 0, &name); err != nil {
		return nil, err
	}
	if _, ok := n.wallets[name]; ok {
		return nil, btcjson.NewRPCError(errCodeWallet,
			fmt.Sprintf("Wallet file verification failed. Failed "+
				"to create database path '%s'. Database "+
				"already exists.", name))
	}

	n.wallets[name] = newSimWallet(name)
	n.loaded = append(n.loaded, name)
	return map[string]interface{}{"name": name, "warning": ""}, nil
}

func handleGetNewAddress(n *SimNode, w *simWallet,
	params []json.RawMessage) (interface{}, *btcjson.RPCError) {

	var label string
	if _, err := param(params, 0, &label); err != nil {
		return nil, err
	}
	if label == "*" {
		return nil, btcjson.NewRPCError(errCodeWallet,
			"Invalid label name")
	}

	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, btcjson.NewRPCError(errCodeWallet, err.Error())
	}
	pubKeyHash := btcutil.Hash160(priv.PubKey().SerializeCompressed())
	addr, err := btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, n.params)
	if err != nil {
		return nil, btcjson.NewRPCError(errCodeWallet, err.Error())
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, btcjson.NewRPCError(errCodeWallet, err.Error())
	}

	w.addrs = append(w.addrs, &simAddr{
		addr:   addr,
		label:  label,
		script: script,
	})
	n.owners[string(script)] = w.name

	return addr.EncodeAddress(), nil
}

func handleListReceivedByAddress(n *SimNode, w *simWallet,
	_ []json.RawMessage) (interface{}, *btcjson.RPCError) {

	type received struct {
		Address       string   `json:"address"`
		Amount        float64  `json:"amount"`
		Confirmations int32    `json:"confirmations"`
		Label         string   `json:"label"`
		TxIDs         []string `json:"txids"`
	}

	results := make([]received, 0, len(w.addrs))
	for _, a := range w.addrs {
		var (
			total  btcutil.Amount
			minDep int32
			txids  []string
		)
		for _, op := range n.walletOutPoints(w) {
			u := n.outputs[op]
			t := n.txs[op.Hash]
			if !bytes.Equal(u.script, a.script) || !t.confirmed() {
				continue
			}
			d := n.depth(t.height)
			if minDep == 0 || d < minDep {
				minDep = d
			}
			total += u.value
			txids = append(txids, op.Hash.String())
		}
		if total == 0 {
			continue
		}
		results = append(results, received{
			Address:       a.addr.EncodeAddress(),
			Amount:        total.ToBTC(),
			Confirmations: minDep,
			Label:         a.label,
			TxIDs:         txids,
		})
	}

	return results, nil
}

func handleGetBalance(n *SimNode, w *simWallet,
	params []json.RawMessage) (interface{}, *btcjson.RPCError) {

	var dummy string
	if ok, err := param(params, 0, &dummy); err != nil {
		return nil, err
	} else if ok && dummy != "*" {
		return nil, btcjson.NewRPCError(errCodeMisc,
			"dummy first argument must be excluded or set to \"*\".")
	}

	var balance btcutil.Amount
	for _, op := range n.walletOutPoints(w) {
		u := n.outputs[op]
		if n.spendable(op, u) {
			balance += u.value
		}
	}
	return balance.ToBTC(), nil
}

func handleGenerateToAddress(n *SimNode, params []json.RawMessage) (
	interface{}, *btcjson.RPCError) {

	var (
		numBlocks int32
		encoded   string
	)
	if err := requiredParam(params, 0, &numBlocks); err != nil {
		return nil, err
	}
	if err := requiredParam(params, 1, &encoded); err != nil {
		return nil, err
	}
	addr, err := btcutil.DecodeAddress(encoded, n.params)
	if err != nil || !addr.IsForNet(n.params) {
		return nil, btcjson.NewRPCError(errCodeInvalidAddress,
			"Error: Invalid address")
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, btcjson.NewRPCError(errCodeInvalidAddress,
			err.Error())
	}

	hashes := make([]string, 0, numBlocks)
	for i := int32(0); i < numBlocks; i++ {
		block := n.mineBlock(script)
		hashes = append(hashes, block.hash.String())
	}
	return hashes, nil
}

// mineBlock extends the best chain with a block confirming the whole mempool
// and paying subsidy plus fees to script.
func (n *SimNode) mineBlock(script []byte) *simBlock {
	prev := n.tip()
	height := prev.height + 1

	var fees btcutil.Amount
	for _, txid := range n.mempool {
		fees += n.txs[txid].fee
	}
	subsidy := btcutil.Amount(blockchain.CalcBlockSubsidy(height, n.params))

	// The height in the coinbase script keeps coinbase txids unique.
	sigScript, _ := txscript.NewScriptBuilder().
		AddInt64(int64(height)).AddOp(txscript.OP_0).Script()
	coinbase := wire.NewMsgTx(wire.TxVersion)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{},
			wire.MaxPrevOutIndex),
		SignatureScript: sigScript,
		Sequence:        wire.MaxTxInSequenceNum,
	})
	coinbase.AddTxOut(wire.NewTxOut(int64(subsidy+fees), script))
	coinbaseHash := coinbase.TxHash()

	block := &simBlock{
		header: wire.BlockHeader{
			Version:    0x20000000,
			PrevBlock:  prev.hash,
			MerkleRoot: coinbaseHash,
			Timestamp:  prev.header.Timestamp.Add(time.Second),
			Bits:       n.params.PowLimitBits,
		},
		height: height,
	}
	block.hash = block.header.BlockHash()

	n.addTx(coinbase, true, 0)
	block.txs = append(block.txs, coinbaseHash)
	block.txs = append(block.txs, n.mempool...)
	n.mempool = nil

	for i, txid := range block.txs {
		t := n.txs[txid]
		t.height = height
		t.block = &block.hash
		t.index = i
	}
	n.blocks = append(n.blocks, block)

	return block
}

// addTx records tx and its outputs.  Wallets owning an output or a spent
// output learn about the transaction.
func (n *SimNode) addTx(tx *wire.MsgTx, coinbase bool, fee btcutil.Amount) {
	txid := tx.TxHash()
	n.txs[txid] = &simTx{
		tx:       tx,
		coinbase: coinbase,
		fee:      fee,
		height:   n.tip().height + 1,
		received: time.Now(),
	}

	if !coinbase {
		for _, in := range tx.TxIn {
			prev := n.outputs[in.PreviousOutPoint]
			prev.spent = true
			if w, ok := n.wallets[prev.owner]; ok {
				w.txs[txid] = struct{}{}
			}
		}
	}
	for i, out := range tx.TxOut {
		owner := n.owners[string(out.PkScript)]
		n.outputs[wire.OutPoint{Hash: txid, Index: uint32(i)}] = &simUtxo{
			value:    btcutil.Amount(out.Value),
			script:   out.PkScript,
			owner:    owner,
			coinbase: coinbase,
			tx:       txid,
		}
		if w, ok := n.wallets[owner]; ok {
			w.txs[txid] = struct{}{}
		}
	}
}

func handleSendToAddress(n *SimNode, w *simWallet,
	params []json.RawMessage) (interface{}, *btcjson.RPCError) {

	var (
		encoded string
		value   float64
	)
	if err := requiredParam(params, 0, &encoded); err != nil {
		return nil, err
	}
	if err := requiredParam(params, 1, &value); err != nil {
		return nil, err
	}

	addr, err := btcutil.DecodeAddress(encoded, n.params)
	if err != nil || !addr.IsForNet(n.params) {
		return nil, btcjson.NewRPCError(errCodeInvalidAddress,
			"Invalid Bitcoin address: "+encoded)
	}
	amount, err := btcutil.NewAmount(value)
	if err != nil || amount <= 0 {
		return nil, btcjson.NewRPCError(errCodeInvalidAmount,
			"Invalid amount for send")
	}

	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, btcjson.NewRPCError(errCodeInvalidAddress,
			err.Error())
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(wire.NewTxOut(int64(amount), script))

	var selected btcutil.Amount
	for _, op := range n.walletOutPoints(w) {
		if selected >= amount+n.fee {
			break
		}
		u := n.outputs[op]
		if !n.spendable(op, u) {
			continue
		}
		op := op
		tx.AddTxIn(wire.NewTxIn(&op, nil, nil))
		selected += u.value
	}
	if selected < amount+n.fee {
		return nil, btcjson.NewRPCError(errCodeInsufficientFund,
			"Insufficient funds")
	}

	fee := n.fee
	change := selected - amount - fee
	if change >= dustLimit {
		changeAddr, rpcErr := handleGetNewAddress(n, w, nil)
		if rpcErr != nil {
			return nil, rpcErr
		}
		addr, _ := btcutil.DecodeAddress(changeAddr.(string), n.params)
		script, _ := txscript.PayToAddrScript(addr)
		changeOut := wire.NewTxOut(int64(change), script)

		// Like bitcoind, the change position is random.
		pos := rand.Intn(len(tx.TxOut) + 1)
		tx.TxOut = append(tx.TxOut, nil)
		copy(tx.TxOut[pos+1:], tx.TxOut[pos:])
		tx.TxOut[pos] = changeOut
	} else {
		fee += change
	}

	n.addTx(tx, false, fee)
	txid := tx.TxHash()
	n.mempool = append(n.mempool, txid)

	return txid.String(), nil
}

func handleGetMempoolEntry(n *SimNode, params []json.RawMessage) (
	interface{}, *btcjson.RPCError) {

	txid, rpcErr := txidParam(params, 0)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if !n.inMempool(*txid) {
		return nil, btcjson.NewRPCError(errCodeInvalidAddress,
			"Transaction not in mempool")
	}

	t := n.txs[*txid]
	vsize := int64(mempoolVSize(t.tx))
	fee := t.fee.ToBTC()
	return map[string]interface{}{
		"vsize":  vsize,
		"weight": vsize * 4,
		"time":   t.received.Unix(),
		"height": n.tip().height,
		"fees": map[string]float64{
			"base":       fee,
			"modified":   fee,
			"ancestor":   fee,
			"descendant": fee,
		},
		"depends":            []string{},
		"spentby":            []string{},
		"bip125-replaceable": true,
	}, nil
}

// mempoolVSize approximates the virtual size of a signed P2WPKH spend of tx.
func mempoolVSize(tx *wire.MsgTx) int {
	return tx.SerializeSizeStripped() + 27*len(tx.TxIn)
}

func handleGetRawTransaction(n *SimNode, params []json.RawMessage) (
	interface{}, *btcjson.RPCError) {

	txid, rpcErr := txidParam(params, 0)
	if rpcErr != nil {
		return nil, rpcErr
	}

	t, ok := n.txs[*txid]
	if !ok || (t.confirmed() && !n.txIndex) {
		return nil, btcjson.NewRPCError(errCodeInvalidAddress,
			"No such mempool transaction. Use -txindex or provide "+
				"a block hash to enable blockchain transaction "+
				"queries. Use gettransaction for wallet "+
				"transactions.")
	}

	var buf bytes.Buffer
	if err := t.tx.Serialize(&buf); err != nil {
		return nil, btcjson.NewRPCError(errCodeMisc, err.Error())
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

func handleGetTransaction(n *SimNode, w *simWallet,
	params []json.RawMessage) (interface{}, *btcjson.RPCError) {

	txid, rpcErr := txidParam(params, 0)
	if rpcErr != nil {
		return nil, rpcErr
	}

	t, ok := n.txs[*txid]
	if _, mine := w.txs[*txid]; !ok || !mine {
		return nil, btcjson.NewRPCError(errCodeInvalidAddress,
			"Invalid or non-wallet transaction id")
	}

	var credit, debit btcutil.Amount
	for i, out := range t.tx.TxOut {
		op := wire.OutPoint{Hash: *txid, Index: uint32(i)}
		if n.outputs[op].owner == w.name {
			credit += btcutil.Amount(out.Value)
		}
	}
	if !t.coinbase {
		for _, in := range t.tx.TxIn {
			prev := n.outputs[in.PreviousOutPoint]
			if prev.owner == w.name {
				debit += prev.value
			}
		}
	}

	var buf bytes.Buffer
	_ = t.tx.Serialize(&buf)

	result := map[string]interface{}{
		"txid":          txid.String(),
		"confirmations": 0,
		"time":          t.received.Unix(),
		"timereceived":  t.received.Unix(),
		"hex":           hex.EncodeToString(buf.Bytes()),
	}
	if debit > 0 {
		result["amount"] = (credit - debit + t.fee).ToBTC()
		result["fee"] = (-t.fee).ToBTC()
	} else {
		result["amount"] = credit.ToBTC()
	}
	if t.coinbase {
		result["generated"] = true
	}
	if t.confirmed() {
		block := n.blocks[t.height]
		result["confirmations"] = n.depth(t.height)
		result["blockhash"] = t.block.String()
		result["blockheight"] = t.height
		result["blockindex"] = t.index
		result["blocktime"] = block.header.Timestamp.Unix()
	}

	return result, nil
}
