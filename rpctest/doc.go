// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rpctest provides SimNode, an in-process stand-in for a bitcoind
// regtest node used to exercise btcsettle against a node without starting a
// bitcoind process.
//
// A SimNode serves bitcoind's JSON-RPC protocol over HTTP POST with basic
// authentication, both on the node path and on the wallet scoped
// /wallet/<name> paths.  It implements the subset of commands btcsettle
// consumes:
//
//	getblockchaininfo, getblockcount
//	listwallets, listwalletdir, loadwallet, createwallet
//	getnewaddress, listreceivedbyaddress, getbalance
//	generatetoaddress, sendtoaddress
//	getmempoolentry, gettransaction, getrawtransaction
//
// Blocks and transactions are real wire messages: coinbase outputs and
// payments are paid to P2WPKH scripts, block hashes are header hashes, and
// transaction ids are computed from the serialized transactions.  Coinbase
// outputs follow the maturity rule of the configured chain parameters, which
// may be overridden to keep tests short.
//
// Errors are reported the way bitcoind reports them: a JSON-RPC error object
// with bitcoind's error code and message.
package rpctest
