// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpctest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

const (
	// DefaultUser and DefaultPass are the credentials a SimNode accepts
	// unless others are given.
	DefaultUser = "alice"
	DefaultPass = "password"

	// DefaultFee is the absolute fee paid by every transaction created
	// with send.
	DefaultFee = btcutil.Amount(1410)

	// dustLimit is the smallest change output send creates.  Smaller
	// change is added to the fee.
	dustLimit = btcutil.Amount(546)
)

// Error codes used by bitcoind for the failures a SimNode reproduces.
const (
	errCodeMisc             btcjson.RPCErrorCode = -1
	errCodeInvalidAmount    btcjson.RPCErrorCode = -3
	errCodeInvalidParameter btcjson.RPCErrorCode = -8
	errCodeInvalidAddress   btcjson.RPCErrorCode = -5
	errCodeWallet           btcjson.RPCErrorCode = -4
	errCodeInsufficientFund btcjson.RPCErrorCode = -6
	errCodeWalletNotFound   btcjson.RPCErrorCode = -18
	errCodeWalletNotSpec    btcjson.RPCErrorCode = -19
	errCodeAlreadyLoaded    btcjson.RPCErrorCode = -35
	errCodeMethodNotFound   btcjson.RPCErrorCode = -32601
	errCodeParse            btcjson.RPCErrorCode = -32700
)

// simAddr is an address owned by a simulated wallet.
type simAddr struct {
	addr   btcutil.Address
	label  string
	script []byte
}

// simWallet is a wallet in the simulated wallet directory.
type simWallet struct {
	name  string
	addrs []*simAddr
	txs   map[chainhash.Hash]struct{}
}

// simTx is a transaction known to the node, confirmed or not.
type simTx struct {
	tx       *wire.MsgTx
	coinbase bool
	fee      btcutil.Amount
	height   int32
	block    *chainhash.Hash
	index    int
	received time.Time
}

func (t *simTx) confirmed() bool {
	return t.block != nil
}

// simUtxo is an output created by a known transaction.  Spent outputs are
// kept so wallets can compute their debits.
type simUtxo struct {
	value    btcutil.Amount
	script   []byte
	owner    string
	coinbase bool
	tx       chainhash.Hash
	spent    bool
}

// simBlock is a block of the simulated best chain.
type simBlock struct {
	header wire.BlockHeader
	hash   chainhash.Hash
	height int32
	txs    []chainhash.Hash
}

// SimNode is an in-process bitcoind regtest node serving JSON-RPC over HTTP.
// It is safe for concurrent use.
type SimNode struct {
	params *chaincfg.Params
	user   string
	pass   string
	server *httptest.Server

	mtx       sync.Mutex
	maturity  int32
	fee       btcutil.Amount
	txIndex   bool
	wallets   map[string]*simWallet
	loaded    []string
	owners    map[string]string
	blocks    []*simBlock
	txs       map[chainhash.Hash]*simTx
	mempool   []chainhash.Hash
	outputs   map[wire.OutPoint]*simUtxo
	disabled  map[string]struct{}
	failures  map[string]*btcjson.RPCError
	calls     map[string]int
	callOrder []string
}

// New starts a SimNode for params that accepts the default credentials.  The
// chain starts at the genesis block with an empty wallet directory.
func New(params *chaincfg.Params) *SimNode {
	return NewWithAuth(params, DefaultUser, DefaultPass)
}

// NewWithAuth starts a SimNode for params that accepts the given credentials.
func NewWithAuth(params *chaincfg.Params, user, pass string) *SimNode {
	n := &SimNode{
		params:   params,
		user:     user,
		pass:     pass,
		maturity: int32(params.CoinbaseMaturity),
		fee:      DefaultFee,
		txIndex:  true,
		wallets:  make(map[string]*simWallet),
		owners:   make(map[string]string),
		txs:      make(map[chainhash.Hash]*simTx),
		outputs:  make(map[wire.OutPoint]*simUtxo),
		disabled: make(map[string]struct{}),
		failures: make(map[string]*btcjson.RPCError),
		calls:    make(map[string]int),
	}

	genesis := params.GenesisBlock.Header
	n.blocks = append(n.blocks, &simBlock{
		header: genesis,
		hash:   *params.GenesisHash,
		height: 0,
	})

	n.server = httptest.NewServer(http.HandlerFunc(n.serveHTTP))

	return n
}

// Host returns the host:port the node listens on.
func (n *SimNode) Host() string {
	return strings.TrimPrefix(n.server.URL, "http://")
}

// User returns the RPC user name the node accepts.
func (n *SimNode) User() string {
	return n.user
}

// Pass returns the RPC password the node accepts.
func (n *SimNode) Pass() string {
	return n.pass
}

// TearDown stops the HTTP server.
func (n *SimNode) TearDown() {
	n.server.Close()
}

// SetCoinbaseMaturity overrides the number of blocks a coinbase output must
// be buried under before it becomes spendable.
func (n *SimNode) SetCoinbaseMaturity(maturity uint16) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.maturity = int32(maturity)
}

// SetFee sets the absolute fee paid by transactions created with send.
func (n *SimNode) SetFee(fee btcutil.Amount) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.fee = fee
}

// SetTxIndex toggles whether getrawtransaction serves confirmed
// transactions.
func (n *SimNode) SetTxIndex(enabled bool) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.txIndex = enabled
}

// DisableMethod makes the node answer method with "Method not found", the way
// an older bitcoind does for commands it does not know.
func (n *SimNode) DisableMethod(method string) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.disabled[method] = struct{}{}
}

// FailNext makes the next call of method fail with the given error.
func (n *SimNode) FailNext(method string, code btcjson.RPCErrorCode,
	message string) {

	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.failures[method] = btcjson.NewRPCError(code, message)
}

// AddWallet places a wallet in the wallet directory without loading it.
func (n *SimNode) AddWallet(name string) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if _, ok := n.wallets[name]; !ok {
		n.wallets[name] = newSimWallet(name)
	}
}

// UnloadWallet unloads the named wallet, keeping it in the wallet directory.
func (n *SimNode) UnloadWallet(name string) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.unload(name)
}

// LoadedWallets returns the names of the loaded wallets in load order.
func (n *SimNode) LoadedWallets() []string {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return append([]string(nil), n.loaded...)
}

// Calls returns how many times method has been called.
func (n *SimNode) Calls(method string) int {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return n.calls[method]
}

// CallOrder returns every method called so far, in order.
func (n *SimNode) CallOrder() []string {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return append([]string(nil), n.callOrder...)
}

// Height returns the height of the best block.
func (n *SimNode) Height() int32 {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return n.tip().height
}

// BlockHash returns the hash of the best chain block at height.
func (n *SimNode) BlockHash(height int32) chainhash.Hash {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return n.blocks[height].hash
}

// Tx returns a copy of a known transaction, or nil.
func (n *SimNode) Tx(txid chainhash.Hash) *wire.MsgTx {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	t, ok := n.txs[txid]
	if !ok {
		return nil
	}
	return t.tx.Copy()
}

// TxFee returns the fee paid by a known transaction.
func (n *SimNode) TxFee(txid chainhash.Hash) btcutil.Amount {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if t, ok := n.txs[txid]; ok {
		return t.fee
	}
	return 0
}

// InMempool reports whether txid waits in the unconfirmed pool.
func (n *SimNode) InMempool(txid chainhash.Hash) bool {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return n.inMempool(txid)
}

// EvictFromMempool drops txid from the unconfirmed pool without confirming
// it.
func (n *SimNode) EvictFromMempool(txid chainhash.Hash) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	for i, h := range n.mempool {
		if h == txid {
			n.mempool = append(n.mempool[:i], n.mempool[i+1:]...)
			return
		}
	}
}

// request is a JSON-RPC 1.0 request as sent by rpcclient.
type request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     interface{}       `json:"id"`
}

// response is a JSON-RPC response as written by bitcoind.
type response struct {
	Result interface{}       `json:"result"`
	Error  *btcjson.RPCError `json:"error"`
	ID     interface{}       `json:"id"`
}

func (n *SimNode) serveHTTP(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != n.user || pass != n.pass {
		w.Header().Set("WWW-Authenticate", `Basic realm="jsonrpc"`)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, &response{
			Error: btcjson.NewRPCError(errCodeParse, "Parse error"),
		})
		return
	}

	walletName, scoped := walletFromPath(r.URL.Path)

	n.mtx.Lock()
	result, rpcErr := n.dispatch(&req, walletName, scoped)
	n.mtx.Unlock()

	writeResponse(w, &response{Result: result, Error: rpcErr, ID: req.ID})
}

func writeResponse(w http.ResponseWriter, resp *response) {
	w.Header().Set("Content-Type", "application/json")
	if resp.Error != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// walletFromPath extracts the wallet name from a /wallet/<name> path.
func walletFromPath(path string) (string, bool) {
	const prefix = "/wallet/"
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	return strings.TrimPrefix(path, prefix), true
}

type handler func(n *SimNode, params []json.RawMessage) (interface{},
	*btcjson.RPCError)

type walletHandler func(n *SimNode, w *simWallet,
	params []json.RawMessage) (interface{}, *btcjson.RPCError)

var nodeHandlers = map[string]handler{
	"getblockchaininfo": handleGetBlockChainInfo,
	"getblockcount":     handleGetBlockCount,
	"listwallets":       handleListWallets,
	"listwalletdir":     handleListWalletDir,
	"loadwallet":        handleLoadWallet,
	"createwallet":      handleCreateWallet,
	"generatetoaddress": handleGenerateToAddress,
	"getmempoolentry":   handleGetMempoolEntry,
	"getrawtransaction": handleGetRawTransaction,
}

var walletHandlers = map[string]walletHandler{
	"getnewaddress":         handleGetNewAddress,
	"listreceivedbyaddress": handleListReceivedByAddress,
	"getbalance":            handleGetBalance,
	"sendtoaddress":         handleSendToAddress,
	"gettransaction":        handleGetTransaction,
}

func (n *SimNode) dispatch(req *request, walletName string,
	scoped bool) (interface{}, *btcjson.RPCError) {

	n.calls[req.Method]++
	n.callOrder = append(n.callOrder, req.Method)

	if err, ok := n.failures[req.Method]; ok {
		delete(n.failures, req.Method)
		return nil, err
	}
	if _, ok := n.disabled[req.Method]; ok {
		return nil, btcjson.NewRPCError(errCodeMethodNotFound,
			"Method not found")
	}

	if h, ok := nodeHandlers[req.Method]; ok {
		return h(n, req.Params)
	}

	h, ok := walletHandlers[req.Method]
	if !ok {
		return nil, btcjson.NewRPCError(errCodeMethodNotFound,
			"Method not found")
	}

	if !scoped {
		switch len(n.loaded) {
		case 0:
			return nil, btcjson.NewRPCError(errCodeWalletNotFound,
				"No wallet is loaded. Load a wallet using "+
					"loadwallet or create a new one with "+
					"createwallet.")
		case 1:
			walletName = n.loaded[0]
		default:
			return nil, btcjson.NewRPCError(errCodeWalletNotSpec,
				"Wallet file not specified (must request "+
					"wallet RPC through /wallet/<filename> "+
					"uri-path).")
		}
	}
	if !n.isLoaded(walletName) {
		return nil, btcjson.NewRPCError(errCodeWalletNotFound,
			"Requested wallet does not exist or is not loaded")
	}

	return h(n, n.wallets[walletName], req.Params)
}

func newSimWallet(name string) *simWallet {
	return &simWallet{
		name: name,
		txs:  make(map[chainhash.Hash]struct{}),
	}
}

func (n *SimNode) tip() *simBlock {
	return n.blocks[len(n.blocks)-1]
}

func (n *SimNode) isLoaded(name string) bool {
	for _, l := range n.loaded {
		if l == name {
			return true
		}
	}
	return false
}

func (n *SimNode) unload(name string) {
	for i, l := range n.loaded {
		if l == name {
			n.loaded = append(n.loaded[:i], n.loaded[i+1:]...)
			return
		}
	}
}

func (n *SimNode) inMempool(txid chainhash.Hash) bool {
	for _, h := range n.mempool {
		if h == txid {
			return true
		}
	}
	return false
}

// depth returns the number of confirmations of an output created at height.
func (n *SimNode) depth(height int32) int32 {
	return n.tip().height - height + 1
}

// spendable reports whether the output can be spent by its owner now.
// Coinbase outputs need maturity confirmations on top of their own block.
func (n *SimNode) spendable(op wire.OutPoint, u *simUtxo) bool {
	if u.spent {
		return false
	}
	t := n.txs[op.Hash]
	if !t.confirmed() {
		return !u.coinbase && n.isTrusted(t, u.owner)
	}
	if u.coinbase {
		return n.depth(t.height) > n.maturity
	}
	return true
}

// isTrusted reports whether an unconfirmed transaction was created by the
// given wallet, whose own change is spendable before confirmation.
func (n *SimNode) isTrusted(t *simTx, owner string) bool {
	for _, in := range t.tx.TxIn {
		prev, ok := n.outputs[in.PreviousOutPoint]
		if !ok || prev.owner != owner {
			return false
		}
	}
	return true
}

// walletOutPoints returns the outpoints owned by the wallet sorted by the
// height of their transaction, oldest first.
func (n *SimNode) walletOutPoints(w *simWallet) []wire.OutPoint {
	var ops []wire.OutPoint
	for op, u := range n.outputs {
		if u.owner == w.name {
			ops = append(ops, op)
		}
	}

	sort.Slice(ops, func(i, j int) bool {
		ti, tj := n.txs[ops[i].Hash], n.txs[ops[j].Hash]
		if ti.height != tj.height {
			return ti.height < tj.height
		}
		if ops[i].Hash != ops[j].Hash {
			return ops[i].Hash.String() < ops[j].Hash.String()
		}
		return ops[i].Index < ops[j].Index
	})

	return ops
}
