// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"net/url"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/rpcclient"
)

// Endpoint contains all of the parameters required to reach a bitcoind RPC
// server, optionally scoped to one of its wallets.  An Endpoint is a value;
// ForWallet returns a scoped copy and never modifies the receiver.
type Endpoint struct {
	// Host is the IP address and port of the bitcoind's RPC server.
	Host string

	// User is the username to use to authenticate to bitcoind's RPC server.
	User string

	// Pass is the passphrase to use to authenticate to bitcoind's RPC
	// server.
	Pass string

	// Params are the chain parameters the bitcoind server is running on.
	// Addresses returned by the node are decoded against them.
	Params *chaincfg.Params

	wallet string
}

// ForWallet returns a copy of the endpoint whose requests are routed to the
// named wallet through bitcoind's /wallet/<name> path.
func (e Endpoint) ForWallet(name string) Endpoint {
	e.wallet = name
	return e
}

// Wallet returns the wallet the endpoint is scoped to, or the empty string for
// the node-level endpoint.
func (e Endpoint) Wallet() string {
	return e.wallet
}

// String returns the URL requests are posted to.  Credentials are omitted.
func (e Endpoint) String() string {
	return "http://" + e.host()
}

func (e Endpoint) host() string {
	if e.wallet == "" {
		return e.Host
	}
	return e.Host + "/wallet/" + url.PathEscape(e.wallet)
}

func (e Endpoint) connConfig() *rpcclient.ConnConfig {
	return &rpcclient.ConnConfig{
		Host:                 e.host(),
		User:                 e.User,
		Pass:                 e.Pass,
		Params:               e.Params.Name,
		DisableAutoReconnect: true,
		DisableConnectOnNew:  true,
		DisableTLS:           true,
		HTTPPostMode:         true,
	}
}
