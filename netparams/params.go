// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netparams

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

// Params is used to group parameters for the networks a bitcoind node can be
// started on together with the port its RPC server listens on by default.
type Params struct {
	*chaincfg.Params
	RPCServerPort string

	// ChainName is the name bitcoind reports for the network in the
	// `chain` field of getblockchaininfo.
	ChainName string
}

// RegressionNetParams contains parameters specific to the regression test
// network (wire.TestNet).
var RegressionNetParams = Params{
	Params:        &chaincfg.RegressionNetParams,
	RPCServerPort: "18443",
	ChainName:     "regtest",
}

// TestNet3Params contains parameters specific to the test network (version 3)
// (wire.TestNet3).
var TestNet3Params = Params{
	Params:        &chaincfg.TestNet3Params,
	RPCServerPort: "18332",
	ChainName:     "test",
}

// SigNetParams contains parameters specific to the default signet network
// (wire.SigNet).
var SigNetParams = Params{
	Params:        &chaincfg.SigNetParams,
	RPCServerPort: "38332",
	ChainName:     "signet",
}

// SimNetParams contains parameters specific to the simulation test network
// (wire.SimNet).
var SimNetParams = Params{
	Params:        &chaincfg.SimNetParams,
	RPCServerPort: "18556",
	ChainName:     "simnet",
}

// ForName returns the parameters for the network tag name.  Both the btcd
// parameter name and the bitcoind chain name are accepted.
func ForName(name string) (*Params, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range []*Params{
		&RegressionNetParams, &TestNet3Params, &SigNetParams,
		&SimNetParams,
	} {
		if name == p.Name || name == p.ChainName {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown network %q", name)
}
