// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcsettle/chain"
)

// Action describes how a wallet handle reached its state.
type Action uint8

const (
	// ActionAlreadyLoaded means the node had the wallet loaded already.
	ActionAlreadyLoaded Action = iota

	// ActionLoaded means the wallet existed on disk and was loaded.
	ActionLoaded

	// ActionCreated means the wallet did not exist and was created.
	ActionCreated

	// ActionFailed means neither loading nor creating the wallet
	// succeeded.
	ActionFailed
)

// String returns a human readable description of the action.
func (a Action) String() string {
	switch a {
	case ActionAlreadyLoaded:
		return "already loaded"
	case ActionLoaded:
		return "loaded"
	case ActionCreated:
		return "created"
	case ActionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Handle is the provisioning outcome of one named wallet.
type Handle struct {
	Name   string
	Loaded bool
	Action Action

	// Err is the last load or create error for a failed wallet.
	Err error
}

// NodeClient is the node level RPC surface the Loader drives.
type NodeClient interface {
	ListWallets() ([]string, error)
	ListWalletDir() ([]string, error)
	LoadWallet(name string) (*btcjson.LoadWalletResult, error)
	CreateWallet(name string) (*btcjson.CreateWalletResult, error)
}

// A compile-time assertion to ensure that chain.Client implements the
// NodeClient interface.
var _ NodeClient = (*chain.Client)(nil)

// Loader makes sure a fixed list of wallets is loaded by the node.
//
// Failing to load or create a wallet is logged and recorded in its Handle but
// does not stop the Loader; later steps using the wallet fail with a precise
// error instead.  Failing to list the loaded wallets is fatal.
type Loader struct {
	node    NodeClient
	wallets []string
}

// NewLoader returns a Loader for the named wallets, processed in order.
func NewLoader(node NodeClient, wallets ...string) *Loader {
	return &Loader{
		node:    node,
		wallets: append([]string(nil), wallets...),
	}
}

// Provision ensures every configured wallet is loaded, returning one handle
// per wallet in configuration order.  Running it again against the same node
// reports ActionAlreadyLoaded for every wallet loaded by the first run.
func (l *Loader) Provision() ([]Handle, error) {
	handles := make([]Handle, 0, len(l.wallets))
	for _, name := range l.wallets {
		handle, err := l.provision(name)
		if err != nil {
			return nil, err
		}
		handles = append(handles, handle)
	}

	loaded, err := l.node.ListWallets()
	if err != nil {
		return nil, fmt.Errorf("unable to list loaded wallets: %w", err)
	}
	log.Infof("Loaded wallets: %v", loaded)

	return handles, nil
}

func (l *Loader) provision(name string) (Handle, error) {
	loaded, err := l.node.ListWallets()
	if err != nil {
		return Handle{}, fmt.Errorf("unable to list loaded wallets: %w",
			err)
	}
	for _, w := range loaded {
		if w == name {
			log.Infof("Wallet '%s' is already loaded", name)
			return Handle{
				Name:   name,
				Loaded: true,
				Action: ActionAlreadyLoaded,
			}, nil
		}
	}

	onDisk, err := l.node.ListWalletDir()
	switch {
	case chain.IsRPCError(err, chain.ErrCodeMethodNotFound):
		log.Debugf("Node cannot list its wallet directory, trying "+
			"to load wallet '%s' before creating it", name)
		return l.loadOrCreate(name), nil

	case err != nil:
		return Handle{}, fmt.Errorf("unable to list wallet "+
			"directory: %w", err)
	}

	for _, w := range onDisk {
		if w == name {
			return l.load(name), nil
		}
	}
	return l.create(name), nil
}

// loadOrCreate tries to load the wallet and creates it when loading fails.
func (l *Loader) loadOrCreate(name string) Handle {
	handle := l.load(name)
	if handle.Loaded {
		return handle
	}
	return l.create(name)
}

func (l *Loader) load(name string) Handle {
	res, err := l.node.LoadWallet(name)
	if err != nil {
		log.Errorf("Unable to load wallet '%s': %v", name, err)
		return failed(name, err)
	}
	if res.Warning != "" {
		log.Warnf("Wallet '%s' loaded with warning: %s", name,
			res.Warning)
	}

	log.Infof("Wallet loaded: %s", res.Name)
	return Handle{Name: name, Loaded: true, Action: ActionLoaded}
}

func (l *Loader) create(name string) Handle {
	res, err := l.node.CreateWallet(name)
	if err != nil {
		log.Errorf("Unable to create wallet '%s': %v", name, err)
		return failed(name, err)
	}
	if res.Warning != "" {
		log.Warnf("Wallet '%s' created with warning: %s", name,
			res.Warning)
	}

	log.Infof("Wallet created: %s", res.Name)
	return Handle{Name: name, Loaded: true, Action: ActionCreated}
}

func failed(name string, err error) Handle {
	return Handle{Name: name, Action: ActionFailed, Err: err}
}

// ErrNotProvisioned is returned by Require for a wallet that could not be
// loaded or created.
var ErrNotProvisioned = errors.New("wallet was not provisioned")

// Require returns an error naming the first handle that is not loaded.
func Require(handles []Handle) error {
	for _, h := range handles {
		if !h.Loaded {
			return fmt.Errorf("%w: %s: %v", ErrNotProvisioned, h.Name,
				h.Err)
		}
	}
	return nil
}
