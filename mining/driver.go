// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcsettle/chain"
)

// DefaultLabel is the label given to a freshly derived mining address.
const DefaultLabel = "Mining Reward"

// ErrNotMatured is returned when the wallet balance is still zero after
// mining one block more than the coinbase maturity.
var ErrNotMatured = errors.New("coinbase rewards did not mature")

// WalletClient is the wallet scoped RPC surface the Driver uses.
type WalletClient interface {
	ListReceivedByAddress() ([]btcjson.ListReceivedByAddressResult, error)
	NewAddress(label string) (btcutil.Address, error)
	GenerateToAddress(numBlocks int64,
		addr btcutil.Address) ([]*chainhash.Hash, error)
	Balance() (btcutil.Amount, error)
}

// A compile-time assertion to ensure that chain.Client implements the
// WalletClient interface.
var _ WalletClient = (*chain.Client)(nil)

// Config holds the collaborators and settings of a Driver.
type Config struct {
	// Wallet is scoped to the wallet receiving the coinbase rewards.
	Wallet WalletClient

	// Params are the parameters of the chain the node runs.
	Params *chaincfg.Params

	// CoinbaseMaturity overrides Params.CoinbaseMaturity when non-zero.
	CoinbaseMaturity uint16

	// Label is used for a new mining address.  DefaultLabel is used when
	// empty.
	Label string
}

// Result describes a completed maturation.
type Result struct {
	// Address is the address the blocks were mined to.
	Address btcutil.Address

	// BlocksMined counts every block mined, including the final one.
	BlocksMined int64

	// Balance is the spendable balance after the final block.
	Balance btcutil.Amount
}

// Driver mines blocks to a wallet until it holds a spendable balance.
type Driver struct {
	cfg Config
}

// New returns a Driver for cfg.
func New(cfg Config) *Driver {
	if cfg.Label == "" {
		cfg.Label = DefaultLabel
	}
	return &Driver{cfg: cfg}
}

// maturity returns the number of confirmations a coinbase output needs
// beyond its own block.
func (d *Driver) maturity() int64 {
	if d.cfg.CoinbaseMaturity != 0 {
		return int64(d.cfg.CoinbaseMaturity)
	}
	return int64(d.cfg.Params.CoinbaseMaturity)
}

// Address returns the address mining rewards are paid to: the first address
// the wallet has received to, or a new labelled one.
func (d *Driver) Address() (btcutil.Address, error) {
	received, err := d.cfg.Wallet.ListReceivedByAddress()
	if err != nil {
		return nil, err
	}

	if len(received) > 0 {
		addr, err := btcutil.DecodeAddress(
			received[0].Address, d.cfg.Params,
		)
		if err != nil {
			return nil, fmt.Errorf("invalid received address "+
				"%q: %w", received[0].Address, err)
		}
		log.Debugf("Reusing mining address %v", addr)
		return addr, nil
	}

	addr, err := d.cfg.Wallet.NewAddress(d.cfg.Label)
	if err != nil {
		return nil, err
	}
	log.Debugf("Derived mining address %v", addr)

	return addr, nil
}

// Mature mines one block at a time until the wallet balance is non-zero, then
// mines one more block.  A wallet with a balance only gets the final block.
func (d *Driver) Mature() (*Result, error) {
	addr, err := d.Address()
	if err != nil {
		return nil, err
	}

	balance, err := d.cfg.Wallet.Balance()
	if err != nil {
		return nil, err
	}

	// A coinbase output is spendable once it has more confirmations than
	// the maturity, so the first reward can be spent after maturity+1
	// blocks.
	bound := d.maturity() + 1

	var mined int64
	for balance == 0 {
		if mined >= bound {
			return nil, fmt.Errorf("%w: balance is zero after %d "+
				"blocks", ErrNotMatured, mined)
		}

		if err := d.mine(addr); err != nil {
			return nil, err
		}
		mined++

		balance, err = d.cfg.Wallet.Balance()
		if err != nil {
			return nil, err
		}
		log.Debugf("Balance after %d blocks: %v", mined, balance)
	}

	if mined > 0 {
		log.Infof("Balance became spendable after %d blocks: %v",
			mined, balance)
	}

	if err := d.mine(addr); err != nil {
		return nil, err
	}
	mined++

	balance, err = d.cfg.Wallet.Balance()
	if err != nil {
		return nil, err
	}
	log.Infof("Wallet balance: %v", balance)

	return &Result{
		Address:     addr,
		BlocksMined: mined,
		Balance:     balance,
	}, nil
}

func (d *Driver) mine(addr btcutil.Address) error {
	hashes, err := d.cfg.Wallet.GenerateToAddress(1, addr)
	if err != nil {
		return err
	}
	if len(hashes) == 1 {
		log.Tracef("Mined block %v", hashes[0])
	}
	return nil
}
