// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package run sequences a settlement: wallets are provisioned, the sender is
// funded by mining, a payment is made and confirmed, and its provenance is
// extracted and written as a report.
package run

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcsettle/chain"
	"github.com/btcsuite/btcsettle/mining"
	"github.com/btcsuite/btcsettle/payment"
	"github.com/btcsuite/btcsettle/provenance"
	"github.com/btcsuite/btcsettle/report"
	"github.com/btcsuite/btcsettle/wallet"
)

// Step names the stage of a settlement that failed.
type Step string

// The steps of a settlement, in order.
const (
	StepConnect   Step = "connect"
	StepNetwork   Step = "verify network"
	StepProvision Step = "provision wallets"
	StepMature    Step = "mature coinbase"
	StepPay       Step = "pay receiver"
	StepExtract   Step = "extract provenance"
	StepReport    Step = "write report"
)

// StepError is returned by Settle and names the step that failed.
type StepError struct {
	Step Step
	Err  error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

func fail(step Step, err error) error {
	return &StepError{Step: step, Err: err}
}

// Config is the complete, immutable input of a settlement.
type Config struct {
	// Endpoint addresses the node.  Wallet scoped endpoints are derived
	// from it.
	Endpoint chain.Endpoint

	// ChainName is the network name the node must report.
	ChainName string

	SenderWallet   string
	ReceiverWallet string

	// Amount is paid from the sender to the receiver.
	Amount btcutil.Amount

	// CoinbaseMaturity overrides the maturity of the chain parameters when
	// non-zero.
	CoinbaseMaturity uint16

	MiningLabel  string
	ReceiveLabel string

	// ReportPath is where the report is written.
	ReportPath string
}

// Outcome collects the results of every step of a settlement.
type Outcome struct {
	Wallets  []wallet.Handle
	Funding  *mining.Result
	Transfer *payment.Transfer
	Record   *provenance.Record
}

// Settle runs every step of a settlement in order and stops at the first
// failure.  The report is only written once the record is complete.
func Settle(cfg Config) (*Outcome, error) {
	node, err := chain.NewClient(cfg.Endpoint)
	if err != nil {
		return nil, fail(StepConnect, err)
	}
	defer node.Shutdown()

	info, err := node.VerifyNetwork(cfg.ChainName)
	if err != nil {
		return nil, fail(StepNetwork, err)
	}
	log.Infof("Connected to %s node at %v, height %d", info.Chain,
		cfg.Endpoint, info.Blocks)

	handles, err := wallet.NewLoader(
		node, cfg.SenderWallet, cfg.ReceiverWallet,
	).Provision()
	if err != nil {
		return nil, fail(StepProvision, err)
	}

	// A wallet that could not be loaded or created fails the first step
	// that uses it, with the node's own error.
	if err := wallet.Require(handles); err != nil {
		log.Warnf("Continuing without a provisioned wallet: %v", err)
	}
	outcome := &Outcome{Wallets: handles}

	sender, err := chain.NewClient(cfg.Endpoint.ForWallet(cfg.SenderWallet))
	if err != nil {
		return nil, fail(StepConnect, err)
	}
	defer sender.Shutdown()

	receiver, err := chain.NewClient(
		cfg.Endpoint.ForWallet(cfg.ReceiverWallet),
	)
	if err != nil {
		return nil, fail(StepConnect, err)
	}
	defer receiver.Shutdown()

	outcome.Funding, err = mining.New(mining.Config{
		Wallet:           sender,
		Params:           cfg.Endpoint.Params,
		CoinbaseMaturity: cfg.CoinbaseMaturity,
		Label:            cfg.MiningLabel,
	}).Mature()
	if err != nil {
		return nil, fail(StepMature, err)
	}

	outcome.Transfer, err = payment.New(payment.Config{
		Sender:        sender,
		Receiver:      receiver,
		Mempool:       node,
		MiningAddress: outcome.Funding.Address,
		Label:         cfg.ReceiveLabel,
	}).Pay(cfg.Amount)
	if err != nil {
		return nil, fail(StepPay, err)
	}

	txid := outcome.Transfer.TxID
	outcome.Record, err = provenance.New(provenance.Config{
		Wallet: sender,
		Node:   node,
		Params: cfg.Endpoint.Params,
	}).Extract(&txid, outcome.Transfer.ReceiverAddress)
	if err != nil {
		return nil, fail(StepExtract, err)
	}

	if err := report.Write(cfg.ReportPath, outcome.Record); err != nil {
		return nil, fail(StepReport, err)
	}

	return outcome, nil
}
