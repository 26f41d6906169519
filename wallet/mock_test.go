// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// This file contains a mock implementation of the NodeClient interface. It is
// used in tests to drive the Loader through node answers that are awkward to
// reproduce with a simulated node.

package wallet

import (
	"github.com/btcsuite/btcd/btcjson"
	"github.com/stretchr/testify/mock"
)

// mockNode is a mock implementation of the NodeClient interface.
type mockNode struct {
	mock.Mock
}

// A compile-time assertion to ensure that mockNode implements the NodeClient
// interface.
var _ NodeClient = (*mockNode)(nil)

// ListWallets implements the NodeClient interface.
func (m *mockNode) ListWallets() ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]string), args.Error(1)
}

// ListWalletDir implements the NodeClient interface.
func (m *mockNode) ListWalletDir() ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]string), args.Error(1)
}

// LoadWallet implements the NodeClient interface.
func (m *mockNode) LoadWallet(name string) (*btcjson.LoadWalletResult, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*btcjson.LoadWalletResult), args.Error(1)
}

// CreateWallet implements the NodeClient interface.
func (m *mockNode) CreateWallet(
	name string) (*btcjson.CreateWalletResult, error) {

	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*btcjson.CreateWalletResult), args.Error(1)
}
