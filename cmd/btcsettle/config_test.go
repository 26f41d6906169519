// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(nil)
	require.NoError(t, err)

	settle := cfg.settleConfig()
	require.Equal(t, "127.0.0.1:18443", settle.Endpoint.Host)
	require.Equal(t, "alice", settle.Endpoint.User)
	require.Equal(t, "password", settle.Endpoint.Pass)
	require.Equal(t, &chaincfg.RegressionNetParams, settle.Endpoint.Params)
	require.Equal(t, "regtest", settle.ChainName)
	require.Equal(t, "Minera", settle.SenderWallet)
	require.Equal(t, "Tradera", settle.ReceiverWallet)
	require.Equal(t, btcutil.Amount(20*btcutil.SatoshiPerBitcoin),
		settle.Amount)
	require.Zero(t, settle.CoinbaseMaturity)
	require.Equal(t, "Mining Reward", settle.MiningLabel)
	require.Equal(t, "Received", settle.ReceiveLabel)
	require.Equal(t, "out.txt", settle.ReportPath)
}

func TestLoadConfigFlags(t *testing.T) {
	cfg, err := loadConfig([]string{
		"--network=signet",
		"--rpcconnect=http://node.local/",
		"--rpcuser=bob",
		"--rpcpass=secret",
		"--senderwallet=A",
		"--receiverwallet=B",
		"--amount=1500 sat",
		"--coinbasematurity=5",
		"--debuglevel=PROV=trace,RPCC=warn",
	})
	require.NoError(t, err)

	settle := cfg.settleConfig()
	require.Equal(t, "node.local:38332", settle.Endpoint.Host)
	require.Equal(t, "secret", settle.Endpoint.Pass)
	require.Equal(t, "signet", settle.ChainName)
	require.Equal(t, btcutil.Amount(1500), settle.Amount)
	require.Equal(t, uint16(5), settle.CoinbaseMaturity)
	require.True(t, cfg.RPCPass.ExplicitlySet())
}

// TestLoadConfigFile checks that the config file is read and that command
// line options take precedence.
func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "settle.conf")
	contents := "[Application Options]\n" +
		"senderwallet=FromFile\n" +
		"amount=0.5\n" +
		"outfile=" + filepath.Join(dir, "report.txt") + "\n"
	require.NoError(t, os.WriteFile(configFile, []byte(contents), 0600))

	cfg, err := loadConfig([]string{
		"-C", configFile, "--amount=2",
	})
	require.NoError(t, err)
	require.Equal(t, "FromFile", cfg.SenderWallet)
	require.Equal(t, btcutil.Amount(2*btcutil.SatoshiPerBitcoin),
		cfg.Amount.Amount)
	require.Equal(t, filepath.Join(dir, "report.txt"), cfg.OutFile)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown network", []string{"--network=mainnet"}},
		{"same wallets", []string{"--senderwallet=A", "--receiverwallet=A"}},
		{"zero amount", []string{"--amount=0"}},
		{"bad debug level", []string{"--debuglevel=loud"}},
		{"unknown subsystem", []string{"--debuglevel=NOPE=info"}},
		{"password twice", []string{"--rpcpass=x", "--promptpass"}},
		{"missing config file", []string{"-C", "/nonexistent/btcsettle.conf"}},
		{"bad amount", []string{"--amount=lots"}},
	}

	for _, test := range tests {
		_, err := loadConfig(test.args)
		require.Error(t, err, test.name)
	}
}

func TestSupportedSubsystems(t *testing.T) {
	require.Equal(t, []string{
		"CHAN", "MINE", "PROV", "PYMT", "RPCC", "RPRT", "RUN", "STTL",
		"WLLT",
	}, supportedSubsystems())
}
