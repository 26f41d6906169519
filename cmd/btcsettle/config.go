// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcsettle/build"
	"github.com/btcsuite/btcsettle/chain"
	"github.com/btcsuite/btcsettle/internal/cfgutil"
	"github.com/btcsuite/btcsettle/internal/prompt"
	"github.com/btcsuite/btcsettle/mining"
	"github.com/btcsuite/btcsettle/netparams"
	"github.com/btcsuite/btcsettle/payment"
	"github.com/btcsuite/btcsettle/report"
	"github.com/btcsuite/btcsettle/run"
	"github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename = "btcsettle.conf"
	defaultLogLevel       = "info"
	defaultNetwork        = "regtest"
	defaultRPCHost        = "127.0.0.1"
	defaultRPCUser        = "alice"
	defaultRPCPass        = "password"
	defaultSenderWallet   = "Minera"
	defaultReceiverWallet = "Tradera"
	defaultAmount         = 20 * btcutil.SatoshiPerBitcoin
)

// errConfig is returned for invalid option combinations.
var errConfig = errors.New("invalid configuration")

type config struct {
	// General application behavior
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	LogFile     string `long:"logfile" description:"Also write the log to this file, rotating it as it grows"`
	Network     string `long:"network" description:"Network the node runs {regtest, testnet3, signet, simnet}"`

	// RPC client options
	RPCConnect string                  `short:"c" long:"rpcconnect" description:"Hostname/IP and port of the bitcoind RPC server (default port per network, regtest: 18443)"`
	RPCUser    string                  `short:"u" long:"rpcuser" description:"Username for RPC authentication"`
	RPCPass    *cfgutil.ExplicitString `short:"P" long:"rpcpass" default-mask:"-" description:"Password for RPC authentication"`
	PromptPass bool                    `long:"promptpass" description:"Read the RPC password from the terminal"`

	// Settlement options
	SenderWallet     string              `long:"senderwallet" description:"Wallet that is funded by mining and pays"`
	ReceiverWallet   string              `long:"receiverwallet" description:"Wallet that receives the payment"`
	Amount           *cfgutil.AmountFlag `long:"amount" description:"Amount to pay, in BTC or with a sat suffix"`
	CoinbaseMaturity uint16              `long:"coinbasematurity" description:"Blocks a coinbase output must be buried under before it is spendable (default: network rule)"`
	MiningLabel      string              `long:"mininglabel" description:"Label of the address mining rewards are paid to"`
	ReceiveLabel     string              `long:"receivelabel" description:"Label of the receiver's payment address"`
	OutFile          string              `short:"o" long:"outfile" description:"Path of the settlement report"`

	params *netparams.Params
}

// settleConfig returns the settlement input described by cfg.
func (c *config) settleConfig() run.Config {
	return run.Config{
		Endpoint: chain.Endpoint{
			Host:   c.RPCConnect,
			User:   c.RPCUser,
			Pass:   c.RPCPass.Value,
			Params: c.params.Params,
		},
		ChainName:        c.params.ChainName,
		SenderWallet:     c.SenderWallet,
		ReceiverWallet:   c.ReceiverWallet,
		Amount:           c.Amount.Amount,
		CoinbaseMaturity: c.CoinbaseMaturity,
		MiningLabel:      c.MiningLabel,
		ReceiveLabel:     c.ReceiveLabel,
		ReportPath:       c.OutFile,
	}
}

// cleanAndExpandPath expands environement variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			path = strings.Replace(path, "~", homeDir, 1)
		}
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows cmd.exe-style
	// %VARIABLE%, but they variables can still be expanded via POSIX-style
	// $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace":
		fallthrough
	case "debug":
		fallthrough
	case "info":
		fallthrough
	case "warn":
		fallthrough
	case "error":
		fallthrough
	case "critical":
		return true
	}
	return false
}

// supportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func supportedSubsystems() []string {
	// Convert the subsystemLoggers map keys to a slice.
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}

	// Sort the subsytems for stable display.
	sort.Strings(subsystems)
	return subsystems
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		// Validate debug log level.
		if !validLogLevel(debugLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, debugLevel)
		}

		// Change the logging level for all subsystems.
		setLogLevels(debugLevel)

		return nil
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "the specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return fmt.Errorf(str, logLevelPair)
		}

		// Extract the specified subsystem and log level.
		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		// Validate subsystem.
		if _, exists := subsystemLoggers[subsysID]; !exists {
			str := "the specified subsystem [%v] is invalid -- " +
				"supported subsytems %v"
			return fmt.Errorf(str, subsysID, supportedSubsystems())
		}

		// Validate log level.
		if !validLogLevel(logLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, logLevel)
		}

		setLogLevel(subsysID, logLevel)
	}

	return nil
}

// defaultConfig returns the configuration used when no option is given.
func defaultConfig() config {
	return config{
		ConfigFile:     defaultConfigFilename,
		DebugLevel:     defaultLogLevel,
		Network:        defaultNetwork,
		RPCConnect:     defaultRPCHost,
		RPCUser:        defaultRPCUser,
		RPCPass:        cfgutil.NewExplicitString(defaultRPCPass),
		SenderWallet:   defaultSenderWallet,
		ReceiverWallet: defaultReceiverWallet,
		Amount:         cfgutil.NewAmountFlag(defaultAmount),
		MiningLabel:    mining.DefaultLabel,
		ReceiveLabel:   payment.DefaultLabel,
		OutFile:        report.DefaultPath,
	}
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in btcsettle settling against a default local regtest
// node without any config settings while still allowing the user to override
// settings with config files and command line options.  Command line options
// always take precedence.
func loadConfig(args []string) (*config, error) {
	// Default config.
	cfg := defaultConfig()

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var e *flags.Error
		if !errors.As(err, &e) || e.Type != flags.ErrHelp {
			preParser.WriteHelp(os.Stderr)
		}
		return nil, err
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", build.Version())
		os.Exit(0)
	}

	// Load additional config from file.  A missing default config file is
	// not an error.
	parser := flags.NewParser(&cfg, flags.Default)
	configFile := cleanAndExpandPath(preCfg.ConfigFile)
	exists, err := cfgutil.FileExists(configFile)
	if err != nil {
		return nil, err
	}
	switch {
	case exists:
		err := flags.NewIniParser(parser).ParseFile(configFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
			return nil, err
		}

	case preCfg.ConfigFile != defaultConfigFilename:
		return nil, fmt.Errorf("%w: config file %s not found",
			errConfig, configFile)
	}

	// Parse command line options again to ensure they take precedence.
	if _, err := parser.ParseArgs(args); err != nil {
		var e *flags.Error
		if !errors.As(err, &e) || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, err
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Initialize log rotation.  After log rotation has been initialized,
	// the logger variables may be used.
	if cfg.LogFile != "" {
		cfg.LogFile = cleanAndExpandPath(cfg.LogFile)
		if err := initLogRotator(cfg.LogFile); err != nil {
			return nil, err
		}
	}

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("loadConfig: %w", err)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate checks option values and fills in the values derived from the
// selected network.
func (c *config) validate() error {
	params, err := netparams.ForName(c.Network)
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	c.params = params

	c.RPCConnect, err = cfgutil.NormalizeAddress(
		c.RPCConnect, params.RPCServerPort,
	)
	if err != nil {
		return fmt.Errorf("%w: invalid RPC network address: %v",
			errConfig, err)
	}

	if c.PromptPass {
		if c.RPCPass.ExplicitlySet() {
			return fmt.Errorf("%w: --rpcpass and --promptpass can "+
				"not be used together", errConfig)
		}
		pass, err := prompt.RPCPassword(c.RPCUser)
		if err != nil {
			return err
		}
		c.RPCPass.Value = pass
	}

	switch {
	case c.SenderWallet == "" || c.ReceiverWallet == "":
		return fmt.Errorf("%w: wallet names must not be empty",
			errConfig)

	case c.SenderWallet == c.ReceiverWallet:
		return fmt.Errorf("%w: sender and receiver wallets must "+
			"differ", errConfig)

	case c.Amount.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", errConfig)

	case c.OutFile == "":
		return fmt.Errorf("%w: output file is required", errConfig)
	}
	c.OutFile = cleanAndExpandPath(c.OutFile)

	return nil
}
