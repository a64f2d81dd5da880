package config

import (
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"time"

	"github.com/nspcc-dev/evm-devkit/pkg/config/chainid"
	"github.com/nspcc-dev/evm-devkit/pkg/encoding/fixedn"
	"github.com/nspcc-dev/evm-devkit/pkg/ethrpc"
	"gopkg.in/yaml.v3"
)

const (
	// HardhatNetwork is the name of the built-in development network.
	HardhatNetwork = "hardhat"
	// LocalhostNetwork is the name of the built-in network pointing to a
	// development node started separately.
	LocalhostNetwork = "localhost"

	// DefaultNodeURL is the address development nodes listen at by default.
	DefaultNodeURL = "http://127.0.0.1:8545"
	// DefaultTimeout is the default network request timeout in milliseconds.
	DefaultTimeout = 20000
	// DefaultHardfork is used by the hardhat network if none is configured.
	DefaultHardfork = "shanghai"
)

// Network is a single network configuration.
type Network struct {
	// URL is the JSON-RPC endpoint, optional for the hardhat network.
	URL     string     `yaml:"url"`
	ChainID chainid.ID `yaml:"chainId"`
	// Accounts to be used with the network, "remote" means the node's ones.
	Accounts Accounts `yaml:"accounts"`
	// Live marks networks with real value, deployments there must be
	// explicit.
	Live            bool     `yaml:"live"`
	SaveDeployments bool     `yaml:"saveDeployments"`
	Tags            []string `yaml:"tags"`
	GasPrice        GasPrice `yaml:"gasPrice"`
	GasMultiplier   float64  `yaml:"gasMultiplier"`
	// Hardfork and the following options are only valid for the hardhat
	// network.
	Hardfork                   string   `yaml:"hardfork"`
	AllowUnlimitedContractSize bool     `yaml:"allowUnlimitedContractSize"`
	Forking                    *Forking `yaml:"forking"`
	// Timeout is the request timeout in milliseconds.
	Timeout uint64 `yaml:"timeout"`
}

// Forking is the mainnet forking configuration of the hardhat network.
type Forking struct {
	URL         string `yaml:"url"`
	BlockNumber uint64 `yaml:"blockNumber"`
	// Enabled is true by default.
	Enabled *bool `yaml:"enabled"`
}

// GasPrice is either "auto" or a fixed amount of wei.
type GasPrice struct {
	Auto bool
	Wei  *big.Int
}

// ErrInvalidGasPrice is returned for gas prices that are neither "auto" nor
// a non-negative integer.
var ErrInvalidGasPrice = errors.New("invalid gas price")

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (g *GasPrice) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: scalar expected", ErrInvalidGasPrice)
	}
	s := node.Value
	if s == "auto" || s == "" {
		*g = GasPrice{Auto: true}
		return nil
	}
	v, err := fixedn.FromString(s, 0)
	if err != nil || v.Sign() < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidGasPrice, s)
	}
	*g = GasPrice{Wei: v}
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (g GasPrice) MarshalYAML() (any, error) {
	if g.Wei == nil {
		return "auto", nil
	}
	return g.Wei.String(), nil
}

// IsEnabled returns whether forking is configured and enabled.
func (f *Forking) IsEnabled() bool {
	return f != nil && f.URL != "" && (f.Enabled == nil || *f.Enabled)
}

// ForkParams returns hardhat_reset parameters for the configuration or nil
// if forking is disabled.
func (f *Forking) ForkParams() *ethrpc.ForkParams {
	if !f.IsEnabled() {
		return nil
	}
	return &ethrpc.ForkParams{
		JSONRPCURL:  f.URL,
		BlockNumber: f.BlockNumber,
	}
}

// RequestTimeout returns the network request timeout.
func (n *Network) RequestTimeout() time.Duration {
	return time.Duration(n.Timeout) * time.Millisecond
}

func (n *Network) setDefaults(name string) {
	switch name {
	case HardhatNetwork:
		if n.ChainID == 0 {
			n.ChainID = chainid.Hardhat
		}
		if n.URL == "" {
			n.URL = DefaultNodeURL
		}
		if n.Hardfork == "" {
			n.Hardfork = DefaultHardfork
		}
		if n.Accounts.IsEmpty() {
			n.Accounts.HD = &HDAccounts{Mnemonic: DefaultMnemonic}
		}
	case LocalhostNetwork:
		if n.URL == "" {
			n.URL = DefaultNodeURL
		}
	}
	if n.Accounts.IsEmpty() {
		n.Accounts.Remote = true
	}
	if n.Accounts.HD != nil {
		n.Accounts.HD.setDefaults()
	}
	if n.GasPrice.Wei == nil {
		n.GasPrice.Auto = true
	}
	if n.GasMultiplier == 0 {
		n.GasMultiplier = 1
	}
	if n.Timeout == 0 {
		n.Timeout = DefaultTimeout
	}
}

// Validate checks the network configuration.
func (n *Network) Validate(name string) error {
	u, err := url.Parse(n.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("invalid url %q: unsupported scheme %q", n.URL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: no host", n.URL)
	}
	if n.GasMultiplier < 0 {
		return fmt.Errorf("negative gas multiplier %v", n.GasMultiplier)
	}
	if name != HardhatNetwork {
		if n.Hardfork != "" || n.Forking != nil || n.AllowUnlimitedContractSize {
			return errors.New("hardfork, forking and allowUnlimitedContractSize are only valid for the hardhat network")
		}
	} else {
		if !IsHardforkValid(n.Hardfork) {
			return fmt.Errorf("unknown hardfork %q", n.Hardfork)
		}
		if n.Forking != nil && (n.Forking.Enabled == nil || *n.Forking.Enabled) && n.Forking.URL == "" {
			return errors.New("forking is enabled, but no url is given")
		}
	}
	if err := n.Accounts.Validate(); err != nil {
		return fmt.Errorf("accounts: %w", err)
	}
	return nil
}
