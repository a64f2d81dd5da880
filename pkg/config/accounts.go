package config

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/cosmos/go-bip39"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/nspcc-dev/evm-devkit/pkg/encoding/fixedn"
	"github.com/nspcc-dev/evm-devkit/pkg/encoding/hexstr"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMnemonic is the well-known mnemonic of development nodes.
	DefaultMnemonic = "test test test test test test test test test test test junk"
	// DefaultHDPath is the BIP-44 path prefix of Ethereum accounts.
	DefaultHDPath = "m/44'/60'/0'/0"
	// DefaultHDCount is the number of accounts derived by default.
	DefaultHDCount = 20
	// DefaultAccountsBalance is the balance of development accounts in ether.
	DefaultAccountsBalance = 10000

	remoteAccounts = "remote"
)

// Accounts describes the accounts available for a network: either the ones
// managed by the node (Remote), or a list of private keys (Keys), or an HD
// wallet (HD). Only one of them can be set.
type Accounts struct {
	Remote bool
	Keys   []string
	HD     *HDAccounts
}

// HDAccounts is an HD wallet configuration.
type HDAccounts struct {
	Mnemonic     string `yaml:"mnemonic"`
	Passphrase   string `yaml:"passphrase"`
	Path         string `yaml:"path"`
	InitialIndex uint32 `yaml:"initialIndex"`
	Count        int    `yaml:"count"`
	// AccountsBalance is only used by the hardhat network.
	AccountsBalance Wei `yaml:"accountsBalance"`
}

// Wei is an integer amount of wei, in YAML it's a decimal integer (string
// or number).
type Wei struct {
	Value *big.Int
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (w *Wei) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.New("wei amount should be a scalar")
	}
	v, err := fixedn.FromString(node.Value, 0)
	if err != nil {
		return fmt.Errorf("invalid wei amount %q: %w", node.Value, err)
	}
	w.Value = v
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (w Wei) MarshalYAML() (any, error) {
	return w.Int().String(), nil
}

// Int returns the value (never nil).
func (w Wei) Int() *big.Int {
	if w.Value == nil {
		return new(big.Int)
	}
	return w.Value
}

// Ether returns the value as an ether Amount.
func (w Wei) Ether() fixedn.Amount {
	return fixedn.Amount{Value: w.Int(), Decimals: fixedn.DefaultDecimals}
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (a *Accounts) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value != remoteAccounts {
			return fmt.Errorf("unexpected accounts value %q", node.Value)
		}
		*a = Accounts{Remote: true}
	case yaml.SequenceNode:
		var keys []string
		if err := node.Decode(&keys); err != nil {
			return err
		}
		*a = Accounts{Keys: keys}
	case yaml.MappingNode:
		hd := new(HDAccounts)
		if err := node.Decode(hd); err != nil {
			return err
		}
		*a = Accounts{HD: hd}
	default:
		return errors.New("accounts should be either \"remote\", a list of keys or an HD wallet")
	}
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (a Accounts) MarshalYAML() (any, error) {
	switch {
	case a.HD != nil:
		return a.HD, nil
	case a.Keys != nil:
		return a.Keys, nil
	default:
		return remoteAccounts, nil
	}
}

// IsEmpty returns true if no accounts are configured.
func (a Accounts) IsEmpty() bool {
	return !a.Remote && a.Keys == nil && a.HD == nil
}

// Validate checks that exactly one kind of accounts is set and that it's
// correct.
func (a Accounts) Validate() error {
	var kinds int
	if a.Remote {
		kinds++
	}
	if a.Keys != nil {
		kinds++
	}
	if a.HD != nil {
		kinds++
	}
	if kinds != 1 {
		return errors.New("exactly one of remote, keys or HD wallet should be set")
	}
	for i, k := range a.Keys {
		if !strings.HasPrefix(k, "0x") {
			k = "0x" + k
		}
		if !hexstr.IsHex(k, 32) {
			return fmt.Errorf("key #%d is not a 32-byte hex string", i)
		}
	}
	if a.HD != nil {
		return a.HD.Validate()
	}
	return nil
}

func (h *HDAccounts) setDefaults() {
	if h.Path == "" {
		h.Path = DefaultHDPath
	}
	if h.Count == 0 {
		h.Count = DefaultHDCount
	}
	if h.AccountsBalance.Value == nil {
		h.AccountsBalance.Value = fixedn.Ether(DefaultAccountsBalance).Int()
	}
}

// Validate checks the mnemonic and the derivation path.
func (h *HDAccounts) Validate() error {
	if h.Mnemonic == "" {
		return errors.New("empty mnemonic")
	}
	if !bip39.IsMnemonicValid(h.Mnemonic) {
		return errors.New("invalid mnemonic")
	}
	if _, err := accounts.ParseDerivationPath(h.Path); err != nil {
		return fmt.Errorf("invalid path %q: %w", h.Path, err)
	}
	if h.Count <= 0 {
		return fmt.Errorf("invalid accounts count %d", h.Count)
	}
	if h.AccountsBalance.Int().Sign() < 0 {
		return errors.New("negative accounts balance")
	}
	return nil
}
