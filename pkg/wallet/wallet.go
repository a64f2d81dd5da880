/*
Package wallet provides the accounts of a configured network: keys derived
from an HD mnemonic or given directly, and named accounts resolution.
*/
package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nspcc-dev/evm-devkit/pkg/config"
	"github.com/nspcc-dev/evm-devkit/pkg/crypto/keys"
)

// ErrRemoteAccounts is returned when accounts are managed by the node and
// can't be created locally.
var ErrRemoteAccounts = errors.New("accounts are managed by the node")

// Account is a single local account.
type Account struct {
	Address    common.Address
	PrivateKey *keys.PrivateKey
	// Path is the derivation path for HD accounts.
	Path string
}

// Wallet is an ordered list of accounts.
type Wallet struct {
	Accounts []*Account
}

// FromConfig creates a wallet for the network accounts configuration. It
// fails with ErrRemoteAccounts for "remote" accounts.
func FromConfig(acc config.Accounts) (*Wallet, error) {
	switch {
	case acc.HD != nil:
		return FromHD(acc.HD)
	case acc.Keys != nil:
		return FromKeys(acc.Keys)
	default:
		return nil, ErrRemoteAccounts
	}
}

// FromHD derives wallet accounts from a mnemonic.
func FromHD(hd *config.HDAccounts) (*Wallet, error) {
	ks, err := DeriveKeys(hd.Mnemonic, hd.Passphrase, hd.Path, hd.InitialIndex, hd.Count)
	if err != nil {
		return nil, err
	}
	w := &Wallet{Accounts: make([]*Account, 0, len(ks))}
	base := strings.TrimSuffix(hd.Path, "/")
	for i, k := range ks {
		w.Accounts = append(w.Accounts, &Account{
			Address:    k.Address(),
			PrivateKey: k,
			Path:       fmt.Sprintf("%s/%d", base, hd.InitialIndex+uint32(i)),
		})
	}
	return w, nil
}

// FromKeys creates a wallet from hex-encoded private keys.
func FromKeys(hexKeys []string) (*Wallet, error) {
	w := &Wallet{Accounts: make([]*Account, 0, len(hexKeys))}
	for i, s := range hexKeys {
		k, err := keys.NewPrivateKeyFromHex(s)
		if err != nil {
			return nil, fmt.Errorf("key #%d: %w", i, err)
		}
		w.Accounts = append(w.Accounts, &Account{Address: k.Address(), PrivateKey: k})
	}
	return w, nil
}

// Addresses returns the addresses of all accounts.
func (w *Wallet) Addresses() []common.Address {
	res := make([]common.Address, 0, len(w.Accounts))
	for _, a := range w.Accounts {
		res = append(res, a.Address)
	}
	return res
}

// GetAccount returns the account with the given address or nil.
func (w *Wallet) GetAccount(addr common.Address) *Account {
	for _, a := range w.Accounts {
		if a.Address == addr {
			return a
		}
	}
	return nil
}
