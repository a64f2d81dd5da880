package wallet

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil/hdkeychain"
	"github.com/cosmos/go-bip39"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/nspcc-dev/evm-devkit/pkg/crypto/keys"
)

// ErrInvalidMnemonic is returned for mnemonics failing BIP-39 checksum
// validation.
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// Seed returns BIP-39 seed for the given mnemonic and passphrase.
func Seed(mnemonic, passphrase string) ([]byte, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	return seed, nil
}

// DeriveKey derives a private key from the seed along the given BIP-32 path.
func DeriveKey(seed []byte, path accounts.DerivationPath) (*keys.PrivateKey, error) {
	// Network parameters only affect extended key serialization.
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	for _, idx := range path {
		key, err = key.Derive(idx)
		if err != nil {
			return nil, fmt.Errorf("can't derive %s: %w", path, err)
		}
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return keys.NewPrivateKeyFromBytes(priv.Serialize())
}

// DeriveKeys derives count keys with indexes starting from initialIndex
// appended to the base path (like m/44'/60'/0'/0).
func DeriveKeys(mnemonic, passphrase, basePath string, initialIndex uint32, count int) ([]*keys.PrivateKey, error) {
	base, err := accounts.ParseDerivationPath(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", basePath, err)
	}
	seed, err := Seed(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	res := make([]*keys.PrivateKey, 0, count)
	for i := 0; i < count; i++ {
		path := make(accounts.DerivationPath, len(base), len(base)+1)
		copy(path, base)
		path = append(path, initialIndex+uint32(i))
		k, err := DeriveKey(seed, path)
		if err != nil {
			return nil, err
		}
		res = append(res, k)
	}
	return res, nil
}
