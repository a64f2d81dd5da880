package wallet

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nspcc-dev/evm-devkit/pkg/config"
	"github.com/nspcc-dev/evm-devkit/pkg/config/chainid"
)

// ErrNoNamedAccount is returned when named account has no reference for the
// network or is unknown.
var ErrNoNamedAccount = errors.New("named account is not defined")

// NamedAccount is a resolved named account.
type NamedAccount struct {
	Name    string
	Address common.Address
}

// ResolveNamed resolves a single named account for the network using the
// network accounts list (indexes refer to it).
func ResolveNamed(named map[string]config.NamedAccount, name string, network string, id chainid.ID, addrs []common.Address) (common.Address, error) {
	na, ok := named[name]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s", ErrNoNamedAccount, name)
	}
	ref, ok := na.For(network, id)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s on %s", ErrNoNamedAccount, name, network)
	}
	if ref.Address != nil {
		return *ref.Address, nil
	}
	if ref.Index >= len(addrs) {
		return common.Address{}, fmt.Errorf("named account %s refers to account #%d, but there are only %d accounts",
			name, ref.Index, len(addrs))
	}
	return addrs[ref.Index], nil
}

// ResolveAllNamed resolves all named accounts defined for the network,
// accounts not defined for it are skipped. The result is sorted by name.
func ResolveAllNamed(named map[string]config.NamedAccount, network string, id chainid.ID, addrs []common.Address) ([]NamedAccount, error) {
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)

	res := make([]NamedAccount, 0, len(names))
	for _, name := range names {
		addr, err := ResolveNamed(named, name, network, id, addrs)
		if errors.Is(err, ErrNoNamedAccount) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res = append(res, NamedAccount{Name: name, Address: addr})
	}
	return res, nil
}
