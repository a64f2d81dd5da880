package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nspcc-dev/evm-devkit/pkg/config/chainid"
	"gopkg.in/yaml.v3"
)

const defaultKey = "default"

// AccountRef points to an account either by its index in the network
// accounts list or by its address.
type AccountRef struct {
	Index   int
	Address *common.Address
}

// NamedAccount is a named account (`deployer`, `dev`, ...) resolved
// differently per network. Network-specific references are keyed by
// network name or by decimal chain ID.
type NamedAccount struct {
	Default  *AccountRef
	Networks map[string]AccountRef
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (r *AccountRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.New("account reference should be an index or an address")
	}
	if strings.HasPrefix(node.Value, "0x") {
		if !common.IsHexAddress(node.Value) {
			return fmt.Errorf("invalid address %q", node.Value)
		}
		addr := common.HexToAddress(node.Value)
		*r = AccountRef{Address: &addr}
		return nil
	}
	i, err := strconv.Atoi(node.Value)
	if err != nil || i < 0 {
		return fmt.Errorf("invalid account index %q", node.Value)
	}
	*r = AccountRef{Index: i}
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (r AccountRef) MarshalYAML() (any, error) {
	if r.Address != nil {
		return r.Address.Hex(), nil
	}
	return r.Index, nil
}

// String implements the fmt.Stringer interface.
func (r AccountRef) String() string {
	if r.Address != nil {
		return r.Address.Hex()
	}
	return "#" + strconv.Itoa(r.Index)
}

// UnmarshalYAML implements the yaml.Unmarshaler interface. Both a plain
// reference (used as default) and a mapping are accepted.
func (n *NamedAccount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		ref := new(AccountRef)
		if err := node.Decode(ref); err != nil {
			return err
		}
		*n = NamedAccount{Default: ref}
		return nil
	}
	var m map[string]AccountRef
	if err := node.Decode(&m); err != nil {
		return err
	}
	res := NamedAccount{}
	for k, v := range m {
		v := v
		if k == defaultKey {
			res.Default = &v
			continue
		}
		if res.Networks == nil {
			res.Networks = make(map[string]AccountRef)
		}
		res.Networks[k] = v
	}
	*n = res
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (n NamedAccount) MarshalYAML() (any, error) {
	m := make(map[string]AccountRef, len(n.Networks)+1)
	for k, v := range n.Networks {
		m[k] = v
	}
	if n.Default != nil {
		m[defaultKey] = *n.Default
	}
	return m, nil
}

// For returns the reference for the network with the given name and chain
// ID. Network name has priority over chain ID, the default is used if
// neither is set.
func (n NamedAccount) For(network string, id chainid.ID) (AccountRef, bool) {
	if r, ok := n.Networks[network]; ok {
		return r, true
	}
	if r, ok := n.Networks[strconv.FormatUint(uint64(id), 10)]; ok {
		return r, true
	}
	if n.Default != nil {
		return *n.Default, true
	}
	return AccountRef{}, false
}
