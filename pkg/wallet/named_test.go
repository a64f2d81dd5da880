package wallet

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nspcc-dev/evm-devkit/pkg/config"
	"github.com/nspcc-dev/evm-devkit/pkg/config/chainid"
	"github.com/stretchr/testify/require"
)

func TestResolveNamed(t *testing.T) {
	treasury := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	named := map[string]config.NamedAccount{
		"deployer": {Default: &config.AccountRef{Index: 0}},
		"dev": {
			Default:  &config.AccountRef{Index: 1},
			Networks: map[string]config.AccountRef{"rinkeby": {Index: 2}, "97": {Address: &treasury}},
		},
		"keeper": {Networks: map[string]config.AccountRef{"rinkeby": {Index: 0}}},
	}
	addrs := []common.Address{{1}, {2}, {3}}

	addr, err := ResolveNamed(named, "deployer", "hardhat", chainid.Hardhat, addrs)
	require.NoError(t, err)
	require.Equal(t, addrs[0], addr)

	addr, err = ResolveNamed(named, "dev", "rinkeby", chainid.Rinkeby, addrs)
	require.NoError(t, err)
	require.Equal(t, addrs[2], addr)

	addr, err = ResolveNamed(named, "dev", "bscTest", chainid.BSCTestNet, addrs)
	require.NoError(t, err)
	require.Equal(t, treasury, addr)

	_, err = ResolveNamed(named, "dev", "rinkeby", chainid.Rinkeby, addrs[:2])
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoNamedAccount)

	_, err = ResolveNamed(named, "keeper", "hardhat", chainid.Hardhat, addrs)
	require.ErrorIs(t, err, ErrNoNamedAccount)
	_, err = ResolveNamed(named, "nobody", "hardhat", chainid.Hardhat, addrs)
	require.ErrorIs(t, err, ErrNoNamedAccount)

	all, err := ResolveAllNamed(named, "hardhat", chainid.Hardhat, addrs)
	require.NoError(t, err)
	require.Equal(t, []NamedAccount{
		{Name: "deployer", Address: addrs[0]},
		{Name: "dev", Address: addrs[1]},
	}, all)

	all, err = ResolveAllNamed(named, "rinkeby", chainid.Rinkeby, addrs)
	require.NoError(t, err)
	require.Len(t, all, 3)

	_, err = ResolveAllNamed(named, "rinkeby", chainid.Rinkeby, nil)
	require.Error(t, err)
}
