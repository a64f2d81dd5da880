package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestProjectConfig(t *testing.T) {
	e := newExecutor(t, false)

	e.Run(t, "evm-devkit", "project", "validate", "--config-file", e.ConfigFile)
	e.checkNextLine(t, "^Configuration is valid, 4 networks, default is hardhat$")
	e.checkEOF(t)

	e.Run(t, "evm-devkit", "project", "networks", "--config-file", e.ConfigFile)
	e.checkNextLine(t, "^hardhat\thardhat\thttp://127.0.0.1:8545$")
	e.checkNextLine(t, "^live\tbsc_testnet\thttp://127.0.0.1:8545$")
	e.checkNextLine(t, "^localhost\t-\thttp://127.0.0.1:8545$")
	e.checkNextLine(t, "^remote\t-\thttp://127.0.0.1:8545$")
	e.checkEOF(t)

	t.Run("effective config", func(t *testing.T) {
		t.Setenv("DEVKIT_NODE_URL", "http://node:8545")
		e.Run(t, "evm-devkit", "project", "config", "--config-file", e.ConfigFile)

		var m map[string]any
		require.NoError(t, yaml.Unmarshal(e.Out.Bytes(), &m))
		require.Equal(t, "hardhat", m["defaultNetwork"])
		nets := m["networks"].(map[string]any)
		require.Contains(t, nets, "localhost")
		require.Equal(t, "http://node:8545", nets["remote"].(map[string]any)["url"])
	})

	t.Run("invalid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "devkit.yml")
		require.NoError(t, os.WriteFile(path, []byte("defaultNetwork: mainnet\n"), 0o644))
		e.RunWithErrorCheck(t, "unknown network", "evm-devkit", "project", "validate", "--config-file", path)
		e.RunWithError(t, "evm-devkit", "project", "validate", "--config-file", filepath.Join(t.TempDir(), "missing.yml"))
	})
}

func TestDeployments(t *testing.T) {
	e := newExecutor(t, false)
	const tx = "0xc0ffee0000000000000000000000000000000000000000000000000000000001"

	e.Run(t, "evm-devkit", "project", "deployments", "--config-file", e.ConfigFile)
	e.checkEOF(t)

	e.Run(t, "evm-devkit", "project", "save-deployment", "--config-file", e.ConfigFile,
		"--name", "Token", "-a", account1, "--tx", tx, "--block", "5",
		"--deployer", account0, "--abi", "artifacts/Token.json")
	e.checkNextLine(t, "^Saved Token at "+account1+" on hardhat$")
	e.checkEOF(t)

	e.Run(t, "evm-devkit", "project", "save-deployment", "--config-file", e.ConfigFile,
		"--name", "Registry", "--address", account0)
	e.checkNextLine(t, "^Saved Registry at "+account0+" on hardhat$")

	e.Run(t, "evm-devkit", "project", "deployments", "--config-file", e.ConfigFile)
	e.checkNextLine(t, "^Registry\t"+account0+"$")
	e.checkNextLine(t, "^Token\t"+account1+"$")
	e.checkEOF(t)

	e.Run(t, "evm-devkit", "project", "deployments", "--config-file", e.ConfigFile, "Token")
	out := e.Out.String()
	require.Contains(t, out, "name: Token\n")
	require.Contains(t, out, "address: "+strings.ToLower(account1)+"\n")
	require.Contains(t, out, "transactionHash: "+tx+"\n")
	require.Contains(t, out, "blockNumber: 5\n")
	require.Contains(t, out, "abi: artifacts/Token.json\n")

	t.Run("per network", func(t *testing.T) {
		e.Run(t, "evm-devkit", "project", "deployments", "--config-file", e.ConfigFile, "-n", "live")
		e.checkEOF(t)
		e.RunWithError(t, "evm-devkit", "project", "deployments", "--config-file", e.ConfigFile, "-n", "live", "Token")
		e.RunWithError(t, "evm-devkit", "project", "deployments", "--config-file", e.ConfigFile, "-n", "ropsten")
	})

	t.Run("bad tx", func(t *testing.T) {
		e.RunWithError(t, "evm-devkit", "project", "save-deployment", "--config-file", e.ConfigFile,
			"--name", "Bad", "-a", account1, "--tx", "0x1234")
	})

	t.Run("delete", func(t *testing.T) {
		e.Run(t, "evm-devkit", "project", "delete-deployment", "--config-file", e.ConfigFile, "Token")
		e.checkEOF(t)
		e.RunWithErrorCheck(t, "not found", "evm-devkit", "project", "delete-deployment", "--config-file", e.ConfigFile, "Token")
		e.RunWithError(t, "evm-devkit", "project", "delete-deployment", "--config-file", e.ConfigFile)

		e.Run(t, "evm-devkit", "project", "deployments", "--config-file", e.ConfigFile)
		e.checkNextLine(t, "^Registry\t"+account0+"$")
		e.checkEOF(t)
	})
}
