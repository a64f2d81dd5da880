package main

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nspcc-dev/evm-devkit/pkg/crypto/keys"
	"github.com/nspcc-dev/evm-devkit/pkg/metatx"
	"github.com/stretchr/testify/require"
)

func TestAccounts(t *testing.T) {
	e := newExecutor(t, true)

	t.Run("local", func(t *testing.T) {
		e.Run(t, "evm-devkit", "accounts", "--config-file", e.ConfigFile)
		e.checkNextLine(t, "^"+account0+"$")
		e.checkNextLine(t, "^"+account1+"$")
		e.checkEOF(t)
		require.Equal(t, 0, e.Node.Calls("eth_accounts"))
	})

	t.Run("remote flag", func(t *testing.T) {
		e.Run(t, "evm-devkit", "accounts", "--config-file", e.ConfigFile, "--remote")
		e.checkNextLine(t, "^"+account0+"$")
		e.checkNextLine(t, "^"+account1+"$")
		e.checkEOF(t)
		require.Equal(t, 1, e.Node.Calls("eth_accounts"))
	})

	t.Run("remote network", func(t *testing.T) {
		e.Run(t, "evm-devkit", "accounts", "--config-file", e.ConfigFile, "-n", "remote")
		e.checkNextLine(t, "^"+account0+"$")
		e.checkNextLine(t, "^"+account1+"$")
		e.checkEOF(t)
	})

	t.Run("balance", func(t *testing.T) {
		e.Run(t, "evm-devkit", "accounts", "--config-file", e.ConfigFile, "--balance")
		e.checkNextLine(t, "^"+account0+"\t10000$")
		e.checkNextLine(t, "^"+account1+"\t10000$")
		e.checkEOF(t)
	})

	t.Run("keys", func(t *testing.T) {
		e.Run(t, "evm-devkit", "accounts", "--config-file", e.ConfigFile, "-n", "live")
		e.checkNextLine(t, "^"+account1+"$")
		e.checkEOF(t)
	})

	t.Run("unknown network", func(t *testing.T) {
		e.RunWithError(t, "evm-devkit", "accounts", "--config-file", e.ConfigFile, "-n", "ropsten")
	})

	t.Run("extra arguments", func(t *testing.T) {
		e.RunWithError(t, "evm-devkit", "accounts", "--config-file", e.ConfigFile, "something")
	})
}

func TestAccountsNoNode(t *testing.T) {
	e := newExecutor(t, false)
	t.Setenv("DEVKIT_NODE_URL", "http://127.0.0.1:1")
	e.RunWithError(t, "evm-devkit", "accounts", "--config-file", e.ConfigFile, "--remote", "--timeout", "1s")
}

func TestNamedAccounts(t *testing.T) {
	e := newExecutor(t, true)

	e.Run(t, "evm-devkit", "wallet", "named", "--config-file", e.ConfigFile)
	e.checkNextLine(t, "^deployer\t"+account0+"$")
	e.checkNextLine(t, "^dev\t"+account1+"$")
	e.checkNextLine(t, "^treasury\t"+account1+"$")
	e.checkEOF(t)

	e.Run(t, "evm-devkit", "wallet", "named", "--config-file", e.ConfigFile, "-n", "remote", "dev")
	e.checkNextLine(t, "^"+account0+"$")
	e.checkEOF(t)

	e.Run(t, "evm-devkit", "wallet", "named", "--config-file", e.ConfigFile, "-n", "live", "auditor")
	e.checkNextLine(t, "^"+account1+"$")
	e.checkEOF(t)

	e.RunWithErrorCheck(t, "not defined", "evm-devkit", "wallet", "named", "--config-file", e.ConfigFile, "auditor")
	e.RunWithErrorCheck(t, "not defined", "evm-devkit", "wallet", "named", "--config-file", e.ConfigFile, "owner")
	e.RunWithError(t, "evm-devkit", "wallet", "named", "--config-file", e.ConfigFile, "dev", "deployer")
}

// getSignature parses the output of signing commands.
func (e *executor) getSignature(t *testing.T, signer string) *keys.Signature {
	e.checkNextLine(t, "^Signer: "+signer+"$")
	line := e.getNextLine(t)
	sigStr, ok := strings.CutPrefix(line, "Signature: ")
	require.True(t, ok, line)
	sig, err := keys.ParseSignature(sigStr)
	require.NoError(t, err)
	e.checkNextLine(t, "^r: "+sig.RHex()+"$")
	e.checkNextLine(t, "^s: "+sig.SHex()+"$")
	e.checkNextLine(t, "^v: 2[78]$")
	e.checkEOF(t)
	return sig
}

func TestSignAndRecover(t *testing.T) {
	e := newExecutor(t, false)

	e.Run(t, "evm-devkit", "wallet", "sign", "--config-file", e.ConfigFile, "hello")
	sig := e.getSignature(t, account0)

	e.Run(t, "evm-devkit", "wallet", "recover", "hello", sig.String())
	e.checkNextLine(t, "^"+account0+"$")
	e.checkEOF(t)

	e.Run(t, "evm-devkit", "wallet", "recover", "hello!", sig.String())
	line := e.getNextLine(t)
	require.NotEqual(t, account0, line)

	t.Run("index", func(t *testing.T) {
		e.Run(t, "evm-devkit", "wallet", "sign", "--config-file", e.ConfigFile, "--index", "1", "hello")
		e.getSignature(t, account1)
	})

	t.Run("key", func(t *testing.T) {
		e.Run(t, "evm-devkit", "wallet", "sign", "--key",
			"0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d", "hello")
		e.getSignature(t, account1)
	})

	t.Run("mnemonic prompt", func(t *testing.T) {
		e.In.WriteString(testMnemonic + "\r")
		e.Run(t, "evm-devkit", "wallet", "sign", "--mnemonic-prompt", "-i", "1", "hello")
		e.getSignature(t, account1)
	})

	t.Run("hex", func(t *testing.T) {
		e.Run(t, "evm-devkit", "wallet", "sign", "--config-file", e.ConfigFile, "--hex", "0x68656c6c6f")
		hexSig := e.getSignature(t, account0)
		require.Equal(t, sig, hexSig)

		e.Run(t, "evm-devkit", "wallet", "recover", "--hex", "0x68656c6c6f", hexSig.String())
		e.checkNextLine(t, "^"+account0+"$")
	})

	t.Run("errors", func(t *testing.T) {
		e.RunWithError(t, "evm-devkit", "wallet", "sign", "--config-file", e.ConfigFile)
		e.RunWithError(t, "evm-devkit", "wallet", "sign", "--config-file", e.ConfigFile, "--index", "2", "hello")
		e.RunWithError(t, "evm-devkit", "wallet", "sign", "--config-file", e.ConfigFile, "--hex", "0xzz")
		e.RunWithError(t, "evm-devkit", "wallet", "sign", "--key", "0x1234", "hello")
		e.RunWithError(t, "evm-devkit", "wallet", "sign", "--key",
			"0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d", "--mnemonic-prompt", "hello")
		e.RunWithError(t, "evm-devkit", "wallet", "sign", "--config-file", e.ConfigFile, "-n", "remote", "hello")
		e.RunWithError(t, "evm-devkit", "wallet", "recover", "hello", "0x1234")
	})
}

func TestSplitSignature(t *testing.T) {
	e := newExecutor(t, false)
	r := strings.Repeat("11", 32)
	s := strings.Repeat("22", 32)

	for suffix, v := range map[string]string{"1b": "27", "1c": "28", "00": "27", "01": "28"} {
		e.Run(t, "evm-devkit", "wallet", "split-sig", "0x"+r+s+suffix)
		e.checkNextLine(t, "^r: 0x"+r+"$")
		e.checkNextLine(t, "^s: 0x"+s+"$")
		e.checkNextLine(t, "^v: "+v+"$")
		e.checkEOF(t)
	}

	e.RunWithError(t, "evm-devkit", "wallet", "split-sig", "0x"+r+s)
	e.RunWithError(t, "evm-devkit", "wallet", "split-sig", r+s+"1b")
	e.RunWithError(t, "evm-devkit", "wallet", "split-sig")
}

func TestMetaTx(t *testing.T) {
	e := newExecutor(t, false)
	contract := common.HexToAddress(account1)
	fn := common.FromHex("0xdeadbeef")

	expected, err := metatx.Message(big.NewInt(1), big.NewInt(31337), fn, contract)
	require.NoError(t, err)
	e.Run(t, "evm-devkit", "wallet", "metatx", "--config-file", e.ConfigFile,
		"--contract", account1, "--nonce", "1", "-f", "0xdeadbeef")
	e.checkNextLine(t, "^Message: "+expected.Hex()+"$")
	e.checkEOF(t)

	t.Run("salt", func(t *testing.T) {
		expected, err := metatx.Message(big.NewInt(16), big.NewInt(5), fn, contract)
		require.NoError(t, err)
		e.Run(t, "evm-devkit", "wallet", "metatx", "--config-file", e.ConfigFile,
			"-c", account1, "--nonce", "0x10", "--salt", "5", "-f", "0xdeadbeef")
		e.checkNextLine(t, "^Message: "+expected.Hex()+"$")
		e.checkEOF(t)
	})

	t.Run("network chain id", func(t *testing.T) {
		expected, err := metatx.Message(big.NewInt(1), big.NewInt(97), fn, contract)
		require.NoError(t, err)
		e.Run(t, "evm-devkit", "wallet", "metatx", "--config-file", e.ConfigFile, "-n", "live",
			"-c", account1, "--nonce", "1", "-f", "0xdeadbeef")
		e.checkNextLine(t, "^Message: "+expected.Hex()+"$")
		e.checkEOF(t)
	})

	t.Run("sign", func(t *testing.T) {
		e.Run(t, "evm-devkit", "wallet", "metatx", "--config-file", e.ConfigFile,
			"-c", account1, "--nonce", "1", "-f", "0xdeadbeef", "--sign")
		e.checkNextLine(t, "^Message: "+expected.Hex()+"$")
		sig := e.getSignature(t, account0)
		signer, err := metatx.Signer(expected, sig)
		require.NoError(t, err)
		require.Equal(t, common.HexToAddress(account0), signer)
	})

	t.Run("errors", func(t *testing.T) {
		e.RunWithErrorCheck(t, "chainId", "evm-devkit", "wallet", "metatx", "--config-file", e.ConfigFile, "-n", "remote",
			"-c", account1, "--nonce", "1", "-f", "0xdeadbeef")
		e.RunWithError(t, "evm-devkit", "wallet", "metatx", "--config-file", e.ConfigFile,
			"-c", account1, "--nonce=-1", "-f", "0xdeadbeef")
		e.RunWithError(t, "evm-devkit", "wallet", "metatx", "--config-file", e.ConfigFile,
			"-c", account1, "--nonce", "1", "-f", "deadbeef")
		e.RunWithError(t, "evm-devkit", "wallet", "metatx", "--config-file", e.ConfigFile,
			"-c", account1, "--nonce", "1", "--salt", "x", "-f", "0xdeadbeef")
	})
}
