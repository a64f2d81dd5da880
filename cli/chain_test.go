package main

import (
	"context"
	"testing"
	"time"

	"github.com/nspcc-dev/evm-devkit/pkg/rpcclient"
	"github.com/stretchr/testify/require"
)

func TestChainInfo(t *testing.T) {
	e := newExecutor(t, true)

	e.Run(t, "evm-devkit", "chain", "block-number", "--config-file", e.ConfigFile)
	e.checkNextLine(t, "^0$")
	e.checkEOF(t)

	e.Run(t, "evm-devkit", "chain", "chain-id", "--config-file", e.ConfigFile)
	e.checkNextLine(t, "^31337$")
	e.checkEOF(t)

	t.Run("endpoint flag", func(t *testing.T) {
		e.Run(t, "evm-devkit", "chain", "block-number", "-r", e.NodeURL)
		e.checkNextLine(t, "^0$")
	})

	t.Run("bad endpoint", func(t *testing.T) {
		e.RunWithError(t, "evm-devkit", "chain", "block-number", "-r", "http://127.0.0.1:1", "-s", "1s")
	})
}

func TestMining(t *testing.T) {
	e := newExecutor(t, true)

	e.Run(t, "evm-devkit", "chain", "mine", "--config-file", e.ConfigFile)
	e.checkNextLine(t, "^Block number: 1$")
	e.checkEOF(t)

	e.Run(t, "evm-devkit", "chain", "mine", "--config-file", e.ConfigFile, "--blocks", "3")
	e.checkNextLine(t, "^Block number: 4$")
	require.EqualValues(t, 4, e.Node.Height())

	e.Run(t, "evm-devkit", "chain", "mine-to", "--config-file", e.ConfigFile, "10")
	e.checkNextLine(t, "^Mined: 6$")
	e.checkNextLine(t, "^Block number: 10$")
	e.checkEOF(t)

	e.Run(t, "evm-devkit", "chain", "mine-to", "--config-file", e.ConfigFile, "5")
	e.checkNextLine(t, "^Mined: 0$")
	e.checkNextLine(t, "^Block number: 10$")

	e.RunWithError(t, "evm-devkit", "chain", "mine-to", "--config-file", e.ConfigFile, "ten")
	e.RunWithError(t, "evm-devkit", "chain", "mine-to", "--config-file", e.ConfigFile)
	e.RunWithError(t, "evm-devkit", "chain", "mine", "--config-file", e.ConfigFile, "10")
}

func TestTimeTravel(t *testing.T) {
	e := newExecutor(t, true)

	e.Run(t, "evm-devkit", "chain", "increase-time", "--config-file", e.ConfigFile, "100")
	e.checkNextLine(t, "^Time offset: 100$")
	e.checkEOF(t)

	e.Run(t, "evm-devkit", "chain", "increase-time", "--config-file", e.ConfigFile, "--mine", "50")
	e.checkNextLine(t, "^Time offset: 150$")
	e.checkNextLine(t, "^Block 1 timestamp: 1700000151$")
	e.checkEOF(t)

	e.Run(t, "evm-devkit", "chain", "set-next-timestamp", "--config-file", e.ConfigFile, "1800000000")
	e.checkEOF(t)
	e.Run(t, "evm-devkit", "chain", "mine", "--config-file", e.ConfigFile)
	e.checkNextLine(t, "^Block number: 2$")
	require.EqualValues(t, 1800000000, e.Node.Latest().Timestamp)

	e.RunWithError(t, "evm-devkit", "chain", "set-next-timestamp", "--config-file", e.ConfigFile, "1700000000")
	e.RunWithError(t, "evm-devkit", "chain", "increase-time", "--config-file", e.ConfigFile, "five")
}

func TestSnapshots(t *testing.T) {
	e := newExecutor(t, true)

	e.Run(t, "evm-devkit", "chain", "mine", "--config-file", e.ConfigFile, "--blocks", "2")
	e.Run(t, "evm-devkit", "chain", "snapshot", "--config-file", e.ConfigFile, "--name", "deployed")
	e.checkNextLine(t, "^0x1$")
	e.checkEOF(t)

	e.Run(t, "evm-devkit", "chain", "mine", "--config-file", e.ConfigFile, "--blocks", "5")
	e.Run(t, "evm-devkit", "chain", "snapshot", "--config-file", e.ConfigFile, "--name", "later")
	e.checkNextLine(t, "^0x2$")

	e.Run(t, "evm-devkit", "chain", "snapshots", "--config-file", e.ConfigFile)
	e.checkNextLine(t, "^deployed\t0x1\t2$")
	e.checkNextLine(t, "^later\t0x2\t7$")
	e.checkEOF(t)

	e.Run(t, "evm-devkit", "chain", "revert", "--config-file", e.ConfigFile, "deployed")
	e.checkNextLine(t, "^Block number: 2$")
	e.checkEOF(t)

	// Both are consumed.
	e.Run(t, "evm-devkit", "chain", "snapshots", "--config-file", e.ConfigFile)
	e.checkEOF(t)
	e.RunWithError(t, "evm-devkit", "chain", "revert", "--config-file", e.ConfigFile, "deployed")
	e.RunWithError(t, "evm-devkit", "chain", "revert", "--config-file", e.ConfigFile, "later")

	t.Run("by id", func(t *testing.T) {
		e.Run(t, "evm-devkit", "chain", "snapshot", "--config-file", e.ConfigFile)
		e.checkNextLine(t, "^0x1$")
		e.Run(t, "evm-devkit", "chain", "mine", "--config-file", e.ConfigFile)
		e.checkNextLine(t, "^Block number: 3$")

		e.Run(t, "evm-devkit", "chain", "revert", "--config-file", e.ConfigFile, "0x1")
		e.checkNextLine(t, "^Block number: 2$")
		e.RunWithErrorCheck(t, "snapshot not found", "evm-devkit", "chain", "revert", "--config-file", e.ConfigFile, "0x1")
	})

	t.Run("per network", func(t *testing.T) {
		e.Run(t, "evm-devkit", "chain", "snapshot", "--config-file", e.ConfigFile, "-n", "remote", "--name", "remote-one")
		e.Run(t, "evm-devkit", "chain", "snapshots", "--config-file", e.ConfigFile)
		e.checkEOF(t)
		e.Run(t, "evm-devkit", "chain", "snapshots", "--config-file", e.ConfigFile, "-n", "remote")
		e.checkNextLine(t, "^remote-one\t0x1\t2$")
	})
}

func TestReset(t *testing.T) {
	e := newExecutor(t, true)

	e.Run(t, "evm-devkit", "chain", "mine", "--config-file", e.ConfigFile, "--blocks", "3")
	e.Run(t, "evm-devkit", "chain", "snapshot", "--config-file", e.ConfigFile, "--name", "s")
	e.Run(t, "evm-devkit", "chain", "reset", "--config-file", e.ConfigFile)
	e.checkNextLine(t, "^Block number: 0$")
	e.checkEOF(t)
	require.Equal(t, "", e.Node.ForkURL())

	// Snapshots don't survive reset.
	e.Run(t, "evm-devkit", "chain", "snapshots", "--config-file", e.ConfigFile)
	e.checkEOF(t)

	t.Run("fork flags", func(t *testing.T) {
		e.Run(t, "evm-devkit", "chain", "reset", "--config-file", e.ConfigFile,
			"--fork", "https://mainnet.example.org", "--fork-block", "1000")
		e.checkNextLine(t, "^Forked from https://mainnet.example.org$")
		e.checkNextLine(t, "^Block number: 1000$")
		require.Equal(t, "https://mainnet.example.org", e.Node.ForkURL())
	})

	t.Run("fork config", func(t *testing.T) {
		t.Setenv("DEVKIT_FORKING", "true")
		e.Run(t, "evm-devkit", "chain", "reset", "--config-file", e.ConfigFile)
		e.checkNextLine(t, "^Forked from "+e.NodeURL+"/upstream$")
		e.checkNextLine(t, "^Block number: 100$")

		e.Run(t, "evm-devkit", "chain", "reset", "--config-file", e.ConfigFile, "--no-fork")
		e.checkNextLine(t, "^Block number: 0$")

		e.RunWithError(t, "evm-devkit", "chain", "reset", "--config-file", e.ConfigFile, "--no-fork", "--fork", "http://x")
	})

	t.Run("live network", func(t *testing.T) {
		e.Run(t, "evm-devkit", "chain", "mine", "--config-file", e.ConfigFile)

		e.In.WriteString("n\r")
		e.RunWithErrorCheck(t, "aborted", "evm-devkit", "chain", "reset", "--config-file", e.ConfigFile, "-n", "live")
		require.EqualValues(t, 1, e.Node.Height())

		e.In.WriteString("yes\r")
		e.Run(t, "evm-devkit", "chain", "reset", "--config-file", e.ConfigFile, "-n", "live")
		e.checkNextLine(t, "^Block number: 0$")

		e.Run(t, "evm-devkit", "chain", "reset", "--config-file", e.ConfigFile, "-n", "live", "--force")
		e.checkNextLine(t, "^Block number: 0$")
	})
}

func TestSetBalance(t *testing.T) {
	e := newExecutor(t, true)

	e.Run(t, "evm-devkit", "chain", "set-balance", "--config-file", e.ConfigFile,
		"--address", account1, "--amount", "1.5")
	e.checkNextLine(t, "^Balance of "+account1+": 1.5$")
	e.checkEOF(t)

	e.Run(t, "evm-devkit", "accounts", "--config-file", e.ConfigFile, "--balance")
	e.checkNextLine(t, "^"+account0+"\t10000$")
	e.checkNextLine(t, "^"+account1+"\t1.5$")

	e.RunWithError(t, "evm-devkit", "chain", "set-balance", "--config-file", e.ConfigFile,
		"--address", account1, "--amount=-1")
}

func TestWatch(t *testing.T) {
	e := newExecutor(t, true)

	errCh := make(chan error, 1)
	go func() {
		for e.Node.Calls("eth_subscribe") == 0 {
			time.Sleep(10 * time.Millisecond)
		}
		c, err := rpcclient.New(context.Background(), e.NodeURL, rpcclient.Options{})
		if err != nil {
			errCh <- err
			return
		}
		defer c.Close()
		errCh <- c.MineBlocks(2)
	}()

	e.Run(t, "evm-devkit", "chain", "watch", "--config-file", e.ConfigFile, "--count", "2")
	require.NoError(t, <-errCh)
	e.checkNextLine(t, "^1\t0x[0-9a-f]{64}\t1700000001$")
	e.checkNextLine(t, "^2\t0x[0-9a-f]{64}\t1700000002$")
	e.checkEOF(t)

	t.Run("timeout", func(t *testing.T) {
		e.RunWithError(t, "evm-devkit", "chain", "watch", "--config-file", e.ConfigFile, "--count", "1", "-s", "100ms")
		e.Run(t, "evm-devkit", "chain", "watch", "--config-file", e.ConfigFile, "-s", "100ms")
		e.checkEOF(t)
	})
}
