/*
Package chain contains commands that inspect and manipulate the chain of a
development node: mining, time travel, snapshots and resets.
*/
package chain

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/nspcc-dev/evm-devkit/cli/cmdargs"
	"github.com/nspcc-dev/evm-devkit/cli/flags"
	"github.com/nspcc-dev/evm-devkit/cli/input"
	"github.com/nspcc-dev/evm-devkit/cli/options"
	"github.com/nspcc-dev/evm-devkit/pkg/config"
	"github.com/nspcc-dev/evm-devkit/pkg/deployments"
	"github.com/nspcc-dev/evm-devkit/pkg/encoding/fixedn"
	"github.com/nspcc-dev/evm-devkit/pkg/encoding/hexstr"
	"github.com/nspcc-dev/evm-devkit/pkg/ethrpc"
	"github.com/nspcc-dev/evm-devkit/pkg/rpcclient"
	"github.com/urfave/cli"
)

var errAborted = errors.New("aborted")

// NewCommands returns 'chain' command.
func NewCommands() []cli.Command {
	rpcFlags := options.Common
	mineFlags := append([]cli.Flag{cli.Uint64Flag{
		Name:  "blocks, b",
		Value: 1,
		Usage: "Number of blocks to mine",
	}}, rpcFlags...)
	increaseTimeFlags := append([]cli.Flag{cli.BoolFlag{
		Name:  "mine",
		Usage: "Mine a block after the clock adjustment",
	}}, rpcFlags...)
	snapshotFlags := append([]cli.Flag{cli.StringFlag{
		Name:  "name",
		Usage: "Store the snapshot under this name in the deployments database",
	}}, rpcFlags...)
	resetFlags := append([]cli.Flag{
		cli.StringFlag{
			Name:  "fork",
			Usage: "JSON-RPC URL of the node to fork from (forking configuration of the network by default)",
		},
		cli.Uint64Flag{
			Name:  "fork-block",
			Usage: "Block number to fork from (latest by default)",
		},
		cli.BoolFlag{
			Name:  "no-fork",
			Usage: "Reset to a clean chain even if the network has forking configured",
		},
		cli.BoolFlag{
			Name:  "force",
			Usage: "Do not ask for a confirmation on live networks",
		},
	}, rpcFlags...)
	balanceFlags := append(flags.MarkRequired([]cli.Flag{
		flags.AddressFlag{
			Name:  "address, a",
			Usage: "Account to set the balance of",
		},
		flags.AmountFlag{
			Name:  "amount",
			Usage: "Balance in ether",
		},
	}, "address, a", "amount"), rpcFlags...)
	watchFlags := append([]cli.Flag{cli.IntFlag{
		Name:  "count",
		Usage: "Exit after receiving this number of blocks (0 means until timeout)",
	}}, rpcFlags...)

	return []cli.Command{{
		Name:  "chain",
		Usage: "inspect and manipulate the development chain",
		Subcommands: []cli.Command{
			{
				Name:      "block-number",
				Usage:     "print the current block number",
				UsageText: "block-number [--network <name>] [-r <endpoint>]",
				Action:    blockNumber,
				Flags:     rpcFlags,
			},
			{
				Name:      "chain-id",
				Usage:     "print the chain ID of the node",
				UsageText: "chain-id [--network <name>] [-r <endpoint>]",
				Action:    chainID,
				Flags:     rpcFlags,
			},
			{
				Name:      "mine",
				Usage:     "mine blocks",
				UsageText: "mine [--blocks <n>]",
				Action:    mine,
				Flags:     mineFlags,
			},
			{
				Name:      "mine-to",
				Usage:     "mine blocks until the chain reaches the given height",
				UsageText: "mine-to <height>",
				Action:    mineTo,
				Flags:     rpcFlags,
			},
			{
				Name:      "increase-time",
				Usage:     "move the node clock forward",
				UsageText: "increase-time [--mine] <seconds>",
				Action:    increaseTime,
				Flags:     increaseTimeFlags,
			},
			{
				Name:      "set-next-timestamp",
				Usage:     "set the timestamp of the next block",
				UsageText: "set-next-timestamp <unix-time>",
				Action:    setNextTimestamp,
				Flags:     rpcFlags,
			},
			{
				Name:      "snapshot",
				Usage:     "snapshot the chain state",
				UsageText: "snapshot [--name <name>]",
				Action:    snapshot,
				Flags:     snapshotFlags,
			},
			{
				Name:      "revert",
				Usage:     "revert the chain state to a snapshot",
				UsageText: "revert <snapshot-id | name>",
				Description: `Reverts the chain to the snapshot with the given ID (0x-prefixed hex) or
   the given name (see 'snapshot --name'). A snapshot can only be reverted to
   once, named snapshots taken after the one reverted to are forgotten.
`,
				Action: revert,
				Flags:  rpcFlags,
			},
			{
				Name:      "snapshots",
				Usage:     "list named snapshots of the network",
				UsageText: "snapshots [--network <name>]",
				Action:    listSnapshots,
				Flags:     []cli.Flag{options.ConfigFile, options.Network},
			},
			{
				Name:      "reset",
				Usage:     "reset the chain, optionally forking another node",
				UsageText: "reset [--fork <url> [--fork-block <n>] | --no-fork] [--force]",
				Action:    reset,
				Flags:     resetFlags,
			},
			{
				Name:      "set-balance",
				Usage:     "set the balance of an account",
				UsageText: "set-balance --address <address> --amount <ether>",
				Action:    setBalance,
				Flags:     balanceFlags,
			},
			{
				Name:      "watch",
				Usage:     "print new blocks as they're produced (websocket)",
				UsageText: "watch [--count <n>]",
				Action:    watch,
				Flags:     watchFlags,
			},
		},
	}}
}

// withClient runs f with an RPC client created for the command context.
func withClient(ctx *cli.Context, f func(c *rpcclient.Client) error) error {
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, exitErr := options.GetRPCClient(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()
	if err := f(c); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

func parseUint(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}

func blockNumber(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	return withClient(ctx, func(c *rpcclient.Client) error {
		n, err := c.BlockNumber()
		if err != nil {
			return err
		}
		fmt.Fprintln(ctx.App.Writer, n)
		return nil
	})
}

func chainID(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	return withClient(ctx, func(c *rpcclient.Client) error {
		id, err := c.ChainID()
		if err != nil {
			return err
		}
		fmt.Fprintln(ctx.App.Writer, id)
		return nil
	})
}

func mine(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	return withClient(ctx, func(c *rpcclient.Client) error {
		if err := c.MineBlocks(ctx.Uint64("blocks")); err != nil {
			return err
		}
		return printHeight(ctx, c)
	})
}

func printHeight(ctx *cli.Context, c *rpcclient.Client) error {
	n, err := c.BlockNumber()
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "Block number: %d\n", n)
	return nil
}

func mineTo(ctx *cli.Context) error {
	if err := cmdargs.EnsureCount(ctx, 1); err != nil {
		return err
	}
	target, err := parseUint(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return withClient(ctx, func(c *rpcclient.Client) error {
		mined, err := c.MineTo(target)
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "Mined: %d\n", mined)
		return printHeight(ctx, c)
	})
}

func increaseTime(ctx *cli.Context) error {
	if err := cmdargs.EnsureCount(ctx, 1); err != nil {
		return err
	}
	seconds, err := parseUint(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return withClient(ctx, func(c *rpcclient.Client) error {
		offset, err := c.IncreaseTime(seconds)
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "Time offset: %d\n", offset)
		if !ctx.Bool("mine") {
			return nil
		}
		if err := c.Mine(); err != nil {
			return err
		}
		b, err := c.GetLatestBlock()
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "Block %d timestamp: %d\n", uint64(b.Number), uint64(b.Timestamp))
		return nil
	})
}

func setNextTimestamp(ctx *cli.Context) error {
	if err := cmdargs.EnsureCount(ctx, 1); err != nil {
		return err
	}
	ts, err := parseUint(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return withClient(ctx, func(c *rpcclient.Client) error {
		return c.SetNextBlockTimestamp(ts)
	})
}

func snapshot(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	return withClient(ctx, func(c *rpcclient.Client) error {
		id, err := c.Snapshot()
		if err != nil {
			return err
		}
		fmt.Fprintln(ctx.App.Writer, id)
		name := ctx.String("name")
		if name == "" {
			return nil
		}
		height, err := c.BlockNumber()
		if err != nil {
			return err
		}
		cfg, err := options.GetConfigFromContext(ctx)
		if err != nil {
			return err
		}
		network, _, err := options.GetNetwork(ctx, cfg)
		if err != nil {
			return err
		}
		s, err := options.GetDeploymentsStore(cfg, false)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.SaveSnapshot(network, deployments.Snapshot{Name: name, ID: id, BlockNumber: height})
	})
}

func revert(ctx *cli.Context) error {
	if err := cmdargs.EnsureCount(ctx, 1); err != nil {
		return err
	}
	id := ctx.Args().First()
	if !hexstr.IsHex(id, -1) {
		cfg, err := options.GetConfigFromContext(ctx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		network, _, err := options.GetNetwork(ctx, cfg)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		s, err := options.GetDeploymentsStore(cfg, false)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		sn, err := s.TakeSnapshot(network, id)
		s.Close()
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		id = sn.ID
	}
	return withClient(ctx, func(c *rpcclient.Client) error {
		if err := c.Revert(id); err != nil {
			return fmt.Errorf("failed to revert to %s: %w", id, err)
		}
		return printHeight(ctx, c)
	})
}

func listSnapshots(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	network, _, err := options.GetNetwork(ctx, cfg)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	s, err := options.GetDeploymentsStore(cfg, false)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.Close()
	sns, err := s.Snapshots(network)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	for _, sn := range sns {
		fmt.Fprintf(ctx.App.Writer, "%s\t%s\t%d\n", sn.Name, sn.ID, sn.BlockNumber)
	}
	return nil
}

// getForkParams returns fork parameters from flags or the network
// configuration, nil means no forking.
func getForkParams(ctx *cli.Context, network *config.Network) *ethrpc.ForkParams {
	if ctx.Bool("no-fork") {
		return nil
	}
	if url := ctx.String("fork"); url != "" {
		return &ethrpc.ForkParams{JSONRPCURL: url, BlockNumber: ctx.Uint64("fork-block")}
	}
	return network.Forking.ForkParams()
}

func reset(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	if ctx.Bool("no-fork") && ctx.IsSet("fork") {
		return cli.NewExitError("--no-fork conflicts with --fork", 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	name, network, err := options.GetNetwork(ctx, cfg)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if network.Live && !ctx.Bool("force") {
		ok, err := input.Confirm(ctx.App.Writer, fmt.Sprintf("Network %s is live, reset it?", name))
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		if !ok {
			return cli.NewExitError(errAborted, 1)
		}
	}
	fork := getForkParams(ctx, network)
	return withClient(ctx, func(c *rpcclient.Client) error {
		if err := c.Reset(fork); err != nil {
			return err
		}
		s, err := options.GetDeploymentsStore(cfg, false)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.DropSnapshots(name); err != nil {
			return err
		}
		if fork != nil {
			fmt.Fprintf(ctx.App.Writer, "Forked from %s\n", fork.JSONRPCURL)
		}
		return printHeight(ctx, c)
	})
}

func setBalance(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	addr, _ := flags.AddressFromContext(ctx, "address")
	amount, _ := flags.AmountFromContext(ctx, "amount")
	if amount.Int().Sign() < 0 {
		return cli.NewExitError("negative balance", 1)
	}
	return withClient(ctx, func(c *rpcclient.Client) error {
		if err := c.SetBalance(addr, amount.Int()); err != nil {
			return err
		}
		bal, err := c.GetBalance(addr, rpcclient.BlockLatest)
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "Balance of %s: %s\n", addr.Hex(), fixedn.ToString(bal, fixedn.DefaultDecimals))
		return nil
	})
}
