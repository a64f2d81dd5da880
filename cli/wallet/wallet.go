package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nspcc-dev/evm-devkit/cli/cmdargs"
	"github.com/nspcc-dev/evm-devkit/cli/input"
	"github.com/nspcc-dev/evm-devkit/cli/options"
	"github.com/nspcc-dev/evm-devkit/pkg/config"
	"github.com/nspcc-dev/evm-devkit/pkg/config/chainid"
	"github.com/nspcc-dev/evm-devkit/pkg/crypto/keys"
	"github.com/nspcc-dev/evm-devkit/pkg/encoding/fixedn"
	"github.com/nspcc-dev/evm-devkit/pkg/rpcclient"
	"github.com/nspcc-dev/evm-devkit/pkg/wallet"
	"github.com/urfave/cli"
)

var (
	errNoAccounts    = errors.New("network has no accounts")
	errKeyConflict   = errors.New("--key flag conflicts with --mnemonic-prompt flag")
	errNoSignerIndex = errors.New("account index is out of range")
)

var (
	remoteFlag = cli.BoolFlag{
		Name:  "remote",
		Usage: "Get accounts from the node (eth_accounts) instead of the configuration",
	}
	balanceFlag = cli.BoolFlag{
		Name:  "balance, b",
		Usage: "Print account balances (in ether)",
	}
	indexFlag = cli.IntFlag{
		Name:  "index, i",
		Usage: "Index of the signing account in the network accounts list",
	}
	keyFlag = cli.StringFlag{
		Name:  "key, k",
		Usage: "Hex-encoded private key to sign with (overrides network accounts)",
	}
	mnemonicPromptFlag = cli.BoolFlag{
		Name:  "mnemonic-prompt",
		Usage: "Read the mnemonic to derive the signing key from the terminal",
	}
	hexFlag = cli.BoolFlag{
		Name:  "hex",
		Usage: "Treat the message as hex-encoded bytes instead of a UTF-8 string",
	}
)

var signerFlags = []cli.Flag{indexFlag, keyFlag, mnemonicPromptFlag}

// NewCommands returns 'accounts' and 'wallet' commands.
func NewCommands() []cli.Command {
	localFlags := []cli.Flag{options.ConfigFile, options.Debug, options.Network}
	signFlags := append(append([]cli.Flag{}, localFlags...), signerFlags...)
	return []cli.Command{{
		Name:      "accounts",
		Usage:     "print the list of accounts",
		UsageText: "accounts [--remote] [--balance] [--network <name>] [--config-file <file>]",
		Description: `Prints addresses of the network accounts. They are derived from the
   configured mnemonic (or keys) unless the network uses "remote" accounts or
   --remote flag is given, in which case they are requested from the node.
   Balances are always requested from the node.
`,
		Action: listAccounts,
		Flags:  append([]cli.Flag{remoteFlag, balanceFlag}, options.Common...),
	}, {
		Name:  "wallet",
		Usage: "sign messages and meta-transactions with the network accounts",
		Subcommands: []cli.Command{
			{
				Name:      "sign",
				Usage:     "sign a message the personal_sign way",
				UsageText: "sign [--hex] [--index <i> | --key <key> | --mnemonic-prompt] <message>",
				Action:    signMessage,
				Flags:     append([]cli.Flag{hexFlag}, signFlags...),
			},
			{
				Name:      "split-sig",
				Usage:     "decompose a signature into r, s and v",
				UsageText: "split-sig <signature>",
				Action:    splitSignature,
			},
			{
				Name:      "recover",
				Usage:     "recover the address that signed the message",
				UsageText: "recover [--hex] <message> <signature>",
				Action:    recoverSigner,
				Flags:     []cli.Flag{hexFlag},
			},
			{
				Name:      "metatx",
				Usage:     "build (and sign) a meta-transaction message",
				UsageText: "metatx --contract <address> --nonce <n> --salt <n> --function-signature <hex> [--sign [--index <i> | --key <key> | --mnemonic-prompt]]",
				Action:    metaTx,
				Flags:     append(metaTxFlags, signFlags...),
			},
			{
				Name:      "named",
				Usage:     "resolve named accounts for the network",
				UsageText: "named [--remote] [--network <name>] [name]",
				Action:    listNamed,
				Flags:     append([]cli.Flag{remoteFlag}, options.Common...),
			},
		},
	}}
}

// getAddresses returns the network account addresses and the client if the
// node had to be contacted (remote accounts or needNode). The client is
// bound to gctx.
func getAddresses(gctx context.Context, ctx *cli.Context, network *config.Network, needNode bool) ([]common.Address, *rpcclient.Client, error) {
	remote := ctx.Bool("remote") || network.Accounts.Remote
	var c *rpcclient.Client
	if remote || needNode {
		var exitErr cli.ExitCoder
		c, exitErr = options.GetRPCClient(gctx, ctx)
		if exitErr != nil {
			return nil, nil, exitErr
		}
	}
	if remote {
		addrs, err := c.Accounts()
		if err != nil {
			c.Close()
			return nil, nil, err
		}
		return addrs, c, nil
	}
	w, err := wallet.FromConfig(network.Accounts)
	if err != nil {
		if c != nil {
			c.Close()
		}
		return nil, nil, err
	}
	return w.Addresses(), c, nil
}

func listAccounts(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	_, network, err := options.GetNetwork(ctx, cfg)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	withBalance := ctx.Bool("balance")
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	addrs, c, err := getAddresses(gctx, ctx, network, withBalance)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if c != nil {
		defer c.Close()
	}
	if len(addrs) == 0 {
		return cli.NewExitError(errNoAccounts, 1)
	}
	for _, addr := range addrs {
		if !withBalance {
			fmt.Fprintln(ctx.App.Writer, addr.Hex())
			continue
		}
		bal, err := c.GetBalance(addr, rpcclient.BlockLatest)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("failed to get balance of %s: %w", addr.Hex(), err), 1)
		}
		fmt.Fprintf(ctx.App.Writer, "%s\t%s\n", addr.Hex(), fixedn.ToString(bal, fixedn.DefaultDecimals))
	}
	return nil
}

func listNamed(ctx *cli.Context) error {
	if ctx.NArg() > 1 {
		return cli.NewExitError("only one named account can be given", 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	name, network, err := options.GetNetwork(ctx, cfg)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	addrs, c, err := getAddresses(gctx, ctx, network, false)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	id := network.ChainID
	if c != nil {
		defer c.Close()
		if id == 0 {
			id = chainid.ID(c.ChainIDCached())
		}
	}

	if accName := ctx.Args().First(); accName != "" {
		addr, err := wallet.ResolveNamed(cfg.NamedAccounts, accName, name, id, addrs)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		fmt.Fprintln(ctx.App.Writer, addr.Hex())
		return nil
	}
	named, err := wallet.ResolveAllNamed(cfg.NamedAccounts, name, id, addrs)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	for _, na := range named {
		fmt.Fprintf(ctx.App.Writer, "%s\t%s\n", na.Name, na.Address.Hex())
	}
	return nil
}

// getSigner returns the signing key chosen by the signer flags.
func getSigner(ctx *cli.Context) (*keys.PrivateKey, error) {
	if ctx.IsSet("key") && ctx.Bool("mnemonic-prompt") {
		return nil, errKeyConflict
	}
	if ctx.IsSet("key") {
		return keys.NewPrivateKeyFromHex(ctx.String("key"))
	}
	index := ctx.Int("index")
	if index < 0 {
		return nil, errNoSignerIndex
	}
	if ctx.Bool("mnemonic-prompt") {
		mnemonic, err := input.ReadPassword(ctx.App.Writer, "Enter mnemonic > ")
		if err != nil {
			return nil, fmt.Errorf("error reading mnemonic: %w", err)
		}
		ks, err := wallet.DeriveKeys(strings.TrimSpace(mnemonic), "", config.DefaultHDPath, uint32(index), 1)
		if err != nil {
			return nil, err
		}
		return ks[0], nil
	}

	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return nil, err
	}
	_, network, err := options.GetNetwork(ctx, cfg)
	if err != nil {
		return nil, err
	}
	w, err := wallet.FromConfig(network.Accounts)
	if err != nil {
		return nil, err
	}
	if index >= len(w.Accounts) {
		return nil, fmt.Errorf("%w: %d of %d", errNoSignerIndex, index, len(w.Accounts))
	}
	return w.Accounts[index].PrivateKey, nil
}

