/*
Package project contains commands working with the project configuration and
the deployments database.
*/
package project

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nspcc-dev/evm-devkit/cli/cmdargs"
	"github.com/nspcc-dev/evm-devkit/cli/flags"
	"github.com/nspcc-dev/evm-devkit/cli/options"
	"github.com/nspcc-dev/evm-devkit/pkg/deployments"
	"github.com/urfave/cli"
	"gopkg.in/yaml.v3"
)

// NewCommands returns 'project' command.
func NewCommands() []cli.Command {
	cfgFlags := []cli.Flag{options.ConfigFile}
	netFlags := []cli.Flag{options.ConfigFile, options.Network}
	saveFlags := append(flags.MarkRequired([]cli.Flag{
		cli.StringFlag{
			Name:  "name",
			Usage: "Contract deployment name",
		},
		flags.AddressFlag{
			Name:  "address, a",
			Usage: "Contract address",
		},
		cli.StringFlag{
			Name:  "tx",
			Usage: "Deployment transaction hash",
		},
		cli.Uint64Flag{
			Name:  "block",
			Usage: "Deployment block number",
		},
		flags.AddressFlag{
			Name:  "deployer",
			Usage: "Deployer account",
		},
		cli.StringFlag{
			Name:  "abi",
			Usage: "Path to the contract artifact",
		},
	}, "name", "address, a"), netFlags...)

	return []cli.Command{{
		Name:  "project",
		Usage: "project configuration and deployments",
		Subcommands: []cli.Command{
			{
				Name:      "config",
				Usage:     "print the effective configuration (defaults applied, variables expanded)",
				UsageText: "config [--config-file <file>]",
				Action:    printConfig,
				Flags:     cfgFlags,
			},
			{
				Name:      "validate",
				Usage:     "check the configuration",
				UsageText: "validate [--config-file <file>]",
				Action:    validate,
				Flags:     cfgFlags,
			},
			{
				Name:      "networks",
				Usage:     "list configured networks",
				UsageText: "networks [--config-file <file>]",
				Action:    listNetworks,
				Flags:     cfgFlags,
			},
			{
				Name:      "deployments",
				Usage:     "list contract deployments of the network",
				UsageText: "deployments [--network <name>] [name]",
				Action:    listDeployments,
				Flags:     netFlags,
			},
			{
				Name:      "save-deployment",
				Usage:     "record a contract deployment",
				UsageText: "save-deployment --name <name> --address <address> [--tx <hash>] [--block <n>] [--deployer <address>] [--abi <path>]",
				Action:    saveDeployment,
				Flags:     saveFlags,
			},
			{
				Name:      "delete-deployment",
				Usage:     "forget a contract deployment",
				UsageText: "delete-deployment [--network <name>] <name>",
				Action:    deleteDeployment,
				Flags:     netFlags,
			},
		},
	}}
}

func printConfig(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	enc := yaml.NewEncoder(ctx.App.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return cli.NewExitError(err, 1)
	}
	return enc.Close()
}

func validate(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Configuration is valid, %d networks, default is %s\n",
		len(cfg.Networks), cfg.DefaultNetwork)
	return nil
}

func listNetworks(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	for _, name := range cfg.NetworkNames() {
		n := cfg.Networks[name]
		chain := "-"
		if n.ChainID != 0 {
			chain = n.ChainID.String()
		}
		fmt.Fprintf(ctx.App.Writer, "%s\t%s\t%s\n", name, chain, n.URL)
	}
	return nil
}

func openStore(ctx *cli.Context, readOnly bool) (*deployments.Store, string, error) {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return nil, "", err
	}
	network, _, err := options.GetNetwork(ctx, cfg)
	if err != nil {
		return nil, "", err
	}
	s, err := options.GetDeploymentsStore(cfg, readOnly)
	if err != nil {
		return nil, "", err
	}
	return s, network, nil
}

func listDeployments(ctx *cli.Context) error {
	if ctx.NArg() > 1 {
		return cli.NewExitError("only one deployment name can be given", 1)
	}
	s, network, err := openStore(ctx, false)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.Close()

	if name := ctx.Args().First(); name != "" {
		d, err := s.Get(network, name)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		out, err := yaml.Marshal(d)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		fmt.Fprint(ctx.App.Writer, string(out))
		return nil
	}
	ds, err := s.List(network)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	for _, d := range ds {
		fmt.Fprintf(ctx.App.Writer, "%s\t%s\n", d.Name, d.Address.Hex())
	}
	return nil
}

func saveDeployment(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	d := deployments.Deployment{
		Name:        ctx.String("name"),
		BlockNumber: ctx.Uint64("block"),
		ABI:         ctx.String("abi"),
	}
	d.Address, _ = flags.AddressFromContext(ctx, "address")
	d.Deployer, _ = flags.AddressFromContext(ctx, "deployer")
	if tx := ctx.String("tx"); tx != "" {
		b := common.FromHex(tx)
		if len(b) != common.HashLength {
			return cli.NewExitError(fmt.Errorf("invalid transaction hash %q", tx), 1)
		}
		d.TxHash = common.BytesToHash(b)
	}
	s, network, err := openStore(ctx, false)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.Close()
	if err := s.Save(network, d); err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Saved %s at %s on %s\n", d.Name, d.Address.Hex(), network)
	return nil
}

func deleteDeployment(ctx *cli.Context) error {
	if err := cmdargs.EnsureCount(ctx, 1); err != nil {
		return err
	}
	s, network, err := openStore(ctx, false)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.Close()
	if err := s.Delete(network, ctx.Args().First()); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}
