package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/evm-devkit/cli/chain"
	"github.com/nspcc-dev/evm-devkit/cli/project"
	"github.com/nspcc-dev/evm-devkit/cli/util"
	"github.com/nspcc-dev/evm-devkit/cli/wallet"
	"github.com/nspcc-dev/evm-devkit/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "EVM devkit\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates an instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "evm-devkit"
	ctl.Version = config.Version
	ctl.Usage = "Development toolkit for EVM-compatible chains"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, wallet.NewCommands()...)
	ctl.Commands = append(ctl.Commands, chain.NewCommands()...)
	ctl.Commands = append(ctl.Commands, util.NewCommands()...)
	ctl.Commands = append(ctl.Commands, project.NewCommands()...)
	return ctl
}
