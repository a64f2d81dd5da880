package util

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/nspcc-dev/evm-devkit/cli/cmdargs"
	"github.com/nspcc-dev/evm-devkit/pkg/crypto/hash"
	"github.com/nspcc-dev/evm-devkit/pkg/encoding/fixedn"
	"github.com/nspcc-dev/evm-devkit/pkg/encoding/hexstr"
	"github.com/nspcc-dev/evm-devkit/pkg/encoding/solpacked"
	"github.com/urfave/cli"
)

var decimalsFlag = cli.IntFlag{
	Name:  "decimals",
	Value: fixedn.DefaultDecimals,
	Usage: "Number of decimals of the unit (18 for ether)",
}

// NewCommands returns util commands for the devkit CLI.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:  "util",
		Usage: "various helper commands",
		Subcommands: []cli.Command{
			{
				Name:      "to-wei",
				Usage:     "scale a decimal amount to an integer (ether to wei by default)",
				UsageText: "to-wei [--decimals <n>] <amount>",
				Action:    toWei,
				Flags:     []cli.Flag{decimalsFlag},
			},
			{
				Name:      "from-wei",
				Usage:     "format an integer as a decimal amount (wei to ether by default)",
				UsageText: "from-wei [--decimals <n>] <value>",
				Action:    fromWei,
				Flags:     []cli.Flag{decimalsFlag},
			},
			{
				Name:      "pad-hex",
				Usage:     "encode a non-negative integer as zero-padded hex",
				UsageText: "pad-hex [--length <bytes>] <value>",
				Description: `Prints the value (decimal or 0x-prefixed hex) as a 0x-prefixed hex string
   left-padded with zeroes to 32 bytes (or --length bytes).
`,
				Action: padHex,
				Flags: []cli.Flag{cli.IntFlag{
					Name:  "length, l",
					Value: hexstr.WordSize,
					Usage: "Resulting length in bytes",
				}},
			},
			{
				Name:      "str-hex",
				Usage:     "encode a UTF-8 string as hex",
				UsageText: "str-hex <string>",
				Action:    strHex,
			},
			{
				Name:      "hex-str",
				Usage:     "decode hex into a UTF-8 string",
				UsageText: "hex-str <hex>",
				Action:    hexStr,
			},
			{
				Name:      "pack",
				Usage:     "encode values with abi.encodePacked",
				UsageText: "pack <param> [<param>...]",
				Description: `Prints the packed encoding of the given values.

` + cmdargs.ParamsParsingDoc,
				Action: pack,
			},
			{
				Name:      "keccak",
				Usage:     "keccak256 of a string or of packed values",
				UsageText: "keccak [--packed] <string | param...>",
				Description: `Without --packed hashes the UTF-8 bytes of the single argument, with
   --packed hashes the packed encoding of the arguments (soliditySha3).

` + cmdargs.ParamsParsingDoc,
				Action: keccak,
				Flags: []cli.Flag{cli.BoolFlag{
					Name:  "packed",
					Usage: "Hash packed parameters",
				}},
			},
		},
	}}
}

func getDecimals(ctx *cli.Context) (int, error) {
	d := ctx.Int("decimals")
	if d < 0 {
		return 0, fmt.Errorf("negative decimals %d", d)
	}
	return d, nil
}

func toWei(ctx *cli.Context) error {
	if err := cmdargs.EnsureCount(ctx, 1); err != nil {
		return err
	}
	d, err := getDecimals(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	v, err := fixedn.FromString(ctx.Args().First(), d)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, v)
	return nil
}

func fromWei(ctx *cli.Context) error {
	if err := cmdargs.EnsureCount(ctx, 1); err != nil {
		return err
	}
	d, err := getDecimals(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	v, ok := new(big.Int).SetString(ctx.Args().First(), 0)
	if !ok {
		return cli.NewExitError(fmt.Errorf("invalid integer %q", ctx.Args().First()), 1)
	}
	fmt.Fprintln(ctx.App.Writer, fixedn.ToString(v, d))
	return nil
}

func padHex(ctx *cli.Context) error {
	if err := cmdargs.EnsureCount(ctx, 1); err != nil {
		return err
	}
	v, ok := new(big.Int).SetString(ctx.Args().First(), 0)
	if !ok {
		return cli.NewExitError(fmt.Errorf("invalid integer %q", ctx.Args().First()), 1)
	}
	var (
		res string
		err error
	)
	if l := ctx.Int("length"); l == hexstr.WordSize {
		res, err = hexstr.PaddedFromBig(v)
	} else {
		res, err = hexstr.Hexlify(v)
		if err == nil {
			res, err = hexstr.ZeroPad(res, l)
		}
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, res)
	return nil
}

func strHex(ctx *cli.Context) error {
	if err := cmdargs.EnsureCount(ctx, 1); err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, hexstr.FromString(ctx.Args().First()))
	return nil
}

func hexStr(ctx *cli.Context) error {
	if err := cmdargs.EnsureCount(ctx, 1); err != nil {
		return err
	}
	s, err := hexstr.ToString(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, s)
	return nil
}

func packArgs(ctx *cli.Context) ([]byte, error) {
	if !ctx.Args().Present() {
		return nil, cli.NewExitError("no parameters given", 1)
	}
	types, values, err := cmdargs.ParseParams(ctx.Args())
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	b, err := solpacked.Encode(types, values)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	return b, nil
}

func pack(ctx *cli.Context) error {
	b, err := packArgs(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, hexutil.Encode(b))
	return nil
}

func keccak(ctx *cli.Context) error {
	if !ctx.Bool("packed") {
		if err := cmdargs.EnsureCount(ctx, 1); err != nil {
			return err
		}
		fmt.Fprintln(ctx.App.Writer, hash.Keccak256([]byte(ctx.Args().First())).Hex())
		return nil
	}
	b, err := packArgs(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, hash.Keccak256(b).Hex())
	return nil
}
