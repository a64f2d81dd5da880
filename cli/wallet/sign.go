package wallet

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/nspcc-dev/evm-devkit/cli/cmdargs"
	"github.com/nspcc-dev/evm-devkit/cli/flags"
	"github.com/nspcc-dev/evm-devkit/cli/options"
	"github.com/nspcc-dev/evm-devkit/pkg/crypto/keys"
	"github.com/nspcc-dev/evm-devkit/pkg/metatx"
	"github.com/urfave/cli"
)

var errNoSalt = errors.New("no salt given and the network has no chainId configured")

var metaTxFlags = flags.MarkRequired([]cli.Flag{
	flags.AddressFlag{
		Name:  "contract, c",
		Usage: "Address of the contract executing the meta-transaction",
	},
	cli.StringFlag{
		Name:  "nonce",
		Usage: "User nonce (decimal or 0x-prefixed hex)",
	},
	cli.StringFlag{
		Name:  "salt",
		Usage: "Salt, the chain ID of the network by default",
	},
	cli.StringFlag{
		Name:  "function-signature, f",
		Usage: "Hex-encoded ABI-encoded call to be executed",
	},
	cli.BoolFlag{
		Name:  "sign",
		Usage: "Sign the message with the selected account",
	},
}, "contract, c", "nonce", "function-signature, f")

func getMessage(ctx *cli.Context, s string) ([]byte, error) {
	if !ctx.Bool("hex") {
		return []byte(s), nil
	}
	return hexutil.Decode(s)
}

func printSignature(w io.Writer, sig *keys.Signature) {
	fmt.Fprintf(w, "Signature: %s\n", sig)
	fmt.Fprintf(w, "r: %s\ns: %s\nv: %d\n", sig.RHex(), sig.SHex(), sig.V)
}

func signMessage(ctx *cli.Context) error {
	if err := cmdargs.EnsureCount(ctx, 1); err != nil {
		return err
	}
	msg, err := getMessage(ctx, ctx.Args().First())
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid message: %w", err), 1)
	}
	key, err := getSigner(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Signer: %s\n", key.Address().Hex())
	printSignature(ctx.App.Writer, key.SignMessage(msg))
	return nil
}

func splitSignature(ctx *cli.Context) error {
	if err := cmdargs.EnsureCount(ctx, 1); err != nil {
		return err
	}
	sig, err := keys.ParseSignature(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "r: %s\ns: %s\nv: %d\n", sig.RHex(), sig.SHex(), sig.V)
	return nil
}

func recoverSigner(ctx *cli.Context) error {
	if err := cmdargs.EnsureCount(ctx, 2); err != nil {
		return err
	}
	msg, err := getMessage(ctx, ctx.Args().Get(0))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid message: %w", err), 1)
	}
	sig, err := keys.ParseSignature(ctx.Args().Get(1))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	pub, err := keys.RecoverFromMessage(msg, sig)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, pub.Address().Hex())
	return nil
}

// parseInt parses a decimal or 0x-prefixed hex non-negative integer.
func parseInt(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

func metaTx(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	contract, _ := flags.AddressFromContext(ctx, "contract")
	nonce, err := parseInt(ctx.String("nonce"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("nonce: %w", err), 1)
	}
	fn, err := hexutil.Decode(ctx.String("function-signature"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("function signature: %w", err), 1)
	}
	var salt *big.Int
	if ctx.IsSet("salt") {
		salt, err = parseInt(ctx.String("salt"))
		if err != nil {
			return cli.NewExitError(fmt.Errorf("salt: %w", err), 1)
		}
	} else {
		cfg, err := options.GetConfigFromContext(ctx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		_, network, err := options.GetNetwork(ctx, cfg)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		if network.ChainID == 0 {
			return cli.NewExitError(errNoSalt, 1)
		}
		salt = new(big.Int).SetUint64(uint64(network.ChainID))
	}

	req := &metatx.Request{
		Nonce:             nonce,
		Salt:              salt,
		FunctionSignature: fn,
		Contract:          contract,
	}
	msg, err := req.Message()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Message: %s\n", msg.Hex())
	if !ctx.Bool("sign") {
		return nil
	}
	key, err := getSigner(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	sig, err := req.Sign(key)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Signer: %s\n", key.Address().Hex())
	printSignature(ctx.App.Writer, sig)
	return nil
}
