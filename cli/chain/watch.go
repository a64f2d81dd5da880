package chain

import (
	"fmt"

	"github.com/nspcc-dev/evm-devkit/cli/cmdargs"
	"github.com/nspcc-dev/evm-devkit/cli/options"
	"github.com/nspcc-dev/evm-devkit/pkg/ethrpc"
	"github.com/urfave/cli"
)

func watch(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	count := ctx.Int("count")
	if count < 0 {
		return cli.NewExitError("negative block count", 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, exitErr := options.GetWSClient(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	heads := make(chan *ethrpc.Header, 16)
	if _, err := c.SubscribeNewHeads(heads); err != nil {
		return cli.NewExitError(fmt.Errorf("failed to subscribe: %w", err), 1)
	}
	for received := 0; count == 0 || received < count; received++ {
		select {
		case h, ok := <-heads:
			if !ok {
				return cli.NewExitError("connection lost", 1)
			}
			fmt.Fprintf(ctx.App.Writer, "%d\t%s\t%d\n", uint64(h.Number), h.Hash.Hex(), uint64(h.Timestamp))
		case <-gctx.Done():
			if count == 0 {
				return nil
			}
			return cli.NewExitError(fmt.Errorf("got %d of %d blocks: %w", received, count, gctx.Err()), 1)
		}
	}
	return nil
}
