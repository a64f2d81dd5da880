/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/nspcc-dev/evm-devkit/pkg/config"
	"github.com/nspcc-dev/evm-devkit/pkg/deployments"
	"github.com/nspcc-dev/evm-devkit/pkg/rpcclient"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultTimeout is the default timeout used for RPC requests.
const DefaultTimeout = 10 * time.Second

const (
	// RPCEndpointFlag is a long flag name for an RPC endpoint. It can be used to
	// check for flag presence in the context.
	RPCEndpointFlag = "rpc-endpoint"
	// NetworkFlag is a long flag name for the network to operate on.
	NetworkFlag = "network"
)

// RPC is a set of flags used for RPC connections (network, endpoint and
// timeout).
var RPC = []cli.Flag{
	Network,
	cli.StringFlag{
		Name:  RPCEndpointFlag + ", r",
		Usage: "RPC node address (overrides the network url)",
	},
	cli.DurationFlag{
		Name:  "timeout, s",
		Value: DefaultTimeout,
		Usage: "Timeout for the operation",
	},
}

// Network is a flag for choosing one of the configured networks.
var Network = cli.StringFlag{
	Name:  NetworkFlag + ", n",
	Usage: "configured network to use (defaultNetwork of the configuration if not specified)",
}

// ConfigFile is a flag for commands that use project configuration.
var ConfigFile = cli.StringFlag{
	Name:  "config-file",
	Usage: "path to the project configuration file (" + config.DefaultConfigPath + " by default)",
}

// Debug is a flag for commands that allow debug logging.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (overrides configuration)",
}

// Common is a set of flags used by commands talking to a network node.
var Common = append([]cli.Flag{ConfigFile, Debug}, RPC...)

var errNoEndpoint = errors.New("no RPC endpoint specified, use option '--" + RPCEndpointFlag + "' or '-r' or configure network url")

// GetTimeoutContext returns a context.Context with the default or a user-set timeout.
func GetTimeoutContext(ctx *cli.Context) (context.Context, func()) {
	dur := ctx.Duration("timeout")
	if dur == 0 {
		dur = DefaultTimeout
	}
	return context.WithTimeout(context.Background(), dur)
}

// GetConfigFromContext loads the configuration file given with --config-file.
// If the flag is missing, the default configuration file is used, and if
// there is no such file the default configuration is returned.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	if configFile := ctx.String("config-file"); len(configFile) != 0 {
		return config.LoadFile(configFile)
	}
	if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		return config.LoadFile(config.DefaultConfigPath)
	}
	return config.Parse(nil, os.LookupEnv)
}

// GetNetwork returns the name and the configuration of the network selected
// with --network (or the default one).
func GetNetwork(ctx *cli.Context, cfg config.Config) (string, *config.Network, error) {
	name := ctx.String(NetworkFlag)
	if name == "" {
		name = cfg.DefaultNetwork
	}
	n, err := cfg.Network(name)
	if err != nil {
		return "", nil, err
	}
	return name, n, nil
}

// GetLogger creates a logger according to the configuration and --debug
// flag.
func GetLogger(ctx *cli.Context, cfg config.Config) (*zap.Logger, error) {
	log, _, err := HandleLoggingParams(ctx.Bool("debug"), cfg.Logging)
	return log, err
}

func getEndpoint(ctx *cli.Context) (string, *config.Network, *zap.Logger, cli.ExitCoder) {
	cfg, err := GetConfigFromContext(ctx)
	if err != nil {
		return "", nil, nil, cli.NewExitError(err, 1)
	}
	_, network, err := GetNetwork(ctx, cfg)
	if err != nil {
		return "", nil, nil, cli.NewExitError(err, 1)
	}
	log, err := GetLogger(ctx, cfg)
	if err != nil {
		return "", nil, nil, cli.NewExitError(err, 1)
	}
	endpoint := ctx.String(RPCEndpointFlag)
	if len(endpoint) == 0 {
		endpoint = network.URL
	}
	if len(endpoint) == 0 {
		return "", nil, nil, cli.NewExitError(errNoEndpoint, 1)
	}
	return endpoint, network, log, nil
}

// switchScheme changes the endpoint scheme between HTTP and websocket ones,
// development nodes serve both at the same address.
func switchScheme(endpoint string, ws bool) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	switch {
	case ws && u.Scheme == "http":
		u.Scheme = "ws"
	case ws && u.Scheme == "https":
		u.Scheme = "wss"
	case !ws && u.Scheme == "ws":
		u.Scheme = "http"
	case !ws && u.Scheme == "wss":
		u.Scheme = "https"
	}
	return u.String(), nil
}

// GetRPCClient returns an RPC client instance for the given Context.
func GetRPCClient(gctx context.Context, ctx *cli.Context) (*rpcclient.Client, cli.ExitCoder) {
	endpoint, network, log, exitErr := getEndpoint(ctx)
	if exitErr != nil {
		return nil, exitErr
	}
	endpoint, err := switchScheme(endpoint, false)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	c, err := rpcclient.New(gctx, endpoint, rpcclient.Options{
		RequestTimeout: network.RequestTimeout(),
		Logger:         log,
	})
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	err = c.Init()
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	return c, nil
}

// GetWSClient returns a websocket RPC client instance for the given Context.
// HTTP endpoints are converted to websocket ones.
func GetWSClient(gctx context.Context, ctx *cli.Context) (*rpcclient.WSClient, cli.ExitCoder) {
	endpoint, network, log, exitErr := getEndpoint(ctx)
	if exitErr != nil {
		return nil, exitErr
	}
	endpoint, err := switchScheme(endpoint, true)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	c, err := rpcclient.NewWS(gctx, endpoint, rpcclient.Options{
		RequestTimeout: network.RequestTimeout(),
		Logger:         log,
	})
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	err = c.Init()
	if err != nil {
		c.Close()
		return nil, cli.NewExitError(err, 1)
	}
	return c, nil
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a file for logging.
func HandleLoggingParams(debug bool, cfg config.Logging) (*zap.Logger, *zap.AtomicLevel, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.Level) > 0 {
		level, err = zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil

	if logPath := cfg.Path; logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("could not create dir for logger: %w", err)
		}
		cc.OutputPaths = []string{logPath}
	}

	log, err := cc.Build()
	return log, &cc.Level, err
}

// GetDeploymentsStore opens the deployments store of the project.
func GetDeploymentsStore(cfg config.Config, readOnly bool) (*deployments.Store, error) {
	return deployments.Open(deployments.Options{
		FilePath: cfg.DeploymentsPath(),
		ReadOnly: readOnly,
	})
}
