package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/evm-devkit/pkg/ethrpc"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	defaultDialTimeout    = 4 * time.Second
	defaultRequestTimeout = 4 * time.Second
	defaultBlockCacheSize = 128
)

var errNoResult = errors.New("no result returned")

// Client represents the middleman for executing JSON RPC calls
// to Ethereum-compatible nodes. Client is thread-safe and can be used from
// multiple goroutines.
type Client struct {
	cli      *http.Client
	endpoint *url.URL
	ctx      context.Context
	opts     Options
	log      *zap.Logger
	requestF func(*ethrpc.Request) (*ethrpc.Response, error)

	cacheLock sync.RWMutex
	// cache stores node related information the client is bound to. It's
	// filled in during Init().
	cache cache
	// blocks caches eth_getBlockByNumber results, it's purged whenever the
	// chain can be rewound (evm_revert, hardhat_reset).
	blocks *lru.Cache

	latestReqID *atomic.Uint64
	// getNextRequestID returns an ID to be used for the subsequent request creation.
	// It is defined on Client, so that our testing code can override this method
	// for the sake of more predictable request IDs generation behavior.
	getNextRequestID func() uint64
}

// Options defines options for the RPC client.
// All values are optional. If any duration is not specified,
// a default of 4 seconds will be used.
type Options struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	// Limit total number of connections per host. No limit by default.
	MaxConnsPerHost int
	// Retries is the number of times a request failed at the transport level
	// is retried (with exponential backoff). JSON-RPC errors are never
	// retried. Zero means no retries.
	Retries uint64
	// BlockCacheSize is the number of blocks kept in the block cache, 128
	// by default.
	BlockCacheSize int
	// Logger is used for debug messages, no logging by default.
	Logger *zap.Logger
}

// cache stores cache values for the RPC client methods.
type cache struct {
	initDone bool
	chainID  uint64
}

// New returns a new Client ready to use. You should call Init method to
// initialize the chain ID cache if you plan using ChainIDCached.
func New(ctx context.Context, endpoint string, opts Options) (*Client, error) {
	cl := new(Client)
	err := initClient(ctx, cl, endpoint, opts)
	if err != nil {
		return nil, err
	}
	return cl, nil
}

func initClient(ctx context.Context, cl *Client, endpoint string, opts Options) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: scheme and host are required", endpoint)
	}

	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.BlockCacheSize <= 0 {
		opts.BlockCacheSize = defaultBlockCacheSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: opts.DialTimeout,
			}).DialContext,
			MaxConnsPerHost: opts.MaxConnsPerHost,
		},
		Timeout: opts.RequestTimeout,
	}
	blocks, err := lru.New(opts.BlockCacheSize)
	if err != nil {
		return err
	}

	cl.ctx = ctx
	cl.cli = httpClient
	cl.endpoint = u
	cl.blocks = blocks
	cl.latestReqID = atomic.NewUint64(0)
	cl.getNextRequestID = (cl).getRequestID
	cl.opts = opts
	cl.log = opts.Logger
	cl.requestF = cl.makeHTTPRequest
	return nil
}

func (c *Client) getRequestID() uint64 {
	return c.latestReqID.Inc()
}

// Init caches the chain ID of the network client is connected to. It
// should be called before ChainIDCached is used.
func (c *Client) Init() error {
	id, err := c.ChainID()
	if err != nil {
		return fmt.Errorf("failed to get chain ID: %w", err)
	}

	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()

	c.cache.chainID = id
	c.cache.initDone = true
	return nil
}

// ChainIDCached returns the chain ID obtained by Init (zero if Init was not
// called).
func (c *Client) ChainIDCached() uint64 {
	c.cacheLock.RLock()
	defer c.cacheLock.RUnlock()
	return c.cache.chainID
}

// Endpoint returns the client endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Close closes unused underlying networks connections.
func (c *Client) Close() {
	if c.cli != nil {
		c.cli.CloseIdleConnections()
	}
}

func (c *Client) performRequest(method string, p []any, v any) error {
	var (
		r     = ethrpc.NewRequest(c.getNextRequestID(), method, p...)
		start = time.Now()
		raw   *ethrpc.Response
	)
	defer func() {
		rpcCallDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	op := func() error {
		var err error
		raw, err = c.requestF(r)
		return err
	}
	var b backoff.BackOff = backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.opts.Retries)
	err := backoff.RetryNotify(op, backoff.WithContext(b, c.ctx), func(err error, d time.Duration) {
		c.log.Debug("RPC request failed, retrying",
			zap.String("method", method),
			zap.Duration("delay", d),
			zap.Error(err))
	})

	if raw != nil && raw.Error != nil {
		return raw.Error
	} else if err != nil {
		return err
	} else if raw == nil || raw.Result == nil {
		return errNoResult
	}
	if v == nil {
		return nil
	}
	return json.Unmarshal(raw.Result, v)
}

func (c *Client) makeHTTPRequest(r *ethrpc.Request) (*ethrpc.Response, error) {
	var (
		buf = new(bytes.Buffer)
		raw = new(ethrpc.Response)
	)

	if err := json.NewEncoder(buf).Encode(r); err != nil {
		return nil, backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, c.endpoint.String(), buf)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// The node might send us a proper JSON anyway, so look there first and if
	// it parses, it has more relevant data than HTTP error code.
	err = json.NewDecoder(resp.Body).Decode(raw)
	if err != nil {
		if resp.StatusCode != http.StatusOK {
			err = fmt.Errorf("HTTP %d/%s", resp.StatusCode, http.StatusText(resp.StatusCode))
		} else {
			err = backoff.Permanent(fmt.Errorf("JSON decoding: %w", err))
		}
		return nil, err
	}
	return raw, nil
}

// Ping attempts to create a connection to the endpoint
// and returns an error if there is any.
func (c *Client) Ping() error {
	conn, err := net.DialTimeout("tcp", c.endpoint.Host, c.opts.DialTimeout)
	if err != nil {
		return err
	}
	_ = conn.Close()
	return nil
}
