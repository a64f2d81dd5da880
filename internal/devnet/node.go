/*
Package devnet implements an in-memory development node speaking a subset of
Ethereum JSON-RPC (including the evm_ and hardhat_ extensions) over HTTP and
websocket. It's only intended to be used in tests.
*/
package devnet

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"github.com/nspcc-dev/evm-devkit/pkg/crypto/hash"
	"github.com/nspcc-dev/evm-devkit/pkg/encoding/fixedn"
	"github.com/nspcc-dev/evm-devkit/pkg/ethrpc"
	"go.uber.org/zap"
)

// Defaults used by New.
const (
	DefaultChainID       = 31337
	DefaultGenesisTime   = 1700000000
	DefaultClientVersion = "devnet/v0.1.0"
	defaultGasLimit      = 30000000
)

// DefaultAccounts are the first two accounts derived from the
// "test test ... junk" mnemonic.
var DefaultAccounts = []common.Address{
	common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
	common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
}

// Options configures Node.
type Options struct {
	ChainID     uint64
	GenesisTime uint64
	Accounts    []common.Address
	// Balance is the initial balance of every account, 10000 ether by default.
	Balance *big.Int
	Logger  *zap.Logger
}

// Node is a fake development node. It's safe for concurrent use.
type Node struct {
	opts Options
	log  *zap.Logger

	lock sync.Mutex
	// base is the number of the first block (non-zero after forking reset).
	base          uint64
	blocks        []ethrpc.Header
	balances      map[common.Address]*big.Int
	timeOffset    int64
	nextTimestamp uint64
	snapshots     []snapshot
	forkURL       string
	failures      int
	calls         map[string]int

	subLock sync.Mutex
	subs    map[string]*wsConn
	lastSub uint64
}

type snapshot struct {
	id         string
	height     int
	balances   map[common.Address]*big.Int
	timeOffset int64
}

type request struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      json.RawMessage   `json:"id"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ethrpc.Error   `json:"error,omitempty"`
}

type handler func(n *Node, c *wsConn, params []json.RawMessage) (any, *ethrpc.Error)

var handlers map[string]handler

func init() {
	handlers = map[string]handler{
		"eth_accounts":              (*Node).accounts,
		"eth_blockNumber":           (*Node).blockNumber,
		"eth_chainId":               (*Node).chainID,
		"eth_getBalance":            (*Node).getBalance,
		"eth_getBlockByNumber":      (*Node).getBlockByNumber,
		"eth_subscribe":             (*Node).subscribe,
		"eth_unsubscribe":           (*Node).unsubscribe,
		"evm_increaseTime":          (*Node).increaseTime,
		"evm_mine":                  (*Node).mine,
		"evm_revert":                (*Node).revert,
		"evm_setNextBlockTimestamp": (*Node).setNextBlockTimestamp,
		"evm_snapshot":              (*Node).snapshot,
		"hardhat_reset":             (*Node).reset,
		"hardhat_setBalance":        (*Node).setBalance,
		"net_version":               (*Node).netVersion,
		"web3_clientVersion":        (*Node).clientVersion,
	}
}

// New creates a node with a genesis block.
func New(opts Options) *Node {
	if opts.ChainID == 0 {
		opts.ChainID = DefaultChainID
	}
	if opts.GenesisTime == 0 {
		opts.GenesisTime = DefaultGenesisTime
	}
	if opts.Accounts == nil {
		opts.Accounts = DefaultAccounts
	}
	if opts.Balance == nil {
		opts.Balance = fixedn.Ether(10000).Int()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	n := &Node{
		opts:  opts,
		log:   opts.Logger,
		calls: make(map[string]int),
		subs:  make(map[string]*wsConn),
	}
	n.resetState(0)
	return n
}

// NewServer starts an HTTP server for a new node, the server is closed when
// the test ends. Websocket endpoint is available at /ws.
func NewServer(t testing.TB, opts Options) (*Node, *httptest.Server) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	n := New(opts)
	srv := httptest.NewServer(n)
	t.Cleanup(srv.Close)
	return n, srv
}

// WSEndpoint returns the websocket URL of the node served by srv.
func WSEndpoint(srv *httptest.Server) string {
	return "ws" + srv.URL[len("http"):] + "/ws"
}

func (n *Node) resetState(base uint64) {
	n.base = base
	n.blocks = []ethrpc.Header{n.makeHeader(base, common.Hash{}, n.opts.GenesisTime)}
	n.balances = make(map[common.Address]*big.Int, len(n.opts.Accounts))
	for _, a := range n.opts.Accounts {
		n.balances[a] = new(big.Int).Set(n.opts.Balance)
	}
	n.timeOffset = 0
	n.nextTimestamp = 0
	n.snapshots = nil
}

func (n *Node) makeHeader(number uint64, parent common.Hash, ts uint64) ethrpc.Header {
	var num, tsb [8]byte
	binary.BigEndian.PutUint64(num[:], number)
	binary.BigEndian.PutUint64(tsb[:], ts)
	return ethrpc.Header{
		Number:     hexutil.Uint64(number),
		Hash:       hash.Keccak256(num[:], parent[:], tsb[:]),
		ParentHash: parent,
		Timestamp:  hexutil.Uint64(ts),
	}
}

// Height returns the number of the latest block.
func (n *Node) Height() uint64 {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.height()
}

func (n *Node) height() uint64 {
	return n.base + uint64(len(n.blocks)) - 1
}

// Latest returns the latest block header.
func (n *Node) Latest() ethrpc.Header {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.blocks[len(n.blocks)-1]
}

// ForkURL returns the URL passed to the last forking reset.
func (n *Node) ForkURL() string {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.forkURL
}

// Calls returns the number of times the method was called.
func (n *Node) Calls(method string) int {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.calls[method]
}

// FailNext makes the node answer the next k HTTP requests with 503.
func (n *Node) FailNext(k int) {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.failures = k
}

// ServeHTTP implements http.Handler.
func (n *Node) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		n.serveWS(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	n.lock.Lock()
	fail := n.failures > 0
	if fail {
		n.failures--
	}
	n.lock.Unlock()
	if fail {
		http.Error(w, "node is unavailable", http.StatusServiceUnavailable)
		return
	}

	var (
		req  = new(request)
		resp *response
	)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		resp = &response{
			JSONRPC: ethrpc.JSONRPCVersion,
			ID:      json.RawMessage("null"),
			Error:   ethrpc.NewError(ethrpc.ParseErrorCode, "parse error", err.Error()),
		}
	} else {
		resp = n.handle(nil, req)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		n.log.Debug("failed to write response", zap.Error(err))
	}
}

func (n *Node) handle(c *wsConn, req *request) *response {
	resp := &response{JSONRPC: ethrpc.JSONRPCVersion, ID: req.ID}
	if req.JSONRPC != ethrpc.JSONRPCVersion {
		resp.Error = ethrpc.NewError(ethrpc.InvalidRequestCode, "invalid request", fmt.Sprintf("bad version %q", req.JSONRPC))
		return resp
	}
	h, ok := handlers[req.Method]
	n.log.Debug("processing request", zap.String("method", req.Method), zap.Bool("known", ok))
	if !ok {
		resp.Error = ethrpc.NewMethodNotFoundError(req.Method)
		return resp
	}
	n.lock.Lock()
	n.calls[req.Method]++
	n.lock.Unlock()

	res, rerr := h(n, c, req.Params)
	if rerr != nil {
		resp.Error = rerr
		return resp
	}
	data, err := json.Marshal(res)
	if err != nil {
		resp.Error = ethrpc.NewInternalError(err.Error())
		return resp
	}
	resp.Result = data
	return resp
}

func (n *Node) accounts(_ *wsConn, _ []json.RawMessage) (any, *ethrpc.Error) {
	return n.opts.Accounts, nil
}

func (n *Node) blockNumber(_ *wsConn, _ []json.RawMessage) (any, *ethrpc.Error) {
	return hexutil.Uint64(n.Height()), nil
}

func (n *Node) chainID(_ *wsConn, _ []json.RawMessage) (any, *ethrpc.Error) {
	return hexutil.Uint64(n.opts.ChainID), nil
}

func (n *Node) netVersion(_ *wsConn, _ []json.RawMessage) (any, *ethrpc.Error) {
	return strconv.FormatUint(n.opts.ChainID, 10), nil
}

func (n *Node) clientVersion(_ *wsConn, _ []json.RawMessage) (any, *ethrpc.Error) {
	return DefaultClientVersion, nil
}

func (n *Node) getBalance(_ *wsConn, params []json.RawMessage) (any, *ethrpc.Error) {
	if len(params) < 1 {
		return nil, ethrpc.NewInvalidParamsError("address is required")
	}
	var addr common.Address
	if err := json.Unmarshal(params[0], &addr); err != nil {
		return nil, ethrpc.NewInvalidParamsError(err.Error())
	}
	n.lock.Lock()
	defer n.lock.Unlock()
	bal, ok := n.balances[addr]
	if !ok {
		bal = new(big.Int)
	}
	return (*hexutil.Big)(bal), nil
}

func (n *Node) getBlockByNumber(_ *wsConn, params []json.RawMessage) (any, *ethrpc.Error) {
	if len(params) < 1 {
		return nil, ethrpc.NewInvalidParamsError("block number is required")
	}
	n.lock.Lock()
	defer n.lock.Unlock()

	var num uint64
	var tag string
	if err := json.Unmarshal(params[0], &tag); err != nil {
		return nil, ethrpc.NewInvalidParamsError(err.Error())
	}
	switch tag {
	case "latest", "pending", "safe", "finalized":
		num = n.height()
	case "earliest":
		num = n.base
	default:
		v, err := hexutil.DecodeUint64(tag)
		if err != nil {
			return nil, ethrpc.NewInvalidParamsError(err.Error())
		}
		num = v
	}
	if num < n.base || num > n.height() {
		return nil, nil
	}
	h := n.blocks[num-n.base]
	return &ethrpc.Block{
		Number:       h.Number,
		Hash:         h.Hash,
		ParentHash:   h.ParentHash,
		Timestamp:    h.Timestamp,
		GasLimit:     defaultGasLimit,
		Transactions: []common.Hash{},
	}, nil
}

func (n *Node) mine(_ *wsConn, _ []json.RawMessage) (any, *ethrpc.Error) {
	n.lock.Lock()
	prev := n.blocks[len(n.blocks)-1]
	ts := uint64(int64(prev.Timestamp) + 1 + n.timeOffset)
	if n.nextTimestamp != 0 {
		ts = n.nextTimestamp
		n.nextTimestamp = 0
	}
	// Pending time increase applies to a single block only.
	n.timeOffset = 0
	h := n.makeHeader(uint64(prev.Number)+1, prev.Hash, ts)
	n.blocks = append(n.blocks, h)
	n.lock.Unlock()

	n.notifyHeads(h)
	return "0x0", nil
}

func (n *Node) increaseTime(_ *wsConn, params []json.RawMessage) (any, *ethrpc.Error) {
	if len(params) < 1 {
		return nil, ethrpc.NewInvalidParamsError("number of seconds is required")
	}
	secs, err := parseQuantity(params[0])
	if err != nil {
		return nil, ethrpc.NewInvalidParamsError(err.Error())
	}
	n.lock.Lock()
	defer n.lock.Unlock()
	n.timeOffset += int64(secs)
	// Hardhat reports the adjustment as a decimal string.
	return strconv.FormatInt(n.timeOffset, 10), nil
}

func (n *Node) setNextBlockTimestamp(_ *wsConn, params []json.RawMessage) (any, *ethrpc.Error) {
	if len(params) < 1 {
		return nil, ethrpc.NewInvalidParamsError("timestamp is required")
	}
	ts, err := parseQuantity(params[0])
	if err != nil {
		return nil, ethrpc.NewInvalidParamsError(err.Error())
	}
	n.lock.Lock()
	defer n.lock.Unlock()
	if latest := uint64(n.blocks[len(n.blocks)-1].Timestamp); ts <= latest {
		return nil, ethrpc.NewError(ethrpc.ServerErrorCode,
			fmt.Sprintf("timestamp %d is lower than or equal to previous block's timestamp %d", ts, latest), nil)
	}
	n.nextTimestamp = ts
	return true, nil
}

func (n *Node) snapshot(_ *wsConn, _ []json.RawMessage) (any, *ethrpc.Error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	id := hexutil.EncodeUint64(uint64(len(n.snapshots)) + 1)
	n.snapshots = append(n.snapshots, snapshot{
		id:         id,
		height:     len(n.blocks),
		balances:   copyBalances(n.balances),
		timeOffset: n.timeOffset,
	})
	return id, nil
}

func (n *Node) revert(_ *wsConn, params []json.RawMessage) (any, *ethrpc.Error) {
	if len(params) < 1 {
		return nil, ethrpc.NewInvalidParamsError("snapshot ID is required")
	}
	var id string
	if err := json.Unmarshal(params[0], &id); err != nil {
		return nil, ethrpc.NewInvalidParamsError(err.Error())
	}
	n.lock.Lock()
	defer n.lock.Unlock()
	for i, s := range n.snapshots {
		if s.id != id {
			continue
		}
		n.blocks = n.blocks[:s.height]
		n.balances = s.balances
		n.timeOffset = s.timeOffset
		n.nextTimestamp = 0
		// The snapshot and all the later ones are consumed.
		n.snapshots = n.snapshots[:i]
		return true, nil
	}
	return false, nil
}

func (n *Node) reset(_ *wsConn, params []json.RawMessage) (any, *ethrpc.Error) {
	var (
		base uint64
		url  string
	)
	if len(params) > 0 {
		var p struct {
			Forking *ethrpc.ForkParams `json:"forking"`
		}
		if err := json.Unmarshal(params[0], &p); err != nil {
			return nil, ethrpc.NewInvalidParamsError(err.Error())
		}
		if p.Forking != nil {
			base = p.Forking.BlockNumber
			url = p.Forking.JSONRPCURL
		}
	}
	n.lock.Lock()
	defer n.lock.Unlock()
	n.forkURL = url
	n.resetState(base)
	return true, nil
}

func (n *Node) setBalance(_ *wsConn, params []json.RawMessage) (any, *ethrpc.Error) {
	if len(params) < 2 {
		return nil, ethrpc.NewInvalidParamsError("address and balance are required")
	}
	var (
		addr common.Address
		bal  hexutil.Big
	)
	if err := json.Unmarshal(params[0], &addr); err != nil {
		return nil, ethrpc.NewInvalidParamsError(err.Error())
	}
	if err := json.Unmarshal(params[1], &bal); err != nil {
		return nil, ethrpc.NewInvalidParamsError(err.Error())
	}
	n.lock.Lock()
	defer n.lock.Unlock()
	n.balances[addr] = bal.ToInt()
	return true, nil
}

// parseQuantity accepts both JSON numbers and hex quantities.
func parseQuantity(raw json.RawMessage) (uint64, error) {
	var v uint64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}
	var h hexutil.Uint64
	if err := json.Unmarshal(raw, &h); err != nil {
		return 0, fmt.Errorf("invalid quantity %s", raw)
	}
	return uint64(h), nil
}

func copyBalances(m map[common.Address]*big.Int) map[common.Address]*big.Int {
	res := make(map[common.Address]*big.Int, len(m))
	for k, v := range m {
		res[k] = new(big.Int).Set(v)
	}
	return res
}
