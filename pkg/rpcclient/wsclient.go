package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nspcc-dev/evm-devkit/pkg/ethrpc"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// WSClient is a websocket-enabled RPC client that can be used with appropriate
// servers. It's supposed to be faster than Client because it has persistent
// connection to the server and at the same time it exposes some functionality
// that is only provided via websockets (like newHeads subscriptions).
type WSClient struct {
	Client

	ws          *websocket.Conn
	done        chan struct{}
	requests    chan *ethrpc.Request
	shutdown    chan struct{}
	closeCalled *atomic.Bool

	respLock     sync.Mutex
	respChannels map[uint64]chan *ethrpc.Response

	subscriptionsLock sync.RWMutex
	subscriptions     map[string]chan<- *ethrpc.Header
}

// wsMessage is a combined type for responses and notifications since we can
// get any of them here.
type wsMessage struct {
	JSONRPC string                     `json:"jsonrpc"`
	ID      json.RawMessage            `json:"id,omitempty"`
	Method  string                     `json:"method,omitempty"`
	Params  *ethrpc.SubscriptionResult `json:"params,omitempty"`
	Error   *ethrpc.Error              `json:"error,omitempty"`
	Result  json.RawMessage            `json:"result,omitempty"`
}

const (
	// Message limit for receiving side.
	wsReadLimit = 10 * 1024 * 1024

	// Disconnection timeout.
	wsPongLimit = 60 * time.Second

	// Ping period for connection liveness check.
	wsPingPeriod = wsPongLimit / 2

	// Write deadline.
	wsWriteLimit = wsPingPeriod / 2
)

// NewWS returns a new WSClient ready to use (with established websocket
// connection). You need to use websocket URL for it like `ws://1.2.3.4:8545`.
func NewWS(ctx context.Context, endpoint string, opts Options) (*WSClient, error) {
	wsc := &WSClient{
		shutdown:      make(chan struct{}),
		done:          make(chan struct{}),
		closeCalled:   atomic.NewBool(false),
		requests:      make(chan *ethrpc.Request),
		respChannels:  make(map[uint64]chan *ethrpc.Response),
		subscriptions: make(map[string]chan<- *ethrpc.Header),
	}
	err := initClient(ctx, &wsc.Client, endpoint, opts)
	if err != nil {
		return nil, err
	}
	wsc.Client.cli = nil

	dialer := websocket.Dialer{HandshakeTimeout: wsc.opts.DialTimeout}
	ws, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	wsc.ws = ws
	wsc.requestF = wsc.makeWsRequest
	go wsc.wsReader()
	go wsc.wsWriter()
	return wsc, nil
}

// Close closes connection to the remote side rendering this client instance
// unusable.
func (c *WSClient) Close() {
	if c.closeCalled.CompareAndSwap(false, true) {
		// Closing shutdown channel sends a signal to wsWriter to break out of the
		// loop. In doing so it does ws.Close() closing the network connection
		// which in turn makes wsReader receive an err from ws.ReadJSON() and also
		// break out of the loop closing c.done channel in its shutdown sequence.
		close(c.shutdown)
	}
	<-c.done
}

func (c *WSClient) wsReader() {
	c.ws.SetReadLimit(wsReadLimit)
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(wsPongLimit))
	})
	var connCloseErr error
readloop:
	for {
		msg := new(wsMessage)
		err := c.ws.SetReadDeadline(time.Now().Add(wsPongLimit))
		if err != nil {
			connCloseErr = fmt.Errorf("failed to set response read deadline: %w", err)
			break readloop
		}
		err = c.ws.ReadJSON(msg)
		if err != nil {
			// Timeout/connection loss/malformed response.
			connCloseErr = fmt.Errorf("failed to read JSON response (timeout/connection loss/malformed response): %w", err)
			break readloop
		}
		switch {
		case msg.Method == ethrpc.SubscriptionMethod && msg.Params != nil:
			c.notify(msg.Params)
		case len(msg.ID) != 0 && (msg.Error != nil || msg.Result != nil):
			id, err := strconv.ParseUint(string(msg.ID), 10, 64)
			if err != nil {
				connCloseErr = fmt.Errorf("failed to retrieve response ID from %s: %w", msg.ID, err)
				break readloop
			}
			c.respLock.Lock()
			ch, ok := c.respChannels[id]
			if ok {
				delete(c.respChannels, id)
			}
			c.respLock.Unlock()
			if !ok {
				c.log.Debug("unexpected response", zap.Uint64("id", id))
				continue
			}
			resp := new(ethrpc.Response)
			resp.ID = msg.ID
			resp.JSONRPC = msg.JSONRPC
			resp.Error = msg.Error
			resp.Result = msg.Result
			ch <- resp
		default:
			// Malformed response, neither valid request, nor valid response.
			connCloseErr = errors.New("malformed response")
			break readloop
		}
	}
	if connCloseErr != nil && !c.closeCalled.Load() {
		c.log.Debug("websocket connection closed", zap.Error(connCloseErr))
	}
	close(c.done)
	c.respLock.Lock()
	for id, ch := range c.respChannels {
		close(ch)
		delete(c.respChannels, id)
	}
	c.respLock.Unlock()
	c.subscriptionsLock.Lock()
	for id, ch := range c.subscriptions {
		close(ch)
		delete(c.subscriptions, id)
	}
	c.subscriptionsLock.Unlock()
}

func (c *WSClient) notify(p *ethrpc.SubscriptionResult) {
	c.subscriptionsLock.RLock()
	ch, ok := c.subscriptions[p.Subscription]
	c.subscriptionsLock.RUnlock()
	if !ok {
		return
	}
	h := new(ethrpc.Header)
	if err := json.Unmarshal(p.Result, h); err != nil {
		c.log.Debug("bad newHeads notification", zap.Error(err))
		return
	}
	select {
	case ch <- h:
	case <-c.shutdown:
	}
}

func (c *WSClient) wsWriter() {
	pingTicker := time.NewTicker(wsPingPeriod)
	defer c.ws.Close()
	defer pingTicker.Stop()
	for {
		select {
		case <-c.shutdown:
			return
		case <-c.done:
			return
		case req, ok := <-c.requests:
			if !ok {
				return
			}
			if err := c.ws.SetWriteDeadline(time.Now().Add(c.opts.RequestTimeout)); err != nil {
				return
			}
			if err := c.ws.WriteJSON(req); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(wsWriteLimit)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) registerRespChannel(id uint64, ch chan *ethrpc.Response) {
	c.respLock.Lock()
	defer c.respLock.Unlock()
	c.respChannels[id] = ch
}

func (c *WSClient) unregisterRespChannel(id uint64) {
	c.respLock.Lock()
	defer c.respLock.Unlock()
	delete(c.respChannels, id)
}

func (c *WSClient) makeWsRequest(r *ethrpc.Request) (*ethrpc.Response, error) {
	ch := make(chan *ethrpc.Response, 1)
	c.registerRespChannel(r.ID, ch)

	select {
	case <-c.done:
		c.unregisterRespChannel(r.ID)
		return nil, errors.New("connection lost before sending the request")
	case <-c.ctx.Done():
		c.unregisterRespChannel(r.ID)
		return nil, c.ctx.Err()
	case c.requests <- r:
	}
	select {
	case <-c.done:
		return nil, errors.New("connection lost while waiting for the response")
	case <-c.ctx.Done():
		c.unregisterRespChannel(r.ID)
		return nil, c.ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			return nil, errors.New("connection lost while waiting for the response")
		}
		return resp, nil
	case <-time.After(c.opts.RequestTimeout):
		c.unregisterRespChannel(r.ID)
		return nil, fmt.Errorf("request %d (%s) timed out", r.ID, r.Method)
	}
}

// SubscribeNewHeads creates a subscription for new block headers, they're
// delivered to ch which is closed when the connection is lost or the client
// is closed. The subscription ID is returned.
func (c *WSClient) SubscribeNewHeads(ch chan<- *ethrpc.Header) (string, error) {
	var id string

	// Notifications received before the registration are dropped.
	if err := c.performRequest("eth_subscribe", []any{"newHeads"}, &id); err != nil {
		return "", err
	}
	c.subscriptionsLock.Lock()
	defer c.subscriptionsLock.Unlock()
	select {
	case <-c.done:
		return "", errors.New("connection lost")
	default:
	}
	c.subscriptions[id] = ch
	return id, nil
}

// Unsubscribe removes the subscription. The channel of the subscription is
// not closed.
func (c *WSClient) Unsubscribe(id string) error {
	var ok bool
	c.subscriptionsLock.Lock()
	_, known := c.subscriptions[id]
	delete(c.subscriptions, id)
	c.subscriptionsLock.Unlock()
	if !known {
		return fmt.Errorf("unknown subscription %s", id)
	}
	if err := c.performRequest("eth_unsubscribe", []any{id}, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("subscription %s was not removed by the node", id)
	}
	return nil
}
