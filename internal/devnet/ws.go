package devnet

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"github.com/nspcc-dev/evm-devkit/pkg/ethrpc"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{}

// wsConn is a websocket client connection, writes are serialized since
// notifications can be sent from other goroutines.
type wsConn struct {
	ws   *websocket.Conn
	lock sync.Mutex
}

func (c *wsConn) write(v any) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.ws.WriteJSON(v)
}

func (n *Node) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		n.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &wsConn{ws: ws}
	defer func() {
		n.dropSubscriptions(c)
		_ = ws.Close()
	}()
	for {
		req := new(request)
		if err := ws.ReadJSON(req); err != nil {
			return
		}
		if err := c.write(n.handle(c, req)); err != nil {
			return
		}
	}
}

func (n *Node) subscribe(c *wsConn, params []json.RawMessage) (any, *ethrpc.Error) {
	if c == nil {
		return nil, ethrpc.NewError(ethrpc.ServerErrorCode, "notifications not supported", nil)
	}
	var kind string
	if len(params) < 1 || json.Unmarshal(params[0], &kind) != nil {
		return nil, ethrpc.NewInvalidParamsError("subscription type is required")
	}
	if kind != "newHeads" {
		return nil, ethrpc.NewInvalidParamsError("unsupported subscription " + kind)
	}
	n.subLock.Lock()
	defer n.subLock.Unlock()
	n.lastSub++
	id := hexutil.EncodeUint64(n.lastSub)
	n.subs[id] = c
	return id, nil
}

func (n *Node) unsubscribe(c *wsConn, params []json.RawMessage) (any, *ethrpc.Error) {
	if c == nil {
		return nil, ethrpc.NewError(ethrpc.ServerErrorCode, "notifications not supported", nil)
	}
	var id string
	if len(params) < 1 || json.Unmarshal(params[0], &id) != nil {
		return nil, ethrpc.NewInvalidParamsError("subscription ID is required")
	}
	n.subLock.Lock()
	defer n.subLock.Unlock()
	if n.subs[id] != c {
		return false, nil
	}
	delete(n.subs, id)
	return true, nil
}

func (n *Node) dropSubscriptions(c *wsConn) {
	n.subLock.Lock()
	defer n.subLock.Unlock()
	for id, sc := range n.subs {
		if sc == c {
			delete(n.subs, id)
		}
	}
}

func (n *Node) notifyHeads(h ethrpc.Header) {
	result, err := json.Marshal(h)
	if err != nil {
		return
	}
	n.subLock.Lock()
	defer n.subLock.Unlock()
	for id, c := range n.subs {
		ntf := ethrpc.Notification{
			JSONRPC: ethrpc.JSONRPCVersion,
			Method:  ethrpc.SubscriptionMethod,
			Params: ethrpc.SubscriptionResult{
				Subscription: id,
				Result:       result,
			},
		}
		if err := c.write(ntf); err != nil {
			n.log.Debug("failed to send notification", zap.String("subscription", id), zap.Error(err))
		}
	}
}
