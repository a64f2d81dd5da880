/*
Package ethrpc contains a set of types used for JSON-RPC communication with
Ethereum-compatible nodes. It defines basic request/response types, errors
and the results of the calls used by the devkit.
*/
package ethrpc

import (
	"encoding/json"
)

const (
	// JSONRPCVersion is the only JSON-RPC protocol version supported.
	JSONRPCVersion = "2.0"
	// SubscriptionMethod is the method name of eth_subscribe notifications.
	SubscriptionMethod = "eth_subscription"
)

type (
	// Request represents JSON-RPC request. Ethereum nodes expect params to be
	// an array, so that's the only form supported.
	Request struct {
		// JSONRPC is the protocol version, only valid when it contains JSONRPCVersion.
		JSONRPC string `json:"jsonrpc"`
		// Method is the method being called.
		Method string `json:"method"`
		// Params is a set of method-specific parameters passed to the call.
		Params []any `json:"params"`
		// ID is an identifier associated with this request, the client uses
		// numeric identifiers only.
		ID uint64 `json:"id"`
	}

	// RespHeader is a generic JSON-RPC 2.0 response header (ID and JSON-RPC version).
	RespHeader struct {
		ID      json.RawMessage `json:"id"`
		JSONRPC string          `json:"jsonrpc"`
	}

	// HeaderAndError adds an Error (that can be empty) to the RespHeader.
	HeaderAndError struct {
		RespHeader
		Error *Error `json:"error,omitempty"`
	}

	// Response represents a standard raw JSON-RPC 2.0
	// response: http://www.jsonrpc.org/specification#response_object.
	Response struct {
		HeaderAndError
		Result json.RawMessage `json:"result,omitempty"`
	}

	// Notification is a subscription event pushed by the node. It looks like
	// a request without ID.
	Notification struct {
		JSONRPC string             `json:"jsonrpc"`
		Method  string             `json:"method"`
		Params  SubscriptionResult `json:"params"`
	}

	// SubscriptionResult is the payload of eth_subscription notification.
	SubscriptionResult struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	}
)

// NewRequest creates a request for the given method and parameters.
func NewRequest(id uint64, method string, params ...any) *Request {
	if params == nil {
		params = []any{}
	}
	return &Request{
		JSONRPC: JSONRPCVersion,
		Method:  method,
		Params:  params,
		ID:      id,
	}
}
