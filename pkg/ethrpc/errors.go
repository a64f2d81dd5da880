package ethrpc

import (
	"fmt"
)

// Error represents JSON-RPC 2.0 error object. It implements the error
// interface, so it's returned as is by the client.
type Error struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC 2.0 error codes and the ones used by Ethereum nodes.
const (
	ParseErrorCode          = -32700
	InvalidRequestCode      = -32600
	MethodNotFoundCode      = -32601
	InvalidParamsCode       = -32602
	InternalErrorCode       = -32603
	ExecutionRevertedCode   = 3
	ServerErrorCode         = -32000
	ResourceUnavailableCode = -32002
)

// NewError creates a new Error.
func NewError(code int64, message string, data any) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// NewMethodNotFoundError creates a new error with code -32601.
func NewMethodNotFoundError(method string) *Error {
	return NewError(MethodNotFoundCode, fmt.Sprintf("the method %s does not exist/is not available", method), nil)
}

// NewInvalidParamsError creates a new error with code -32602.
func NewInvalidParamsError(data string) *Error {
	return NewError(InvalidParamsCode, "invalid argument", data)
}

// NewInternalError creates a new error with code -32603.
func NewInternalError(data string) *Error {
	return NewError(InternalErrorCode, "internal error", data)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Data == nil {
		return fmt.Sprintf("%s (%d)", e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%d) - %v", e.Message, e.Code, e.Data)
}

// Is denotes whether the error matches the target one, errors with the same
// code match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
