package ethrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewMethodNotFoundError("evm_mine"))
	require.ErrorIs(t, err, &Error{Code: MethodNotFoundCode})
	require.False(t, errors.Is(err, &Error{Code: InvalidParamsCode}))
	require.False(t, errors.Is(err, errors.New("something")))
}

func TestErrorString(t *testing.T) {
	require.Equal(t, "internal error (-32603) - boom", NewInternalError("boom").Error())
	require.Equal(t, "oops (1)", NewError(1, "oops", nil).Error())
}

func TestResponseUnmarshal(t *testing.T) {
	var r Response
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"nonce too low"}}`), &r))
	require.NotNil(t, r.Error)
	require.EqualValues(t, ServerErrorCode, r.Error.Code)
	require.Nil(t, r.Result)

	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":2,"result":"0x10"}`), &r))
	require.Equal(t, `"0x10"`, string(r.Result))
}

func TestNewRequest(t *testing.T) {
	data, err := json.Marshal(NewRequest(7, "eth_blockNumber"))
	require.NoError(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","method":"eth_blockNumber","params":[],"id":7}`, string(data))
}

func TestResponseAndBlockHeaders(t *testing.T) {
	var r Response
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":3,"result":true}`), &r))
	require.Equal(t, "3", string(r.ID))
	require.Equal(t, JSONRPCVersion, r.JSONRPC)
	require.Nil(t, r.Error)

	var h Header
	require.NoError(t, json.Unmarshal([]byte(`{"number":"0x2","hash":"0x0000000000000000000000000000000000000000000000000000000000000001","timestamp":"0x6553f102"}`), &h))
	require.EqualValues(t, 2, h.Number)
	require.EqualValues(t, 1700000002, h.Timestamp)
	require.EqualValues(t, 1, h.Hash[31])
}
