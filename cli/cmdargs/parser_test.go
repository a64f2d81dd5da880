package cmdargs

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestParseParam(t *testing.T) {
	addr := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testCases := []struct {
		in  string
		typ string
		val any
	}{
		{"42", "uint256", "42"},
		{"-7", "int256", "-7"},
		{"uint8:42", "uint8", "42"},
		{"true", "bool", true},
		{"bool:false", "bool", false},
		{"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", "address", addr},
		{"address:0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", "address", addr},
		{"0xdead", "bytes", "0xdead"},
		{"bytes2:0xdead", "bytes2", "0xdead"},
		{"0xabc", "string", "0xabc"},
		{"string:0x12", "string", "0x12"},
		{"hello:world", "string", "hello:world"},
		{"string:a:b", "string", "a:b"},
		{"uint256[]:1,2,3", "uint256[]", []any{"1", "2", "3"}},
		{"bool[]:true,false", "bool[]", []any{true, false}},
		{"uint8[]:", "uint8[]", []any(nil)},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			typ, val, err := ParseParam(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.typ, typ)
			require.Equal(t, tc.val, val)
		})
	}
}

func TestParseParamErrors(t *testing.T) {
	for _, s := range []string{
		"bool:yes",
		"address:0x1234",
		"string[]:a,b",
		"bytes[]:0x01",
		"bool[]:true,maybe",
	} {
		t.Run(s, func(t *testing.T) {
			_, _, err := ParseParam(s)
			require.Error(t, err)
		})
	}
}

func TestParseParams(t *testing.T) {
	types, values, err := ParseParams([]string{"uint256:1", "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", "string:x"})
	require.NoError(t, err)
	require.Equal(t, []string{"uint256", "address", "string"}, types)
	require.Len(t, values, 3)

	_, _, err = ParseParams([]string{"1", "bool:1"})
	require.Error(t, err)
}
