package cmdargs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nspcc-dev/evm-devkit/pkg/encoding/hexstr"
	"github.com/urfave/cli"
)

// ArraySeparator separates array elements in a single argument.
const ArraySeparator = ","

// ParamsParsingDoc is a documentation for parameters parsing.
const ParamsParsingDoc = `   Arguments are Solidity values, either typed explicitly or with the type
   inferred from the value. To specify the type manually use "type:value"
   syntax where the type is one of 'address', 'bool', 'string', 'bytes',
   'bytesN' (1 <= N <= 32), 'uintN' or 'intN' (8 <= N <= 256, N is a
   multiple of 8; 'uint' and 'int' are 256 bits). Arrays of fixed-size types
   are written as 'type[]:v1,v2,v3'.

   Given values are checked against given types:
    * 'address' values are 0x-prefixed 20-byte hex strings.
    * 'bool' values are 'true' and 'false'.
    * 'uintN' and 'intN' values are decimal or 0x-prefixed hex integers
      fitting into the type.
    * 'bytes' and 'bytesN' values are 0x-prefixed hex strings, 'bytesN'
      ones should decode to exactly N bytes.
    * 'string' values are any valid UTF-8 strings, colons and commas in them
      have no special meaning.

   If no type is explicitly specified, it is inferred from the value:
    - 'true' and 'false' get 'bool' type
    - decimal integers get 'uint256' (or 'int256' if negative) type
    - 0x-prefixed 20-byte hex strings get 'address' type
    - other 0x-prefixed hex strings get 'bytes' type
    - anything else is a 'string'

   Examples:
    * 'uint8:42' is a single byte 0x2a
    * '42' is a 32-byte word with a value of 42
    * 'address:0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266' is an address
    * 'string:0x12' is a string with a value of '0x12'
    * 'uint256[]:1,2,3' is an array of three 32-byte words`

var typePattern = regexp.MustCompile(`^(address|bool|string|bytes([1-9]|[12][0-9]|3[0-2])?|u?int([1-9][0-9]*)?)(\[\])?$`)

var decimal = regexp.MustCompile(`^-?[0-9]+$`)

// EnsureNone returns an error if there are any positional arguments present.
// It can be used to check for them in commands that don't accept arguments.
func EnsureNone(ctx *cli.Context) *cli.ExitError {
	if ctx.Args().Present() {
		return cli.NewExitError("additional arguments given while this command expects none", 1)
	}
	return nil
}

// EnsureCount returns an error if the number of positional arguments differs
// from n.
func EnsureCount(ctx *cli.Context, n int) *cli.ExitError {
	if ctx.NArg() != n {
		return cli.NewExitError(fmt.Sprintf("expected %d argument(s), got %d", n, ctx.NArg()), 1)
	}
	return nil
}

// ParseParams converts "type:value" arguments into types and values suitable
// for packed encoding.
func ParseParams(args []string) ([]string, []any, error) {
	types := make([]string, 0, len(args))
	values := make([]any, 0, len(args))
	for i, s := range args {
		typ, v, err := ParseParam(s)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse argument #%d: %w", i+1, err)
		}
		types = append(types, typ)
		values = append(values, v)
	}
	return types, values, nil
}

// ParseParam parses a single parameter, see ParamsParsingDoc.
func ParseParam(s string) (string, any, error) {
	typ, val, ok := strings.Cut(s, ":")
	if !ok || !typePattern.MatchString(typ) {
		typ, val = inferType(s), s
	}
	elem, isArray := strings.CutSuffix(typ, "[]")
	if !isArray {
		v, err := parseValue(elem, val)
		return typ, v, err
	}
	if elem == "string" || elem == "bytes" {
		return "", nil, fmt.Errorf("arrays of %s are not supported", elem)
	}
	var res []any
	if val != "" {
		for _, e := range strings.Split(val, ArraySeparator) {
			v, err := parseValue(elem, e)
			if err != nil {
				return "", nil, err
			}
			res = append(res, v)
		}
	}
	return typ, res, nil
}

func inferType(s string) string {
	switch {
	case s == "true" || s == "false":
		return "bool"
	case decimal.MatchString(s):
		if strings.HasPrefix(s, "-") {
			return "int256"
		}
		return "uint256"
	case hexstr.IsHex(s, common.AddressLength):
		return "address"
	case hexstr.IsHex(s, -1) && len(s)%2 == 0:
		return "bytes"
	default:
		return "string"
	}
}

func parseValue(typ string, s string) (any, error) {
	switch typ {
	case "bool":
		switch s {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("invalid bool %q", s)
	case "address":
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %q", s)
		}
		return common.HexToAddress(s), nil
	default:
		// Integers and byte strings are checked by the encoder.
		return s, nil
	}
}
