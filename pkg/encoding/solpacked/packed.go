/*
Package solpacked implements the Solidity non-standard packed ABI encoding
(abi.encodePacked) and hashing of packed values (soliditySHA3).
*/
package solpacked

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
	"github.com/nspcc-dev/evm-devkit/pkg/crypto/hash"
)

const wordSize = 32

var (
	// ErrUnsupportedType is returned for types the encoder doesn't know.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrInvalidValue is returned when a value can't be encoded as the
	// requested type.
	ErrInvalidValue = errors.New("invalid value")
	// ErrOutOfRange is returned for integers not fitting into their type.
	ErrOutOfRange = errors.New("value out of range")
)

// Encode packs values according to types. Each value is encoded using the
// minimal number of bytes for its type, dynamic types (bytes and string)
// are encoded in place without length. Elements of arrays (type[]) are
// padded to 32 bytes each.
func Encode(types []string, values []any) ([]byte, error) {
	if len(types) != len(values) {
		return nil, fmt.Errorf("number of types (%d) doesn't match the number of values (%d)", len(types), len(values))
	}
	var buf []byte
	for i, typ := range types {
		b, err := encodeValue(typ, values[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s): %w", i, typ, err)
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

// Keccak256 returns the keccak256 hash of packed values.
func Keccak256(types []string, values []any) (common.Hash, error) {
	b, err := Encode(types, values)
	if err != nil {
		return common.Hash{}, err
	}
	return hash.Keccak256(b), nil
}

func encodeValue(typ string, v any) ([]byte, error) {
	if elem, ok := strings.CutSuffix(typ, "[]"); ok {
		return encodeArray(elem, v)
	}
	return encodeElement(typ, v, false)
}

func encodeArray(elem string, v any) ([]byte, error) {
	if elem == "bytes" || elem == "string" {
		return nil, fmt.Errorf("%w: arrays of %s", ErrUnsupportedType, elem)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %T is not a list", ErrInvalidValue, v)
	}
	var buf []byte
	for i := 0; i < rv.Len(); i++ {
		b, err := encodeElement(elem, rv.Index(i).Interface(), true)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

func encodeElement(typ string, v any, pad bool) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	switch {
	case typ == "address":
		var addr common.Address
		addr, err = toAddress(v)
		b = addr.Bytes()
	case typ == "bool":
		bv, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not a bool", ErrInvalidValue, v)
		}
		b = []byte{0}
		if bv {
			b[0] = 1
		}
	case typ == "string":
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not a string", ErrInvalidValue, v)
		}
		return []byte(s), nil
	case typ == "bytes":
		return toBytes(v)
	case strings.HasPrefix(typ, "bytes"):
		var n int
		n, err = typeSize(typ, "bytes", 1, 32)
		if err != nil {
			return nil, err
		}
		b, err = toBytes(v)
		if err == nil && len(b) != n {
			err = fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidValue, n, len(b))
		}
		if err == nil && pad {
			return common.RightPadBytes(b, wordSize), nil
		}
	case strings.HasPrefix(typ, "uint"):
		b, err = encodeUint(typ, v)
	case strings.HasPrefix(typ, "int"):
		b, err = encodeInt(typ, v)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, typ)
	}
	if err != nil {
		return nil, err
	}
	if pad {
		return common.LeftPadBytes(b, wordSize), nil
	}
	return b, nil
}

func encodeUint(typ string, v any) ([]byte, error) {
	bits, err := intBits(typ, "uint")
	if err != nil {
		return nil, err
	}
	bi, err := toBig(v)
	if err != nil {
		return nil, err
	}
	if bi.Sign() < 0 || bi.BitLen() > bits {
		return nil, fmt.Errorf("%w: %s doesn't fit into %s", ErrOutOfRange, bi, typ)
	}
	u, _ := uint256.FromBig(bi)
	word := u.Bytes32()
	return word[wordSize-bits/8:], nil
}

func encodeInt(typ string, v any) ([]byte, error) {
	bits, err := intBits(typ, "int")
	if err != nil {
		return nil, err
	}
	bi, err := toBig(v)
	if err != nil {
		return nil, err
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	if bi.Cmp(limit) >= 0 || bi.Cmp(new(big.Int).Neg(limit)) < 0 {
		return nil, fmt.Errorf("%w: %s doesn't fit into %s", ErrOutOfRange, bi, typ)
	}
	word := math.U256Bytes(new(big.Int).Set(bi))
	return word[wordSize-bits/8:], nil
}

// intBits returns the size in bits of an uintN/intN type, plain uint and
// int are 256 bits.
func intBits(typ, prefix string) (int, error) {
	if typ == prefix {
		return 256, nil
	}
	n, err := typeSize(typ, prefix, 8, 256)
	if err != nil {
		return 0, err
	}
	if n%8 != 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedType, typ)
	}
	return n, nil
}

func typeSize(typ, prefix string, min, max int) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(typ, prefix))
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedType, typ)
	}
	return n, nil
}

func toAddress(v any) (common.Address, error) {
	switch a := v.(type) {
	case common.Address:
		return a, nil
	case *common.Address:
		return *a, nil
	case string:
		if !common.IsHexAddress(a) {
			return common.Address{}, fmt.Errorf("%w: %q is not an address", ErrInvalidValue, a)
		}
		return common.HexToAddress(a), nil
	case []byte:
		if len(a) != common.AddressLength {
			return common.Address{}, fmt.Errorf("%w: %d bytes is not an address", ErrInvalidValue, len(a))
		}
		return common.BytesToAddress(a), nil
	default:
		return common.Address{}, fmt.Errorf("%w: %T is not an address", ErrInvalidValue, v)
	}
}

func toBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		d, err := hexutil.Decode(b)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return d, nil
	case common.Hash:
		return b.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %T is not a byte string", ErrInvalidValue, v)
	}
}

func toBig(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, fmt.Errorf("%w: nil integer", ErrInvalidValue)
		}
		return n, nil
	case *uint256.Int:
		if n == nil {
			return nil, fmt.Errorf("%w: nil integer", ErrInvalidValue)
		}
		return n.ToBig(), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case string:
		bi, ok := new(big.Int).SetString(n, 0)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, n)
		}
		return bi, nil
	default:
		return nil, fmt.Errorf("%w: %T is not a number", ErrInvalidValue, v)
	}
}
