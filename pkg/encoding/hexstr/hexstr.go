/*
Package hexstr contains conversions between numbers, text and 0x-prefixed
hex strings as they are used in EVM tooling (storage slots, calldata,
topics).
*/
package hexstr

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// WordSize is the size of an EVM word in bytes.
const WordSize = 32

var (
	// ErrNotHex is returned for strings that are not 0x-prefixed hex.
	ErrNotHex = errors.New("invalid hex string")
	// ErrNegative is returned when a negative number is to be hexlified.
	ErrNegative = errors.New("negative value can't be hexlified")
	// ErrTooLong is returned when a value doesn't fit into the requested
	// number of bytes.
	ErrTooLong = errors.New("value out of range")
)

// IsHex checks whether s is a 0x-prefixed hex string. If length is not
// negative, s must also hold exactly length bytes.
func IsHex(s string, length int) bool {
	if len(s) < 2 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	for i := 2; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return length < 0 || len(s) == 2+2*length
}

// Hexlify returns the minimal even-length hex representation of a
// non-negative integer, zero is "0x00".
func Hexlify(v *big.Int) (string, error) {
	if v.Sign() < 0 {
		return "", ErrNegative
	}
	s := v.Text(16)
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return "0x" + s, nil
}

// ZeroPad left-pads the hex string with zero bytes up to length bytes.
func ZeroPad(hex string, length int) (string, error) {
	if !IsHex(hex, -1) {
		return "", fmt.Errorf("%w: %q", ErrNotHex, hex)
	}
	digits := hex[2:]
	if len(digits) > 2*length {
		return "", fmt.Errorf("%w: %s is longer than %d bytes", ErrTooLong, hex, length)
	}
	return "0x" + strings.Repeat("0", 2*length-len(digits)) + digits, nil
}

// PaddedFromBig returns v as a 32-byte (one EVM word) big-endian hex string.
// v must be in [0, 2^256).
func PaddedFromBig(v *big.Int) (string, error) {
	if v.Sign() < 0 {
		return "", ErrNegative
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return "", fmt.Errorf("%w: %s doesn't fit into %d bytes", ErrTooLong, v, WordSize)
	}
	word := u.Bytes32()
	return hexutil.Encode(word[:]), nil
}

// FromString returns the UTF-8 bytes of s as a hex string.
func FromString(s string) string {
	return hexutil.Encode([]byte(s))
}

// ToString is the reverse of FromString, it decodes hex into a string.
func ToString(hex string) (string, error) {
	if !IsHex(hex, -1) {
		return "", fmt.Errorf("%w: %q", ErrNotHex, hex)
	}
	b, err := hexutil.Decode(hex)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotHex, err)
	}
	return string(b), nil
}
