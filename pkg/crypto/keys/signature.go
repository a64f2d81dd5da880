package keys

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/nspcc-dev/evm-devkit/pkg/encoding/hexstr"
)

// SignatureSize is the size of a serialized R || S || V signature.
const SignatureSize = 65

// recoveryOffset is added to the raw recovery id to get the conventional
// V value.
const recoveryOffset = 27

var (
	// ErrNotHex is returned when the signature is not a valid hex string.
	ErrNotHex = errors.New("not a valid hex string")
	// ErrSignatureLength is returned for signatures of wrong size.
	ErrSignatureLength = errors.New("invalid signature length")
	// ErrRecoveryID is returned for signatures that can't be used for public
	// key recovery because of their V.
	ErrRecoveryID = errors.New("invalid recovery id")
)

// Signature is an ECDSA signature split into its components. V is kept
// in the {27, 28} range for well-formed signatures.
type Signature struct {
	R [32]byte
	S [32]byte
	V int
}

// ParseSignature decomposes a 0x-prefixed hex R || S || V signature. V
// values other than 27 and 28 are shifted by 27, so {0, 1} become
// {27, 28}.
func ParseSignature(sig string) (*Signature, error) {
	if !hexstr.IsHex(sig, -1) {
		return nil, fmt.Errorf("given value %q is %w", sig, ErrNotHex)
	}
	if len(sig) != 2+2*SignatureSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d hex digits",
			ErrSignatureLength, SignatureSize, len(sig)-2)
	}
	b, err := hex.DecodeString(sig[2:])
	if err != nil {
		return nil, fmt.Errorf("given value %q is %w", sig, ErrNotHex)
	}
	return NewSignatureFromBytes(b)
}

// NewSignatureFromBytes decomposes a 65-byte R || S || V signature
// normalizing its V the same way ParseSignature does.
func NewSignatureFromBytes(b []byte) (*Signature, error) {
	if len(b) != SignatureSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrSignatureLength, SignatureSize, len(b))
	}
	s := new(Signature)
	copy(s.R[:], b[:32])
	copy(s.S[:], b[32:64])
	s.V = int(b[64])
	if s.V != recoveryOffset && s.V != recoveryOffset+1 {
		s.V += recoveryOffset
	}
	return s, nil
}

// RHex returns R as a 0x-prefixed 32-byte hex string.
func (s *Signature) RHex() string {
	return hexutil.Encode(s.R[:])
}

// SHex returns S as a 0x-prefixed 32-byte hex string.
func (s *Signature) SHex() string {
	return hexutil.Encode(s.S[:])
}

// RecoveryID returns the raw recovery id (0 or 1) of the signature.
func (s *Signature) RecoveryID() (byte, error) {
	switch s.V {
	case recoveryOffset, recoveryOffset + 1:
		return byte(s.V - recoveryOffset), nil
	default:
		return 0, fmt.Errorf("%w: v = %d", ErrRecoveryID, s.V)
	}
}

// Bytes returns the 65-byte R || S || V representation. It reverses the
// normalization of NewSignatureFromBytes, so V values shifted there (28 <
// V <= 255+27) are written as the original byte and parsing the result
// gives the same Signature. V values no parsed signature can have (above
// 255+27) are truncated to a byte.
func (s *Signature) Bytes() []byte {
	b := make([]byte, SignatureSize)
	copy(b, s.R[:])
	copy(b[32:], s.S[:])
	b[64] = vByte(s.V)
	return b
}

func vByte(v int) byte {
	if v > recoveryOffset+1 && v <= 0xff+recoveryOffset {
		return byte(v - recoveryOffset)
	}
	return byte(v)
}

// String implements the fmt.Stringer interface.
func (s *Signature) String() string {
	return hexutil.Encode(s.Bytes())
}

// compact returns the signature in V || R || S form.
func (s *Signature) compact() ([]byte, error) {
	if _, err := s.RecoveryID(); err != nil {
		return nil, err
	}
	b := make([]byte, SignatureSize)
	b[0] = byte(s.V)
	copy(b[1:], s.R[:])
	copy(b[33:], s.S[:])
	return b, nil
}
