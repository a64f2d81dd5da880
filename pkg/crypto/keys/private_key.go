/*
Package keys implements secp256k1 keys, EVM addresses and 65-byte
recoverable signatures.
*/
package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/common"
	"github.com/nspcc-dev/evm-devkit/pkg/crypto/hash"
)

// PrivateKeySize is the length of a serialized private key.
const PrivateKeySize = 32

var errInvalidScalar = errors.New("private key is zero or exceeds the curve order")

// PrivateKey represents a secp256k1 private key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// NewPrivateKey creates a new random private key.
func NewPrivateKey() (*PrivateKey, error) {
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: k}, nil
}

// NewPrivateKeyFromHex returns a PrivateKey created from the given hex
// string, 0x prefix is optional.
func NewPrivateKeyFromHex(str string) (*PrivateKey, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(str, "0x"), "0X"))
	if err != nil {
		return nil, err
	}
	return NewPrivateKeyFromBytes(b)
}

// NewPrivateKeyFromBytes returns a PrivateKey from the given 32-byte
// big-endian scalar.
func NewPrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeySize {
		return nil, fmt.Errorf(
			"invalid byte length: expected %d bytes got %d", PrivateKeySize, len(b),
		)
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(b); overflow || s.IsZero() {
		return nil, errInvalidScalar
	}
	return &PrivateKey{key: secp256k1.NewPrivateKey(&s)}, nil
}

// PublicKey derives the public key from the private key.
func (p *PrivateKey) PublicKey() *PublicKey {
	return (*PublicKey)(p.key.PubKey())
}

// Address returns the account address of the key.
func (p *PrivateKey) Address() common.Address {
	return p.PublicKey().Address()
}

// SignHash signs the given 32-byte digest. Signatures are deterministic
// (RFC 6979) and have low S, V is 27 or 28.
func (p *PrivateKey) SignHash(digest common.Hash) *Signature {
	compact := ecdsa.SignCompact(p.key, digest[:], false)
	sig := &Signature{V: int(compact[0])}
	copy(sig.R[:], compact[1:33])
	copy(sig.S[:], compact[33:65])
	return sig
}

// SignMessage signs msg the way personal_sign does, that is it signs the
// EIP-191 message hash.
func (p *PrivateKey) SignMessage(msg []byte) *Signature {
	return p.SignHash(hash.MessageHash(msg))
}

// Bytes returns the 32-byte big-endian scalar of the key.
func (p *PrivateKey) Bytes() []byte {
	return p.key.Serialize()
}

// String implements the fmt.Stringer interface, it returns 0x-prefixed
// hex of the key.
func (p *PrivateKey) String() string {
	return "0x" + hex.EncodeToString(p.Bytes())
}
