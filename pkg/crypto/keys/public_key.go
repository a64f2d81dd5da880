package keys

import (
	"bytes"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/common"
	"github.com/nspcc-dev/evm-devkit/pkg/crypto/hash"
)

// PublicKey represents a secp256k1 public key.
type PublicKey secp256k1.PublicKey

// NewPublicKeyFromBytes parses a compressed (33 bytes) or uncompressed
// (65 bytes) public key.
func NewPublicKeyFromBytes(b []byte) (*PublicKey, error) {
	k, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, err
	}
	return (*PublicKey)(k), nil
}

// RecoverFromHash returns the public key that produced sig over digest.
func RecoverFromHash(digest common.Hash, sig *Signature) (*PublicKey, error) {
	compact, err := sig.compact()
	if err != nil {
		return nil, err
	}
	k, _, err := ecdsa.RecoverCompact(compact, digest[:])
	if err != nil {
		return nil, err
	}
	return (*PublicKey)(k), nil
}

// RecoverFromMessage returns the public key that signed msg with
// personal_sign (see PrivateKey.SignMessage).
func RecoverFromMessage(msg []byte, sig *Signature) (*PublicKey, error) {
	return RecoverFromHash(hash.MessageHash(msg), sig)
}

// Bytes returns the compressed representation of the key.
func (p *PublicKey) Bytes() []byte {
	return (*secp256k1.PublicKey)(p).SerializeCompressed()
}

// UncompressedBytes returns the 65-byte uncompressed representation of the
// key (0x04 || X || Y).
func (p *PublicKey) UncompressedBytes() []byte {
	return (*secp256k1.PublicKey)(p).SerializeUncompressed()
}

// Address returns the account address of the key: the last 20 bytes of
// keccak256(X || Y).
func (p *PublicKey) Address() common.Address {
	h := hash.Keccak256(p.UncompressedBytes()[1:])
	return common.BytesToAddress(h[12:])
}

// Equal returns true in case public keys are equal.
func (p *PublicKey) Equal(key *PublicKey) bool {
	return bytes.Equal(p.Bytes(), key.Bytes())
}
