/*
Package metatx builds and signs meta-transaction messages, that is
messages a user signs off-chain so that a relayer can execute the call
(functionSignature) on a contract on their behalf.
*/
package metatx

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nspcc-dev/evm-devkit/pkg/crypto/keys"
	"github.com/nspcc-dev/evm-devkit/pkg/encoding/solpacked"
)

// messageTypes is the packed layout of the meta-transaction message.
var messageTypes = []string{"uint256", "address", "uint256", "bytes"}

// Request is a meta-transaction to be signed by the user.
type Request struct {
	Nonce             *big.Int
	Salt              *big.Int
	FunctionSignature []byte
	Contract          common.Address
}

// Message returns the hash of the tightly packed (nonce, contract, salt,
// functionSignature) tuple that is expected to be signed.
func Message(nonce, salt *big.Int, functionSignature []byte, contract common.Address) (common.Hash, error) {
	return solpacked.Keccak256(messageTypes, []any{nonce, contract, salt, functionSignature})
}

// Message returns the message hash of the request.
func (r *Request) Message() (common.Hash, error) {
	return Message(r.Nonce, r.Salt, r.FunctionSignature, r.Contract)
}

// Sign signs the request message with the personal_sign scheme and returns
// the decomposed signature ready to be passed to the contract.
func (r *Request) Sign(key *keys.PrivateKey) (*keys.Signature, error) {
	msg, err := r.Message()
	if err != nil {
		return nil, err
	}
	return Sign(key, msg), nil
}

// Sign signs the message hash (as bytes) with the personal_sign scheme.
func Sign(key *keys.PrivateKey, msg common.Hash) *keys.Signature {
	return key.SignMessage(msg.Bytes())
}

// Signer recovers the address that signed msg producing sig.
func Signer(msg common.Hash, sig *keys.Signature) (common.Address, error) {
	pub, err := keys.RecoverFromMessage(msg.Bytes(), sig)
	if err != nil {
		return common.Address{}, err
	}
	return pub.Address(), nil
}
