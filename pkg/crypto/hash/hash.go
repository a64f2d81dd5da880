/*
Package hash contains the hashing primitives used by EVM chains: legacy
Keccak-256 and EIP-191 personal message hashing.
*/
package hash

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// MessagePrefix is the EIP-191 (version 0x45) prefix of signed messages.
const MessagePrefix = "\x19Ethereum Signed Message:\n"

// Keccak256 hashes the concatenation of the given byte slices using the
// original (pre-FIPS) Keccak-256 algorithm.
func Keccak256(data ...[]byte) common.Hash {
	var (
		h   common.Hash
		hsh = sha3.NewLegacyKeccak256()
	)
	for _, d := range data {
		hsh.Write(d)
	}
	hsh.Sum(h[:0])
	return h
}

// MessageHash returns the hash signed by personal_sign/eth_sign for the
// given message, that is keccak256(prefix || len(msg) || msg).
func MessageHash(msg []byte) common.Hash {
	return Keccak256([]byte(MessagePrefix+strconv.Itoa(len(msg))), msg)
}
