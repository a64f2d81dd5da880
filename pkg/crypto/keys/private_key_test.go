package keys

import (
	"strings"
	"testing"

	"github.com/nspcc-dev/evm-devkit/pkg/crypto/hash"
	"github.com/stretchr/testify/require"
)

// Well-known development accounts derived from the
// "test test test test test test test test test test test junk" mnemonic.
var keyTestCases = []struct {
	privateKey string
	address    string
}{
	{"0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80", "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"},
	{"0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"},
}

func TestPrivateKey(t *testing.T) {
	for _, tc := range keyTestCases {
		priv, err := NewPrivateKeyFromHex(tc.privateKey)
		require.NoError(t, err)
		require.Equal(t, tc.address, priv.Address().Hex())
		require.Equal(t, tc.privateKey, priv.String())
		require.Equal(t, tc.address, priv.PublicKey().Address().Hex())

		noPrefix, err := NewPrivateKeyFromHex(strings.TrimPrefix(tc.privateKey, "0x"))
		require.NoError(t, err)
		require.Equal(t, priv.Bytes(), noPrefix.Bytes())
	}
}

func TestNewPrivateKeyFromBytesErrors(t *testing.T) {
	_, err := NewPrivateKeyFromBytes(make([]byte, 31))
	require.Error(t, err)

	_, err = NewPrivateKeyFromBytes(make([]byte, PrivateKeySize))
	require.ErrorIs(t, err, errInvalidScalar)

	_, err = NewPrivateKeyFromHex("ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	require.ErrorIs(t, err, errInvalidScalar)

	_, err = NewPrivateKeyFromHex("0xzz")
	require.Error(t, err)
}

func TestNewPrivateKey(t *testing.T) {
	a, err := NewPrivateKey()
	require.NoError(t, err)
	b, err := NewPrivateKey()
	require.NoError(t, err)
	require.NotEqual(t, a.Address(), b.Address())

	restored, err := NewPrivateKeyFromBytes(a.Bytes())
	require.NoError(t, err)
	require.Equal(t, a.Address(), restored.Address())
}

func TestSignRecover(t *testing.T) {
	for _, tc := range keyTestCases {
		priv, err := NewPrivateKeyFromHex(tc.privateKey)
		require.NoError(t, err)

		digest := hash.Keccak256([]byte("sample"))
		sig := priv.SignHash(digest)
		require.Contains(t, []int{27, 28}, sig.V)

		// RFC 6979 signatures are deterministic.
		require.Equal(t, sig, priv.SignHash(digest))

		pub, err := RecoverFromHash(digest, sig)
		require.NoError(t, err)
		require.True(t, pub.Equal(priv.PublicKey()))
		require.Equal(t, tc.address, pub.Address().Hex())

		parsed, err := ParseSignature(sig.String())
		require.NoError(t, err)
		require.Equal(t, sig, parsed)
	}
}

func TestSignMessage(t *testing.T) {
	priv, err := NewPrivateKeyFromHex(keyTestCases[0].privateKey)
	require.NoError(t, err)

	msg := []byte("hello world")
	sig := priv.SignMessage(msg)
	pub, err := RecoverFromMessage(msg, sig)
	require.NoError(t, err)
	require.Equal(t, priv.Address(), pub.Address())

	// Another message recovers to some other key.
	other, err := RecoverFromMessage([]byte("hello there"), sig)
	if err == nil {
		require.NotEqual(t, priv.Address(), other.Address())
	}
}

func TestPublicKeyBytes(t *testing.T) {
	priv, err := NewPrivateKeyFromHex(keyTestCases[1].privateKey)
	require.NoError(t, err)
	pub := priv.PublicKey()
	require.Len(t, pub.Bytes(), 33)
	require.Len(t, pub.UncompressedBytes(), 65)

	for _, b := range [][]byte{pub.Bytes(), pub.UncompressedBytes()} {
		parsed, err := NewPublicKeyFromBytes(b)
		require.NoError(t, err)
		require.True(t, pub.Equal(parsed))
	}

	_, err = NewPublicKeyFromBytes([]byte{0x02, 0x01})
	require.Error(t, err)
}
