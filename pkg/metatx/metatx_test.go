package metatx

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/nspcc-dev/evm-devkit/pkg/crypto/hash"
	"github.com/nspcc-dev/evm-devkit/pkg/crypto/keys"
	"github.com/stretchr/testify/require"
)

const testKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestMessage(t *testing.T) {
	var (
		contract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
		fn       = hexutil.MustDecode("0xa9059cbb")
	)
	msg, err := Message(big.NewInt(1), big.NewInt(31337), fn, contract)
	require.NoError(t, err)

	packed := append(common.LeftPadBytes([]byte{1}, 32), contract.Bytes()...)
	packed = append(packed, common.LeftPadBytes(big.NewInt(31337).Bytes(), 32)...)
	packed = append(packed, fn...)
	require.Equal(t, hash.Keccak256(packed), msg)

	_, err = Message(big.NewInt(-1), big.NewInt(0), fn, contract)
	require.Error(t, err)
}

func TestRequestSign(t *testing.T) {
	key, err := keys.NewPrivateKeyFromHex(testKey)
	require.NoError(t, err)

	req := &Request{
		Nonce:             big.NewInt(0),
		Salt:              big.NewInt(42),
		FunctionSignature: []byte{0xde, 0xad, 0xbe, 0xef},
		Contract:          common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
	}
	sig, err := req.Sign(key)
	require.NoError(t, err)
	require.Contains(t, []int{27, 28}, sig.V)

	msg, err := req.Message()
	require.NoError(t, err)
	signer, err := Signer(msg, sig)
	require.NoError(t, err)
	require.Equal(t, key.Address(), signer)

	// Round trip through the hex form used by contracts.
	parsed, err := keys.ParseSignature(sig.String())
	require.NoError(t, err)
	require.Equal(t, sig, parsed)

	req.Nonce = nil
	_, err = req.Sign(key)
	require.Error(t, err)
}
