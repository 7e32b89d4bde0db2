package secp256r1

import (
	"crypto/elliptic"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicKey_Compression(t *testing.T) {
	for i := 0; i < 16; i++ {
		priv, err := GenerateKey()
		require.NoError(t, err)

		key := PublicKeyFromECDSA(&priv.PublicKey)
		compressed := key.Compressed()
		require.Len(t, compressed, CompressedPublicKeySize)
		assert.Equal(t, elliptic.MarshalCompressed(elliptic.P256(), priv.X, priv.Y), compressed)

		decompressed, err := DecompressPublicKey(compressed)
		require.NoError(t, err)
		assert.Equal(t, key, decompressed)

		parsed, err := NewPublicKey(key[:])
		require.NoError(t, err)
		assert.Equal(t, key, parsed)
	}
}

func TestNewPublicKey_Invalid(t *testing.T) {
	_, err := NewPublicKey(make([]byte, PublicKeySize))
	assert.Equal(t, ErrInvalidPublicKey, err)

	_, err = NewPublicKey(make([]byte, 33))
	assert.Equal(t, ErrInvalidPublicKey, err)

	priv, err := GenerateKey()
	require.NoError(t, err)
	key := PublicKeyFromECDSA(&priv.PublicKey)
	key[PublicKeySize-1] ^= 1
	_, err = NewPublicKey(key[:])
	assert.Equal(t, ErrInvalidPublicKey, err)

	_, err = DecompressPublicKey(append([]byte{0x05}, make([]byte, 32)...))
	assert.Equal(t, ErrInvalidPublicKey, err)
}

func TestSignAndVerify(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	key := PublicKeyFromECDSA(&priv.PublicKey)

	message := []byte("authorize withdrawal")
	for i := 0; i < 16; i++ {
		signature, err := Sign(priv, message)
		require.NoError(t, err)
		require.Len(t, signature, SignatureSize)

		s := new(big.Int).SetBytes(signature[32:])
		assert.True(t, s.Cmp(curveHalfOrder) <= 0)

		assert.True(t, VerifySignature(key, message, signature))
		assert.False(t, VerifySignature(key, []byte("other"), signature))

		// The high-S twin is valid ECDSA but rejected.
		highS := new(big.Int).Sub(curveOrder, s)
		malleated := append([]byte(nil), signature...)
		highS.FillBytes(malleated[32:])
		assert.False(t, VerifySignature(key, message, malleated))
	}
}
