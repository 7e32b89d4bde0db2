package secp256r1

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"math/big"

	"github.com/pkg/errors"
)

const (
	// PublicKeySize is the size of an uncompressed public key without its
	// 0x04 prefix, the affine X and Y coordinates.
	PublicKeySize = 64
	// CompressedPublicKeySize is the size of a SEC1 compressed public key.
	CompressedPublicKeySize = 33
	// SignatureSize is the size of an r || s signature.
	SignatureSize = 64
)

var (
	ErrInvalidPublicKey = errors.New("invalid secp256r1 public key")
	ErrInvalidSignature = errors.New("invalid secp256r1 signature")
)

var (
	curveOrder     = elliptic.P256().Params().N
	curveHalfOrder = new(big.Int).Rsh(curveOrder, 1)
)

// PublicKey is an uncompressed P-256 public key, X || Y.
type PublicKey [PublicKeySize]byte

// NewPublicKey parses X || Y, rejecting points that are not on the curve.
func NewPublicKey(b []byte) (PublicKey, error) {
	var key PublicKey
	if len(b) != PublicKeySize {
		return key, ErrInvalidPublicKey
	}

	uncompressed := make([]byte, 1+PublicKeySize)
	uncompressed[0] = 0x04
	copy(uncompressed[1:], b)
	if _, err := ecdh.P256().NewPublicKey(uncompressed); err != nil {
		return key, ErrInvalidPublicKey
	}

	copy(key[:], b)
	return key, nil
}

// DecompressPublicKey parses a SEC1 compressed public key.
func DecompressPublicKey(b []byte) (PublicKey, error) {
	var key PublicKey
	if len(b) != CompressedPublicKeySize {
		return key, ErrInvalidPublicKey
	}

	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), b)
	if x == nil || y == nil {
		return key, ErrInvalidPublicKey
	}

	x.FillBytes(key[:32])
	y.FillBytes(key[32:])
	return key, nil
}

// PublicKeyFromECDSA converts a P-256 ecdsa public key.
func PublicKeyFromECDSA(pub *ecdsa.PublicKey) PublicKey {
	var key PublicKey
	pub.X.FillBytes(key[:32])
	pub.Y.FillBytes(key[32:])
	return key
}

// Compressed returns the SEC1 compressed form, the parity of Y followed by X.
func (k PublicKey) Compressed() []byte {
	compressed := make([]byte, CompressedPublicKeySize)
	compressed[0] = 0x02 | (k[PublicKeySize-1] & 1)
	copy(compressed[1:], k[:32])
	return compressed
}

func (k PublicKey) ECDSA() *ecdsa.PublicKey {
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(k[:32]),
		Y:     new(big.Int).SetBytes(k[32:]),
	}
}

// GenerateKey creates a new P-256 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
}

// Sign produces a low-S r || s signature over the SHA-256 digest of message.
func Sign(priv *ecdsa.PrivateKey, message []byte) ([]byte, error) {
	if priv == nil || priv.Curve != elliptic.P256() {
		return nil, errors.New("private key must be on P-256")
	}

	digest := sha256.Sum256(message)
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign message")
	}
	if s.Cmp(curveHalfOrder) > 0 {
		s.Sub(curveOrder, s)
	}

	signature := make([]byte, SignatureSize)
	r.FillBytes(signature[:32])
	s.FillBytes(signature[32:])
	return signature, nil
}

// VerifySignature checks a low-S r || s signature over the SHA-256 digest of
// message. High-S signatures are rejected to prevent malleability.
func VerifySignature(pub PublicKey, message, signature []byte) bool {
	if len(signature) != SignatureSize {
		return false
	}

	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])
	if r.Sign() == 0 || s.Sign() == 0 || r.Cmp(curveOrder) >= 0 || s.Cmp(curveHalfOrder) > 0 {
		return false
	}

	digest := sha256.Sum256(message)
	return ecdsa.Verify(pub.ECDSA(), digest[:], r, s)
}
