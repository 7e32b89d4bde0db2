package secp256r1

import (
	"crypto/sha256"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/code-payments/code-custody/pkg/solana"
)

// Verifier runs the secp256r1 precompile. Successfully verified
// (key, signature, message) triples are remembered so resubmitted
// authorizations skip the curve arithmetic.
type Verifier struct {
	verified *lru.ARCCache
}

func NewVerifier(cacheSize int) (*Verifier, error) {
	cache, err := lru.NewARC(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create signature cache")
	}

	return &Verifier{verified: cache}, nil
}

// Verify checks every signature referenced by the precompile instruction data.
// instructions holds the data of each instruction in the transaction.
func (v *Verifier) Verify(data []byte, instructions [][]byte) error {
	offsets, err := solana.ParseSignatureOffsets(data, maxSignatures)
	if err != nil {
		return err
	}

	for _, o := range offsets {
		signature, publicKey, message, err := resolve(data, instructions, o)
		if err != nil {
			return err
		}

		h := sha256.New()
		h.Write(publicKey[:])
		h.Write(signature)
		h.Write(message)
		key := string(h.Sum(nil))

		if _, ok := v.verified.Get(key); ok {
			continue
		}

		if !VerifySignature(publicKey, message, signature) {
			return solana.PrecompileErrorInvalidSignature
		}

		v.verified.Add(key, struct{}{})
	}

	return nil
}
