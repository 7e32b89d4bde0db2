package sync

import (
	"fmt"
	"math"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
)

func TestRing_Consistency(t *testing.T) {
	r := newRing(64, 200)
	other := newRing(64, 200)

	for i := 0; i < 256; i++ {
		key := []byte(fmt.Sprintf("key%d", i))
		stripe := r.stripe(key)

		assert.True(t, stripe >= 0 && stripe < 64)
		assert.Equal(t, stripe, other.stripe(key))
		for j := 0; j < 16; j++ {
			assert.Equal(t, stripe, r.stripe(key))
		}
	}
}

func TestRing_Distribution(t *testing.T) {
	stripes := 5
	iterations := 500000
	marginOfError := 0.1
	expectedFrequency := iterations / stripes

	r := newRing(uint(stripes), 200)

	// Account addresses are the keys being striped in practice.
	hits := make(map[int]int)
	var address [32]byte
	for i := 0; i < iterations; i++ {
		address[0], address[1], address[2] = byte(i), byte(i>>8), byte(i>>16)
		hits[r.stripe([]byte(base58.Encode(address[:])))]++
	}

	assert.Len(t, hits, stripes)
	for _, hitCount := range hits {
		assert.True(t, math.Abs(float64(hitCount-expectedFrequency)) <= marginOfError*float64(expectedFrequency))
	}
}

func TestRing_SingleStripe(t *testing.T) {
	r := newRing(1, 200)
	for i := 0; i < 64; i++ {
		assert.Equal(t, 0, r.stripe([]byte(fmt.Sprintf("key%d", i))))
	}
}
