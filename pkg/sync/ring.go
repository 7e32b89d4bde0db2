package sync

import (
	"encoding/binary"
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring is a consistent hash ring mapping keys onto a fixed set of stripes.
type ring struct {
	hashRing *treemap.Map

	// minStripe caches the stripe of the smallest hash, which keys hashing past
	// the largest entry wrap around to. treemap.Map.Min() is O(log n).
	minStripe int
}

// newRing places replicationFactor virtual nodes on the ring for each of the
// stripes.
func newRing(stripes, replicationFactor uint) *ring {
	hashRing := treemap.NewWith(utils.Int64Comparator)
	for stripe := 0; stripe < int(stripes); stripe++ {
		nodeHash, _ := murmur3.Sum128([]byte(fmt.Sprintf("lock%d", stripe)))

		var node [12]byte
		binary.LittleEndian.PutUint64(node[:8], nodeHash)
		for i := 0; i < int(replicationFactor); i++ {
			binary.LittleEndian.PutUint32(node[8:], uint32(i))
			hash, _ := murmur3.Sum128(node[:])
			hashRing.Put(int64(hash), stripe)
		}
	}

	r := &ring{hashRing: hashRing}
	if _, minStripe := hashRing.Min(); minStripe != nil {
		r.minStripe = minStripe.(int)
	}
	return r
}

// stripe consistently hashes the key and returns the stripe owning it
func (r *ring) stripe(key []byte) int {
	hash, _ := murmur3.Sum128(key)
	if _, stripe := r.hashRing.Ceiling(int64(hash)); stripe != nil {
		return stripe.(int)
	}
	return r.minStripe
}
