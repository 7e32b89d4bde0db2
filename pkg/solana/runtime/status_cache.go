package runtime

import (
	"bytes"
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/code-payments/code-custody/pkg/metrics"
	"github.com/code-payments/code-custody/pkg/solana"
)

const (
	statusCacheMetricsName = "solana.runtime.status_cache"

	statusCacheFalsePositiveRate = 0.001
)

// statusCache remembers the signatures of committed transactions along with
// the hash of the message they signed. The bloom filter answers the common
// case of a never seen signature without touching the LRU, which is the
// source of truth for anything the filter might contain.
type statusCache struct {
	mu sync.Mutex

	capacity uint
	added    uint
	filter   *bloom.BloomFilter
	recent   *lru.Cache
}

func newStatusCache(capacity uint) (*statusCache, error) {
	if capacity == 0 {
		return nil, errors.New("status cache capacity must be positive")
	}

	recent, err := lru.New(int(capacity))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create status cache")
	}

	return &statusCache{
		capacity: capacity,
		filter:   bloom.NewWithEstimates(capacity, statusCacheFalsePositiveRate),
		recent:   recent,
	}, nil
}

// check returns a transaction error if the signature was already committed.
// Resubmitting the same message yields AlreadyProcessed, while reusing a
// signature for a different message yields DuplicateSignature.
func (c *statusCache) check(ctx context.Context, signature solana.Signature, messageHash []byte) error {
	tracer := metrics.TraceMethodCall(ctx, statusCacheMetricsName, "check")
	defer tracer.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.filter.Test(signature[:]) {
		return nil
	}

	existing, ok := c.recent.Get(signature)
	if !ok {
		return nil
	}

	if bytes.Equal(existing.([]byte), messageHash) {
		return solana.NewTransactionError(solana.TransactionErrorAlreadyProcessed)
	}
	return solana.NewTransactionError(solana.TransactionErrorDuplicateSignature)
}

func (c *statusCache) add(ctx context.Context, signature solana.Signature, messageHash []byte) {
	tracer := metrics.TraceMethodCall(ctx, statusCacheMetricsName, "add")
	defer tracer.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.recent.Add(signature, messageHash)
	c.filter.Add(signature[:])
	c.added++

	// Once evictions push the filter past its sizing, rebuild it from the
	// entries still held so its false positive rate stays bounded.
	if c.added > 2*c.capacity {
		c.filter.ClearAll()
		for _, key := range c.recent.Keys() {
			signature := key.(solana.Signature)
			c.filter.Add(signature[:])
		}
		c.added = uint(c.recent.Len())
	}
}
