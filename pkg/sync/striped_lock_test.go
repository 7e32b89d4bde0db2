package sync

import (
	"fmt"
	base "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStripedLock_HappyPath(t *testing.T) {
	workerCount := 32
	operationCount := 1_000
	keyCount := 8

	l := NewStripedLock(4)

	var workerWg base.WaitGroup
	startChan := make(chan struct{})
	data := make([]int, keyCount)

	for i := 0; i < workerCount; i++ {
		workerWg.Add(1)

		go func(workerID int) {
			defer workerWg.Done()

			<-startChan

			for j := 0; j < operationCount; j++ {
				slot := (workerID + j) % keyCount

				mu := l.Get([]byte(fmt.Sprintf("account%d", slot)))
				mu.Lock()
				data[slot]++
				mu.Unlock()
			}
		}(i)
	}

	close(startChan)
	workerWg.Wait()

	var total int
	for _, val := range data {
		total += val
	}
	assert.Equal(t, workerCount*operationCount, total)
}

func TestStripedLock_Acquire(t *testing.T) {
	l := NewStripedLock(8)

	keys := make([][]byte, 32)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("account%d", i))
	}

	// Overlapping writers acquiring in different orders must not deadlock.
	var wg base.WaitGroup
	counter := 0
	for i := 0; i < 64; i++ {
		wg.Add(1)

		go func(worker int) {
			defer wg.Done()

			writable := [][]byte{keys[worker%len(keys)], keys[(worker*7)%len(keys)]}
			if worker%2 == 0 {
				writable[0], writable[1] = writable[1], writable[0]
			}

			for j := 0; j < 100; j++ {
				unlock := l.Acquire(append(writable, keys[0]), [][]byte{keys[0], keys[1]})
				counter++
				unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 64*100, counter)

	// Readers of a stripe share it; a writer is excluded until they release.
	unlockRead := l.Acquire(nil, [][]byte{keys[3]})
	unlockRead2 := l.Acquire(nil, [][]byte{keys[3]})

	acquired := make(chan struct{})
	go func() {
		unlock := l.Acquire([][]byte{keys[3]}, nil)
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("writer acquired a read locked stripe")
	case <-time.After(50 * time.Millisecond):
	}

	unlockRead()
	unlockRead2()
	<-acquired
}
