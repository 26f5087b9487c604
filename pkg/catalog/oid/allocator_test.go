package oid

import (
	"math"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"syscat/pkg/primitives"
)

func TestNextIsStrictlyIncreasing(t *testing.T) {
	a := NewAllocator()
	require.Equal(t, primitives.FirstNormalOID, a.Peek())

	prev := primitives.InvalidOID
	for i := 0; i < 100; i++ {
		got, err := a.Next()
		require.NoError(t, err)
		require.Greater(t, got, prev)
		prev = got
	}
}

func TestObserve(t *testing.T) {
	a := NewAllocator()

	a.Observe(20000)
	got, err := a.Next()
	require.NoError(t, err)
	require.Equal(t, primitives.OID(20001), got)

	a.Observe(100)
	got, err = a.Next()
	require.NoError(t, err)
	require.Equal(t, primitives.OID(20002), got, "observing a lower oid must not rewind")
}

func TestExhaustion(t *testing.T) {
	a := NewAllocator()
	a.Observe(math.MaxUint32 - 1)

	got, err := a.Next()
	require.NoError(t, err)
	require.Equal(t, primitives.OID(math.MaxUint32), got)

	_, err = a.Next()
	require.True(t, errors.Is(err, ErrExhausted))
	require.Equal(t, primitives.InvalidOID, a.Peek())
}

func TestConcurrentAllocationIsUnique(t *testing.T) {
	a := NewAllocator()

	const workers, perWorker = 8, 500
	var (
		mu   sync.Mutex
		seen = make(map[primitives.OID]bool, workers*perWorker)
		g    errgroup.Group
	)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			local := make([]primitives.OID, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				id, err := a.Next()
				if err != nil {
					return err
				}
				local = append(local, id)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				if seen[id] {
					return errors.Newf("oid %d handed out twice", id)
				}
				seen[id] = true
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Len(t, seen, workers*perWorker)
	require.Equal(t, primitives.FirstNormalOID+workers*perWorker, a.Peek())
}
