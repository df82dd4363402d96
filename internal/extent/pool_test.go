package extent

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"
)

func TestNewNodePool_InvalidMaxNodes(t *testing.T) {
	_, err := NewNodePool(0, nil)
	require.Error(t, err)

	_, err = NewNodePool(-1, nil)
	require.Error(t, err)
}

func TestNodePool_GetGrowsUntilMax(t *testing.T) {
	p, err := NewNodePool(2, semaphore.NewWeighted(2))
	require.NoError(t, err)

	e1, err := p.Get()
	require.NoError(t, err)
	require.NotNil(t, e1)
	e2, err := p.Get()
	require.NoError(t, err)
	require.NotNil(t, e2)
	assert.Equal(t, int64(2), p.TotalNodes())
}

func TestNodePool_PutThenGetReuses(t *testing.T) {
	p, err := NewNodePool(1, semaphore.NewWeighted(1))
	require.NoError(t, err)

	e1, err := p.Get()
	require.NoError(t, err)
	e1.File.Size = 42

	p.Put(e1)

	e2, err := p.Get()
	require.NoError(t, err)
	assert.Same(t, e1, e2)
	assert.Equal(t, uint32(0), e2.File.Size, "recycled descriptor must be reset")
	assert.Equal(t, int64(1), p.TotalNodes(), "reuse must not mint a new descriptor")
}

func TestNodePool_GetBlocksWhenExhausted(t *testing.T) {
	p, err := NewNodePool(1, semaphore.NewWeighted(1))
	require.NoError(t, err)
	e1, err := p.Get()
	require.NoError(t, err)

	done := make(chan *Extent, 1)
	go func() {
		e, err := p.Get()
		require.NoError(t, err)
		done <- e
	}()

	select {
	case <-done:
		assert.FailNow(t, "Get returned before a descriptor was released")
	case <-time.After(100 * time.Millisecond):
	}

	p.Put(e1)

	select {
	case e := <-done:
		assert.Same(t, e1, e)
	case <-time.After(time.Second):
		assert.FailNow(t, "Get did not unblock after Put")
	}
}

func TestNodePool_PutPanicsWhenChannelFull(t *testing.T) {
	p, err := NewNodePool(1, semaphore.NewWeighted(1))
	require.NoError(t, err)
	e1, err := p.Get()
	require.NoError(t, err)
	p.Put(e1)

	assert.Panics(t, func() {
		p.Put(&Extent{})
	})
}

func TestNodePool_ConcurrentGetPut(t *testing.T) {
	const maxNodes = 8
	p, err := NewNodePool(maxNodes, semaphore.NewWeighted(maxNodes))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < maxNodes*4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := p.Get()
			require.NoError(t, err)
			p.Put(e)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, p.TotalNodes(), int64(maxNodes))
}
