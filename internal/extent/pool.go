package extent

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// NodePool recycles fixed-size Extent descriptors the way the slot table
// links and unlinks them: grown on demand up to maxNodes, never shrunk
// (Extents returned to the pool stay allocated, just idle, until the
// process exits). Adapted from the teacher's generic block-pool pattern
// (a free channel plus a weighted semaphore gating total creation) with
// the byte-buffer allocation dropped, since an Extent descriptor carries
// no payload of its own.
type NodePool struct {
	maxNodes int64

	globalMaxNodesSem *semaphore.Weighted
	freeNodesCh       chan *Extent

	mu         sync.Mutex
	totalNodes int64 // GUARDED_BY(mu)
}

// NewNodePool creates a pool that will create at most maxNodes
// descriptors, additionally bounded by globalSem (shared across pools,
// e.g. one per slot table) if non-nil.
func NewNodePool(maxNodes int64, globalSem *semaphore.Weighted) (*NodePool, error) {
	if maxNodes <= 0 {
		return nil, fmt.Errorf("extent: invalid node pool configuration, maxNodes: %d", maxNodes)
	}
	if globalSem == nil {
		globalSem = semaphore.NewWeighted(maxNodes)
	}
	return &NodePool{
		maxNodes:          maxNodes,
		globalMaxNodesSem: globalSem,
		freeNodesCh:       make(chan *Extent, maxNodes),
	}, nil
}

// canCreate reports whether the pool may mint a new descriptor instead of
// waiting for one to be recycled, reserving the slot if so.
func (p *NodePool) canCreate() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.totalNodes >= p.maxNodes {
		return false
	}
	p.totalNodes++
	return true
}

// Get returns a recycled descriptor if one is free, creates a new one if
// the pool has not yet reached maxNodes, and otherwise blocks until a
// descriptor is returned via Put.
func (p *NodePool) Get() (*Extent, error) {
	select {
	case e := <-p.freeNodesCh:
		*e = Extent{}
		return e, nil
	default:
	}

	if p.canCreate() {
		if err := p.globalMaxNodesSem.Acquire(context.Background(), 1); err != nil {
			p.mu.Lock()
			p.totalNodes--
			p.mu.Unlock()
			return nil, err
		}
		return &Extent{}, nil
	}

	// Pool exhausted: wait for a release.
	e := <-p.freeNodesCh
	*e = Extent{}
	return e, nil
}

// Put returns e to the pool for reuse. Panics if called more times than
// the pool has ever handed out, mirroring the teacher's own Release
// behavior on an over-full free channel.
func (p *NodePool) Put(e *Extent) {
	e.next = nil
	select {
	case p.freeNodesCh <- e:
	default:
		panic("extent: NodePool.Put called on an already-full free channel")
	}
}

// TotalNodes reports how many descriptors this pool has ever minted.
func (p *NodePool) TotalNodes() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalNodes
}
