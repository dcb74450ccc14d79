package workflow

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of compositor processes running at once.
type Pool struct {
	sem     *semaphore.Weighted
	size    int64
	active  atomic.Int64
	waiting atomic.Int64
}

// PoolStats is a point-in-time view of pool occupancy.
type PoolStats struct {
	Size    int `json:"size"`
	Active  int `json:"active"`
	Waiting int `json:"waiting"`
}

// NewPool returns a pool with size slots. Sizes below one are treated as one.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: int64(size)}
}

// Acquire blocks until a slot is free or ctx is done. The returned release
// func must be called exactly once.
func (p *Pool) Acquire(ctx context.Context) (func(), error) {
	p.waiting.Add(1)
	err := p.sem.Acquire(ctx, 1)
	p.waiting.Add(-1)
	if err != nil {
		return nil, err
	}
	p.active.Add(1)
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			p.active.Add(-1)
			p.sem.Release(1)
		}
	}, nil
}

// Stats reports pool occupancy.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Size:    int(p.size),
		Active:  int(p.active.Load()),
		Waiting: int(p.waiting.Load()),
	}
}
