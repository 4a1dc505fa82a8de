package mapengine

import (
	"context"
	"log"
	"time"
)

// LoadFunc produces a dataset. It runs on a worker goroutine.
type LoadFunc func(ctx context.Context) (Dataset, error)

type loadResult struct {
	gen   uint64
	store *PointStore
	err   error
	took  time.Duration
}

// RequestLoad runs fn on a new goroutine and hands the built store back to
// the render loop, which swaps it in at the start of its next Frame. Only the
// newest request is applied; older ones are dropped when they arrive.
// RequestLoad must be called from the goroutine that calls Frame.
func (e *Engine) RequestLoad(ctx context.Context, fn LoadFunc) uint64 {
	e.generation++
	gen := e.generation
	out := e.loads
	go func() {
		start := time.Now()
		ds, err := fn(ctx)
		res := loadResult{gen: gen, err: err}
		if err == nil {
			res.store = NewPointStore(ds)
		}
		res.took = time.Since(start)
		select {
		case out <- res:
		case <-ctx.Done():
		}
	}()
	return gen
}

// Generation is the id of the most recent load request.
func (e *Engine) Generation() uint64 { return e.generation }

// Pending reports whether the most recent load request has not been applied.
func (e *Engine) Pending() bool { return e.applied != e.generation }

func (e *Engine) drainLoads() {
	for {
		select {
		case res := <-e.loads:
			e.applyLoad(res)
		default:
			return
		}
	}
}

func (e *Engine) applyLoad(res loadResult) {
	if res.gen != e.generation {
		log.Printf("[MAP] Discarding stale dataset (generation %d, current %d)", res.gen, e.generation)
		return
	}
	e.applied = res.gen
	if res.err != nil {
		log.Printf("[MAP] Dataset load failed after %v: %v", res.took, res.err)
		return
	}
	e.swap(res.store)
	log.Printf("[MAP] Loaded dataset %q: %d points, %d edges (%d dropped) in %v",
		res.store.Name(), res.store.Len(), len(res.store.Edges()), res.store.Dropped(), res.took)
}
