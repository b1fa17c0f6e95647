package bleach

import (
	"context"
	"math/big"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alexmgr/gobleach/numutils"
	"github.com/alexmgr/gobleach/oracle"
)

// taskQueueCapacity and resultQueueCapacity mirror the bounded queues
// spec.md §4.3 calls for: enough headroom to keep workers fed without
// letting the feeder race arbitrarily far ahead of the oracle.
const (
	taskQueueCapacity   = 100
	resultQueueCapacity = 1
)

// shutdownGrace is how long stop waits for the worker group to notice
// cancellation before giving up and returning anyway. Go cannot force-kill
// a goroutine blocked in a system call; this is a best-effort analogue of
// the Python implementation's worker.join(timeout) followed by terminate().
const shutdownGrace = 2 * time.Second

// task is one (taskID, c, s, i) unit of work handed to a multiplier worker.
type task struct {
	taskID uint64
	c, s   *big.Int
	i      uint64
}

// result is a successful oracle hit: (taskID, s, i). Workers never publish
// negative results.
type result struct {
	taskID uint64
	s      *big.Int
	i      uint64
}

// pool is the fixed-size set of multiplier workers for a single search
// episode. Given a task, each worker computes c' = c*s^e mod n and queries
// the oracle; only an accepting query is posted to results. Cancellation is
// carried entirely by ctx — there is no sentinel task, since closing a
// channel that a separate feeder goroutine might still be sending on would
// race; ctx.Done() is the Go-idiomatic sentinel instead.
type pool[T any] struct {
	n, e     *big.Int
	oracle   oracle.Oracle[T]
	callback oracle.Callback[T]

	tasks   chan task
	results chan result

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

func newPool[T any](n, e *big.Int, o oracle.Oracle[T], cb oracle.Callback[T], size int) *pool[T] {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	p := &pool[T]{
		n:        n,
		e:        e,
		oracle:   o,
		callback: cb,
		tasks:    make(chan task, taskQueueCapacity),
		results:  make(chan result, resultQueueCapacity),
		group:    group,
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := 0; i < size; i++ {
		p.group.Go(p.workerLoop)
	}
	return p
}

// spawn adds fn to the pool's lifetime scope: stop() won't return until fn
// does. The engine uses this to run its task feeder alongside the workers,
// so a single stop() call tears down the whole episode.
func (p *pool[T]) spawn(fn func() error) {
	p.group.Go(fn)
}

// workerLoop pulls tasks until the pool's context is cancelled.
func (p *pool[T]) workerLoop() error {
	for {
		select {
		case t := <-p.tasks:
			p.evaluate(t)
		case <-p.ctx.Done():
			return nil
		}
	}
}

// evaluate computes c' = c*s^e mod n and queries the oracle. A query error
// (transport failure) is treated as non-conforming per spec.md §4.4.5 and
// discarded; only an accepting query is published.
func (p *pool[T]) evaluate(t task) {
	cPrime := new(big.Int).Mod(
		new(big.Int).Mul(t.c, numutils.PowMod(t.s, p.e, p.n)),
		p.n,
	)

	ok, err := p.oracle.Query(p.ctx, cPrime, p.callback)
	if err != nil || !ok {
		return
	}

	select {
	case p.results <- result{taskID: t.taskID, s: t.s, i: t.i}:
	case <-p.ctx.Done():
	}
}

// submit enqueues a task, honoring cancellation so a feeder goroutine never
// blocks forever on a full queue after stop has been called. It reports
// whether the task was actually enqueued.
func (p *pool[T]) submit(t task) bool {
	select {
	case p.tasks <- t:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// stop cancels the pool's context — the Go-idiomatic sentinel — and waits
// for every worker and spawned feeder to return, up to shutdownGrace. No
// in-flight oracle query is rolled back; it is simply abandoned if it
// outlives the grace period, exactly as spec.md §5 allows.
func (p *pool[T]) stop() {
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.group.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownGrace):
	}
}
