package bleach

import "errors"

// Construction errors: these abort NewEngine synchronously.
var (
	ErrInvalidOracle   = errors.New("invalid oracle")
	ErrInvalidCallback = errors.New("invalid callback")
	ErrInvalidPoolSize = errors.New("invalid pool size")
	ErrInvalidNumber   = errors.New("invalid number")
)

// ErrInvalidInterval is returned by newInterval when given a malformed
// interval (upper bound below lower bound).
var ErrInvalidInterval = errors.New("invalid interval")

// ErrEmptyIntervalSet is returned by RunSearch when narrowing eliminates
// every candidate interval. A well-behaved oracle never causes this; it
// indicates a false positive somewhere upstream and is fatal for the
// episode.
var ErrEmptyIntervalSet = errors.New("interval set narrowed to empty")

// ErrOracleTransport names the oracle transport-failure kind. The pool and
// the Phase C linear search treat any error returned by Oracle.Query as a
// non-conforming result and keep going; they discard that error without
// wrapping it in ErrOracleTransport, so nothing in this package returns it.
var ErrOracleTransport = errors.New("oracle transport error")
