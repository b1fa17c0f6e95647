package bleach

import (
	"fmt"
	"math/big"

	"github.com/alexmgr/gobleach/numutils"
)

// interval is a closed integer range [A, B] with A <= B. M is the set of
// candidate plaintext intervals the engine narrows round by round.
type interval struct {
	A, B *big.Int
}

func newInterval(a, b *big.Int) (interval, error) {
	if a.Cmp(b) > 0 {
		return interval{}, fmt.Errorf("%w: lower bound %s is greater than upper bound %s", ErrInvalidInterval, a, b)
	}
	return interval{A: a, B: b}, nil
}

func (iv interval) contains(m *big.Int) bool {
	return iv.A.Cmp(m) <= 0 && m.Cmp(iv.B) <= 0
}

func (iv interval) equal(other interval) bool {
	return iv.A.Cmp(other.A) == 0 && iv.B.Cmp(other.B) == 0
}

// rInterval returns the admissible values of r for a given (s, interval)
// pair: r ranges over ceil((a*s - B3 + 1)/n) <= r <= floor((b*s - B2)/n).
func rInterval(iv interval, s, n, b2, b3 *big.Int) []*big.Int {
	var (
		aS   = new(big.Int).Mul(iv.A, s)
		bS   = new(big.Int).Mul(iv.B, s)
		rMin = numutils.CeilDiv(new(big.Int).Add(new(big.Int).Sub(aS, b3), big.NewInt(1)), n)
		rMax = numutils.FloorDiv(new(big.Int).Sub(bS, b2), n)
	)

	if rMin.Cmp(rMax) > 0 {
		return nil
	}

	var rs []*big.Int
	for r := new(big.Int).Set(rMin); r.Cmp(rMax) <= 0; r.Add(r, big.NewInt(1)) {
		rs = append(rs, new(big.Int).Set(r))
	}
	return rs
}

// narrowIntervals rebuilds M for the multiplier s that the oracle just
// accepted: for each interval in M and each admissible r, it computes
// [max(a, ceil((B2+r*n)/s)), min(b, floor((B3-1+r*n)/s))] and keeps the
// pairs whose lower bound doesn't exceed their upper bound, de-duplicating
// by value. It returns ErrEmptyIntervalSet if nothing survives.
func narrowIntervals(m []interval, s, n, b2, b3 *big.Int) ([]interval, error) {
	b3Minus1 := new(big.Int).Sub(b3, big.NewInt(1))

	var next []interval
	for _, iv := range m {
		for _, r := range rInterval(iv, s, n, b2, b3) {
			rN := new(big.Int).Mul(r, n)

			lower := numutils.CeilDiv(new(big.Int).Add(b2, rN), s)
			if lower.Cmp(iv.A) < 0 {
				lower = iv.A
			}

			upper := numutils.FloorDiv(new(big.Int).Add(b3Minus1, rN), s)
			if upper.Cmp(iv.B) > 0 {
				upper = iv.B
			}

			if lower.Cmp(upper) > 0 {
				continue
			}

			candidate := interval{A: lower, B: upper}
			if !containsEqual(next, candidate) {
				next = append(next, candidate)
			}
		}
	}

	if len(next) == 0 {
		return nil, ErrEmptyIntervalSet
	}
	return next, nil
}

func containsEqual(m []interval, candidate interval) bool {
	for _, iv := range m {
		if iv.equal(candidate) {
			return true
		}
	}
	return false
}
