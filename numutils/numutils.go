// Package numutils collects the integer helpers the Bleichenbacher attack
// engine leans on: base-10/base-16 parsing, power-of-two rounding, bit/byte
// width, and ceiling/floor division. None of it is RSA- or PKCS#1-specific;
// it exists so the engine's arithmetic reads as formulas, not as inlined
// big.Int plumbing.
package numutils

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrInvalidNumber is returned whenever a value fails to parse as an
// integer, or fails a range check (e.g. rounding a non-positive number).
var ErrInvalidNumber = errors.New("invalid number")

// ToInt parses v as a base-10 integer, falling back to base-16 (with or
// without a leading "0x") if that fails. It mirrors the original Python
// to_int helper's "try decimal, then hex" behavior.
func ToInt(v string) (*big.Int, error) {
	n := new(big.Int)
	if _, ok := n.SetString(v, 10); ok {
		return n, nil
	}
	hexV := v
	if strings.HasPrefix(hexV, "0x") || strings.HasPrefix(hexV, "0X") {
		hexV = hexV[2:]
	}
	if _, ok := n.SetString(hexV, 16); ok {
		return n, nil
	}
	return nil, fmt.Errorf("%w: %q is neither decimal nor hex", ErrInvalidNumber, v)
}

// ToIntError is ToInt with prefix prepended to the error for callers that
// want to name which field failed to parse (modulus, exponent, ciphertext).
func ToIntError(v, prefix string) (*big.Int, error) {
	n, err := ToInt(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer: %w", prefix, ErrInvalidNumber)
	}
	return n, nil
}

// BitsToHold returns the number of bits needed to hold x, i.e. ceil(log2(x))
// for x >= 1. It is computed as (x-1).BitLen(), which is exact integer
// arithmetic and therefore immune to the floating-point rounding the
// original math.log(x)/math.log(2) formulation was exposed to at exact
// powers of two.
func BitsToHold(x *big.Int) (int, error) {
	if x.Sign() <= 0 {
		return 0, fmt.Errorf("%w: value to inspect must be positive", ErrInvalidNumber)
	}
	xMinus1 := new(big.Int).Sub(x, big.NewInt(1))
	return xMinus1.BitLen(), nil
}

// BytesToHold returns BitsToHold(x) / 8, rounded down.
func BytesToHold(x *big.Int) (int, error) {
	bits, err := BitsToHold(x)
	if err != nil {
		return 0, err
	}
	return bits / 8, nil
}

// Pow2Round rounds x up to the nearest power of two: 2^ceil(log2(x)).
// It rejects x <= 0.
func Pow2Round(x *big.Int) (*big.Int, error) {
	if x.Sign() <= 0 {
		return nil, fmt.Errorf("%w: number to round must be a positive integer", ErrInvalidNumber)
	}
	bits, err := BitsToHold(x)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Lsh(big.NewInt(1), uint(bits)), nil
}

// CeilDiv computes the smallest integer >= x/y, for y > 0. x may be
// negative, which the interval-narrowing arithmetic relies on (the
// admissible-r bounds subtract B2/B3 from a product that can undershoot
// them before the attack's first few rounds).
func CeilDiv(x, y *big.Int) *big.Int {
	q, m := new(big.Int), new(big.Int)
	q.DivMod(x, y, m) // Euclidean division: q == floor(x/y) for y > 0
	if m.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// FloorDiv computes the largest integer <= x/y, for y > 0. x may be
// negative; big.Int.DivMod's Euclidean quotient equals floor division
// whenever the divisor is positive.
func FloorDiv(x, y *big.Int) *big.Int {
	q, m := new(big.Int), new(big.Int)
	q.DivMod(x, y, m)
	return q
}

// PowMod computes s^e mod n. It is a thin wrapper over big.Int.Exp, which
// already implements an efficient modular exponentiation; the naive
// expansion the spec allows as equivalent is only viable because e is small,
// and big.Int.Exp handles both cases without us having to special-case it.
func PowMod(s, e, n *big.Int) *big.Int {
	return new(big.Int).Exp(s, e, n)
}
