package numutils

import (
	"errors"
	"math/big"
	"testing"
)

func big10(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad literal: " + s)
	}
	return n
}

func TestToInt(t *testing.T) {
	tests := []struct {
		in   string
		want *big.Int
	}{
		{"1234", big.NewInt(1234)},
		{"abcd", big.NewInt(0xabcd)},
		{"ABCD", big.NewInt(0xabcd)},
	}
	for _, tt := range tests {
		got, err := ToInt(tt.in)
		if err != nil {
			t.Fatalf("ToInt(%q): %s", tt.in, err)
		}
		if got.Cmp(tt.want) != 0 {
			t.Errorf("ToInt(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestToIntInvalid(t *testing.T) {
	if _, err := ToInt("abcdgh"); !errors.Is(err, ErrInvalidNumber) {
		t.Errorf("want ErrInvalidNumber, got %v", err)
	}
}

func TestPow2Round(t *testing.T) {
	tests := []struct {
		in   int64
		want int64
	}{
		{255, 256},
		{34, 64},
		{256, 256}, // exact power of two stays fixed, unlike float log2 rounding
		{1, 1},
	}
	for _, tt := range tests {
		got, err := Pow2Round(big.NewInt(tt.in))
		if err != nil {
			t.Fatalf("Pow2Round(%d): %s", tt.in, err)
		}
		if got.Int64() != tt.want {
			t.Errorf("Pow2Round(%d) = %d, want %d", tt.in, got.Int64(), tt.want)
		}
	}
}

func TestPow2RoundInvalid(t *testing.T) {
	for _, in := range []int64{0, -1} {
		if _, err := Pow2Round(big.NewInt(in)); !errors.Is(err, ErrInvalidNumber) {
			t.Errorf("Pow2Round(%d): want ErrInvalidNumber, got %v", in, err)
		}
	}
}

func TestPow2RoundIdempotent(t *testing.T) {
	for _, in := range []int64{3, 34, 255, 1024, 1234567} {
		once, err := Pow2Round(big.NewInt(in))
		if err != nil {
			t.Fatalf("Pow2Round(%d): %s", in, err)
		}
		twice, err := Pow2Round(once)
		if err != nil {
			t.Fatalf("Pow2Round(Pow2Round(%d)): %s", in, err)
		}
		if once.Cmp(twice) != 0 {
			t.Errorf("Pow2Round not idempotent for %d: %s != %s", in, once, twice)
		}
	}
}

func TestBitsToHold(t *testing.T) {
	bits, err := BitsToHold(big.NewInt(1234))
	if err != nil {
		t.Fatal(err)
	}
	if bits != 11 {
		t.Errorf("BitsToHold(1234) = %d, want 11", bits)
	}
}

func TestBytesToHold(t *testing.T) {
	max256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	bytes, err := BytesToHold(max256)
	if err != nil {
		t.Fatal(err)
	}
	if bytes != 32 {
		t.Errorf("BytesToHold(2^256-1) = %d, want 32", bytes)
	}
}

func TestCeilFloorDiv(t *testing.T) {
	tests := []struct {
		x, y, ceil, floor int64
	}{
		{10, 5, 2, 2},
		{99, 20, 5, 4},
		{0, 7, 0, 0},
	}
	for _, tt := range tests {
		x, y := big.NewInt(tt.x), big.NewInt(tt.y)
		if got := CeilDiv(x, y).Int64(); got != tt.ceil {
			t.Errorf("CeilDiv(%d, %d) = %d, want %d", tt.x, tt.y, got, tt.ceil)
		}
		if got := FloorDiv(x, y).Int64(); got != tt.floor {
			t.Errorf("FloorDiv(%d, %d) = %d, want %d", tt.x, tt.y, got, tt.floor)
		}
	}
}

func TestCeilFloorDivNegativeNumerator(t *testing.T) {
	// The interval-narrowing formulas subtract B3 from a product that can
	// undershoot it early in the attack, so x may be negative; y stays
	// positive. ceil(-38/101) = 0, floor(-38/101) = -1.
	x, y := big.NewInt(-38), big.NewInt(101)
	if got := CeilDiv(x, y).Int64(); got != 0 {
		t.Errorf("CeilDiv(-38, 101) = %d, want 0", got)
	}
	if got := FloorDiv(x, y).Int64(); got != -1 {
		t.Errorf("FloorDiv(-38, 101) = %d, want -1", got)
	}
}

func TestCeilDivRoundTrip(t *testing.T) {
	x, y := big10("123456789012345678901234567890"), big.NewInt(97)
	if got := new(big.Int).Mul(CeilDiv(x, y), y); got.Cmp(x) < 0 {
		t.Errorf("CeilDiv(x,y)*y = %s, want >= %s", got, x)
	}
	if got := new(big.Int).Mul(FloorDiv(x, y), y); got.Cmp(x) > 0 {
		t.Errorf("FloorDiv(x,y)*y = %s, want <= %s", got, x)
	}
}

func TestPowMod(t *testing.T) {
	s := big.NewInt(4)
	e := big.NewInt(13)
	n := big.NewInt(497)
	got := PowMod(s, e, n)
	want := new(big.Int).Exp(s, e, n)
	if got.Cmp(want) != 0 {
		t.Errorf("PowMod(4, 13, 497) = %s, want %s", got, want)
	}
}
