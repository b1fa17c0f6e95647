// Package pkcs1 builds PKCS#1 v1.5 padded messages: the reference
// conforming layout, plus five deliberately broken variants used to drive
// and test padding oracles, grounded on the original pybleach project's
// padding.py PKCS1_v15 builder.
package pkcs1

import (
	"errors"
	"fmt"

	"github.com/alexmgr/gobleach/internal/randbytes"
)

// ErrCleartextTooLong is returned when the payload doesn't fit in a k-byte
// message after the mandatory header, 8 bytes of padding and the delimiter.
var ErrCleartextTooLong = errors.New("cleartext too long")

// ErrPadOutOfBounds is returned when a requested padding overlay would
// cross the message boundary.
var ErrPadOutOfBounds = errors.New("padding overlay out of bounds")

// Unpad's failure modes, each distinct so a padding oracle can answer with
// a different code per spec.md §6's rc convention: 2 for a bad header, 3
// for a null byte inside the mandatory padding, 4 for a missing delimiter.
var (
	ErrMessageTooShort = errors.New("message too short to be PKCS#1 v1.5 padded")
	ErrBadHeader       = errors.New("bad PKCS#1 header")
	ErrNullInPadding   = errors.New("null byte within the 8 mandatory padding bytes")
	ErrNoDelimiter     = errors.New("no 0x00 delimiter found")
)

// DefaultNonConformingHeader is the header NonConformingHeader substitutes
// by default: 0x0001 instead of the conforming 0x0002.
const DefaultNonConformingHeader uint16 = 0x0001

// Variant selects one of the five message layouts, matching padding.py's
// FUNC_TABLE selector.
type Variant int

const (
	VariantConforming Variant = iota + 1
	VariantConformingConsecutiveNullBytes
	VariantNonConformingHeader
	VariantNonConformingPaddingLength
	VariantNonConformingNoDelimiter
)

// Builder constructs K-byte PKCS#1 v1.5 messages, where K is the RSA
// modulus's byte width.
type Builder struct {
	K int
}

// Conforming returns the reference layout: 0x00 0x02 || PS || 0x00 || D,
// where PS is at least 8 random, strictly nonzero bytes.
func (b Builder) Conforming(d []byte) ([]byte, error) {
	psLen := b.K - len(d) - 3
	if psLen < 8 {
		return nil, fmt.Errorf("%w: %d-byte cleartext needs a %d-byte key at minimum",
			ErrCleartextTooLong, len(d), len(d)+11)
	}

	ps, err := randbytes.NonZero(psLen)
	if err != nil {
		return nil, fmt.Errorf("generating random padding: %w", err)
	}

	msg := make([]byte, 0, b.K)
	msg = append(msg, 0x00, 0x02)
	msg = append(msg, ps...)
	msg = append(msg, 0x00)
	msg = append(msg, d...)
	return msg, nil
}

// ConformingConsecutiveNullBytes builds a conforming message (header-wise)
// and then overlays extra additional 0x00 bytes starting at index, or
// (when index == -1 and padBack is true) ending right before the PS/D
// delimiter. It is conforming at the header level but exercises oracle
// boundary handling of runs of null bytes inside PS or D.
func (b Builder) ConformingConsecutiveNullBytes(d []byte, index, extra int, padBack bool) ([]byte, error) {
	msg, err := b.Conforming(d)
	if err != nil {
		return nil, err
	}

	start := index
	if index == -1 && padBack {
		start = delimiterIndex(msg) - extra
	}
	if start < 2 || extra < 0 || start+extra > len(msg) {
		return nil, fmt.Errorf("%w: overlay [%d, %d) in a %d-byte message", ErrPadOutOfBounds, start, start+extra, len(msg))
	}

	for i := start; i < start+extra; i++ {
		msg[i] = 0x00
	}
	return msg, nil
}

// NonConformingHeader replaces the leading two bytes (normally 0x00 0x02)
// with header.
func (b Builder) NonConformingHeader(d []byte, header uint16) ([]byte, error) {
	msg, err := b.Conforming(d)
	if err != nil {
		return nil, err
	}
	msg[0] = byte(header >> 8)
	msg[1] = byte(header)
	return msg, nil
}

// NonConformingPaddingLength sets a single byte inside the first 8 bytes of
// PS (byteIndex in [0, 8)) to 0x00, violating the "PS is strictly nonzero"
// requirement.
func (b Builder) NonConformingPaddingLength(d []byte, byteIndex int) ([]byte, error) {
	msg, err := b.Conforming(d)
	if err != nil {
		return nil, err
	}
	if byteIndex < 0 || byteIndex >= 8 {
		return nil, fmt.Errorf("%w: byteIndex %d outside the 8 mandatory padding bytes", ErrPadOutOfBounds, byteIndex)
	}
	msg[2+byteIndex] = 0x00
	return msg, nil
}

// NonConformingNoDelimiter replaces the 0x00 delimiter between PS and D
// with replacement, which should be nonzero to actually remove the
// delimiter.
func (b Builder) NonConformingNoDelimiter(d []byte, replacement byte) ([]byte, error) {
	msg, err := b.Conforming(d)
	if err != nil {
		return nil, err
	}
	msg[delimiterIndex(msg)] = replacement
	return msg, nil
}

// Build dispatches to the variant named by v, using representative default
// parameters for the variants that take extra arguments; it exists for
// callers (like cmd/pkcs1tool) that select a variant numerically.
func (b Builder) Build(v Variant, d []byte) ([]byte, error) {
	switch v {
	case VariantConforming:
		return b.Conforming(d)
	case VariantConformingConsecutiveNullBytes:
		return b.ConformingConsecutiveNullBytes(d, -1, 1, true)
	case VariantNonConformingHeader:
		return b.NonConformingHeader(d, DefaultNonConformingHeader)
	case VariantNonConformingPaddingLength:
		return b.NonConformingPaddingLength(d, 0)
	case VariantNonConformingNoDelimiter:
		return b.NonConformingNoDelimiter(d, 0x41)
	default:
		return nil, fmt.Errorf("unknown pkcs1 variant %d", v)
	}
}

// Unpad reverses Conforming: given a conforming message, it returns D. It
// is the building block cmd/pkcs1oracle uses to classify a decrypted
// message as conforming or, if not, which way it is broken.
func Unpad(msg []byte) ([]byte, error) {
	if len(msg) < 11 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooShort, len(msg))
	}
	if msg[0] != 0x00 || msg[1] != 0x02 {
		return nil, fmt.Errorf("%w: header is %#02x%02x, want 0x0002", ErrBadHeader, msg[0], msg[1])
	}
	for _, b := range msg[2:10] {
		if b == 0x00 {
			return nil, ErrNullInPadding
		}
	}
	idx := delimiterIndex(msg)
	if idx < 0 {
		return nil, ErrNoDelimiter
	}
	return msg[idx+1:], nil
}

// delimiterIndex returns the index of the first 0x00 byte at or after
// offset 2, or -1 if there is none.
func delimiterIndex(msg []byte) int {
	for i := 2; i < len(msg); i++ {
		if msg[i] == 0x00 {
			return i
		}
	}
	return -1
}
