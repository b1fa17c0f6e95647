package pkcs1

import (
	"bytes"
	"errors"
	"testing"
)

func TestConformingRoundTrip(t *testing.T) {
	b := Builder{K: 128}
	for _, dLen := range []int{0, 1, 10, 50, 117} { // 117 == K-11
		d := bytes.Repeat([]byte{0x41}, dLen)
		msg, err := b.Conforming(d)
		if err != nil {
			t.Fatalf("Conforming(len=%d): %s", dLen, err)
		}
		if len(msg) != b.K {
			t.Fatalf("len(msg) = %d, want %d", len(msg), b.K)
		}
		got, err := Unpad(msg)
		if err != nil {
			t.Fatalf("Unpad: %s", err)
		}
		if !bytes.Equal(got, d) {
			t.Errorf("Unpad(Conforming(d)) = %x, want %x", got, d)
		}
	}
}

func TestConformingCleartextTooLong(t *testing.T) {
	b := Builder{K: 128}
	if _, err := b.Conforming(bytes.Repeat([]byte{0x41}, 117)); err != nil {
		t.Fatalf("K-11 bytes should be accepted: %s", err)
	}
	if _, err := b.Conforming(bytes.Repeat([]byte{0x41}, 118)); !errors.Is(err, ErrCleartextTooLong) {
		t.Errorf("K-10 bytes: want ErrCleartextTooLong, got %v", err)
	}
}

func TestConformingLayout(t *testing.T) {
	b := Builder{K: 64}
	d := []byte("hello")
	msg, err := b.Conforming(d)
	if err != nil {
		t.Fatal(err)
	}
	if msg[0] != 0x00 || msg[1] != 0x02 {
		t.Fatalf("header = %x, want 0002", msg[:2])
	}
	delimPos := b.K - len(d) - 1
	for i := 2; i < delimPos; i++ {
		if msg[i] == 0x00 {
			t.Errorf("unexpected 0x00 at position %d within PS", i)
		}
	}
	if msg[delimPos] != 0x00 {
		t.Errorf("delimiter at %d = %#x, want 0x00", delimPos, msg[delimPos])
	}
}

func TestNonConformingHeaderDiffersOnlyInHeader(t *testing.T) {
	b := Builder{K: 64}
	d := []byte("hello")

	conforming, err := b.Conforming(d)
	if err != nil {
		t.Fatal(err)
	}
	nonConforming, err := b.NonConformingHeader(d, DefaultNonConformingHeader)
	if err != nil {
		t.Fatal(err)
	}
	// NonConformingHeader draws fresh random padding, so its tail cannot be
	// compared byte for byte with conforming; restoring the 0x0002 header
	// must instead yield a conforming message carrying the same payload.
	restored := append([]byte(nil), nonConforming...)
	restored[0], restored[1] = 0x00, 0x02

	if got, err := Unpad(restored); err != nil || !bytes.Equal(got, d) {
		t.Error("variant 3 should differ from the conforming message only in the first two bytes")
	}
	if conforming[0] == nonConforming[0] && conforming[1] == nonConforming[1] {
		t.Error("expected the header bytes to differ")
	}
}

func TestNonConformingPaddingLength(t *testing.T) {
	b := Builder{K: 64}
	msg, err := b.NonConformingPaddingLength([]byte("hi"), 3)
	if err != nil {
		t.Fatal(err)
	}
	if msg[2+3] != 0x00 {
		t.Errorf("byte at padding index 3 = %#x, want 0x00", msg[5])
	}
	if _, err := b.NonConformingPaddingLength([]byte("hi"), 8); !errors.Is(err, ErrPadOutOfBounds) {
		t.Errorf("byteIndex 8: want ErrPadOutOfBounds, got %v", err)
	}
}

func TestNonConformingNoDelimiter(t *testing.T) {
	b := Builder{K: 64}
	d := []byte("hello")
	msg, err := b.NonConformingNoDelimiter(d, 0x41)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Unpad(msg); err == nil {
		t.Error("expected Unpad to fail without a delimiter")
	}
}

func TestConformingConsecutiveNullBytesOutOfBounds(t *testing.T) {
	b := Builder{K: 64}
	if _, err := b.ConformingConsecutiveNullBytes([]byte("hello"), -1, 1000, true); !errors.Is(err, ErrPadOutOfBounds) {
		t.Errorf("want ErrPadOutOfBounds, got %v", err)
	}
}

func TestConformingConsecutiveNullBytesPadBack(t *testing.T) {
	b := Builder{K: 64}
	d := []byte("hello")
	msg, err := b.ConformingConsecutiveNullBytes(d, -1, 2, true)
	if err != nil {
		t.Fatal(err)
	}
	delimPos := b.K - len(d) - 1
	if msg[delimPos-1] != 0x00 || msg[delimPos-2] != 0x00 {
		t.Errorf("expected two null bytes immediately before the delimiter, got %x", msg[delimPos-2:delimPos+1])
	}
}

func TestBuildVariantTable(t *testing.T) {
	b := Builder{K: 64}
	for v := VariantConforming; v <= VariantNonConformingNoDelimiter; v++ {
		if _, err := b.Build(v, []byte("hi")); err != nil {
			t.Errorf("Build(variant %d): %s", v, err)
		}
	}
	if _, err := b.Build(Variant(99), []byte("hi")); err == nil {
		t.Error("expected error for unknown variant")
	}
}
