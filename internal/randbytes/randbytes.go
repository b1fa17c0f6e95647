// Package randbytes generates cryptographically random byte slices for
// PKCS#1 v1.5 padding. Adapted from cryptopals' cpbytes package: its
// Random helper drew uniform random bytes (including zero) to pad CTF
// fixtures with noise; NonZero here narrows that to the PKCS#1 v1.5
// requirement that padding bytes are never 0x00, by redrawing any byte
// that comes up zero.
package randbytes

import "crypto/rand"

// NonZero returns n cryptographically random bytes, none of which are
// 0x00, as PKCS#1 v1.5's padding string PS requires.
func NonZero(n int) ([]byte, error) {
	buf := make([]byte, n)
	one := make([]byte, 1)
	for i := range buf {
		for {
			if _, err := rand.Read(one); err != nil {
				return nil, err
			}
			if one[0] != 0x00 {
				buf[i] = one[0]
				break
			}
		}
	}
	return buf, nil
}
