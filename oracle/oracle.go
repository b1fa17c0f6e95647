// Package oracle defines the abstract padding-oracle contract the
// Bleichenbacher engine drives, plus two concrete transports: an exec
// oracle (subprocess) and an HTTP oracle. The engine only ever sees the
// Oracle[T] interface; everything else in this package is a collaborator.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

// ErrInvalidCiphertext is returned when a candidate integer cannot be
// represented in the oracle's wire format.
var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// ErrMissingCallback is returned by Query when no callback is supplied.
var ErrMissingCallback = errors.New("missing callback")

// Callback receives the oracle-specific raw result of a query (exec exit
// code and stdio, HTTP response and latency, ...) and reports whether it
// indicates a PKCS#1-v1.5-conforming decryption.
type Callback[T any] func(T) bool

// Oracle is the single operation the attack engine requires: evaluate a
// candidate ciphertext integer under the target key and report whether the
// oracle-specific callback considers the result conforming.
//
// T is the oracle's raw result type — ExecResult for ExecOracle, HTTPResult
// for HTTPOracle — which keeps the callback concretely typed per transport
// instead of forcing every caller through an `any` cast.
//
// Implementations must be safe to call concurrently from multiple workers.
type Oracle[T any] interface {
	Query(ctx context.Context, cPrime *big.Int, cb Callback[T]) (bool, error)
}

// keyWidthHex formats n in hex, zero-padded to byteLen bytes, the wire
// format both concrete oracles substitute into their templates (matching
// the "%0256x"-style argv/URL templates of the original oracle.py and
// http_client.py).
func keyWidthHex(n *big.Int, byteLen int) (string, error) {
	if n == nil || n.Sign() < 0 {
		return "", fmt.Errorf("%w: ciphertext must be a nonnegative integer", ErrInvalidCiphertext)
	}
	hex := n.Text(16)
	if pad := byteLen*2 - len(hex); pad > 0 {
		hex = zeros(pad) + hex
	} else if pad < 0 {
		return "", fmt.Errorf("%w: ciphertext does not fit in %d bytes", ErrInvalidCiphertext, byteLen)
	}
	return hex, nil
}

func zeros(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}
