// Package rsakey imports RSA public keys from PEM, the two encodings
// openssl commonly produces (SubjectPublicKeyInfo and raw PKCS#1), and
// exposes the modulus and exponent as the big.Int pair the rest of this
// module operates on. Grounded on the standard library's crypto/x509 and
// encoding/pem, since the example corpus carries no PEM-handling
// dependency of its own to ground an import of a third-party ASN.1/PEM
// library on — see DESIGN.md.
package rsakey

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
)

// ErrNoPEMBlock is returned when data contains no decodable PEM block.
var ErrNoPEMBlock = errors.New("no PEM block found")

// ErrUnsupportedKeyType is returned when the PEM block decodes to a key
// type other than RSA.
var ErrUnsupportedKeyType = errors.New("unsupported public key type")

// ErrModulusTooSmall is returned when the imported modulus is smaller than
// 2^15, the floor the attack's interval arithmetic assumes (k >= 16).
var ErrModulusTooSmall = errors.New("modulus too small")

// minModulus is the smallest modulus this package accepts: n >= 2^15.
var minModulus = new(big.Int).Lsh(big.NewInt(1), 15)

// ParsePublicKeyPEM decodes a PEM-encoded RSA public key, trying
// SubjectPublicKeyInfo (the form x509.ParsePKIXPublicKey expects, and what
// `openssl rsa -pubout` emits) before falling back to raw PKCS#1
// (x509.ParsePKCS1PublicKey, what `openssl rsa -pubout -RSAPublicKey_out`
// emits). It returns the modulus and exponent as the pair the rest of this
// module's arithmetic uses.
func ParsePublicKeyPEM(data []byte) (n, e *big.Int, err error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, nil, ErrNoPEMBlock
	}

	if pub, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, pub)
		}
		return finish(rsaPub)
	}

	rsaPub, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: not a recognized RSA public key encoding", ErrUnsupportedKeyType)
	}
	return finish(rsaPub)
}

// ParsePrivateKeyPEM decodes a PEM-encoded RSA private key, trying PKCS#1
// (`openssl genrsa`'s default output) before falling back to PKCS#8. It
// backs cmd/pkcs1oracle, which needs the private key to decrypt candidate
// ciphertexts and evaluate their padding directly, the same way
// test_oracle.py's reference oracle does.
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrNoPEMBlock
	}

	if priv, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return priv, nil
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: not a recognized RSA private key encoding", ErrUnsupportedKeyType)
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}
	return priv, nil
}

func finish(pub *rsa.PublicKey) (n, e *big.Int, err error) {
	if pub.N.Cmp(minModulus) < 0 {
		return nil, nil, fmt.Errorf("%w: modulus must be at least 2^15", ErrModulusTooSmall)
	}
	return new(big.Int).Set(pub.N), big.NewInt(int64(pub.E)), nil
}
