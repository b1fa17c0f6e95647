// Command pkcs1oracle is a reference PKCS#1 v1.5 padding oracle: it reads
// hex-encoded ciphertexts from stdin, one per line, decrypts each with the
// given RSA private key, and reports whether the result is conforming.
// Grounded on original_source/test_oracle.py's single-shot argv oracle,
// generalized to a stdin loop. It takes ciphertexts only on stdin, not in
// argv, so it is not a drop-in program for cmd/execbleach, whose ExecOracle
// starts one process per query and passes the ciphertext as an argument.
package main

import (
	"bufio"
	"crypto/rsa"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"

	"github.com/alexmgr/gobleach/numutils"
	"github.com/alexmgr/gobleach/pkcs1"
	"github.com/alexmgr/gobleach/rsakey"
)

// Exit codes mirror spec.md §6's oracle protocol.
const (
	rcConforming    = 0
	rcArgumentError = 1
	rcBadHeader     = 2
	rcNullInPadding = 3
	rcMissingDelim  = 4
	rcInternalError = 5
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, in *os.File, out *os.File) int {
	fs := flag.NewFlagSet("pkcs1oracle", flag.ContinueOnError)
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return rcArgumentError
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(out, "usage: pkcs1oracle <private-key.pem>")
		return rcArgumentError
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	keyData, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		logger.Error("reading private key", "error", err)
		return rcArgumentError
	}
	priv, err := rsakey.ParsePrivateKeyPEM(keyData)
	if err != nil {
		logger.Error("parsing private key", "error", err)
		return rcArgumentError
	}

	k := (priv.N.BitLen() + 7) / 8
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	lastRC := rcConforming
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		lastRC = evaluate(logger, priv, k, line, out)
	}
	if err := scanner.Err(); err != nil {
		logger.Error("reading stdin", "error", err)
		return rcInternalError
	}
	return lastRC
}

func evaluate(logger *slog.Logger, priv *rsa.PrivateKey, k int, hexCiphertext string, out *os.File) int {
	c, err := numutils.ToIntError(hexCiphertext, "ciphertext")
	if err != nil {
		logger.Error("parsing ciphertext", "error", err)
		fmt.Fprintln(out, rcArgumentError)
		return rcArgumentError
	}

	plain := new(big.Int).Exp(c, priv.D, priv.N).Bytes()
	padded := make([]byte, k)
	copy(padded[k-len(plain):], plain)

	_, err = pkcs1.Unpad(padded)
	rc := classify(err)

	logger.Info("evaluated ciphertext", "rc", rc, "conforming", rc == rcConforming)
	fmt.Fprintln(out, rc)
	return rc
}

func classify(err error) int {
	switch {
	case err == nil:
		return rcConforming
	case isBadHeader(err):
		return rcBadHeader
	case isNullInPadding(err):
		return rcNullInPadding
	default:
		return rcMissingDelim
	}
}

func isBadHeader(err error) bool {
	return errors.Is(err, pkcs1.ErrBadHeader) || errors.Is(err, pkcs1.ErrMessageTooShort)
}

func isNullInPadding(err error) bool {
	return errors.Is(err, pkcs1.ErrNullInPadding)
}
