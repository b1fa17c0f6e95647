// Command pkcs1tool emits PKCS#1 v1.5 padded messages in any of the five
// layouts pkcs1.Builder supports, optionally RSA-encrypting the result.
// Mirrors original_source/pkcs1_test_client.py, which drives the same five
// variants against a chosen key width or public key.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"math/big"
	"os"

	"github.com/alexmgr/gobleach/pkcs1"
	"github.com/alexmgr/gobleach/rsakey"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("pkcs1tool", flag.ContinueOnError)
	variant := fs.Int("variant", 1, "message variant, 1-5 (see pkcs1.Variant)")
	lengthBits := fs.Int("length", 0, "key width in bits (mutually exclusive with -pubkey)")
	pubkeyPath := fs.String("pubkey", "", "path to an RSA public key (PEM); implies -encrypt")
	encrypt := fs.Bool("encrypt", false, "RSA-encrypt the padded message under -pubkey")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: pkcs1tool -variant 1..5 -length BITS|-pubkey pub.pem [-encrypt] <cleartext>")
		return 1
	}
	cleartext := []byte(fs.Arg(0))

	var n, e *big.Int
	var k int
	switch {
	case *pubkeyPath != "":
		data, err := os.ReadFile(*pubkeyPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "reading public key:", err)
			return 1
		}
		n, e, err = rsakey.ParsePublicKeyPEM(data)
		if err != nil {
			fmt.Fprintln(os.Stderr, "parsing public key:", err)
			return 1
		}
		k = (n.BitLen() + 7) / 8
		*encrypt = true
	case *lengthBits > 0:
		k = (*lengthBits + 7) / 8
	default:
		fmt.Fprintln(os.Stderr, "one of -length or -pubkey is required")
		return 1
	}

	builder := pkcs1.Builder{K: k}
	msg, err := builder.Build(pkcs1.Variant(*variant), cleartext)
	if err != nil {
		fmt.Fprintln(os.Stderr, "building message:", err)
		return 1
	}

	if *encrypt {
		if n == nil {
			fmt.Fprintln(os.Stderr, "-encrypt requires -pubkey")
			return 1
		}
		c := new(big.Int).Exp(new(big.Int).SetBytes(msg), e, n)
		fmt.Println(hex.EncodeToString(c.Bytes()))
		return 0
	}

	fmt.Println(hex.EncodeToString(msg))
	return 0
}
