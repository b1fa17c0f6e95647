package oracle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"
)

// HTTPResult is the raw output of one HTTPOracle query: the response status
// code and the request's wall-clock duration. Side-channel-realistic timing
// analysis is out of scope (see spec Non-goals); Duration is exposed so a
// caller's callback can do its own thing with it.
type HTTPResult struct {
	StatusCode int
	Duration   time.Duration
}

// HTTPOracle queries a padding oracle over HTTP, substituting the candidate
// ciphertext's zero-padded hex encoding into the URL, headers and/or POST
// body wherever Placeholder appears — mirroring http_client.py's templated
// GET/POST client.
type HTTPOracle struct {
	// URL may itself contain Placeholder (e.g. a path or query parameter).
	URL string
	// Method is the HTTP method; defaults to GET if empty.
	Method string
	// Headers are sent with Placeholder substituted in values.
	Headers map[string]string
	// Body, if non-empty, is sent as the request body (Method should be
	// POST) with Placeholder substituted.
	Body string
	// ByteLen is the key width in bytes used to zero-pad the ciphertext.
	ByteLen int
	// Placeholder is the token replaced by the ciphertext. Defaults to "%c".
	Placeholder string
	// Client is the HTTP client used to issue requests. If nil, a client
	// using http.ProxyFromEnvironment is used (disable via NoProxy).
	Client *http.Client
	// NoProxy disables the environment-variable-derived proxy, matching
	// http_client.py's -n/--noproxy flag.
	NoProxy bool
}

func (o HTTPOracle) placeholder() string {
	if o.Placeholder == "" {
		return "%c"
	}
	return o.Placeholder
}

func (o HTTPOracle) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	transport := &http.Transport{}
	if !o.NoProxy {
		transport.Proxy = http.ProxyFromEnvironment
	}
	return &http.Client{Transport: transport}
}

// Query implements Oracle[HTTPResult].
func (o HTTPOracle) Query(ctx context.Context, cPrime *big.Int, cb Callback[HTTPResult]) (bool, error) {
	if cb == nil {
		return false, ErrMissingCallback
	}
	hexC, err := keyWidthHex(cPrime, o.ByteLen)
	if err != nil {
		return false, err
	}
	placeholder := o.placeholder()
	substitute := func(s string) string { return strings.ReplaceAll(s, placeholder, hexC) }

	method := o.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if o.Body != "" {
		body = bytes.NewBufferString(substitute(o.Body))
	}

	req, err := http.NewRequestWithContext(ctx, method, substitute(o.URL), body)
	if err != nil {
		return false, fmt.Errorf("building oracle request: %w", err)
	}
	for k, v := range o.Headers {
		req.Header.Set(k, substitute(v))
	}

	start := time.Now()
	resp, err := o.client().Do(req)
	duration := time.Since(start)
	if err != nil {
		return false, fmt.Errorf("querying http oracle: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return cb(HTTPResult{StatusCode: resp.StatusCode, Duration: duration}), nil
}
