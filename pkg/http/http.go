// Package http is the outgoing HTTP client used for payment gateway calls.
//
//	resp, err := http.Post(base + "/transaction/initialize").
//	    Bearer(secret).
//	    Body(payload).
//	    Timeout(30 * time.Second).
//	    Send(ctx)
//
//	var out initializeResponse
//	err = resp.JSON(&out)
//
// Requests carry the caller's request ID and trace context.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/reqid"
)

// MaxResponseBytes caps how much of a response body is read.
const MaxResponseBytes = 4 << 20

var transport gohttp.RoundTripper = otelhttp.NewTransport(&gohttp.Transport{
	Proxy:               gohttp.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
})

// DefaultClient sends every request. Tests replace its Transport and call
// ResetTransport when done:
//
//	http.DefaultClient.Transport = testkit.NewMockTransport(s)
//	defer http.ResetTransport()
var DefaultClient = &gohttp.Client{Transport: transport}

func ResetTransport() { DefaultClient.Transport = transport }

// Request is built fluently and sent once with Send.
type Request struct {
	method  string
	target  string
	query   url.Values
	header  gohttp.Header
	body    any
	timeout time.Duration
	tries   int
	pause   time.Duration
}

func Get(target string) *Request    { return build(gohttp.MethodGet, target) }
func Post(target string) *Request   { return build(gohttp.MethodPost, target) }
func Put(target string) *Request    { return build(gohttp.MethodPut, target) }
func Delete(target string) *Request { return build(gohttp.MethodDelete, target) }

func build(method, target string) *Request {
	h := gohttp.Header{}
	h.Set("Accept", "application/json")
	return &Request{
		method:  method,
		target:  target,
		query:   url.Values{},
		header:  h,
		timeout: 30 * time.Second,
		tries:   1,
		pause:   500 * time.Millisecond,
	}
}

func (r *Request) Header(key, value string) *Request {
	r.header.Set(key, value)
	return r
}

func (r *Request) Bearer(token string) *Request {
	return r.Header("Authorization", "Bearer "+token)
}

// Query adds a query-string parameter.
func (r *Request) Query(key, value string) *Request {
	r.query.Add(key, value)
	return r
}

// Body sets the payload: strings and []byte go as-is, anything else as JSON.
func (r *Request) Body(v any) *Request {
	r.body = v
	return r
}

// Timeout bounds each attempt.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Retry allows n attempts in total, pausing wait and then doubling it.
// Only transport failures are retried; any HTTP status is a response.
func (r *Request) Retry(n int, wait time.Duration) *Request {
	r.tries = max(n, 1)
	r.pause = wait
	return r
}

func (r *Request) Send(ctx context.Context) (*Response, error) {
	if id := reqid.FromCtx(ctx); id != "" {
		r.header.Set(reqid.Header, id)
	}
	payload, contentType, err := encode(r.body)
	if err != nil {
		return nil, fmt.Errorf("http: %s %s: %w", r.method, r.target, err)
	}
	if contentType != "" {
		r.header.Set("Content-Type", contentType)
	}

	wait := r.pause
	for attempt := 1; ; attempt++ {
		resp, err := r.once(ctx, payload)
		if err == nil {
			return resp, nil
		}
		if attempt >= r.tries || ctx.Err() != nil {
			return nil, fmt.Errorf("http: %s %s: %w", r.method, r.target, err)
		}
		logger.WithCtx(ctx).Warn("http: retrying",
			"method", r.method, "url", r.target, "attempt", attempt, "wait", wait, "error", err)
		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		}
		wait *= 2
	}
}

func (r *Request) once(ctx context.Context, payload []byte) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	u, err := url.Parse(r.target)
	if err != nil {
		return nil, err
	}
	if len(r.query) > 0 {
		q := u.Query()
		for k, vs := range r.query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := gohttp.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header = r.header.Clone()

	began := time.Now()
	resp, err := DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	logger.WithCtx(ctx).Debug("http: outgoing",
		"method", r.method, "url", u.Redacted(), "status", resp.StatusCode, "took", time.Since(began))
	return &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Raw: raw}, nil
}

func encode(v any) ([]byte, string, error) {
	switch b := v.(type) {
	case nil:
		return nil, "", nil
	case string:
		return []byte(b), "text/plain; charset=utf-8", nil
	case []byte:
		return b, "application/octet-stream", nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("encode body: %w", err)
	}
	return raw, "application/json", nil
}

// Response holds a response read in full, up to MaxResponseBytes.
type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

func (r *Response) OK() bool { return r.StatusCode/100 == 2 }

func (r *Response) JSON(dest any) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

func (r *Response) Text() string { return string(r.Raw) }
