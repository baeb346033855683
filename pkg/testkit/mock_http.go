package testkit

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockTransport is an http.RoundTripper that answers outgoing requests
// from MockSteps. Install it on the shared client:
//
//	mt := testkit.Mock(testkit.JSONStep("https://api.paystack.co/", 200, body))
//	wellhttp.DefaultClient.Transport = mt
//	defer wellhttp.ResetTransport()
type MockTransport struct {
	mu       sync.Mutex
	steps    []httpMockEntry
	require  bool
	fallback http.RoundTripper
	requests []*http.Request
}

type httpMockEntry struct {
	step      MockStep
	callCount int
}

// NewMockTransport builds a transport from the scenario's steps.
func NewMockTransport(s *Scenario) *MockTransport {
	mt := Mock(s.NetUtilMockStep...)
	mt.require = s.IsMockRequired
	return mt
}

// Mock builds a transport that fails any unmatched call.
func Mock(steps ...MockStep) *MockTransport {
	mt := &MockTransport{require: true, fallback: http.DefaultTransport}
	for _, step := range steps {
		mt.steps = append(mt.steps, httpMockEntry{step: step})
	}
	return mt
}

// JSONStep is a mocked response with a literal JSON body.
func JSONStep(matchURL string, status int, body string) MockStep {
	return MockStep{
		Method:     "httprequest",
		IsMock:     true,
		MatchURL:   matchURL,
		ReturnData: MockReturnData{StatusCode: status, JSON: []byte(body)},
	}
}

func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	mt.mu.Lock()
	mt.requests = append(mt.requests, req)
	for i := range mt.steps {
		entry := &mt.steps[i]
		if !matches(req, entry.step) {
			continue
		}
		if !entry.step.IsMock {
			mt.mu.Unlock()
			return mt.fallback.RoundTrip(req)
		}
		entry.callCount++
		mt.mu.Unlock()
		return buildHTTPResponse(req, entry.step.ReturnData)
	}
	mt.mu.Unlock()

	if mt.require {
		return nil, fmt.Errorf("testkit: unexpected outgoing HTTP call to %s %s", req.Method, req.URL)
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader(`{"error":"no mock configured"}`)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// Requests returns the requests seen so far.
func (mt *MockTransport) Requests() []*http.Request {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]*http.Request(nil), mt.requests...)
}

// AssertAllCalled lists every isMock step that was never hit.
func (mt *MockTransport) AssertAllCalled() []error {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	var errs []error
	for _, e := range mt.steps {
		if e.step.IsMock && e.callCount == 0 {
			errs = append(errs, fmt.Errorf("testkit: mock step matchUrl=%q was never called", e.step.MatchURL))
		}
	}
	return errs
}

func matches(req *http.Request, step MockStep) bool {
	if step.MatchMethod != "" && !strings.EqualFold(step.MatchMethod, req.Method) {
		return false
	}
	return step.MatchURL == "" || strings.HasPrefix(req.URL.String(), step.MatchURL)
}

func buildHTTPResponse(req *http.Request, rd MockReturnData) (*http.Response, error) {
	code := rd.StatusCode
	if code == 0 {
		code = http.StatusOK
	}

	body := []byte(rd.JSON)
	if len(body) == 0 && rd.Body != "" {
		decoded, err := base64.StdEncoding.DecodeString(rd.Body)
		if err != nil {
			decoded, err = base64.RawStdEncoding.DecodeString(rd.Body)
			if err != nil {
				return nil, fmt.Errorf("testkit: base64 decode mock body: %w", err)
			}
		}
		body = decoded
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}, nil
}
