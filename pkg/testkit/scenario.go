// Package testkit drives API tests from JSON scenario files and mocks
// outgoing HTTP calls (the Paystack gateway) at the transport level.
//
// A scenario names the request to fire, the expected status, an optional
// expected-body file and the outgoing calls to intercept:
//
//	testdata/
//	  verify_ok.json          scenario
//	  verify_ok_req.json      request body
//	  verify_ok_res.json      expected response (subset match)
//
//	func TestCheckoutScenarios(t *testing.T) {
//	    testkit.RunDir(t, handler, "testdata")
//	}
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Scenario is a single API test case. ${VAR} in the request URL and
// header values expands from the environment, so tests can inject tokens
// with t.Setenv.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	RequestMethod   string            `json:"requestMethod"`
	RequestURL      string            `json:"requestUrl"`
	RequestFileName string            `json:"requestFileName"`
	Headers         map[string]string `json:"headers"`

	ResponseFileName string `json:"responseFileName"`
	ExpectedCode     int    `json:"expectedCode"`

	// IsMockRequired fails any outgoing call that has no matching step.
	IsMockRequired bool `json:"isMockRequired"`

	NetUtilMockStep []MockStep `json:"netUtilMockStep"`

	dir string
}

// MockStep describes one intercepted outgoing HTTP call. Only
// "httprequest" steps are understood.
type MockStep struct {
	Method string `json:"method"`
	// IsMock false documents a real dependency; the call goes through.
	IsMock bool `json:"isMock"`
	// MatchURL is a URL prefix; empty matches any request.
	MatchURL string `json:"matchUrl"`
	// MatchMethod restricts the step to one HTTP method when set.
	MatchMethod string         `json:"matchMethod"`
	ReturnData  MockReturnData `json:"returnData"`
}

// MockReturnData is the synthetic response for a mock step. Body is
// base64; JSON, when present, is used verbatim instead.
type MockReturnData struct {
	StatusCode int             `json:"statusCode"`
	Body       string          `json:"body"`
	JSON       json.RawMessage `json:"json"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}
	s.dir = filepath.Dir(abs)
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RequestURL == "" {
		return fmt.Errorf("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.RequestMethod == "" {
		s.RequestMethod = "GET"
	}
	for i, step := range s.NetUtilMockStep {
		if step.Method != "httprequest" {
			return fmt.Errorf("netUtilMockStep[%d].method %q is not supported", i, step.Method)
		}
	}
	return nil
}

// RequestBodyPath resolves requestFileName against the scenario directory.
func (s *Scenario) RequestBodyPath() string { return s.resolve(s.RequestFileName) }

// ResponseBodyPath resolves responseFileName against the scenario directory.
func (s *Scenario) ResponseBodyPath() string { return s.resolve(s.ResponseFileName) }

func (s *Scenario) resolve(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}
