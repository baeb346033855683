package testkit

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wellhttp "github.com/shashiranjanraj/wellness360/pkg/http"
)

// proxy forwards {reference} to a fake gateway and echoes its answer.
func proxy() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Reference string `json:"reference"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp, err := wellhttp.Get("https://gateway.test/transaction/verify/" + in.Reference).Send(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"reference": in.Reference,
			"gateway":   json.RawMessage(resp.Raw),
		})
	})
}

func TestRunDir(t *testing.T) {
	RunDir(t, proxy(), "testdata")
}

func TestLoadScenarioResolvesBodies(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "gateway_ok.json"))
	require.NoError(t, err)

	assert.Equal(t, "POST", s.RequestMethod)
	assert.Equal(t, filepath.Join(s.dir, "gateway_ok_req.json"), s.RequestBodyPath())
	assert.Len(t, s.NetUtilMockStep, 1)
}

func TestMockTransportRejectsUnmatchedCalls(t *testing.T) {
	mt := Mock(JSONStep("https://gateway.test/", 200, `{}`))
	wellhttp.DefaultClient.Transport = mt
	defer wellhttp.ResetTransport()

	_, err := wellhttp.Get("https://elsewhere.test/x").Send(context.Background())
	assert.Error(t, err)
	assert.Len(t, mt.AssertAllCalled(), 1, "the gateway step was never used")

	resp, err := wellhttp.Get("https://gateway.test/ping").Send(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Empty(t, mt.AssertAllCalled())
	assert.Len(t, mt.Requests(), 2)
}

func TestSubsetDiff(t *testing.T) {
	var exp, act any
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"errors":["Row 2: x"],"created":2}}`), &exp))
	require.NoError(t, json.Unmarshal([]byte(`{"status":200,"data":{"errors":["Row 2: x"],"created":2,"skipped":1}}`), &act))
	assert.Empty(t, subsetDiff("", exp, act))

	require.NoError(t, json.Unmarshal([]byte(`{"data":{"errors":[],"created":3}}`), &act))
	assert.Len(t, subsetDiff("", exp, act), 2)
}
