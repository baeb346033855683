package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	gohttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wellhttp "github.com/shashiranjanraj/wellness360/pkg/http"
	"github.com/shashiranjanraj/wellness360/pkg/reqid"
)

func TestSendEncodesJSONAndForwardsRequestID(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "req-42", r.Header.Get(reqid.Header))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "GHS", r.URL.Query().Get("currency"))
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"amount":4000}`, string(b))
		w.WriteHeader(gohttp.StatusCreated)
		_, _ = w.Write([]byte(`{"status":true}`))
	}))
	defer srv.Close()

	ctx := reqid.WithValue(context.Background(), "req-42")
	resp, err := wellhttp.Post(srv.URL+"/transaction/initialize").
		Bearer("sk_test").
		Query("currency", "GHS").
		Body(map[string]int{"amount": 4000}).
		Send(ctx)
	require.NoError(t, err)
	assert.True(t, resp.OK())

	var out struct{ Status bool }
	require.NoError(t, resp.JSON(&out))
	assert.True(t, out.Status)
}

func TestErrorStatusIsAResponse(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, _ *gohttp.Request) {
		gohttp.Error(w, "bad gateway", gohttp.StatusBadGateway)
	}))
	defer srv.Close()

	resp, err := wellhttp.Get(srv.URL).Retry(3, time.Millisecond).Send(context.Background())
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, gohttp.StatusBadGateway, resp.StatusCode)
}

type flaky struct{ calls int }

func (f *flaky) RoundTrip(r *gohttp.Request) (*gohttp.Response, error) {
	f.calls++
	if f.calls < 3 {
		return nil, errors.New("connection reset")
	}
	rec := httptest.NewRecorder()
	_, _ = rec.WriteString(`{"ok":true}`)
	return rec.Result(), nil
}

func TestTransportFailuresAreRetried(t *testing.T) {
	ft := &flaky{}
	wellhttp.DefaultClient.Transport = ft
	defer wellhttp.ResetTransport()

	resp, err := wellhttp.Get("https://paystack.test/bank").Retry(3, time.Millisecond).Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ft.calls)
	assert.JSONEq(t, `{"ok":true}`, resp.Text())

	ft.calls = 0
	_, err = wellhttp.Get("https://paystack.test/bank").Send(context.Background())
	assert.ErrorContains(t, err, "connection reset")
	assert.Equal(t, 1, ft.calls)
}

func TestBodyEncoding(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(map[string]string{"ct": r.Header.Get("Content-Type"), "body": string(b)})
	}))
	defer srv.Close()

	resp, err := wellhttp.Put(srv.URL).Body("hello").Send(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"ct":"text/plain; charset=utf-8","body":"hello"}`, resp.Text())
}
