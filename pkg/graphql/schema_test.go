package graphql

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) graphql.Schema {
	t.Helper()
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"greet": &graphql.Field{
				Type: graphql.String,
				Args: graphql.FieldConfigArgument{"name": &graphql.ArgumentConfig{Type: graphql.String}},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					name, _ := p.Args["name"].(string)
					return "hello " + name, nil
				},
			},
		},
	})
	s, err := NewSchema(query)
	require.NoError(t, err)
	return s
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestHandlerPostWithVariables(t *testing.T) {
	h := Handler(testSchema(t))
	body := `{"query":"query($n:String){ greet(name:$n) }","variables":{"n":"ama"}}`
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)
	out := decode(t, rr)
	assert.Equal(t, "hello ama", out["data"].(map[string]any)["greet"])
}

func TestHandlerGet(t *testing.T) {
	h := Handler(testSchema(t))
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/graphql?query="+url.QueryEscape(`{ greet(name:"kofi") }`), nil))

	assert.Equal(t, "hello kofi", decode(t, rr)["data"].(map[string]any)["greet"])
}

func TestHandlerRejectsBadInput(t *testing.T) {
	h := Handler(testSchema(t))

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":""}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodDelete, "/graphql", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandlerReportsQueryErrors(t *testing.T) {
	h := Handler(testSchema(t))
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ nope }"}`)))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, decode(t, rr)["errors"])
}
