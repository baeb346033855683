package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/wellness360/pkg/auth"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func run(t *testing.T, mw func(http.Handler) http.Handler, id auth.Identity) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), id))
	rr := httptest.NewRecorder()
	mw(ok).ServeHTTP(rr, req)
	if rr.Code == http.StatusOK {
		return rr.Code, ""
	}
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr.Code, body.Message
}

func TestRequireLogin(t *testing.T) {
	code, msg := run(t, RequireLogin, auth.Identity{})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, MsgLoginRequired, msg)

	code, _ = run(t, RequireLogin, auth.Identity{CustomerID: 1, Role: auth.RoleCustomer})
	assert.Equal(t, http.StatusOK, code)
}

func TestRequireAdmin(t *testing.T) {
	code, _ := run(t, RequireAdmin, auth.Identity{})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, msg := run(t, RequireAdmin, auth.Identity{CustomerID: 2, Role: auth.RoleCustomer})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, MsgAdminRequired, msg)

	code, _ = run(t, RequireAdmin, auth.Identity{CustomerID: 3, Role: auth.RoleAdmin})
	assert.Equal(t, http.StatusOK, code)
}

func TestGuest(t *testing.T) {
	code, _ := run(t, Guest, auth.Identity{CustomerID: 4})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = run(t, Guest, auth.Identity{})
	assert.Equal(t, http.StatusOK, code)
}
