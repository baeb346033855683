package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/app/routes"
	"github.com/shashiranjanraj/wellness360/app/services"
	"github.com/shashiranjanraj/wellness360/internal/testdb"
	"github.com/shashiranjanraj/wellness360/pkg/auth"
	"github.com/shashiranjanraj/wellness360/pkg/paystack"
	"github.com/shashiranjanraj/wellness360/pkg/storage"
	"github.com/shashiranjanraj/wellness360/pkg/testkit"
)

type env struct {
	db   *gorm.DB
	srv  *httptest.Server
	disk *storage.Local
	app  *routes.App
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testdb.Open(t)
	disk, err := storage.NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)
	storage.RegisterDisk("local", disk)

	app := routes.Wire(db, func() storage.Disk { return disk }, repositories.NewMemoryImportReportStore(10), nil)
	app.Importer.TempDir = t.TempDir()
	srv := httptest.NewServer(NewRouter(db, app, nil).Handler())
	t.Cleanup(srv.Close)
	return &env{db: db, srv: srv, disk: disk, app: app}
}

func (e *env) client(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func (e *env) do(t *testing.T, c *http.Client, method, path, body string, header map[string]string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	res, err := c.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res.StatusCode, out
}

func bearer(t *testing.T, id auth.Identity) map[string]string {
	tok, err := auth.GenerateToken(id)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + tok}
}

func TestHealthAndNotFound(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	code, body := e.do(t, c, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])

	code, body = e.do(t, c, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Not found", body["message"])
}

func TestAdminGuard(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	code, _ := e.do(t, c, http.MethodGet, "/api/admin/imports", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	customer := auth.Identity{CustomerID: 7, Name: "kofi", Email: "kofi@example.com", Role: auth.RoleCustomer}
	code, _ = e.do(t, c, http.MethodGet, "/api/admin/imports", "", bearer(t, customer))
	assert.Equal(t, http.StatusForbidden, code)

	admin := auth.Identity{CustomerID: 1, Name: "ama", Email: "ama@example.com", Role: auth.RoleAdmin}
	code, _ = e.do(t, c, http.MethodGet, "/api/admin/imports", "", bearer(t, admin))
	assert.Equal(t, http.StatusOK, code)
}

func TestCSRFOnCookieSessions(t *testing.T) {
	e := newEnv(t)
	p := testdb.Product(t, e.db, "Yoga", "Mat", "20.00", 5)
	c := e.client(t)
	add := `{"product_id": ` + jsonUint(p.ID) + `, "quantity": 1}`

	// No cookie yet, so nothing ambient to forge.
	code, _ := e.do(t, c, http.MethodPost, "/api/cart", add, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = e.do(t, c, http.MethodPost, "/api/cart", add, nil)
	assert.Equal(t, http.StatusForbidden, code)

	_, body := e.do(t, c, http.MethodGet, "/api/csrf-token", "", nil)
	tok, _ := body["data"].(map[string]any)["csrf_token"].(string)
	require.NotEmpty(t, tok)

	code, body = e.do(t, c, http.MethodPost, "/api/cart", add, map[string]string{"X-CSRF-Token": tok})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Added to cart.", body["message"])
}

func TestUploads(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.disk.Put(t.Context(), "u1/p1/image_a.txt", []byte("hello")))

	res, err := http.Get(e.srv.URL + "/uploads/u1/p1/image_a.txt")
	require.NoError(t, err)
	b, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "hello", string(b))

	res, err = http.Get(e.srv.URL + "/uploads/u1/p1/missing.txt")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestRouteNames(t *testing.T) {
	e := newEnv(t)
	r := NewRouter(nil, e.app, nil)
	names := map[string]bool{}
	for _, ri := range r.Routes() {
		names[ri.Name] = true
	}
	for _, n := range []string{"health", "auth.login", "auth.refresh", "cart.add", "checkout.verify", "admin.products.bulk", "admin.products.template", "web.shop", "graphql"} {
		assert.True(t, names[n], n)
	}
}

func jsonUint(v uint) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestScenarios(t *testing.T) {
	db := testdb.Open(t)
	disk, err := storage.NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)
	gw := &paystack.Client{BaseURL: "https://paystack.test", SecretKey: "sk_test_scn"}
	app := routes.Wire(db, func() storage.Disk { return disk }, repositories.NewMemoryImportReportStore(10), gw)

	c := testdb.Customer(t, db, "esi@example.com", auth.RoleCustomer)
	p := testdb.Product(t, db, "Yoga", "Cork Block", "20.00", 10)
	_, err = app.Cart.Add(context.Background(), services.CartOwner{CustomerID: c.ID}, p.ID, 2)
	require.NoError(t, err)

	tok, err := auth.GenerateToken(auth.Identity{CustomerID: c.ID, Name: c.Name, Email: c.Email, Role: c.Role})
	require.NoError(t, err)
	t.Setenv("CUSTOMER_TOKEN", tok)

	testkit.RunDir(t, NewRouter(db, app, nil).Handler(), "testdata")
}

func TestArticleViewedOncePerSession(t *testing.T) {
	e := newEnv(t)
	cat := models.Category{Name: "Wellness"}
	require.NoError(t, e.db.Create(&cat).Error)
	a := models.Article{Title: "Sleep", Slug: "sleep", CategoryID: cat.ID, Body: []byte("%PDF-1.4")}
	require.NoError(t, e.db.Create(&a).Error)
	path := "/api/articles/" + jsonUint(a.ID)

	first, second := e.client(t), e.client(t)
	for _, step := range []struct {
		client *http.Client
		views  float64
	}{
		{first, 1},
		{first, 1},
		{second, 2},
		{second, 2},
	} {
		code, body := e.do(t, step.client, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, step.views, body["data"].(map[string]any)["view_count"])
	}

	var stored models.Article
	require.NoError(t, e.db.First(&stored, a.ID).Error)
	assert.EqualValues(t, 2, stored.ViewCount)
}

func TestRefreshTokenExchange(t *testing.T) {
	e := newEnv(t)
	testdb.Customer(t, e.db, "ada@example.com", auth.RoleCustomer)
	c := e.client(t)

	code, body := e.do(t, c, http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"secret1"}`, nil)
	require.Equal(t, http.StatusOK, code)
	login := body["data"].(map[string]any)
	access, _ := login["token"].(string)
	refresh, _ := login["refresh_token"].(string)
	require.NotEmpty(t, refresh)

	api := e.client(t)
	tests := []struct {
		name  string
		token string
		code  int
	}{
		{"refresh token", refresh, http.StatusOK},
		{"access token", access, http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := e.do(t, api, http.MethodPost, "/api/auth/refresh", `{"refresh_token":"`+tt.token+`"}`, nil)
			assert.Equal(t, tt.code, code)
			if tt.code == http.StatusOK {
				data := body["data"].(map[string]any)
				assert.NotEmpty(t, data["token"])
				assert.NotEmpty(t, data["refresh_token"])
			}
		})
	}

	code, _ = e.do(t, api, http.MethodGet, "/api/auth/me", "", map[string]string{"Authorization": "Bearer " + refresh})
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = e.do(t, api, http.MethodGet, "/api/auth/me", "", map[string]string{"Authorization": "Bearer " + access})
	assert.Equal(t, http.StatusOK, code)
}

func TestLoginNoticeFlashedOnce(t *testing.T) {
	e := newEnv(t)
	testdb.Customer(t, e.db, "ada@example.com", auth.RoleCustomer)
	c := e.client(t)

	code, _ := e.do(t, c, http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"secret1"}`, nil)
	require.Equal(t, http.StatusOK, code)

	page := func() string {
		res, err := c.Get(e.srv.URL + "/hub")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
		raw, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		return string(raw)
	}
	assert.Contains(t, page(), "Welcome back, ada.")
	assert.NotContains(t, page(), "Welcome back")
}
