// Package ctx gives handlers a single *Context instead of the
// (http.ResponseWriter, *http.Request) pair:
//
//	func (pc *ProductController) Show(c *ctx.Context) {
//	    id, ok := c.ParamUint("id")
//	    if !ok {
//	        c.NotFound("Product not found.")
//	        return
//	    }
//	    ...
//	    c.Success(product)
//	}
//
//	r.Get("/api/products/{id}", "products.show", ctx.Wrap(pc.Show))
package ctx

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/wellness360/pkg/auth"
	"github.com/shashiranjanraj/wellness360/pkg/bind"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/orm"
	"github.com/shashiranjanraj/wellness360/pkg/response"
	"github.com/shashiranjanraj/wellness360/pkg/session"
)

type HandlerFunc func(c *Context)

// Wrap adapts a HandlerFunc to http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps a request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{New: func() any { return &Context{} }}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W, c.R, c.status = w, r, 0
	return c
}

func release(c *Context) {
	c.W, c.R = nil, nil
	pool.Put(c)
}

// ─── Request ────────────────────────────────────────────────────────────────

func (c *Context) Param(key string) string { return chi.URLParam(c.R, key) }

// ParamUint parses a positive integer path parameter.
func (c *Context) ParamUint(key string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func (c *Context) Query(key string) string { return strings.TrimSpace(c.R.URL.Query().Get(key)) }

// QueryInt returns the integer query value, or def when absent or invalid.
func (c *Context) QueryInt(key string, def int) int {
	if n, err := strconv.Atoi(c.Query(key)); err == nil {
		return n
	}
	return def
}

// QueryUint returns the positive integer query value, or 0.
func (c *Context) QueryUint(key string) uint {
	n, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}

// Page reads page and per_page.
func (c *Context) Page() orm.Page {
	return orm.NewPage(c.QueryInt("page", 1), c.QueryInt("per_page", orm.DefaultPerPage))
}

func (c *Context) Header(key string) string { return c.R.Header.Get(key) }

// ClientIP is the first X-Forwarded-For hop, X-Real-Ip, or the remote
// address without port. Guest carts are keyed by it.
func (c *Context) ClientIP() string {
	if fwd := c.R.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	if real := c.R.Header.Get("X-Real-Ip"); real != "" {
		return strings.TrimSpace(real)
	}
	host, _, err := net.SplitHostPort(c.R.RemoteAddr)
	if err != nil {
		return c.R.RemoteAddr
	}
	return host
}

func (c *Context) Context() context.Context { return c.R.Context() }

// Identity is the caller resolved by the Identity middleware.
func (c *Context) Identity() auth.Identity { return auth.FromContext(c.R.Context()) }

// Session is the visitor's session.
func (c *Context) Session() *session.Session { return session.FromCtx(c.R) }

// SaveSession persists session changes. A failure is logged; the
// response proceeds.
func (c *Context) SaveSession() {
	if err := c.Session().Save(c.Context(), c.W); err != nil {
		logger.WithCtx(c.Context()).Error("session save failed", "error", err)
	}
}

// BindJSON decodes and validates the body. On failure it writes 400 or
// 422 and returns false.
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	return c.bound(errs, err)
}

// BindForm is BindJSON for urlencoded and multipart bodies.
func (c *Context) BindForm(dest any) bool {
	errs, err := bind.Form(c.R, dest)
	return c.bound(errs, err)
}

func (c *Context) bound(errs map[string]string, err error) bool {
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	if len(errs) > 0 {
		c.ValidationError(errs)
		return false
	}
	return true
}

// ─── Response ───────────────────────────────────────────────────────────────

func (c *Context) SetHeader(key, value string) { c.W.Header().Set(key, value) }

func (c *Context) JSON(code int, v any) {
	c.status = code
	response.JSON(c.W, code, v)
}

func (c *Context) Success(data any) {
	c.status = http.StatusOK
	response.Success(c.W, data)
}

func (c *Context) Created(data any) {
	c.status = http.StatusCreated
	response.Created(c.W, data)
}

func (c *Context) Message(code int, message string, data any) {
	c.status = code
	response.Message(c.W, code, message, data)
}

func (c *Context) Paginated(items any, p orm.Pagination) {
	c.status = http.StatusOK
	response.Paginated(c.W, items, p)
}

func (c *Context) Error(code int, message string) {
	c.status = code
	response.Error(c.W, code, message)
}

func (c *Context) ValidationError(errs map[string]string) {
	c.status = http.StatusUnprocessableEntity
	response.ValidationError(c.W, errs)
}

// Fail maps a service error to its HTTP response.
func (c *Context) Fail(err error) {
	c.status = -1
	response.Fail(c.W, c.R, err)
}

func (c *Context) NotFound(message ...string) {
	msg := "Not found"
	if len(message) > 0 {
		msg = message[0]
	}
	c.Error(http.StatusNotFound, msg)
}

func (c *Context) NoContent() {
	c.status = http.StatusNoContent
	c.W.WriteHeader(http.StatusNoContent)
}

// Attachment streams r as a download named filename.
func (c *Context) Attachment(filename, contentType string, r io.Reader) {
	c.stream("attachment", filename, contentType, r)
}

// Inline streams r for display in the browser (PDFs).
func (c *Context) Inline(filename, contentType string, r io.Reader) {
	c.stream("inline", filename, contentType, r)
}

func (c *Context) stream(disposition, filename, contentType string, r io.Reader) {
	c.W.Header().Set("Content-Type", contentType)
	c.W.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	c.W.Header().Set("X-Content-Type-Options", "nosniff")
	c.W.WriteHeader(http.StatusOK)
	c.status = http.StatusOK
	if _, err := io.Copy(c.W, r); err != nil {
		logger.WithCtx(c.Context()).Warn("stream aborted", "file", filename, "error", err)
	}
}

// HTML writes a rendered page.
func (c *Context) HTML(code int, body []byte) {
	c.W.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.W.WriteHeader(code)
	c.status = code
	_, _ = c.W.Write(body)
}

func (c *Context) Redirect(code int, url string) { http.Redirect(c.W, c.R, url, code) }

// WrittenStatus is the status written so far, 0 when nothing was sent.
func (c *Context) WrittenStatus() int { return c.status }
