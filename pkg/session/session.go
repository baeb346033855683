// Package session keeps per-visitor state in the cache (Redis, or the
// in-process store when Redis is down) keyed by a random cookie ID.
//
//	r.Use(session.Middleware(session.DefaultOptions()))
//
//	sess := session.FromCtx(r)
//	sess.Set("customer_id", 42)
//	_ = sess.Save(r.Context(), w)
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shashiranjanraj/wellness360/config"
	"github.com/shashiranjanraj/wellness360/pkg/cache"
)

// Options configures session behaviour.
type Options struct {
	CookieName string
	TTL        time.Duration
	HTTPOnly   bool
	Secure     bool
	SameSite   http.SameSite
	Path       string
}

// DefaultOptions reads the TTL from config and sets Secure in production.
func DefaultOptions() Options {
	return Options{
		CookieName: "wellness_session",
		TTL:        config.SessionTTL(),
		HTTPOnly:   true,
		Secure:     config.IsProduction(),
		SameSite:   http.SameSiteLaxMode,
		Path:       "/",
	}
}

type ctxKey struct{}

// Session is an in-request session handle. It is safe for concurrent use
// by the goroutines of a single request.
type Session struct {
	mu      sync.Mutex
	id      string
	oldID   string
	data    map[string]any
	opts    Options
	changed bool
	fresh   bool
}

func newID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("session: crypto/rand: %v", err))
	}
	return hex.EncodeToString(b)
}

func storeKey(id string) string { return "wellness:session:" + id }

func load(ctx context.Context, id string) (map[string]any, bool) {
	var data map[string]any
	if cache.Get(ctx, storeKey(id), &data) && data != nil {
		return data, true
	}
	return map[string]any{}, false
}

// New returns an empty, unsaved session.
func New(opts Options) *Session {
	return &Session{id: newID(), data: map[string]any{}, opts: opts, fresh: true}
}

// Set stores value under key.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.changed = true
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *Session) GetString(key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// GetInt accepts the float64 that JSON decoding produces.
func (s *Session) GetInt(key string) (int, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case uint:
		return int(n), true
	case int64:
		return int(n), true
	}
	return 0, false
}

// GetUints reads a list of ids such as viewed_articles.
func (s *Session) GetUints(key string) []uint {
	v, ok := s.Get(key)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []uint:
		return append([]uint(nil), list...)
	case []any:
		out := make([]uint, 0, len(list))
		for _, x := range list {
			if f, ok := x.(float64); ok && f > 0 {
				out = append(out, uint(f))
			}
		}
		return out
	}
	return nil
}

func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		delete(s.data, key)
		s.changed = true
	}
}

// Flash stores a value that GetFlash returns once.
func (s *Session) Flash(key string, value any) { s.Set("_flash_"+key, value) }

func (s *Session) GetFlash(key string) (any, bool) {
	v, ok := s.Get("_flash_" + key)
	if ok {
		s.Delete("_flash_" + key)
	}
	return v, ok
}

// Regenerate issues a new ID, keeping the data. The old record is removed
// on Save. Called on login to prevent fixation.
func (s *Session) Regenerate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.oldID == "" && !s.fresh {
		s.oldID = s.id
	}
	s.id = newID()
	s.changed = true
}

// Invalidate clears all data and rotates the ID (logout).
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.data = map[string]any{}
	s.mu.Unlock()
	s.Regenerate()
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// IsNew reports whether the visitor arrived without a valid session cookie.
func (s *Session) IsNew() bool { return s.fresh }

func (s *Session) TTL() time.Duration { return s.opts.TTL }

// Save persists the session and writes the cookie. It is a no-op when
// nothing changed.
func (s *Session) Save(ctx context.Context, w http.ResponseWriter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.changed {
		return nil
	}

	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := cache.Set(ctx, storeKey(s.id), json.RawMessage(raw), s.opts.TTL); err != nil {
		return fmt.Errorf("session: store: %w", err)
	}
	if s.oldID != "" {
		_ = cache.Del(ctx, storeKey(s.oldID))
		s.oldID = ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    s.id,
		Path:     s.opts.Path,
		MaxAge:   int(s.opts.TTL.Seconds()),
		HttpOnly: s.opts.HTTPOnly,
		Secure:   s.opts.Secure,
		SameSite: s.opts.SameSite,
	})

	s.changed = false
	s.fresh = false
	return nil
}

// Middleware loads or creates the session for every request.
func Middleware(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess *Session
			if cookie, err := r.Cookie(opts.CookieName); err == nil && cookie.Value != "" {
				if data, ok := load(r.Context(), cookie.Value); ok {
					sess = &Session{id: cookie.Value, data: data, opts: opts}
				}
			}
			if sess == nil {
				sess = New(opts)
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// WithSession stores sess in ctx.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromCtx returns the request's session, or a detached empty one.
func FromCtx(r *http.Request) *Session {
	if s, ok := r.Context().Value(ctxKey{}).(*Session); ok {
		return s
	}
	return New(DefaultOptions())
}

// HasCookie reports whether r presented a session cookie.
func HasCookie(r *http.Request, opts Options) bool {
	c, err := r.Cookie(opts.CookieName)
	return err == nil && c.Value != ""
}
