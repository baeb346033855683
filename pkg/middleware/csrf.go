package middleware

import (
	"mime"
	"net/http"
	"time"

	"github.com/shashiranjanraj/wellness360/pkg/crypt"
	"github.com/shashiranjanraj/wellness360/pkg/response"
	"github.com/shashiranjanraj/wellness360/pkg/session"
)

const (
	CSRFHeader    = "X-CSRF-Token"
	CSRFFormField = "csrf_token"
	sessCSRF      = "csrf_token"

	// MaxCSRFFormBytes caps a urlencoded body read for the form field.
	MaxCSRFFormBytes = 1 << 20
)

type csrfClaims struct {
	SID string `json:"sid"`
	IAT int64  `json:"iat"`
}

// IssueCSRFToken encrypts {sid, iat} with APP_KEY and stores the token in
// the session. The caller saves the session.
func IssueCSRFToken(s *session.Session) (string, error) {
	tok, err := crypt.EncryptJSON(csrfClaims{SID: s.ID(), IAT: time.Now().Unix()})
	if err != nil {
		return "", err
	}
	s.Set(sessCSRF, tok)
	return tok, nil
}

// ValidCSRFToken reports whether tok was issued for s and is younger than
// the session TTL.
func ValidCSRFToken(s *session.Session, tok string) bool {
	if tok == "" {
		return false
	}
	var c csrfClaims
	if err := crypt.DecryptJSON(tok, &c); err != nil {
		return false
	}
	if c.SID != s.ID() {
		return false
	}
	age := time.Since(time.Unix(c.IAT, 0))
	return age >= -time.Minute && age < s.TTL()
}

// CSRF guards state-changing requests from cookie-authenticated browsers.
// Requests with a bearer token, or without a session cookie, carry no
// ambient credentials and pass through.
func CSRF(opts session.Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if BearerToken(r) != "" || !session.HasCookie(r, opts) {
				next.ServeHTTP(w, r)
				return
			}
			tok := r.Header.Get(CSRFHeader)
			if tok == "" {
				tok = formToken(w, r)
			}
			if !ValidCSRFToken(session.FromCtx(r), tok) {
				response.Error(w, http.StatusForbidden, "Invalid or missing CSRF token.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// formToken reads the csrf_token field of a urlencoded body. Multipart
// uploads must send the header; their bodies are left to the handler.
func formToken(w http.ResponseWriter, r *http.Request) string {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "application/x-www-form-urlencoded" {
		return ""
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxCSRFFormBytes)
	return r.PostFormValue(CSRFFormField)
}
