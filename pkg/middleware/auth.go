package middleware

import (
	"net/http"
	"strings"

	"github.com/shashiranjanraj/wellness360/pkg/auth"
	"github.com/shashiranjanraj/wellness360/pkg/response"
	"github.com/shashiranjanraj/wellness360/pkg/session"
)

// Session keys holding the logged-in customer snapshot.
const (
	SessCustomerID    = "customer_id"
	SessCustomerName  = "customer_name"
	SessCustomerEmail = "customer_email"
	SessUserRole      = "user_role"
)

// BearerToken extracts the token from "Authorization: Bearer <t>".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Identity resolves the caller once per request: a bearer token wins,
// otherwise the session snapshot. An invalid bearer token is rejected
// with 401 rather than silently downgraded to anonymous.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id auth.Identity
		if tok := BearerToken(r); tok != "" {
			claims, err := auth.ValidateToken(tok)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, "Invalid or expired token.")
				return
			}
			id = claims.Identity()
		} else {
			id = IdentityFromSession(session.FromCtx(r))
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

// IdentityFromSession reads the customer snapshot stored at login.
func IdentityFromSession(s *session.Session) auth.Identity {
	cid, ok := s.GetInt(SessCustomerID)
	if !ok || cid <= 0 {
		return auth.Identity{}
	}
	name, _ := s.GetString(SessCustomerName)
	email, _ := s.GetString(SessCustomerEmail)
	role, _ := s.GetInt(SessUserRole)
	return auth.Identity{CustomerID: uint(cid), Name: name, Email: email, Role: role}
}

// StoreIdentity writes the snapshot into the session.
func StoreIdentity(s *session.Session, id auth.Identity) {
	s.Set(SessCustomerID, id.CustomerID)
	s.Set(SessCustomerName, id.Name)
	s.Set(SessCustomerEmail, id.Email)
	s.Set(SessUserRole, id.Role)
}
