// Package rbac gates routes on the identity resolved by
// middleware.Identity.
package rbac

import (
	"net/http"

	"github.com/shashiranjanraj/wellness360/pkg/auth"
	"github.com/shashiranjanraj/wellness360/pkg/response"
)

const (
	MsgLoginRequired = "Please log in to continue."
	MsgAdminRequired = "Admin access required."
)

// RequireLogin rejects anonymous callers with 401.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.FromContext(r.Context()).LoggedIn() {
			response.Error(w, http.StatusUnauthorized, MsgLoginRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anonymous callers with 401 and non-admins with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := auth.FromContext(r.Context())
		switch {
		case !id.LoggedIn():
			response.Error(w, http.StatusUnauthorized, MsgLoginRequired)
		case !id.IsAdmin():
			response.Error(w, http.StatusForbidden, MsgAdminRequired)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// Guest blocks callers that are already logged in (login, register).
func Guest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.FromContext(r.Context()).LoggedIn() {
			response.Error(w, http.StatusConflict, "Already authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}
