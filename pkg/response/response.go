// Package response writes the JSON envelope used by every endpoint:
//
//	{"status":200,"message":"...","data":{...},"errors":{...}}
//
// Middleware uses it directly; handlers go through pkg/ctx.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/orm"
	"github.com/shashiranjanraj/wellness360/pkg/reqid"
)

// Envelope is the response body shape.
type Envelope struct {
	Status    int    `json:"status"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	Errors    any    `json:"errors,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Paged is the data payload of list endpoints.
type Paged struct {
	Items      any            `json:"items"`
	Pagination orm.Pagination `json:"pagination"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Write(w http.ResponseWriter, body Envelope) { JSON(w, body.Status, body) }

func Success(w http.ResponseWriter, data any) {
	Write(w, Envelope{Status: http.StatusOK, Data: data})
}

func Created(w http.ResponseWriter, data any) {
	Write(w, Envelope{Status: http.StatusCreated, Data: data})
}

// Message sends a status with a human message and optional data.
func Message(w http.ResponseWriter, status int, message string, data any) {
	Write(w, Envelope{Status: status, Message: message, Data: data})
}

func Error(w http.ResponseWriter, status int, message string) {
	Write(w, Envelope{Status: status, Message: message})
}

// ValidationError sends 422 with a field map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	Write(w, Envelope{
		Status:  http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  errs,
	})
}

func Paginated(w http.ResponseWriter, items any, p orm.Pagination) {
	Success(w, Paged{Items: items, Pagination: p})
}

// Internal logs cause and sends a 500 carrying only the request ID.
func Internal(w http.ResponseWriter, r *http.Request, cause error) {
	logger.WithCtx(r.Context()).Error("request failed", "error", cause, "method", r.Method, "path", r.URL.Path)
	Write(w, Envelope{
		Status:    http.StatusInternalServerError,
		Message:   "Internal Server Error",
		RequestID: reqid.FromCtx(r.Context()),
	})
}

// Fail maps err to a response by its apperr kind. Plain errors are
// internal.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	ae, ok := apperr.As(err)
	if !ok || ae.Kind == apperr.Internal {
		Internal(w, r, err)
		return
	}
	if ae.Err != nil {
		logger.WithCtx(r.Context()).Warn("request rejected", "kind", ae.Kind.String(), "error", ae.Err)
	}
	if ae.Kind == apperr.Validation && len(ae.Fields) > 0 {
		ValidationError(w, ae.Fields)
		return
	}
	Write(w, Envelope{Status: ae.Kind.Status(), Message: ae.Message, Data: ae.Data})
}
