package auth

import "context"

// Role values stored on customers.user_role.
const (
	RoleAdmin    = 1
	RoleCustomer = 2
)

// Identity is the authenticated caller of a request. The zero value is an
// anonymous visitor.
type Identity struct {
	CustomerID uint   `json:"customer_id"`
	Name       string `json:"customer_name"`
	Email      string `json:"customer_email"`
	Role       int    `json:"user_role"`
}

func (i Identity) LoggedIn() bool { return i.CustomerID != 0 }

func (i Identity) IsAdmin() bool { return i.LoggedIn() && i.Role == RoleAdmin }

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the caller identity, anonymous when unset.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(ctxKey{}).(Identity); ok {
		return id
	}
	return Identity{}
}
