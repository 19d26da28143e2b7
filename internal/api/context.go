package api

import "context"

const (
	RoleCustomer   = "customer"
	RoleServiceman = "serviceman"
)

// Identity is the authenticated caller attached to the request context by
// AuthMiddleware. Handlers needing more than this (plan, usage) load the full
// user record themselves.
type Identity struct {
	ID       string
	Username string
	Email    string
	Role     string
}

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

func IdentityFromContext(ctx context.Context) *Identity {
	v := ctx.Value(ctxKeyIdentity)
	if v == nil {
		return nil
	}
	id, _ := v.(*Identity)
	return id
}
