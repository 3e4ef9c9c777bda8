package auth

import "context"

// Identity is the authenticated caller, resolved from the bearer token.
type Identity struct {
	UserID string
	Role   string
}

type ctxKey struct{}

var ctxKeyIdentity = ctxKey{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

func IdentityFromContext(ctx context.Context) Identity {
	if v := ctx.Value(ctxKeyIdentity); v != nil {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Identity{}
}
