package api

import (
	"context"

	"github.com/rolling-scopes/rsschool-tasks-backend/internal/auth"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/database"
)

type contextKey int

const (
	identityKey contextKey = iota
	base64BodyKey
)

// Identity is the verified caller. User carries only the header fields when
// the header verifier accepted the request.
type Identity struct {
	Credentials auth.Credentials
	User        database.User
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// WithBase64Body marks the request body as base64 encoded. Gateways that
// deliver binary bodies set it before handing the request over.
func WithBase64Body(ctx context.Context) context.Context {
	return context.WithValue(ctx, base64BodyKey, true)
}

func isBase64Body(ctx context.Context) bool {
	v, _ := ctx.Value(base64BodyKey).(bool)
	return v
}
