package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/dfcarvalho/radiostock-backend/pkg/auth"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// IdentityFromContext returns the authenticated actor seeded by Auth.
func IdentityFromContext(ctx context.Context) auth.Identity {
	if ctx == nil {
		return auth.Identity{}
	}
	if v, ok := ctx.Value(ctxIdentity).(auth.Identity); ok {
		return v
	}
	return auth.Identity{}
}

func UserIDFromContext(ctx context.Context) uuid.UUID {
	return IdentityFromContext(ctx).UserID
}

func UserEmailFromContext(ctx context.Context) string {
	return IdentityFromContext(ctx).Email
}

func PermissionsFromContext(ctx context.Context) []string {
	return IdentityFromContext(ctx).Permissions
}

// WithIdentity injects the actor into the context.
func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, identity)
}
