package middleware

import (
	"context"

	pkgauth "github.com/tokosehat/kasir/pkg/auth"
)

type contextKey string

const ctxUser contextKey = "cashier"

// UserFromContext returns the signed-in cashier seeded by RequireSession.
func UserFromContext(ctx context.Context) *pkgauth.User {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUser).(*pkgauth.User); ok {
		return v
	}
	return nil
}

func UserIDFromContext(ctx context.Context) int64 {
	if u := UserFromContext(ctx); u != nil {
		return u.ID
	}
	return 0
}

func RoleFromContext(ctx context.Context) string {
	if u := UserFromContext(ctx); u != nil {
		return u.HakAkses.String()
	}
	return ""
}

// WithUser injects the cashier into the context.
func WithUser(ctx context.Context, user *pkgauth.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUser, user)
}
