package middleware

import (
	"net/http"

	"github.com/tokosehat/kasir/api/responses"
	pkgauth "github.com/tokosehat/kasir/pkg/auth"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/logger"
)

// SessionReader is the read side of the register's cashier session.
type SessionReader interface {
	User() *pkgauth.User
	IsAuthenticated() bool
}

// RequireSession rejects requests while no cashier is signed in and seeds the
// request context with the current user.
func RequireSession(sess SessionReader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess == nil || !sess.IsAuthenticated() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Silakan login terlebih dahulu"))
				return
			}
			user := sess.User()
			if !user.Valid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sesi tidak memiliki data pengguna"))
				return
			}

			ctx := WithUser(r.Context(), user)
			if logg != nil {
				ctx = logg.WithUserID(ctx, user.ID)
				ctx = logg.WithActorRole(ctx, user.HakAkses.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
