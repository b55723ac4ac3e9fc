package middleware

import (
	"net/http"

	"github.com/tokosehat/kasir/api/responses"
	"github.com/tokosehat/kasir/pkg/enums"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/logger"
)

// RequireRole lets the request through when the cashier's hak_akses is one of allowed.
func RequireRole(logg *logger.Logger, allowed ...enums.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Silakan login terlebih dahulu"))
				return
			}
			for _, role := range allowed {
				if user.HakAkses == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Akses ditolak").
				WithDetails(map[string]string{"role": user.HakAkses.String()}))
		})
	}
}
