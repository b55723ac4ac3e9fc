package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tokosehat/kasir/api/middleware"
	"github.com/tokosehat/kasir/api/responses"
	"github.com/tokosehat/kasir/api/validators"
	"github.com/tokosehat/kasir/internal/users"
	"github.com/tokosehat/kasir/pkg/enums"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/logger"
)

// UserRoutes mounts user administration behind manage. Changing a password is
// also open to the user themself.
func UserRoutes(svc users.Service, manage func(http.Handler) http.Handler, logg *logger.Logger) func(chi.Router) {
	return func(r chi.Router) {
		r.Patch("/{userId}/change-password", UserChangePassword(svc, logg))

		a := r.With(orPassthrough(manage))
		a.Get("/", listHandler(logg, svc.List))
		a.Get("/search", UserSearch(svc, logg))
		a.Post("/", createHandler(logg, svc.Register))
		a.Get("/{userId}", getHandler(logg, "userId", svc.Get))
		a.Put("/{userId}", updateHandler(logg, "userId", svc.Update))
		a.Delete("/{userId}", UserDelete(svc, logg))
	}
}

func UserSearch(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		found, err := svc.Search(r.Context(), validators.SanitizeString(r.URL.Query().Get("q"), maxSearchQueryLen), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, found)
	}
}

// UserDelete refuses to delete the signed-in account.
func UserDelete(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if id == middleware.UserIDFromContext(r.Context()) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, "Tidak dapat menghapus akun sendiri"))
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "deleted": true})
	}
}

func UserChangePassword(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		current := middleware.UserFromContext(r.Context())
		if current == nil || (current.ID != id && current.HakAkses != enums.RoleAdmin) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Akses ditolak"))
			return
		}
		var body users.ChangePasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ChangePassword(r.Context(), id, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "Password berhasil diubah"})
	}
}
