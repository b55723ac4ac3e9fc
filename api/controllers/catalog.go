package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tokosehat/kasir/api/responses"
	"github.com/tokosehat/kasir/api/validators"
	"github.com/tokosehat/kasir/internal/catalog"
	"github.com/tokosehat/kasir/pkg/logger"
)

// ProductRoutes mounts product CRUD, search and stock adjustment. Reads are
// open to any signed-in cashier; writes go through manage.
func ProductRoutes(svc catalog.Service, searchLimit int, manage func(http.Handler) http.Handler, logg *logger.Logger) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", listHandler(logg, svc.ListProducts))
		r.Get("/search", ProductSearch(svc, searchLimit, logg))
		r.Get("/{productId}", getHandler(logg, "productId", svc.GetProduct))

		w := r.With(orPassthrough(manage))
		w.Post("/", createHandler(logg, svc.CreateProduct))
		w.Put("/{productId}", updateHandler(logg, "productId", svc.UpdateProduct))
		w.Delete("/{productId}", deleteHandler(logg, "productId", svc.DeleteProduct))
		w.Patch("/{productId}/stock", updateHandler(logg, "productId", svc.UpdateStock))
	}
}

func CategoryRoutes(svc catalog.Service, manage func(http.Handler) http.Handler, logg *logger.Logger) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", listHandler(logg, svc.ListCategories))
		r.Get("/{categoryId}", getHandler(logg, "categoryId", svc.GetCategory))

		w := r.With(orPassthrough(manage))
		w.Post("/", createHandler(logg, svc.CreateCategory))
		w.Put("/{categoryId}", updateHandler(logg, "categoryId", svc.UpdateCategory))
		w.Delete("/{categoryId}", deleteHandler(logg, "categoryId", svc.DeleteCategory))
	}
}

func UnitRoutes(svc catalog.Service, manage func(http.Handler) http.Handler, logg *logger.Logger) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", listHandler(logg, svc.ListUnits))
		r.Get("/{unitId}", getHandler(logg, "unitId", svc.GetUnit))

		w := r.With(orPassthrough(manage))
		w.Post("/", createHandler(logg, svc.CreateUnit))
		w.Put("/{unitId}", updateHandler(logg, "unitId", svc.UpdateUnit))
		w.Delete("/{unitId}", deleteHandler(logg, "unitId", svc.DeleteUnit))
	}
}

// ProductSearch is the undebounced lookup used by the product admin table.
func ProductSearch(svc catalog.Service, defaultLimit int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", defaultLimit, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.SearchProducts(r.Context(), validators.SanitizeString(r.URL.Query().Get("q"), maxSearchQueryLen), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
