package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tokosehat/kasir/api/responses"
	"github.com/tokosehat/kasir/api/validators"
	"github.com/tokosehat/kasir/internal/reports"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/logger"
)

// ReportRoutes mounts the report JSON endpoints, their PDF passthroughs and
// the dashboard statistics.
func ReportRoutes(svc reports.Service, logg *logger.Logger) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/periode", reportHandler(logg, svc.Period))
		r.Post("/bulanan", reportHandler(logg, svc.Monthly))
		r.Post("/produk-terlaris", reportHandler(logg, svc.BestSellers))

		r.Post("/periode/pdf", exportHandler(logg, svc.ExportPeriodPDF))
		r.Post("/bulanan/pdf", exportHandler(logg, svc.ExportMonthlyPDF))
		r.Post("/produk-terlaris/pdf", exportHandler(logg, svc.ExportBestSellersPDF))

		r.Get("/dashboard", listHandler(logg, svc.Dashboard))
		r.Get("/statistik/dashboard", listHandler(logg, svc.DashboardStats))
		r.Get("/statistik/perbandingan", listHandler(logg, svc.Comparison))
		r.Get("/statistik/tahunan", StatsYearly(svc, logg))
		r.Get("/statistik/bulanan", StatsMonthly(svc, logg))
		r.Get("/statistik/mingguan", StatsWeekly(svc, logg))
	}
}

func reportHandler[Req, T any](logg *logger.Logger, load func(context.Context, Req) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body Req
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := load(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func exportHandler[Req any](logg *logger.Logger, export func(context.Context, Req) (*reports.Export, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body Req
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		file, err := export(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteFile(w, file.Filename, file.ContentType, file.Data)
	}
}

func StatsYearly(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tahun, err := validators.ParseQueryInt(r, "tahun", 0, 0, 9999)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		chart, err := svc.Yearly(r.Context(), tahun)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, chart)
	}
}

func StatsMonthly(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bulan, err := validators.ParseQueryInt(r, "bulan", 0, 0, 12)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tahun, err := validators.ParseQueryInt(r, "tahun", 0, 0, 9999)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		chart, err := svc.MonthlyTrend(r.Context(), bulan, tahun)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, chart)
	}
}

func StatsWeekly(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		end := strings.TrimSpace(r.URL.Query().Get("tanggal_akhir"))
		if end != "" {
			if _, err := time.Parse(reports.DateLayout, end); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tanggal_akhir format harus "+reports.DateLayout))
				return
			}
		}
		chart, err := svc.Weekly(r.Context(), end)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, chart)
	}
}
