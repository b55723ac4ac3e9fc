package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tokosehat/kasir/api/responses"
	"github.com/tokosehat/kasir/api/validators"
	"github.com/tokosehat/kasir/internal/transactions"
	"github.com/tokosehat/kasir/pkg/logger"
)

// ReceiptPrinter renders any transaction as receipt text.
type ReceiptPrinter interface {
	ReceiptFor(tx transactions.Transaction) string
}

// TransactionRoutes mounts transaction history. New sales are created only
// through the register checkout; cancelling goes through manage.
func TransactionRoutes(svc transactions.Service, printer ReceiptPrinter, manage func(http.Handler) http.Handler, logg *logger.Logger) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", listHandler(logg, svc.List))
		r.Get("/{transactionId}", getHandler(logg, "transactionId", svc.Get))
		if printer != nil {
			r.Get("/{transactionId}/receipt", TransactionReceipt(svc, printer, logg))
		}
		r.With(orPassthrough(manage)).Delete("/{transactionId}", deleteHandler(logg, "transactionId", svc.Cancel))
	}
}

// TransactionReceipt reprints a historical sale.
func TransactionReceipt(svc transactions.Service, printer ReceiptPrinter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tx, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteText(w, http.StatusOK, printer.ReceiptFor(*tx))
	}
}
