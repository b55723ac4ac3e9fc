package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/tokosehat/kasir/api/responses"
	"github.com/tokosehat/kasir/api/validators"
	"github.com/tokosehat/kasir/internal/cart"
	"github.com/tokosehat/kasir/internal/catalog"
	"github.com/tokosehat/kasir/internal/checkout"
	"github.com/tokosehat/kasir/internal/register"
	"github.com/tokosehat/kasir/internal/transactions"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/logger"
)

const maxSearchQueryLen = 100

// Counter is the register surface the HTTP layer drives. *register.Register implements it.
type Counter interface {
	View() register.View
	Search(query string)
	SearchResults() register.SearchView
	AddFromSearch(productID int64) (cart.Line, error)
	AddProduct(product catalog.Product) (cart.Line, error)
	SetQuantity(productID, quantity int64) (*cart.Warning, error)
	RemoveItem(productID int64) error
	SetTendered(raw string) (checkout.Payment, error)
	Checkout(ctx context.Context) (*transactions.Transaction, error)
	Dismiss() error
	Acknowledge() error
	Reset() error
	ReceiptText() (string, error)
}

type searchBody struct {
	Query string `json:"query" validate:"max=255"`
}

// addItemBody adds by id from the latest search results, or an explicit product
// snapshot when a barcode scanner resolved it elsewhere.
type addItemBody struct {
	ProductID int64            `json:"product_id" validate:"omitempty,gt=0"`
	Product   *catalog.Product `json:"product,omitempty"`
}

type quantityBody struct {
	Jumlah int64 `json:"jumlah"`
}

type paymentBody struct {
	Dibayar string `json:"dibayar" validate:"max=32"`
}

type lineResponse struct {
	Line    *cart.Line    `json:"line,omitempty"`
	Warning *cart.Warning `json:"warning,omitempty"`
	View    register.View `json:"register"`
}

func RegisterView(counter Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, counter.View())
	}
}

// RegisterSearch feeds the search box; results arrive after the debounce window.
func RegisterSearch(counter Counter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body searchBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		counter.Search(validators.SanitizeString(body.Query, maxSearchQueryLen))
		responses.WriteSuccessStatus(w, http.StatusAccepted, counter.SearchResults())
	}
}

func RegisterSearchResults(counter Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, counter.SearchResults())
	}
}

func RegisterAddItem(counter Counter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body addItemBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var (
			line cart.Line
			err  error
		)
		switch {
		case body.Product != nil:
			line, err = counter.AddProduct(*body.Product)
		case body.ProductID > 0:
			line, err = counter.AddFromSearch(body.ProductID)
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "product_id wajib diisi")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, lineResponse{Line: &line, View: counter.View()})
	}
}

// RegisterSetQuantity edits a cart line; a quantity of zero removes it.
func RegisterSetQuantity(counter Counter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body quantityBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		warning, err := counter.SetQuantity(productID, body.Jumlah)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lineResponse{Warning: warning, View: counter.View()})
	}
}

func RegisterRemoveItem(counter Counter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := counter.RemoveItem(productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, counter.View())
	}
}

func RegisterSetPayment(counter Counter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body paymentBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payment, err := counter.SetTendered(body.Dibayar)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

// RegisterCheckout submits the sale. Validation failures and backend
// rejections come back as errors; the register view carries the same message.
func RegisterCheckout(counter Counter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tx, err := counter.Checkout(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithFields(r.Context(), map[string]any{"no_nota": tx.NoNota, "total": tx.HargaTotal.Int64()}), "register.checkout.confirmed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, counter.View())
	}
}

func RegisterDismiss(counter Counter, logg *logger.Logger) http.HandlerFunc {
	return transition(counter, counter.Dismiss, logg)
}

func RegisterAcknowledge(counter Counter, logg *logger.Logger) http.HandlerFunc {
	return transition(counter, counter.Acknowledge, logg)
}

func RegisterReset(counter Counter, logg *logger.Logger) http.HandlerFunc {
	return transition(counter, counter.Reset, logg)
}

func transition(counter Counter, step func() error, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := step(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, counter.View())
	}
}

// RegisterReceipt prints the current receipt, or the last one for a reprint.
func RegisterReceipt(counter Counter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text, err := counter.ReceiptText()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteText(w, http.StatusOK, text)
	}
}

// CheckoutFingerprint describes the sale a checkout would submit: every cart
// line plus the tendered amount. Checkout idempotency hashes it in place of a
// request body.
func CheckoutFingerprint(counter Counter) func(*http.Request) string {
	return func(*http.Request) string {
		view := counter.View()
		var b strings.Builder
		for _, line := range view.Lines {
			b.WriteString(strconv.FormatInt(line.Product.ID, 10))
			b.WriteByte('x')
			b.WriteString(strconv.FormatInt(line.Quantity, 10))
			b.WriteByte('@')
			b.WriteString(strconv.FormatInt(line.UnitPrice(), 10))
			b.WriteByte(';')
		}
		b.WriteByte('|')
		b.WriteString(strings.TrimSpace(view.Payment.Raw))
		return b.String()
	}
}
