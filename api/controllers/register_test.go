package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokosehat/kasir/internal/catalog"
	"github.com/tokosehat/kasir/internal/checkout"
	"github.com/tokosehat/kasir/internal/receipt"
	"github.com/tokosehat/kasir/internal/register"
	"github.com/tokosehat/kasir/internal/search"
	"github.com/tokosehat/kasir/internal/transactions"
	pkgauth "github.com/tokosehat/kasir/pkg/auth"
	"github.com/tokosehat/kasir/pkg/config"
	"github.com/tokosehat/kasir/pkg/enums"
	"github.com/tokosehat/kasir/pkg/logger"
	"github.com/tokosehat/kasir/pkg/money"
)

type recordingSubmitter struct {
	calls int
	req   transactions.CreateRequest
}

func (s *recordingSubmitter) Submit(_ context.Context, req transactions.CreateRequest) (*transactions.Result, error) {
	s.calls++
	s.req = req
	paid := money.Amount(req.Dibayar.IntPart())
	change := paid - 20000
	return &transactions.Result{
		Status:  true,
		Message: "Transaksi berhasil",
		Data: &transactions.Transaction{
			ID:           9,
			KasirID:      req.KasirID,
			NoNota:       "TRX-20261016-0009",
			Kasir:        &pkgauth.User{ID: req.KasirID, Nama: "Sari"},
			TglTransaksi: "2026-10-16 10:05:00",
			HargaTotal:   20000,
			Dibayar:      &paid,
			Kembalian:    &change,
			Items: []transactions.Item{{
				ProdukID: 1,
				Jumlah:   2,
				Subtotal: 20000,
				Produk:   &catalog.Product{ID: 1, NamaProduk: "Paracetamol", Harga: 10000},
			}},
		},
	}, nil
}

type fixedCashier struct{}

func (fixedCashier) User() *pkgauth.User {
	return &pkgauth.User{ID: 3, Nama: "Sari", HakAkses: enums.RoleKasir}
}

func newRegisterRouter(t *testing.T, sub *recordingSubmitter) http.Handler {
	t.Helper()
	orch, err := checkout.NewOrchestrator(sub, fixedCashier{})
	require.NoError(t, err)
	renderer := receipt.New(
		config.StoreConfig{Name: "TOKO SEHAT KABANJAHE", ReceiptWidth: 32, Timezone: "UTC"},
		receipt.WithClock(func() time.Time { return time.Date(2026, 10, 16, 10, 5, 0, 0, time.UTC) }),
	)
	lookup := func(context.Context, string) ([]catalog.Product, error) { return nil, nil }
	counter, err := register.New(orch, lookup, renderer, search.WithWindow[catalog.Product](time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(counter.Close)

	logg := logger.Nop()
	r := chi.NewRouter()
	r.Get("/", RegisterView(counter))
	r.Post("/items", RegisterAddItem(counter, logg))
	r.Patch("/items/{productId}", RegisterSetQuantity(counter, logg))
	r.Delete("/items/{productId}", RegisterRemoveItem(counter, logg))
	r.Post("/payment", RegisterSetPayment(counter, logg))
	r.Post("/checkout", RegisterCheckout(counter, logg))
	r.Post("/dismiss", RegisterDismiss(counter, logg))
	r.Post("/acknowledge", RegisterAcknowledge(counter, logg))
	r.Get("/receipt", RegisterReceipt(counter, logg))
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data
}

func TestRegisterSaleFlow(t *testing.T) {
	sub := &recordingSubmitter{}
	h := newRegisterRouter(t, sub)

	rec := do(t, h, http.MethodPost, "/items",
		`{"product":{"id":1,"kode_produk":"P1","nama_produk":"Paracetamol","harga":10000,"stok":10}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPatch, "/items/1", `{"jumlah":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeView(t, rec)["register"].(map[string]any)
	assert.EqualValues(t, 20000, view["total"])

	rec = do(t, h, http.MethodPost, "/payment", `{"dibayar":"50000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decodeView(t, rec)["sufficient"])

	rec = do(t, h, http.MethodPost, "/checkout", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view = decodeView(t, rec)
	assert.Equal(t, string(enums.CheckoutStateConfirmed), view["state"])
	assert.Equal(t, 1, sub.calls)
	assert.EqualValues(t, 3, sub.req.KasirID)
	assert.Equal(t, "50000", sub.req.Dibayar.String())

	rec = do(t, h, http.MethodGet, "/receipt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOKO SEHAT KABANJAHE")
	assert.Contains(t, rec.Body.String(), "TRX-20261016-0009")

	rec = do(t, h, http.MethodPost, "/acknowledge", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPost, "/dismiss", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view = decodeView(t, rec)
	assert.Equal(t, string(enums.CheckoutStateIdle), view["state"])
}

func TestRegisterCheckoutRejectsEmptyCart(t *testing.T) {
	sub := &recordingSubmitter{}
	h := newRegisterRouter(t, sub)

	rec := do(t, h, http.MethodPost, "/checkout", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Keranjang belanja kosong!")
	assert.Zero(t, sub.calls)
}

func TestRegisterAddItemRequiresProduct(t *testing.T) {
	h := newRegisterRouter(t, &recordingSubmitter{})

	rec := do(t, h, http.MethodPost, "/items", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "product_id wajib diisi")

	rec = do(t, h, http.MethodPost, "/items", `{"product_id":1,"extra":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterQuantityRejectsBadPathID(t *testing.T) {
	h := newRegisterRouter(t, &recordingSubmitter{})

	rec := do(t, h, http.MethodPatch, "/items/abc", `{"jumlah":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
