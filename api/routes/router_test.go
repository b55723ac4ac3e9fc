package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokosehat/kasir/internal/cart"
	"github.com/tokosehat/kasir/internal/catalog"
	"github.com/tokosehat/kasir/internal/checkout"
	"github.com/tokosehat/kasir/internal/register"
	"github.com/tokosehat/kasir/internal/reports"
	"github.com/tokosehat/kasir/internal/transactions"
	"github.com/tokosehat/kasir/pkg/apiclient"
	pkgauth "github.com/tokosehat/kasir/pkg/auth"
	"github.com/tokosehat/kasir/pkg/auth/session"
	"github.com/tokosehat/kasir/pkg/config"
	"github.com/tokosehat/kasir/pkg/enums"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/metrics"
)

type stubSession struct {
	user *pkgauth.User
}

func (s *stubSession) User() *pkgauth.User   { return s.user }
func (s *stubSession) IsAuthenticated() bool { return s.user != nil }

type stubCounter struct {
	checkouts  int
	rejectNext int
	lines      []cart.Line
	tendered   string
}

func (c *stubCounter) View() register.View {
	lines := append([]cart.Line{}, c.lines...)
	return register.View{Snapshot: checkout.Snapshot{
		State:   enums.CheckoutStateIdle,
		Lines:   lines,
		Payment: checkout.Payment{Raw: c.tendered},
	}}
}

func (c *stubCounter) Search(string) {}

func (c *stubCounter) SearchResults() register.SearchView {
	return register.SearchView{}
}

func (c *stubCounter) AddFromSearch(id int64) (cart.Line, error) {
	return cart.Line{Product: catalog.Product{ID: id}, Quantity: 1}, nil
}

func (c *stubCounter) AddProduct(p catalog.Product) (cart.Line, error) {
	return cart.Line{Product: p, Quantity: 1}, nil
}

func (c *stubCounter) SetQuantity(int64, int64) (*cart.Warning, error) {
	return nil, nil
}

func (c *stubCounter) RemoveItem(int64) error {
	return nil
}

func (c *stubCounter) SetTendered(raw string) (checkout.Payment, error) {
	c.tendered = raw
	return checkout.Payment{Raw: raw}, nil
}

func (c *stubCounter) Checkout(context.Context) (*transactions.Transaction, error) {
	c.checkouts++
	if c.rejectNext > 0 {
		c.rejectNext--
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Jumlah bayar kurang dari total!")
	}
	c.lines, c.tendered = nil, ""
	return &transactions.Transaction{ID: int64(c.checkouts), NoNota: "TRX-1"}, nil
}

func (c *stubCounter) Dismiss() error {
	return nil
}

func (c *stubCounter) Acknowledge() error {
	return nil
}

func (c *stubCounter) Reset() error {
	return nil
}

func (c *stubCounter) ReceiptText() (string, error) {
	return "TOKO SEHAT\n", nil
}

func (c *stubCounter) ReceiptFor(transactions.Transaction) string {
	return "TOKO SEHAT\n"
}

func testConfig() *config.Config {
	return &config.Config{
		App:         config.AppConfig{Env: "test"},
		API:         config.APIConfig{SearchLimit: 10},
		Idempotency: config.IdempotencyConfig{TTL: 0},
	}
}

// newTestRouter wires real proxy services against an unreachable backend; the
// guards under test reject before any remote call is made.
func newTestRouter(t *testing.T, sess *stubSession, counter *stubCounter) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics.NewRegisterMetrics(reg)

	api, err := apiclient.New("http://kasir.invalid/api")
	require.NoError(t, err)
	catalogSvc, err := catalog.NewService(api)
	require.NoError(t, err)
	reportsSvc, err := reports.NewService(api, nil)
	require.NoError(t, err)

	return NewRouter(Deps{
		Config:           testConfig(),
		Session:          sess,
		IdempotencyStore: session.NewMemoryStore("test"),
		Gatherer:         reg,
		Register:         counter,
		Catalog:          catalogSvc,
		Reports:          reportsSvc,
	})
}

func serve(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t, &stubSession{}, &stubCounter{})
	rec := serve(router, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Kasir-Env"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestHealthReadyWithoutRedis(t *testing.T) {
	router := newTestRouter(t, &stubSession{}, &stubCounter{})
	rec := serve(router, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"session_store":"memory"`)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubSession{}, &stubCounter{})
	rec := serve(router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterRequiresSession(t *testing.T) {
	router := newTestRouter(t, &stubSession{}, &stubCounter{})
	rec := serve(router, http.MethodGet, "/api/register", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleGuards(t *testing.T) {
	kasir := &stubSession{user: &pkgauth.User{ID: 1, Username: "kasir1", HakAkses: enums.RoleKasir}}
	pemilik := &stubSession{user: &pkgauth.User{ID: 2, Username: "owner", HakAkses: enums.RolePemilik}}

	rec := serve(newTestRouter(t, kasir, &stubCounter{}), http.MethodGet, "/api/register", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(newTestRouter(t, kasir, &stubCounter{}), http.MethodGet, "/api/reports/dashboard", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(newTestRouter(t, pemilik, &stubCounter{}), http.MethodGet, "/api/register", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(newTestRouter(t, kasir, &stubCounter{}), http.MethodPost, "/api/products", `{}`, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "catalog writes are admin only")
}

func TestCheckoutReplaysWithIdempotencyKey(t *testing.T) {
	kasir := &stubSession{user: &pkgauth.User{ID: 1, Username: "kasir1", HakAkses: enums.RoleKasir}}
	counter := &stubCounter{}
	router := newTestRouter(t, kasir, counter)

	headers := map[string]string{"Idempotency-Key": "sale-1"}
	first := serve(router, http.MethodPost, "/api/register/checkout", "", headers)
	require.Equal(t, http.StatusCreated, first.Code)

	second := serve(router, http.MethodPost, "/api/register/checkout", "", headers)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 1, counter.checkouts)

	serve(router, http.MethodPost, "/api/register/checkout", "", nil)
	assert.Equal(t, 2, counter.checkouts, "checkout without a key is not deduplicated")
}

func TestCheckoutRetryAfterRejectionReachesRegister(t *testing.T) {
	kasir := &stubSession{user: &pkgauth.User{ID: 1, Username: "kasir1", HakAkses: enums.RoleKasir}}
	counter := &stubCounter{
		rejectNext: 1,
		lines:      []cart.Line{{Product: catalog.Product{ID: 1, Harga: 10000}, Quantity: 2, Subtotal: 20000}},
	}
	router := newTestRouter(t, kasir, counter)
	headers := map[string]string{"Idempotency-Key": "sale-9"}

	serve(router, http.MethodPut, "/api/register/payment", `{"dibayar":"100"}`, nil)
	first := serve(router, http.MethodPost, "/api/register/checkout", "", headers)
	require.Equal(t, http.StatusBadRequest, first.Code)

	serve(router, http.MethodPut, "/api/register/payment", `{"dibayar":"50000"}`, nil)
	second := serve(router, http.MethodPost, "/api/register/checkout", "", headers)
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())
	assert.Empty(t, second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 2, counter.checkouts)

	replay := serve(router, http.MethodPost, "/api/register/checkout", "", headers)
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 2, counter.checkouts)

	counter.lines = []cart.Line{{Product: catalog.Product{ID: 2, Harga: 5000}, Quantity: 1, Subtotal: 5000}}
	reused := serve(router, http.MethodPost, "/api/register/checkout", "", headers)
	assert.Equal(t, http.StatusConflict, reused.Code)
	assert.Equal(t, 2, counter.checkouts, "a new cart under a used key is not submitted")
}

func TestRegisterReceiptIsPlainText(t *testing.T) {
	kasir := &stubSession{user: &pkgauth.User{ID: 1, Username: "kasir1", HakAkses: enums.RoleAdmin}}
	rec := serve(newTestRouter(t, kasir, &stubCounter{}), http.MethodGet, "/api/register/receipt", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "TOKO SEHAT\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}
