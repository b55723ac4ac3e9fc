package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokosehat/kasir/internal/catalog"
	"github.com/tokosehat/kasir/internal/transactions"
	"github.com/tokosehat/kasir/pkg/auth"
	"github.com/tokosehat/kasir/pkg/enums"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/metrics"
	"github.com/tokosehat/kasir/pkg/money"
)

type stubSubmitter struct {
	mu       sync.Mutex
	requests []transactions.CreateRequest
	result   *transactions.Result
	err      error
	gate     chan struct{}
	entered  chan struct{}
}

func (s *stubSubmitter) Submit(ctx context.Context, req transactions.CreateRequest) (*transactions.Result, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
	return s.result, s.err
}

func (s *stubSubmitter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type stubCashier struct {
	user *auth.User
}

func (c stubCashier) User() *auth.User { return c.user }

var kasir = &auth.User{ID: 7, Nama: "Sari", Username: "sari", HakAkses: enums.RoleKasir}

func product(id, price, stock int64) catalog.Product {
	return catalog.Product{ID: id, KodeProduk: "P", NamaProduk: "Produk", Harga: money.Amount(price), Stok: stock}
}

func confirmed(noNota string) *transactions.Result {
	return &transactions.Result{
		Status:  true,
		Message: "Transaksi berhasil",
		Data:    &transactions.Transaction{ID: 1, NoNota: noNota, HargaTotal: 25000},
	}
}

func newOrchestrator(t *testing.T, sub *stubSubmitter, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(sub, stubCashier{user: kasir}, opts...)
	require.NoError(t, err)
	return o
}

func fillCart(t *testing.T, o *Orchestrator) {
	t.Helper()
	_, err := o.AddItem(product(1, 10000, 10))
	require.NoError(t, err)
	_, err = o.AddItem(product(1, 10000, 10))
	require.NoError(t, err)
	_, err = o.AddItem(product(2, 5000, 10))
	require.NoError(t, err)
}

func TestSubmitConfirmedClearsCartAndKeepsReceipt(t *testing.T) {
	t.Parallel()

	sub := &stubSubmitter{result: confirmed("TRX-001")}
	var notified []string
	o := newOrchestrator(t, sub, WithReceiptListener(func(_ context.Context, tx transactions.Transaction) {
		notified = append(notified, tx.NoNota)
	}))
	fillCart(t, o)

	payment, err := o.SetTendered("30000")
	require.NoError(t, err)
	require.True(t, payment.Sufficient)
	assert.Equal(t, "Rp 5.000", payment.ChangeDisplay())

	tx, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TRX-001", tx.NoNota)

	require.Equal(t, 1, sub.calls())
	req := sub.requests[0]
	assert.Equal(t, int64(7), req.KasirID)
	assert.True(t, req.Dibayar.Equal(decimal.NewFromInt(30000)))
	assert.Equal(t, []transactions.LineItem{{ProdukID: 1, Jumlah: 2}, {ProdukID: 2, Jumlah: 1}}, req.Items)

	snap := o.Snapshot()
	assert.Equal(t, enums.CheckoutStateConfirmed, snap.State)
	assert.Empty(t, snap.Lines)
	assert.Zero(t, snap.Total)
	assert.Empty(t, snap.Payment.Raw)
	require.NotNil(t, snap.Receipt)
	assert.Equal(t, "TRX-001", snap.Receipt.NoNota)
	assert.Equal(t, []string{"TRX-001"}, notified)

	require.NoError(t, o.Dismiss())
	assert.Equal(t, enums.CheckoutStateIdle, o.State())
	assert.Nil(t, o.Snapshot().Receipt)
	last, ok := o.LastReceipt()
	require.True(t, ok)
	assert.Equal(t, "TRX-001", last.NoNota)
}

func TestSubmitInsufficientPaymentMakesNoCall(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sub := &stubSubmitter{result: confirmed("TRX-002")}
	o := newOrchestrator(t, sub, WithMetrics(metrics.NewRegisterMetrics(reg)))
	fillCart(t, o)

	payment, err := o.SetTendered("20000")
	require.NoError(t, err)
	assert.False(t, payment.Sufficient)
	assert.Nil(t, payment.Change)
	assert.Equal(t, "Rp 0", payment.ChangeDisplay())

	_, err = o.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, sub.calls())

	snap := o.Snapshot()
	assert.Equal(t, enums.CheckoutStateIdle, snap.State)
	assert.Equal(t, "Jumlah bayar kurang dari total!", snap.Message)
	assert.Len(t, snap.Lines, 2)
	assert.Equal(t, "20000", snap.Payment.Raw)
	assert.Equal(t, float64(1), counterValue(t, reg, "kasir_checkout_validation_rejections_total", "reason", "insufficient_payment"))
}

func TestSubmitEmptyCartAndMissingCashier(t *testing.T) {
	t.Parallel()

	sub := &stubSubmitter{result: confirmed("TRX-003")}
	o := newOrchestrator(t, sub)
	_, err := o.SetTendered("50000")
	require.NoError(t, err)

	_, err = o.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Keranjang belanja kosong!", o.Snapshot().Message)

	anon, err := NewOrchestrator(sub, stubCashier{})
	require.NoError(t, err)
	_, err = anon.AddItem(product(1, 1000, 5))
	require.NoError(t, err)
	_, err = anon.SetTendered("1000")
	require.NoError(t, err)
	_, err = anon.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "User tidak ditemukan!", anon.Snapshot().Message)
	assert.Zero(t, sub.calls())
}

func TestSubmitRejectedKeepsCart(t *testing.T) {
	t.Parallel()

	sub := &stubSubmitter{result: &transactions.Result{Status: false, Message: "Stok tidak cukup"}}
	o := newOrchestrator(t, sub)
	fillCart(t, o)
	_, err := o.SetTendered("30000")
	require.NoError(t, err)

	_, err = o.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	snap := o.Snapshot()
	assert.Equal(t, enums.CheckoutStateFailed, snap.State)
	assert.Equal(t, "Transaksi gagal: Stok tidak cukup", snap.Message)
	assert.Len(t, snap.Lines, 2)
	assert.Equal(t, int64(25000), snap.Total)
	assert.Equal(t, "30000", snap.Payment.Raw)

	require.NoError(t, o.Acknowledge())
	assert.Equal(t, enums.CheckoutStateIdle, o.State())
	assert.Len(t, o.Snapshot().Lines, 2)
}

func TestSubmitRejectedWithoutMessage(t *testing.T) {
	t.Parallel()

	sub := &stubSubmitter{result: &transactions.Result{Status: false}}
	o := newOrchestrator(t, sub)
	fillCart(t, o)
	_, _ = o.SetTendered("25000")

	_, err := o.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Transaksi gagal: Unknown error", o.Snapshot().Message)
}

func TestSubmitTransportFailureAllowsRetry(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sub := &stubSubmitter{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("dial tcp"), "Tidak dapat terhubung ke server")}
	o := newOrchestrator(t, sub, WithMetrics(metrics.NewRegisterMetrics(reg)))
	fillCart(t, o)
	_, _ = o.SetTendered("30000")

	_, err := o.Submit(context.Background())
	require.Error(t, err)
	snap := o.Snapshot()
	assert.Equal(t, enums.CheckoutStateFailed, snap.State)
	assert.Equal(t, "Tidak dapat terhubung ke server", snap.Message)
	assert.Len(t, snap.Lines, 2)

	sub.mu.Lock()
	sub.err = nil
	sub.result = confirmed("TRX-004")
	sub.mu.Unlock()

	tx, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TRX-004", tx.NoNota)
	assert.Equal(t, 2, sub.calls())
	assert.Equal(t, sub.requests[0].Items, sub.requests[1].Items)
	assert.Equal(t, float64(1), counterValue(t, reg, "kasir_checkout_submissions_total", "outcome", "failed"))
	assert.Equal(t, float64(1), counterValue(t, reg, "kasir_checkout_submissions_total", "outcome", "confirmed"))
}

func TestSubmitterWithoutTransactionFails(t *testing.T) {
	t.Parallel()

	cases := map[string]*transactions.Result{
		"nil result":           nil,
		"success without data": {Status: true, Message: "ok"},
	}
	for name, result := range cases {
		result := result
		t.Run(name, func(t *testing.T) {
			sub := &stubSubmitter{result: result}
			o := newOrchestrator(t, sub)
			fillCart(t, o)
			_, _ = o.SetTendered("30000")

			tx, err := o.Submit(context.Background())
			require.Error(t, err)
			assert.Nil(t, tx)
			snap := o.Snapshot()
			assert.Equal(t, enums.CheckoutStateFailed, snap.State)
			assert.Equal(t, "Gagal membuat transaksi!", snap.Message)
			assert.Len(t, snap.Lines, 2)
		})
	}
}

func TestUntypedFailureUsesFallbackMessage(t *testing.T) {
	t.Parallel()

	sub := &stubSubmitter{err: errors.New("boom")}
	o := newOrchestrator(t, sub)
	fillCart(t, o)
	_, _ = o.SetTendered("30000")

	_, err := o.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Gagal membuat transaksi!", o.Snapshot().Message)
}

func TestEditsBlockedWhileSubmitting(t *testing.T) {
	t.Parallel()

	sub := &stubSubmitter{
		result:  confirmed("TRX-005"),
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	o := newOrchestrator(t, sub)
	fillCart(t, o)
	_, _ = o.SetTendered("30000")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(ctx)
		done <- err
	}()
	<-sub.entered
	cancel()

	assert.Equal(t, enums.CheckoutStateSubmitting, o.State())

	_, err := o.AddItem(product(3, 1000, 10))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	_, err = o.SetQuantity(1, 5)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.True(t, pkgerrors.IsCode(o.RemoveItem(2), pkgerrors.CodeStateConflict))
	_, err = o.SetTendered("1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.True(t, pkgerrors.IsCode(o.Reset(), pkgerrors.CodeStateConflict))
	_, err = o.Submit(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	close(sub.gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, sub.calls())
	assert.Equal(t, enums.CheckoutStateConfirmed, o.State())
}

func TestEditingAfterOutcomeSettlesCycle(t *testing.T) {
	t.Parallel()

	sub := &stubSubmitter{result: confirmed("TRX-006")}
	o := newOrchestrator(t, sub)
	fillCart(t, o)
	_, _ = o.SetTendered("30000")
	_, err := o.Submit(context.Background())
	require.NoError(t, err)

	_, err = o.AddItem(product(9, 2000, 3))
	require.NoError(t, err)
	snap := o.Snapshot()
	assert.Equal(t, enums.CheckoutStateIdle, snap.State)
	assert.Nil(t, snap.Receipt)
	assert.Len(t, snap.Lines, 1)

	sub.result = &transactions.Result{Status: false, Message: "x"}
	_, _ = o.SetTendered("2000")
	_, err = o.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, enums.CheckoutStateFailed, o.State())

	_, err = o.SetQuantity(9, 2)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateIdle, o.State())
	assert.Empty(t, o.Snapshot().Message)
}

func TestDismissAndAcknowledgeRequireMatchingState(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t, &stubSubmitter{})
	assert.True(t, pkgerrors.IsCode(o.Dismiss(), pkgerrors.CodeStateConflict))
	assert.True(t, pkgerrors.IsCode(o.Acknowledge(), pkgerrors.CodeStateConflict))
}

func TestResetClearsSale(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t, &stubSubmitter{})
	fillCart(t, o)
	_, _ = o.SetTendered("10000")
	require.NoError(t, o.Reset())

	snap := o.Snapshot()
	assert.Empty(t, snap.Lines)
	assert.Empty(t, snap.Payment.Raw)
	assert.Equal(t, enums.CheckoutStateIdle, snap.State)
}

func TestStockWarningIsAdvisory(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t, &stubSubmitter{})
	_, err := o.AddItem(product(1, 1000, 2))
	require.NoError(t, err)
	warning, err := o.SetQuantity(1, 5)
	require.NoError(t, err)
	require.NotNil(t, warning)
	assert.Equal(t, enums.CartWarningExceedsStock, warning.Type)
	assert.Equal(t, int64(5000), o.Snapshot().Total)
}

func TestPaymentWithDecimalTender(t *testing.T) {
	t.Parallel()

	p := computePayment("25000.50", 25000)
	require.True(t, p.Sufficient)
	assert.True(t, p.Change.Equal(decimal.RequireFromString("0.5")))
}

func TestNewOrchestratorRequiresDependencies(t *testing.T) {
	_, err := NewOrchestrator(nil, stubCashier{})
	assert.Error(t, err)
	_, err = NewOrchestrator(&stubSubmitter{}, nil)
	assert.Error(t, err)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
