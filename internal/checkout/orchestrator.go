// Package checkout coordinates a sale from cart to confirmed transaction.
//
// The Orchestrator owns the cart and the tendered input and moves through
// Idle -> Validating -> Submitting -> Confirmed | Failed -> Idle. The cart is
// cleared only once the backend confirms the transaction; a rejected or failed
// submission leaves it exactly as it was.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tokosehat/kasir/internal/cart"
	"github.com/tokosehat/kasir/internal/catalog"
	"github.com/tokosehat/kasir/internal/transactions"
	"github.com/tokosehat/kasir/pkg/auth"
	pkgcheckout "github.com/tokosehat/kasir/pkg/checkout"
	"github.com/tokosehat/kasir/pkg/enums"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/logger"
	"github.com/tokosehat/kasir/pkg/metrics"
)

const (
	msgSubmitFailed   = "Gagal membuat transaksi!"
	msgRejectedPrefix = "Transaksi gagal: "
	msgUnknownError   = "Unknown error"
	msgConfirmed      = "Transaksi berhasil"
)

// Submitter persists a sale with the backend.
type Submitter interface {
	Submit(ctx context.Context, req transactions.CreateRequest) (*transactions.Result, error)
}

// CashierSource reports the authenticated cashier, or nil.
type CashierSource interface {
	User() *auth.User
}

// ReceiptListener is told about every confirmed transaction.
type ReceiptListener func(ctx context.Context, tx transactions.Transaction)

// Snapshot is the read model the UI renders.
type Snapshot struct {
	State    enums.CheckoutState       `json:"state"`
	Lines    []cart.Line               `json:"lines"`
	Total    int64                     `json:"total"`
	Payment  Payment                   `json:"payment"`
	Message  string                    `json:"message,omitempty"`
	Warnings []cart.Warning            `json:"warnings,omitempty"`
	Receipt  *transactions.Transaction `json:"receipt,omitempty"`
}

type Orchestrator struct {
	submitter Submitter
	cashier   CashierSource
	onReceipt ReceiptListener
	logg      *logger.Logger
	metrics   *metrics.RegisterMetrics
	now       func() time.Time

	mu          sync.Mutex
	cart        *cart.Cart
	tendered    string
	state       enums.CheckoutState
	message     string
	receipt     *transactions.Transaction
	lastReceipt *transactions.Transaction
}

type Option func(*Orchestrator)

func WithReceiptListener(fn ReceiptListener) Option {
	return func(o *Orchestrator) {
		o.onReceipt = fn
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(o *Orchestrator) {
		if logg != nil {
			o.logg = logg
		}
	}
}

func WithMetrics(m *metrics.RegisterMetrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func NewOrchestrator(submitter Submitter, cashier CashierSource, opts ...Option) (*Orchestrator, error) {
	if submitter == nil {
		return nil, fmt.Errorf("transaction submitter required")
	}
	if cashier == nil {
		return nil, fmt.Errorf("cashier source required")
	}
	o := &Orchestrator{
		submitter: submitter,
		cashier:   cashier,
		logg:      logger.Nop(),
		now:       time.Now,
		cart:      cart.New(),
		state:     enums.CheckoutStateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// AddItem puts one unit of product in the cart.
func (o *Orchestrator) AddItem(product catalog.Product) (cart.Line, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.beginEditLocked(); err != nil {
		return cart.Line{}, err
	}
	return o.cart.Add(product), nil
}

// SetQuantity edits a line; zero or less removes it. The warning is advisory.
func (o *Orchestrator) SetQuantity(productID, quantity int64) (*cart.Warning, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.beginEditLocked(); err != nil {
		return nil, err
	}
	return o.cart.SetQuantity(productID, quantity), nil
}

func (o *Orchestrator) RemoveItem(productID int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.beginEditLocked(); err != nil {
		return err
	}
	o.cart.Remove(productID)
	return nil
}

// SetTendered stores the raw tendered input and returns the recomputed payment.
func (o *Orchestrator) SetTendered(raw string) (Payment, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.beginEditLocked(); err != nil {
		return Payment{}, err
	}
	o.tendered = raw
	return computePayment(o.tendered, o.cart.Total()), nil
}

func (o *Orchestrator) Payment() Payment {
	o.mu.Lock()
	defer o.mu.Unlock()
	return computePayment(o.tendered, o.cart.Total())
}

// Submit validates the payment and, when it passes, submits the cart once.
// Validation failures return to Idle with a message and make no network call.
// The submission is not cancelled when ctx is; a cashier cannot abort mid-submit.
func (o *Orchestrator) Submit(ctx context.Context) (*transactions.Transaction, error) {
	o.mu.Lock()
	if o.state == enums.CheckoutStateSubmitting || o.state == enums.CheckoutStateValidating {
		o.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transaksi sedang diproses")
	}
	o.settleLocked()
	o.state = enums.CheckoutStateValidating
	o.message = ""

	payment := computePayment(o.tendered, o.cart.Total())
	user := o.cashier.User()
	var cashierID int64
	if user.Valid() {
		cashierID = user.ID
	}
	err := pkgcheckout.ValidatePayment(pkgcheckout.PaymentValidationInput{
		LineCount: o.cart.Len(),
		Total:     payment.Total,
		Tendered:  payment.Tendered,
		CashierID: cashierID,
	})
	if err != nil {
		o.state = enums.CheckoutStateIdle
		o.message = pkgerrors.MessageOr(err, "")
		o.mu.Unlock()
		o.metrics.IncValidationRejection(pkgcheckout.ViolationReason(err))
		return nil, err
	}

	req := transactions.CreateRequest{
		KasirID: cashierID,
		Dibayar: payment.Tendered,
		Items:   o.cart.SubmissionItems(),
	}
	o.state = enums.CheckoutStateSubmitting
	o.mu.Unlock()

	ctx = o.logg.WithFields(context.WithoutCancel(ctx), map[string]any{
		"kasir_id": cashierID,
		"items":    len(req.Items),
		"total":    payment.Total,
	})
	started := o.now()
	result, err := o.submitter.Submit(ctx, req)
	elapsed := o.now().Sub(started)

	o.mu.Lock()
	switch {
	case err != nil:
		o.state = enums.CheckoutStateFailed
		o.message = pkgerrors.MessageOr(err, msgSubmitFailed)
		o.mu.Unlock()
		o.metrics.ObserveSubmission(metrics.OutcomeFailed, elapsed)
		o.logg.Error(ctx, "transaction submission failed", err)
		return nil, err

	case result == nil || (result.Status && result.Data == nil):
		o.state = enums.CheckoutStateFailed
		o.message = msgSubmitFailed
		o.mu.Unlock()
		o.metrics.ObserveSubmission(metrics.OutcomeFailed, elapsed)
		o.logg.Warn(ctx, "transaction submission returned no transaction")
		return nil, pkgerrors.New(pkgerrors.CodeDependency, msgSubmitFailed)

	case !result.Status:
		msg := strings.TrimSpace(result.Message)
		if msg == "" {
			msg = msgUnknownError
		}
		o.state = enums.CheckoutStateFailed
		o.message = msgRejectedPrefix + msg
		rejection := pkgerrors.New(pkgerrors.CodeConflict, o.message)
		o.mu.Unlock()
		o.metrics.ObserveSubmission(metrics.OutcomeRejected, elapsed)
		o.logg.Warn(ctx, "transaction rejected by backend: "+msg)
		return nil, rejection
	}

	tx := *result.Data
	o.state = enums.CheckoutStateConfirmed
	o.message = result.Message
	if strings.TrimSpace(o.message) == "" {
		o.message = msgConfirmed
	}
	o.cart.Clear()
	o.tendered = ""
	o.receipt = &tx
	o.lastReceipt = &tx
	listener := o.onReceipt
	o.mu.Unlock()

	o.metrics.ObserveSubmission(metrics.OutcomeConfirmed, elapsed)
	o.logg.Info(o.logg.WithField(ctx, "no_nota", tx.NoNota), "transaction confirmed")
	if listener != nil {
		listener(ctx, tx)
	}
	return &tx, nil
}

// Dismiss closes the receipt of a confirmed sale and starts a fresh one.
func (o *Orchestrator) Dismiss() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != enums.CheckoutStateConfirmed {
		return stateConflict("dismiss", o.state)
	}
	o.toIdleLocked()
	return nil
}

// Acknowledge clears a failure message; the cart and payment stay for a retry.
func (o *Orchestrator) Acknowledge() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != enums.CheckoutStateFailed {
		return stateConflict("acknowledge", o.state)
	}
	o.toIdleLocked()
	return nil
}

// Reset abandons the sale in progress.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Busy() {
		return stateConflict("reset", o.state)
	}
	o.cart.Clear()
	o.tendered = ""
	o.toIdleLocked()
	return nil
}

func (o *Orchestrator) State() enums.CheckoutState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastReceipt returns the most recent confirmed transaction, kept for reprints.
func (o *Orchestrator) LastReceipt() (transactions.Transaction, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastReceipt == nil {
		return transactions.Transaction{}, false
	}
	return *o.lastReceipt, true
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	snap := Snapshot{
		State:    o.state,
		Lines:    o.cart.Lines(),
		Total:    o.cart.Total(),
		Payment:  computePayment(o.tendered, o.cart.Total()),
		Message:  o.message,
		Warnings: o.cart.Warnings(),
	}
	if o.receipt != nil {
		receipt := *o.receipt
		snap.Receipt = &receipt
	}
	return snap
}

// beginEditLocked gates cart and payment edits. Edits are refused mid-submit;
// in Confirmed or Failed the cashier starting to edit settles the cycle first.
func (o *Orchestrator) beginEditLocked() error {
	if o.state.Busy() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "transaksi sedang diproses")
	}
	o.settleLocked()
	o.message = ""
	return nil
}

func (o *Orchestrator) settleLocked() {
	if o.state == enums.CheckoutStateConfirmed || o.state == enums.CheckoutStateFailed {
		o.toIdleLocked()
	}
}

func (o *Orchestrator) toIdleLocked() {
	o.state = enums.CheckoutStateIdle
	o.message = ""
	o.receipt = nil
}

func stateConflict(action string, state enums.CheckoutState) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s while %s", action, state)).
		WithDetails(map[string]string{"state": state.String()})
}
