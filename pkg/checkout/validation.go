package checkout

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
)

const (
	ReasonEmptyCart          = "empty_cart"
	ReasonInsufficientAmount = "insufficient_payment"
	ReasonMissingCashier     = "missing_cashier"
)

const (
	MsgEmptyCart          = "Keranjang belanja kosong!"
	MsgInsufficientAmount = "Jumlah bayar kurang dari total!"
	MsgMissingCashier     = "User tidak ditemukan!"
)

// PaymentValidationInput describes the data required to accept a payment.
type PaymentValidationInput struct {
	LineCount int
	Total     int64
	Tendered  decimal.Decimal
	CashierID int64
}

// PaymentViolationDetail exposes the data returned to callers when a validation fails.
type PaymentViolationDetail struct {
	Reason    string `json:"reason"`
	Total     int64  `json:"total,omitempty"`
	Tendered  string `json:"tendered,omitempty"`
	Shortfall string `json:"shortfall,omitempty"`
}

// ValidatePayment applies the checks that must pass before a sale is submitted,
// in order: a non-empty cart, a tendered amount covering the total, and a
// known cashier.
func ValidatePayment(in PaymentValidationInput) error {
	if in.LineCount == 0 {
		return violation(MsgEmptyCart, PaymentViolationDetail{Reason: ReasonEmptyCart})
	}
	total := decimal.NewFromInt(in.Total)
	if in.Tendered.LessThan(total) {
		return violation(MsgInsufficientAmount, PaymentViolationDetail{
			Reason:    ReasonInsufficientAmount,
			Total:     in.Total,
			Tendered:  in.Tendered.String(),
			Shortfall: total.Sub(in.Tendered).String(),
		})
	}
	if in.CashierID <= 0 {
		return violation(MsgMissingCashier, PaymentViolationDetail{Reason: ReasonMissingCashier})
	}
	return nil
}

// ViolationReason extracts the reason of a payment validation error, or "".
func ViolationReason(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return ""
	}
	if detail, ok := typed.Details().(PaymentViolationDetail); ok {
		return detail.Reason
	}
	return ""
}

func violation(msg string, detail PaymentViolationDetail) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(detail)
}
