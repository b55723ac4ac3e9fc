package checkout

import (
	"github.com/shopspring/decimal"
	"github.com/tokosehat/kasir/pkg/money"
)

// Payment is the tendered input and the change it yields against the cart total.
// Change is only set when the tendered amount covers the total.
type Payment struct {
	Raw        string           `json:"raw"`
	Tendered   decimal.Decimal  `json:"tendered"`
	Total      int64            `json:"total"`
	Change     *decimal.Decimal `json:"change,omitempty"`
	Sufficient bool             `json:"sufficient"`
}

func computePayment(raw string, total int64) Payment {
	tendered := money.ParseTendered(raw)
	p := Payment{Raw: raw, Tendered: tendered, Total: total}
	change := tendered.Sub(decimal.NewFromInt(total))
	if !change.IsNegative() {
		p.Change = &change
		p.Sufficient = true
	}
	return p
}

// ChangeDisplay renders the change, or "Rp 0" while the payment is short.
func (p Payment) ChangeDisplay() string {
	if p.Change == nil {
		return money.FormatRupiah(0)
	}
	return money.FormatDecimal(*p.Change)
}
