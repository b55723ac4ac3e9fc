package transactions

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tokosehat/kasir/internal/catalog"
	"github.com/tokosehat/kasir/pkg/auth"
	"github.com/tokosehat/kasir/pkg/money"
)

// Item is one persisted line of a transaction with its product snapshot.
type Item struct {
	ID          int64            `json:"id"`
	TransaksiID int64            `json:"transaksi_id"`
	ProdukID    int64            `json:"produk_id"`
	Produk      *catalog.Product `json:"produk,omitempty"`
	Jumlah      int64            `json:"jumlah"`
	HargaSatuan money.Amount     `json:"harga_satuan"`
	Subtotal    money.Amount     `json:"subtotal"`
	CreatedAt   string           `json:"created_at,omitempty"`
	UpdatedAt   string           `json:"updated_at,omitempty"`
}

// ProductName returns the snapshot name or "-" when the product was not expanded.
func (i Item) ProductName() string {
	if i.Produk == nil || strings.TrimSpace(i.Produk.NamaProduk) == "" {
		return "-"
	}
	return i.Produk.NamaProduk
}

// UnitPrice prefers the price captured at sale time over the product's current price.
func (i Item) UnitPrice() money.Amount {
	if i.HargaSatuan != 0 {
		return i.HargaSatuan
	}
	if i.Produk != nil {
		return i.Produk.Harga
	}
	if i.Jumlah > 0 {
		return i.Subtotal / money.Amount(i.Jumlah)
	}
	return 0
}

// Transaction is a server-confirmed sale. It is never modified after it is received.
type Transaction struct {
	ID           int64         `json:"id"`
	KasirID      int64         `json:"kasir_id"`
	NoNota       string        `json:"no_nota"`
	Kasir        *auth.User    `json:"kasir,omitempty"`
	TglTransaksi string        `json:"tgl_transaksi"`
	HargaTotal   money.Amount  `json:"harga_total"`
	Dibayar      *money.Amount `json:"dibayar,omitempty"`
	Kembalian    *money.Amount `json:"kembalian,omitempty"`
	Items        []Item        `json:"items,omitempty"`
	CreatedAt    string        `json:"created_at,omitempty"`
	UpdatedAt    string        `json:"updated_at,omitempty"`
}

// CashierName returns the cashier's display name or "-".
func (t Transaction) CashierName() string {
	if t.Kasir == nil || strings.TrimSpace(t.Kasir.Nama) == "" {
		return "-"
	}
	return t.Kasir.Nama
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Time parses tgl_transaksi. Zone-less values are read in loc.
func (t Transaction) Time(loc *time.Location) (time.Time, bool) {
	raw := strings.TrimSpace(t.TglTransaksi)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return parsed.In(loc), true
		}
	}
	return time.Time{}, false
}

// LineItem is one (product, quantity) pair of a submission.
type LineItem struct {
	ProdukID int64 `json:"produk_id" validate:"required,gt=0"`
	Jumlah   int64 `json:"jumlah" validate:"required,gt=0"`
}

// CreateRequest is the POST /transaksi payload.
type CreateRequest struct {
	KasirID int64           `json:"kasir_id"`
	Dibayar decimal.Decimal `json:"-"`
	Items   []LineItem      `json:"items"`
}

// MarshalJSON sends dibayar as a JSON number, the way the backend expects it.
func (r CreateRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		KasirID int64       `json:"kasir_id"`
		Dibayar json.Number `json:"dibayar"`
		Items   []LineItem  `json:"items"`
	}{
		KasirID: r.KasirID,
		Dibayar: json.Number(r.Dibayar.String()),
		Items:   r.Items,
	})
}

// Result is the outcome of a submission: status=false is a logical rejection.
type Result struct {
	Status  bool
	Message string
	Data    *Transaction
}
