package catalog

import (
	"strings"

	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/enums"
	"github.com/tokosehat/kasir/pkg/money"
)

// Category is a product grouping (kategori produk).
type Category struct {
	ID           int64   `json:"id"`
	NamaKategori string  `json:"nama_kategori"`
	Deskripsi    *string `json:"deskripsi,omitempty"`
	CreatedAt    string  `json:"created_at,omitempty"`
	UpdatedAt    string  `json:"updated_at,omitempty"`
}

// Unit is a unit of measure (satuan) such as "pcs" or "box".
type Unit struct {
	ID         int64   `json:"id"`
	KodeSatuan string  `json:"kode_satuan"`
	NamaSatuan string  `json:"nama_satuan"`
	Deskripsi  *string `json:"deskripsi,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
	UpdatedAt  string  `json:"updated_at,omitempty"`
}

// Product is a sellable catalog item as the backend reports it. Search results
// are read-only snapshots; the cart never mutates them.
type Product struct {
	ID         int64        `json:"id"`
	SatuanID   int64        `json:"satuan_id"`
	KategoriID int64        `json:"kategori_id"`
	KodeProduk string       `json:"kode_produk"`
	NamaProduk string       `json:"nama_produk"`
	Harga      money.Amount `json:"harga"`
	Stok       int64        `json:"stok"`
	CreatedAt  string       `json:"created_at,omitempty"`
	UpdatedAt  string       `json:"updated_at,omitempty"`
	Satuan     *Unit        `json:"satuan,omitempty"`
	Kategori   *Category    `json:"kategori,omitempty"`
}

// UnitName returns the unit's display name, or "" when not loaded.
func (p Product) UnitName() string {
	if p.Satuan == nil {
		return ""
	}
	return p.Satuan.NamaSatuan
}

// SearchResult is the body of GET /produk/search.
type SearchResult struct {
	SearchTerm string    `json:"search_term"`
	TotalFound int       `json:"total_found"`
	Products   []Product `json:"data"`
}

type ProductRequest struct {
	SatuanID   int64  `json:"satuan_id" validate:"required,gt=0"`
	KategoriID int64  `json:"kategori_id" validate:"required,gt=0"`
	KodeProduk string `json:"kode_produk" validate:"required,max=50"`
	NamaProduk string `json:"nama_produk" validate:"required,max=255"`
	Harga      int64  `json:"harga" validate:"gte=0"`
	Stok       int64  `json:"stok" validate:"gte=0"`
}

func (r *ProductRequest) normalize() error {
	r.KodeProduk = strings.TrimSpace(r.KodeProduk)
	r.NamaProduk = strings.TrimSpace(r.NamaProduk)
	fields := map[string]string{}
	if r.SatuanID <= 0 {
		fields["satuan_id"] = "satuan wajib dipilih"
	}
	if r.KategoriID <= 0 {
		fields["kategori_id"] = "kategori wajib dipilih"
	}
	if r.KodeProduk == "" {
		fields["kode_produk"] = "kode produk wajib diisi"
	}
	if r.NamaProduk == "" {
		fields["nama_produk"] = "nama produk wajib diisi"
	}
	if r.Harga < 0 {
		fields["harga"] = "harga tidak boleh negatif"
	}
	if r.Stok < 0 {
		fields["stok"] = "stok tidak boleh negatif"
	}
	return fieldError(fields)
}

type StockRequest struct {
	Quantity  int64                `json:"quantity" validate:"required,gt=0"`
	Operation enums.StockOperation `json:"operation" validate:"omitempty,oneof=add subtract"`
}

func (r *StockRequest) normalize() error {
	if r.Operation == "" {
		r.Operation = enums.StockOperationAdd
	}
	fields := map[string]string{}
	if r.Quantity <= 0 {
		fields["quantity"] = "jumlah harus lebih dari 0"
	}
	if !r.Operation.IsValid() {
		fields["operation"] = "operasi harus add atau subtract"
	}
	return fieldError(fields)
}

type CategoryRequest struct {
	NamaKategori string  `json:"nama_kategori" validate:"required,max=100"`
	Deskripsi    *string `json:"deskripsi,omitempty"`
}

func (r *CategoryRequest) normalize() error {
	r.NamaKategori = strings.TrimSpace(r.NamaKategori)
	if r.NamaKategori == "" {
		return fieldError(map[string]string{"nama_kategori": "nama kategori wajib diisi"})
	}
	return nil
}

type UnitRequest struct {
	KodeSatuan string  `json:"kode_satuan" validate:"required,max=20"`
	NamaSatuan string  `json:"nama_satuan" validate:"required,max=100"`
	Deskripsi  *string `json:"deskripsi,omitempty"`
}

func (r *UnitRequest) normalize() error {
	r.KodeSatuan = strings.TrimSpace(r.KodeSatuan)
	r.NamaSatuan = strings.TrimSpace(r.NamaSatuan)
	fields := map[string]string{}
	if r.KodeSatuan == "" {
		fields["kode_satuan"] = "kode satuan wajib diisi"
	}
	if r.NamaSatuan == "" {
		fields["nama_satuan"] = "nama satuan wajib diisi"
	}
	return fieldError(fields)
}

func fieldError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(fields)
}
