package reports

import (
	"encoding/json"
	"strings"
	"time"

	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/money"
	"github.com/tokosehat/kasir/pkg/types"
)

const (
	DateLayout             = "2006-01-02"
	DefaultBestSellerLimit = 10
)

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// MonthName returns the Indonesian name of month 1-12, or "" outside that range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// FormatDate renders t the way report requests expect it.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

type PeriodRequest struct {
	TanggalAwal  string `json:"tanggal_awal" validate:"required,datetime=2006-01-02"`
	TanggalAkhir string `json:"tanggal_akhir" validate:"required,datetime=2006-01-02"`
}

func (r *PeriodRequest) normalize() error {
	return validateRange(&r.TanggalAwal, &r.TanggalAkhir)
}

type MonthlyRequest struct {
	Bulan int `json:"bulan" validate:"required,min=1,max=12"`
	Tahun int `json:"tahun" validate:"required,min=2000"`
}

func (r *MonthlyRequest) normalize() error {
	fields := map[string]string{}
	if r.Bulan < 1 || r.Bulan > 12 {
		fields["bulan"] = "bulan harus antara 1 dan 12"
	}
	if r.Tahun <= 0 {
		fields["tahun"] = "tahun wajib diisi"
	}
	return fieldError(fields)
}

type BestSellerRequest struct {
	TanggalAwal  string `json:"tanggal_awal" validate:"required,datetime=2006-01-02"`
	TanggalAkhir string `json:"tanggal_akhir" validate:"required,datetime=2006-01-02"`
	Limit        int    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

func (r *BestSellerRequest) normalize() error {
	if r.Limit <= 0 {
		r.Limit = DefaultBestSellerLimit
	}
	return validateRange(&r.TanggalAwal, &r.TanggalAkhir)
}

func validateRange(start, end *string) error {
	*start = strings.TrimSpace(*start)
	*end = strings.TrimSpace(*end)
	fields := map[string]string{}
	from, errFrom := time.Parse(DateLayout, *start)
	if errFrom != nil {
		fields["tanggal_awal"] = "tanggal awal harus berformat YYYY-MM-DD"
	}
	to, errTo := time.Parse(DateLayout, *end)
	if errTo != nil {
		fields["tanggal_akhir"] = "tanggal akhir harus berformat YYYY-MM-DD"
	}
	if errFrom == nil && errTo == nil && from.After(to) {
		fields["tanggal_akhir"] = "tanggal akhir tidak boleh sebelum tanggal awal"
	}
	return fieldError(fields)
}

func fieldError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(fields)
}

// ReportTransaction is one row of a period or monthly report.
type ReportTransaction struct {
	ID           int64        `json:"id"`
	NoNota       string       `json:"no_nota"`
	TglTransaksi string       `json:"tgl_transaksi"`
	KasirNama    string       `json:"kasir_nama"`
	HargaTotal   money.Amount `json:"harga_total"`
	JumlahItem   int64        `json:"jumlah_item"`
}

type Summary struct {
	TotalTransaksi    int64        `json:"total_transaksi"`
	TotalPendapatan   money.Amount `json:"total_pendapatan"`
	RataRataTransaksi money.Amount `json:"rata_rata_transaksi"`
}

type DateRange struct {
	TanggalAwal  string `json:"tanggal_awal"`
	TanggalAkhir string `json:"tanggal_akhir"`
}

type PeriodReport struct {
	Periode   DateRange           `json:"periode"`
	Summary   Summary             `json:"summary"`
	Transaksi []ReportTransaction `json:"transaksi"`
}

type MonthPeriod struct {
	Bulan     int    `json:"bulan"`
	Tahun     int    `json:"tahun"`
	NamaBulan string `json:"nama_bulan"`
}

type MonthlyReport struct {
	Periode   MonthPeriod         `json:"periode"`
	Summary   Summary             `json:"summary"`
	Transaksi []ReportTransaction `json:"transaksi"`
}

type BestSeller struct {
	ProdukID        int64        `json:"produk_id"`
	KodeProduk      string       `json:"kode_produk"`
	NamaProduk      string       `json:"nama_produk"`
	TotalTerjual    int64        `json:"total_terjual"`
	TotalPendapatan money.Amount `json:"total_pendapatan"`
}

type BestSellerReport struct {
	Periode DateRange    `json:"periode"`
	Produk  []BestSeller `json:"produk"`
}

// Totals is a transaction count and revenue pair.
type Totals struct {
	TotalTransaksi  int64        `json:"total_transaksi"`
	TotalPendapatan money.Amount `json:"total_pendapatan"`
}

type Cards struct {
	HariIni   Totals `json:"hari_ini"`
	MingguIni Totals `json:"minggu_ini"`
	BulanIni  Totals `json:"bulan_ini"`
	TahunIni  Totals `json:"tahun_ini"`
}

// Inventory counts arrive as strings from some backends, so they are kept as json.Number.
type Inventory struct {
	TotalProduk       json.Number `json:"total_produk"`
	TotalKategori     json.Number `json:"total_kategori"`
	ProdukStokMenipis json.Number `json:"produk_stok_menipis"`
}

type DashboardStats struct {
	Cards     Cards     `json:"cards"`
	Inventory Inventory `json:"inventory"`
}

type Dataset struct {
	Label           string          `json:"label"`
	Data            []float64       `json:"data"`
	BackgroundColor json.RawMessage `json:"backgroundColor,omitempty"`
	BorderColor     json.RawMessage `json:"borderColor,omitempty"`
	BorderWidth     float64         `json:"borderWidth,omitempty"`
	YAxisID         string          `json:"yAxisID,omitempty"`
	Tension         *float64        `json:"tension,omitempty"`
}

// ChartData is chart-ready statistics. Rendering is left to the frontend.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type chartEnvelope struct {
	Status    types.StatusFlag `json:"status"`
	Message   string           `json:"message"`
	ChartData ChartData        `json:"chart_data"`
}

// Dashboard bundles everything the owner's dashboard shows.
type Dashboard struct {
	Stats      DashboardStats `json:"stats"`
	Comparison ChartData      `json:"comparison"`
	Yearly     ChartData      `json:"yearly"`
	Monthly    ChartData      `json:"monthly"`
	Weekly     ChartData      `json:"weekly"`
}
