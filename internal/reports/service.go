// Package reports fetches sales reports and statistics from the store backend
// and exports the server-rendered PDFs.
package reports

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tokosehat/kasir/pkg/apiclient"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
	"github.com/tokosehat/kasir/pkg/logger"
	"github.com/tokosehat/kasir/pkg/types"
	"golang.org/x/sync/errgroup"
)

const (
	msgDashboardFailed = "Gagal memuat data dashboard"
	pdfContentType     = "application/pdf"
)

type Service interface {
	Period(ctx context.Context, req PeriodRequest) (*PeriodReport, error)
	Monthly(ctx context.Context, req MonthlyRequest) (*MonthlyReport, error)
	BestSellers(ctx context.Context, req BestSellerRequest) (*BestSellerReport, error)

	ExportPeriodPDF(ctx context.Context, req PeriodRequest) (*Export, error)
	ExportMonthlyPDF(ctx context.Context, req MonthlyRequest) (*Export, error)
	ExportBestSellersPDF(ctx context.Context, req BestSellerRequest) (*Export, error)

	DashboardStats(ctx context.Context) (*DashboardStats, error)
	Comparison(ctx context.Context) (*ChartData, error)
	Yearly(ctx context.Context, tahun int) (*ChartData, error)
	MonthlyTrend(ctx context.Context, bulan, tahun int) (*ChartData, error)
	Weekly(ctx context.Context, tanggalAkhir string) (*ChartData, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
}

// Export is a downloaded PDF report with the filename it should be saved under.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Save writes the export into dir and returns the full path.
func (e *Export) Save(dir string) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nothing to save")
	}
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	full := filepath.Join(dir, filepath.Base(e.Filename))
	if err := os.WriteFile(full, e.Data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return full, nil
}

type service struct {
	api  *apiclient.Client
	logg *logger.Logger
}

func NewService(api *apiclient.Client, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{api: api, logg: logg}, nil
}

func (s *service) Period(ctx context.Context, req PeriodRequest) (*PeriodReport, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	return fetchReport[PeriodReport](ctx, s.api, "/laporan/periode", req, "Gagal mengambil laporan periode")
}

func (s *service) Monthly(ctx context.Context, req MonthlyRequest) (*MonthlyReport, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	report, err := fetchReport[MonthlyReport](ctx, s.api, "/laporan/bulanan", req, "Gagal mengambil laporan bulanan")
	if err != nil {
		return nil, err
	}
	if report.Periode.NamaBulan == "" {
		report.Periode.NamaBulan = MonthName(report.Periode.Bulan)
	}
	return report, nil
}

func (s *service) BestSellers(ctx context.Context, req BestSellerRequest) (*BestSellerReport, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	return fetchReport[BestSellerReport](ctx, s.api, "/laporan/produk-terlaris", req, "Gagal mengambil laporan produk terlaris")
}

func (s *service) ExportPeriodPDF(ctx context.Context, req PeriodRequest) (*Export, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("Laporan_Periode_%s_%s.pdf", req.TanggalAwal, req.TanggalAkhir)
	return s.download(ctx, "/laporan/periode/pdf", req, name)
}

func (s *service) ExportMonthlyPDF(ctx context.Context, req MonthlyRequest) (*Export, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("Laporan_Bulanan_%s_%d.pdf", MonthName(req.Bulan), req.Tahun)
	return s.download(ctx, "/laporan/bulanan/pdf", req, name)
}

func (s *service) ExportBestSellersPDF(ctx context.Context, req BestSellerRequest) (*Export, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("Laporan_Produk_Terlaris_%s_%s.pdf", req.TanggalAwal, req.TanggalAkhir)
	return s.download(ctx, "/laporan/produk-terlaris/pdf", req, name)
}

func (s *service) download(ctx context.Context, path string, body any, filename string) (*Export, error) {
	file, err := s.api.Download(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	if len(file.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "laporan PDF kosong")
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = pdfContentType
	}
	return &Export{Filename: filename, ContentType: contentType, Data: file.Data}, nil
}

func (s *service) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var env types.RemoteEnvelope[DashboardStats]
	if err := s.api.Get(ctx, "/statistik/dashboard", nil, &env); err != nil {
		return nil, err
	}
	stats, err := apiclient.Unwrap(env, "Gagal mengambil statistik dashboard")
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *service) Comparison(ctx context.Context) (*ChartData, error) {
	return s.chart(ctx, "/statistik/comparison", nil)
}

// Yearly returns the per-month trend of tahun; zero lets the backend pick the current year.
func (s *service) Yearly(ctx context.Context, tahun int) (*ChartData, error) {
	query := url.Values{}
	setPositive(query, "tahun", tahun)
	return s.chart(ctx, "/statistik/tahunan", query)
}

func (s *service) MonthlyTrend(ctx context.Context, bulan, tahun int) (*ChartData, error) {
	if bulan < 0 || bulan > 12 {
		return nil, fieldError(map[string]string{"bulan": "bulan harus antara 1 dan 12"})
	}
	query := url.Values{}
	setPositive(query, "bulan", bulan)
	setPositive(query, "tahun", tahun)
	return s.chart(ctx, "/statistik/bulanan", query)
}

// Weekly returns the seven days ending at tanggalAkhir, or today when it is empty.
func (s *service) Weekly(ctx context.Context, tanggalAkhir string) (*ChartData, error) {
	query := url.Values{}
	if end := strings.TrimSpace(tanggalAkhir); end != "" {
		query.Set("tanggal_akhir", end)
	}
	return s.chart(ctx, "/statistik/mingguan", query)
}

// Dashboard loads the stats cards and every chart concurrently. Any failure
// fails the whole dashboard.
func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		out                                 Dashboard
		stats                               *DashboardStats
		comparison, yearly, monthly, weekly *ChartData
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = s.DashboardStats(gctx)
		return err
	})
	g.Go(func() (err error) {
		comparison, err = s.Comparison(gctx)
		return err
	})
	g.Go(func() (err error) {
		yearly, err = s.Yearly(gctx, 0)
		return err
	})
	g.Go(func() (err error) {
		monthly, err = s.MonthlyTrend(gctx, 0, 0)
		return err
	})
	g.Go(func() (err error) {
		weekly, err = s.Weekly(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		s.logg.Error(ctx, "failed to load dashboard", err)
		if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgDashboardFailed)
	}
	out.Stats = *stats
	out.Comparison = *comparison
	out.Yearly = *yearly
	out.Monthly = *monthly
	out.Weekly = *weekly
	return &out, nil
}

func (s *service) chart(ctx context.Context, path string, query url.Values) (*ChartData, error) {
	var env chartEnvelope
	if err := s.api.Get(ctx, path, query, &env); err != nil {
		return nil, err
	}
	if !env.Status {
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = "Gagal mengambil statistik"
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, msg)
	}
	return &env.ChartData, nil
}

func fetchReport[T any](ctx context.Context, api *apiclient.Client, path string, body any, fallback string) (*T, error) {
	var env types.RemoteEnvelope[T]
	if err := api.Post(ctx, path, body, &env); err != nil {
		return nil, err
	}
	report, err := apiclient.Unwrap(env, fallback)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func setPositive(query url.Values, key string, value int) {
	if value > 0 {
		query.Set(key, strconv.Itoa(value))
	}
}
