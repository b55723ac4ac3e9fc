package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/tokosehat/kasir/internal/auth"
	"github.com/tokosehat/kasir/internal/reports"
	"github.com/tokosehat/kasir/pkg/apiclient"
	"github.com/tokosehat/kasir/pkg/auth/session"
	"github.com/tokosehat/kasir/pkg/config"
	"github.com/tokosehat/kasir/pkg/env"
	"github.com/tokosehat/kasir/pkg/logger"
	"github.com/tokosehat/kasir/pkg/redis"
)

const serviceName = "report-export"

func main() {
	ctx := context.Background()
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: serviceName})

	_ = godotenv.Load()

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	kind := flag.String("kind", "periode", "report kind: periode|bulanan|produk-terlaris")
	from := flag.String("from", reports.FormatDate(monthStart), "start date (YYYY-MM-DD) for periode and produk-terlaris")
	to := flag.String("to", reports.FormatDate(now), "end date (YYYY-MM-DD) for periode and produk-terlaris")
	month := flag.Int("bulan", int(now.Month()), "month (1-12) for bulanan")
	year := flag.Int("tahun", now.Year(), "year for bulanan")
	limit := flag.Int("limit", reports.DefaultBestSellerLimit, "rows for produk-terlaris")
	out := flag.String("out", "", "output directory (defaults to KASIR_REPORTS_DIR)")

	// Used only when the register has no saved session. The password is read
	// from KASIR_EXPORT_PASSWORD so it never shows up in the process list.
	username := flag.String("username", env.Get("KASIR_EXPORT_USERNAME", ""), "login username")

	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"kind":        *kind,
		"register_id": cfg.App.RegisterID,
	})

	backend, closeBackend := sessionBackend(ctx, cfg, logg)
	defer closeBackend()

	sess, err := session.New(backend, cfg.App.RegisterID, cfg.Session.TTL)
	requireResource(ctx, logg, "session", err)
	requireResource(ctx, logg, "session", sess.Load(ctx))

	api, err := apiclient.New(cfg.API.BaseURL,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithCredentials(sess),
		apiclient.WithLogger(logg),
		apiclient.WithBreaker(cfg.Breaker),
	)
	requireResource(ctx, logg, "api client", err)

	if !sess.IsAuthenticated() {
		authSvc, err := auth.NewService(api, sess, logg)
		requireResource(ctx, logg, "auth service", err)
		if _, err := authSvc.Login(ctx, auth.LoginRequest{
			Username: *username,
			Password: os.Getenv("KASIR_EXPORT_PASSWORD"),
		}); err != nil {
			fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
			os.Exit(1)
		}
	}

	svc, err := reports.NewService(api, logg)
	requireResource(ctx, logg, "reports service", err)

	var export *reports.Export
	switch *kind {
	case "periode":
		export, err = svc.ExportPeriodPDF(ctx, reports.PeriodRequest{TanggalAwal: *from, TanggalAkhir: *to})
	case "bulanan":
		export, err = svc.ExportMonthlyPDF(ctx, reports.MonthlyRequest{Bulan: *month, Tahun: *year})
	case "produk-terlaris":
		export, err = svc.ExportBestSellersPDF(ctx, reports.BestSellerRequest{TanggalAwal: *from, TanggalAkhir: *to, Limit: *limit})
	default:
		fmt.Fprintln(os.Stderr, "unknown -kind value:", *kind)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}

	dir := *out
	if dir == "" {
		dir = cfg.Reports.OutputDir
	}
	path, err := export.Save(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "saving report failed: %v\n", err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "path", path), "report exported")
	fmt.Println("saved report:", path)
}

// sessionBackend shares the register's saved session when redis is configured.
func sessionBackend(ctx context.Context, cfg *config.Config, logg *logger.Logger) (session.Backend, func()) {
	if !cfg.Redis.Enabled() {
		return session.NewMemoryStore(cfg.Session.Namespace), func() {}
	}
	client, err := redis.New(ctx, cfg.Redis, cfg.Session.Namespace, logg)
	requireResource(ctx, logg, "redis", err)
	return client, func() {
		if err := client.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
