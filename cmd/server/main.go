package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	_ "modernc.org/sqlite"

	"voluntrip/internal/adapters/catalog"
	emailPkg "voluntrip/internal/adapters/email"
	web "voluntrip/internal/adapters/http"
	"voluntrip/internal/adapters/http/perf"
	"voluntrip/internal/adapters/metrics"
	"voluntrip/internal/adapters/storage"
	formStateStore "voluntrip/internal/adapters/storage/formstate"
	interestStore "voluntrip/internal/adapters/storage/interest"
	outboxStorePkg "voluntrip/internal/adapters/storage/outbox"
	"voluntrip/internal/application/events"
	"voluntrip/internal/application/orchestrators"
	"voluntrip/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const pruneInterval = 6 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", "error", err.Error())
		os.Exit(1)
	}
	setupLogging(cfg)

	if err := run(cfg); err != nil {
		slog.Error("server_failed", "error", err.Error())
		os.Exit(1)
	}
}

// setupLogging logs JSON in production and text while developing.
func setupLogging(cfg config.Config) {
	if cfg.IsProduction() {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
		return
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// WAL mode, busy timeout and relaxed fsync for a single-writer site
	dbPath := cfg.Database.Path
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.PingContext(ctx); err != nil {
		return err
	}
	if err := storage.MigrateDB(db, dbPath); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, storage.TimedDBOptions{
		Collector: collector,
		Metrics:   m,
		SlowQuery: time.Duration(cfg.Database.SlowQueryMillis) * time.Millisecond,
	})

	stores := &web.Stores{
		FormStore:     formStateStore.NewSQLiteStore(timedDB),
		InterestStore: interestStore.NewSQLiteStore(timedDB),
		OutboxStore:   outboxStorePkg.NewSQLiteStore(timedDB),
	}

	bus := events.NewBus()
	for _, topic := range []string{events.TopicDatesChanged, events.TopicFiltersChanged} {
		bus.Subscribe(topic, events.LogHandler)
		bus.Subscribe(topic, events.MetricsHandler(m))
	}

	var sender emailPkg.Sender
	if cfg.Email.ResendAPIKey != "" {
		sender = emailPkg.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From)
		slog.Info("email_sender", "kind", "resend")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("email_sender", "kind", "noop", "reason", "email.resend_api_key is not set; e-mail delivery is disabled")
		} else {
			slog.Info("email_sender", "kind", "noop")
		}
	}

	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, orchestrators.EmailExecutors(sender, cfg.Email.From),
		orchestrators.OutboxOptions{
			BaseDelay: cfg.Outbox.BaseDelay,
			MaxDelay:  cfg.Outbox.MaxDelay,
			BatchSize: cfg.Outbox.BatchSize,
			Metrics:   m,
			Collector: collector,
		})
	outboxStopCh := make(chan struct{})
	orchestrators.StartBackgroundWorker(processor, cfg.Outbox.Interval, outboxStopCh)
	defer close(outboxStopCh)

	go pruneForms(ctx, stores.FormStore, cfg.Security.VisitorCookieTTL)

	var templates fs.FS
	if cfg.Paths.Templates != "" {
		templates = os.DirFS(cfg.Paths.Templates)
	}

	handler := web.NewMux(web.Options{
		StaticDir:        cfg.Paths.Static,
		Templates:        templates,
		Location:         cfg.Location(),
		DefaultLocation:  cfg.Site.DefaultLocation,
		PartnerInbox:     cfg.Email.PartnerInbox,
		ReplyTo:          cfg.Email.ReplyTo,
		Production:       cfg.IsProduction(),
		CSRFKey:          []byte(cfg.Security.CSRFKey),
		TrustedOrigins:   cfg.Security.TrustedOrigins,
		SecureCookies:    cfg.Security.SecureCookies,
		RateLimitPerMin:  cfg.Security.RateLimitPerMin,
		VisitorCookieTTL: cfg.Security.VisitorCookieTTL,
		SlowRequest:      cfg.SlowRequest(),
	}, stores, &web.Services{
		Catalog: catalog.New(os.DirFS(cfg.Paths.Data), m),
		Bus:     bus,
		Metrics: m,
		Outbox:  processor,
		Health:  timedDB.PingContext,
	}, collector)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_start", "version", version, "addr", cfg.Server.Addr, "env", cfg.Server.Env,
			"schema", storage.LatestSchemaVersion())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_stop", "reason", "signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// pruneForms deletes forms of expired visitors now and then every pruneInterval.
func pruneForms(ctx context.Context, forms orchestrators.FormPruner, maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}
	deps := orchestrators.PruneFormsDeps{FormStore: forms, MaxAge: maxAge, Now: time.Now}
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		if _, err := orchestrators.ExecutePruneForms(ctx, deps); err != nil {
			slog.Warn("form_event", "event", "prune_failed", "error", err.Error())
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
