package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"mentorship/internal/adapters/backend"
	emailPkg "mentorship/internal/adapters/email"
	web "mentorship/internal/adapters/http"
	"mentorship/internal/adapters/http/perf"
	"mentorship/internal/adapters/storage"
	auditStore "mentorship/internal/adapters/storage/audit"
	outboxStore "mentorship/internal/adapters/storage/outbox"
	"mentorship/internal/application/orchestrators"
	"mentorship/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := run(cfg); err != nil {
		zap.S().Fatalw("server_failed", "error", err)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// WAL mode, busy timeout and relaxed sync for the audit database.
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	collector := perf.NewCollector(perf.DefaultCapacity)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryMs)

	var audit auditStore.Store
	if cfg.AuditEnabled {
		audit = auditStore.NewSQLiteStore(timedDB)
	}

	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
		zap.S().Infow("email_sender_configured", "provider", "resend")
	} else {
		sender = emailPkg.NewLogSender()
		if cfg.IsProduction() {
			zap.S().Warnw("email_delivery_disabled", "reason", "MENTORSHIP_RESEND_KEY is not set")
		}
	}

	noticeSender := emailPkg.NewNoticeSender(sender, cfg.EmailFrom, cfg.EmailReply)
	outbox := outboxStore.NewSQLiteStore(timedDB)
	processor := orchestrators.NewOutboxProcessor(outbox, noticeSender)

	csrfKey, err := cfg.CSRFKey()
	if err != nil {
		return err
	}
	sessionKey, err := cfg.SessionKey()
	if err != nil {
		return err
	}
	srv, err := web.NewServer(web.Config{
		CSRFKey:            csrfKey,
		SessionKey:         sessionKey,
		SecureCookies:      cfg.IsProduction(),
		TrustedOrigins:     cfg.TrustedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		SlowRequestMs:      cfg.SlowRequestMs,
		SessionTTL:         cfg.SessionTTL,
		DefaultLanguage:    cfg.Language(),
	}, web.Deps{
		NewBackend: func() (orchestrators.Backend, error) {
			return backend.NewClient(cfg.BackendURL, collector)
		},
		Audit:     audit,
		Notifier:  orchestrators.NewQueueingNotifier(noticeSender, outbox),
		Collector: collector,
		Outbox:    outbox,
		DB:        timedDB,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	go srv.RunMaintenance(ctx, time.Minute)
	go processor.Run(ctx, cfg.OutboxInterval)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		zap.S().Infow("server_starting",
			"version", version,
			"addr", cfg.Addr,
			"env", cfg.Env,
			"backend", cfg.BackendURL,
			"schema", storage.LatestSchemaVersion(),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	zap.S().Infow("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
