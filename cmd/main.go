package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/loaneye/internal/alert"
	"github.com/loaneye/internal/api"
	"github.com/loaneye/internal/auth"
	"github.com/loaneye/internal/catalog"
	"github.com/loaneye/internal/config"
	"github.com/loaneye/internal/database"
	"github.com/loaneye/internal/logger"
	"github.com/loaneye/internal/monitor"
	"github.com/loaneye/internal/notify"
	"github.com/loaneye/internal/report"
	"github.com/loaneye/internal/rule"
	"github.com/loaneye/internal/store"
)

func main() {
	configFile := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "loaneye: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	// Initialize configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if cfg.File != "" {
		log.Info("config loaded", zap.String("file", cfg.File))
	}

	// Initialize database
	db, err := database.Open(cfg.Database.Path, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()

	authService := auth.NewService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)
	if err := authService.SeedAdmin(cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		return err
	}

	// Load signal catalog and CSV tables
	cat, err := loadCatalog(cfg, log)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.DataPath(cfg.Data.AlertsFile), cat.Sources(cfg.Data.Dir))
	if err != nil {
		return fmt.Errorf("failed to load alerts: %w", err)
	}
	for _, derr := range st.DetailErrors() {
		log.Warn("detail table rejected", zap.Error(derr))
	}
	log.Info("alerts loaded",
		zap.Int("alerts", len(st.Alerts())),
		zap.Int("skipped_rows", st.SkippedRows()),
		zap.Int("detail_errors", len(st.DetailErrors())))

	metrics := monitor.NewMetrics()
	metrics.StoreLoaded(len(st.Alerts()), len(st.DetailErrors()), st.SkippedRows())

	sessions := rule.NewManager(cat.Bind(st), cfg.Session.TTL, log)
	ruleManager := alert.NewRuleManager(db, log)

	notifier := notify.NewManager(log,
		notify.NewSlackNotifier(
			cfg.Notify.Slack.WebhookURL,
			cfg.Notify.Slack.Token,
			cfg.Notify.Slack.Channel,
			cfg.Notify.Slack.Username,
		),
		notify.NewEmailNotifier(notify.EmailConfig{
			SMTPHost:  cfg.Notify.Email.SMTPHost,
			SMTPPort:  cfg.Notify.Email.SMTPPort,
			Username:  cfg.Notify.Email.Username,
			Password:  cfg.Notify.Email.Password,
			From:      cfg.Notify.Email.From,
			Receivers: cfg.Notify.Email.Receivers,
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := monitor.NewCollector(metrics, sessions, ruleManager, cfg.Monitor.Interval, log)
	go collector.Start(ctx)

	gin.SetMode(cfg.Server.Mode)
	server := api.NewServer(api.Options{
		Store:    st,
		Catalog:  cat,
		Sessions: sessions,
		Rules:    ruleManager,
		Reports:  report.NewGenerator(cfg.Dashboard.TotalBorrowerMultiplier, cfg.Dashboard.TopBorrowers),
		Notifier: notifier,
		Auth:     authService,
		Metrics:  metrics,
		Logger:   log,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// loadCatalog reads the configured catalog file, falling back to the
// built-in signals when none is configured or the file does not exist.
func loadCatalog(cfg *config.Config, logger *zap.Logger) (*catalog.Catalog, error) {
	path := cfg.DataPath(cfg.Data.CatalogFile)
	if path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("catalog file not found, using built-in signals", zap.String("path", path))
		return catalog.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return cat, nil
}
