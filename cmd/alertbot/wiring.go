package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"specialization_alert_bot/internal/app"
	"specialization_alert_bot/internal/domain/expiry"
	"specialization_alert_bot/internal/infra/config"
	idb "specialization_alert_bot/internal/infra/database"
	"specialization_alert_bot/internal/infra/dispatch"
	"specialization_alert_bot/internal/infra/logger"
	"specialization_alert_bot/internal/infra/metrics"
)

// components holds everything the commands share. Close releases the database.
type components struct {
	cfg      *config.AppConfig
	db       *sql.DB
	registry *prometheus.Registry
	resolver *expiry.Resolver

	ledger   *idb.PostgresLedger
	alerts   *app.AlertServiceImpl
	records  *app.RecordService
	accounts *app.AuthService
	settings *app.SettingsService
}

func (c *components) Close() {
	if c.db != nil {
		c.db.Close()
	}
}

// loadConfig reads the configuration and initializes the global logger.
func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load application configuration: %w", err)
	}
	logger.Init(cfg)
	logger.Log.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"timezone":    cfg.Timezone,
		"alert_days":  cfg.AlertDays,
	}).Info("Configuration loaded")
	return cfg, nil
}

func build(ctx context.Context, cfg *config.AppConfig) (*components, error) {
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	c := &components{cfg: cfg, db: db}

	if err := idb.RunMigrations(db); err != nil {
		c.Close()
		return nil, err
	}
	logger.Log.Info("Database connection established and schema up to date")

	if err := c.assemble(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// assemble builds repositories and services on top of c.db. It does not touch
// the database.
func (c *components) assemble() error {
	cfg := c.cfg
	resolver, err := expiry.NewResolver(cfg.Timezone, expiry.SystemClock)
	if err != nil {
		return err
	}
	c.resolver = resolver

	c.registry = prometheus.NewRegistry()
	c.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(c.registry)

	recordRepo := idb.NewPostgresRecordRepository(c.db)
	userRepo := idb.NewPostgresUserRepository(c.db)
	c.ledger = idb.NewPostgresLedger(c.db)

	thresholds := expiry.ParseThresholds(cfg.AlertDays)
	if len(thresholds) == 0 {
		logger.Log.WithField("alert_days", cfg.AlertDays).Warn("No valid alert thresholds configured; checks will send nothing")
	}

	c.alerts = app.NewAlertService(
		recordRepo,
		c.ledger,
		c.resolver,
		app.AlertSettings{
			Thresholds:      thresholds,
			DispatchTimeout: cfg.DispatchTimeout,
			Concurrency:     cfg.CheckConcurrency,
		},
		m,
		logger.Component("alert_service"),
		dispatch.NewEmailSender(cfg.SMTP, logger.Component("email")),
		dispatch.NewSMSSender(cfg.Twilio, logger.Component("sms")),
	)
	c.records = app.NewRecordService(recordRepo, c.resolver, cfg.UpcomingWindowDays, logger.Component("record_service"))
	c.accounts = app.NewAuthService(userRepo, logger.Component("auth_service"))
	c.settings = app.NewSettingsService(cfg.Timezone, thresholds, cfg.CronSpecAlertCheck, c.ledger)
	return nil
}
