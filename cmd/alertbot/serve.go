package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"

	"specialization_alert_bot/internal/infra/httpapi"
	"specialization_alert_bot/internal/infra/logger"
	"specialization_alert_bot/internal/infra/scheduler"
	"specialization_alert_bot/internal/infra/telegram"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, the HTTP API and the Telegram admin bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			c, err := build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Close()
			return serve(cmd.Context(), c)
		},
	}
}

func serve(parent context.Context, c *components) error {
	mainLogger := logger.Component("main")
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := c.accounts.EnsureBootstrapAdmin(ctx, c.cfg.AdminUsername, c.cfg.AdminPassword); err != nil {
		return err
	}

	alertScheduler := scheduler.NewAlertScheduler(c.alerts, logger.Component("scheduler"), c.cfg.CronSpecAlertCheck, c.resolver.Location())

	var bot *telebot.Bot
	if c.cfg.TelegramToken != "" {
		var err error
		bot, err = newBot(c.cfg.TelegramToken)
		if err != nil {
			return err
		}
		botLogger := logger.Component("telegram")
		telegram.RegisterBotCommands(bot, c.cfg.AdminTelegramID, botLogger)
		telegram.RegisterAdminHandlers(ctx, bot, c.alerts, c.records, c.ledger, c.settings, c.cfg.AdminTelegramID, botLogger)
		alertScheduler.ReportTo(telegram.NewTelebotAdapter(bot), c.cfg.AdminTelegramID)
		mainLogger.Info("Telegram admin bot enabled")
	} else {
		mainLogger.Info("TELEGRAM_TOKEN not set; Telegram admin bot disabled")
	}

	if err := alertScheduler.Start(); err != nil {
		return err
	}

	api := httpapi.New(c.alerts, c.records, c.accounts, c.ledger, c.settings, c.registry, logger.Component("http"))
	srv := httpapi.NewServer(c.cfg.HTTPAddr, api.Routes())
	srvErr := make(chan error, 1)
	go func() {
		mainLogger.WithField("addr", c.cfg.HTTPAddr).Info("HTTP API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	if bot != nil {
		go bot.Start()
	}

	mainLogger.Info("Application setup complete")

	var runErr error
	select {
	case <-ctx.Done():
		mainLogger.Info("Shutting down application...")
	case err := <-srvErr:
		runErr = err
		mainLogger.WithError(err).Error("HTTP server stopped unexpectedly")
	}

	if bot != nil {
		bot.Stop()
	}
	alertScheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	mainLogger.Info("Application shut down gracefully")
	return runErr
}

func newBot(token string) (*telebot.Bot, error) {
	botLogger := logger.Component("telebot")
	return telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := botLogger.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
			}
			entry.Error("Telegram handler error")
		},
	})
}
