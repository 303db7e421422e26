package telegram

import (
	"context"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"specialization_alert_bot/internal/app"
	"specialization_alert_bot/internal/domain/notification"
)

const historyLimit = 20

// RecordLister is the read side of the record service used by the bot.
type RecordLister interface {
	List(ctx context.Context, query, filter string) (*app.Dashboard, error)
}

// HistoryLister lists recent ledger entries.
type HistoryLister interface {
	ListRecent(ctx context.Context, limit int) ([]*notification.Entry, error)
}

// SettingsProvider reports the effective alert configuration.
type SettingsProvider interface {
	Current(ctx context.Context) (app.Settings, error)
}

const unauthorizedText = "Error: No tienes permisos para ejecutar este comando."

// RegisterAdminHandlers registers the operator commands. Every command is
// restricted to the configured admin Telegram ID.
func RegisterAdminHandlers(
	ctx context.Context,
	b *telebot.Bot,
	checker app.AlertChecker,
	records RecordLister,
	history HistoryLister,
	settings SettingsProvider,
	adminTelegramID int64,
	baseLogger *logrus.Entry,
) {
	confirmMarkup := &telebot.ReplyMarkup{}
	btnRun := confirmMarkup.Data("Sí, ejecutar", "run_check_yes")
	btnCancel := confirmMarkup.Data("Cancelar", "run_check_no")
	confirmMarkup.Inline(confirmMarkup.Row(btnRun, btnCancel))

	guard := func(handler string, next func(c telebot.Context, log *logrus.Entry) error) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			log := baseLogger.WithFields(logrus.Fields{
				"handler":   handler,
				"sender_id": c.Sender().ID,
			})
			if c.Sender().ID != adminTelegramID {
				log.Warn("Unauthorized access attempt")
				if c.Callback() != nil {
					return c.Respond(&telebot.CallbackResponse{Text: unauthorizedText})
				}
				return c.Send(unauthorizedText)
			}
			log.Info("Command received")
			return next(c, log)
		}
	}

	b.Handle("/run_check", guard("/run_check", func(c telebot.Context, _ *logrus.Entry) error {
		return c.Send("¿Ejecutar ahora la verificación de vencimientos y enviar las alertas pendientes?", confirmMarkup)
	}))

	b.Handle(&btnRun, guard("run_check_yes", func(c telebot.Context, log *logrus.Entry) error {
		_ = c.Respond(&telebot.CallbackResponse{Text: "Ejecutando verificación..."})
		res, err := checker.RunCheck(ctx)
		if err != nil {
			log.WithError(err).Error("Manual alert check failed")
			return c.Send("La verificación falló: " + err.Error())
		}
		log.WithFields(logrus.Fields{"sent": res.Sent, "failed": res.Failed}).Info("Manual alert check finished")
		return c.Send(formatRunResult(res))
	}))

	b.Handle(&btnCancel, guard("run_check_no", func(c telebot.Context, _ *logrus.Entry) error {
		return c.Respond(&telebot.CallbackResponse{Text: "Cancelado."})
	}))

	b.Handle("/records", guard("/records", func(c telebot.Context, log *logrus.Entry) error {
		// Expected format: /records [upcoming|expired] [search terms]
		args := c.Args()
		filter, title := "", "Registros"
		if len(args) > 0 {
			switch strings.ToLower(args[0]) {
			case app.FilterUpcoming:
				filter, title, args = app.FilterUpcoming, "Próximos a vencer", args[1:]
			case app.FilterExpired:
				filter, title, args = app.FilterExpired, "Vencidos", args[1:]
			}
		}
		query := strings.Join(args, " ")

		d, err := records.List(ctx, query, filter)
		if err != nil {
			log.WithError(err).Error("Failed to list records")
			return c.Send("Ocurrió un error al obtener los registros.")
		}
		return sendLong(c, formatDashboard(title, d))
	}))

	b.Handle("/history", guard("/history", func(c telebot.Context, log *logrus.Entry) error {
		limit := historyLimit
		if args := c.Args(); len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}
		entries, err := history.ListRecent(ctx, limit)
		if err != nil {
			log.WithError(err).Error("Failed to list notification history")
			return c.Send("Ocurrió un error al obtener el historial.")
		}
		return sendLong(c, formatHistory(entries))
	}))

	b.Handle("/settings", guard("/settings", func(c telebot.Context, log *logrus.Entry) error {
		st, err := settings.Current(ctx)
		if err != nil {
			log.WithError(err).Error("Failed to read settings")
			return c.Send("Ocurrió un error al obtener la configuración.")
		}
		return c.Send(formatSettings(st))
	}))
}
