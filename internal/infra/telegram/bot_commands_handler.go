// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(b *telebot.Bot, adminTelegramID int64, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if senderID == adminTelegramID {
			return c.Send(fmt.Sprintf("Hola, %s. El sistema de alerta temprana está activo. Usa /help para ver los comandos.", c.Sender().FirstName))
		}
		logCtx.Info("User is unknown")
		return c.Send("Este bot es de uso administrativo. Las alertas de vencimiento se envían por correo y SMS.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		if c.Sender().ID != adminTelegramID {
			return c.Send("No hay comandos disponibles para ti.")
		}
		return c.Send(adminHelpText(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}

func adminHelpText() string {
	var helpText strings.Builder
	helpText.WriteString("Comandos de administración:\n\n")
	helpText.WriteString("`/run_check`\n - Ejecutar ahora la verificación de vencimientos.\n\n")
	helpText.WriteString("`/records [upcoming|expired] [búsqueda]`\n - Listar registros con los días restantes.\n\n")
	helpText.WriteString("`/history [n]`\n - Últimas notificaciones enviadas.\n\n")
	helpText.WriteString("`/settings`\n - Zona horaria, días de aviso y total de notificaciones.\n\n")
	helpText.WriteString("`/help`\n - Mostrar este mensaje.")
	return helpText.String()
}
