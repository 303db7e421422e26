package telegram

import (
	"fmt"
	"strings"

	"specialization_alert_bot/internal/app"
	"specialization_alert_bot/internal/domain/notification"
)

// maxListedRecords keeps replies under Telegram's message size limit.
const maxListedRecords = 40

func formatRunResult(res app.RunResult) string {
	return fmt.Sprintf("Verificación completada.\nRegistros: %d\nCon alerta hoy: %d\nEnviadas: %d\nErrores: %d\nYa enviadas antes: %d",
		res.Records, res.Matched, res.Sent, res.Failed, res.Skipped)
}

func formatDashboard(title string, d *app.Dashboard) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("--- %s ---\n", title))
	b.WriteString(fmt.Sprintf("Total: %d | Próximos: %d | Vencidos: %d\n\n", d.Stats.Total, d.Stats.Upcoming, d.Stats.Expired))
	if len(d.Records) == 0 {
		b.WriteString("No hay registros.")
		return b.String()
	}
	for i, v := range d.Records {
		if i == maxListedRecords {
			b.WriteString(fmt.Sprintf("... y %d más.", len(d.Records)-maxListedRecords))
			break
		}
		days := "?"
		if v.DaysRemaining != nil {
			days = fmt.Sprintf("%d", *v.DaysRemaining)
		}
		b.WriteString(fmt.Sprintf("#%d %s - %s - vence %s (%s días)\n", v.ID, v.FullName(), v.Specialization, v.ExpiryDate, days))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatHistory(entries []*notification.Entry) string {
	if len(entries) == 0 {
		return "Aún no se han enviado notificaciones."
	}
	var b strings.Builder
	b.WriteString("--- Últimas notificaciones ---\n")
	for _, e := range entries {
		name := e.RecordName
		if name == "" {
			name = fmt.Sprintf("#%d", e.Key.RecordID)
		}
		b.WriteString(fmt.Sprintf("%s %s: %s, %s, vence %s (aviso %d días)\n",
			e.SentAt.Format("2006-01-02 15:04"), e.Key.Channel, name, e.Key.Specialization, e.Key.ExpiryDate, e.Key.Threshold))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSettings(st app.Settings) string {
	return fmt.Sprintf("--- Configuración ---\nZona horaria: %s\nDías de aviso: %s\nProgramación: %s\nNotificaciones enviadas: %d",
		st.Timezone, st.AlertDays, st.Schedule, st.NotificationsSent)
}
