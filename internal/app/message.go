package app

import (
	"fmt"

	"specialization_alert_bot/internal/domain/record"
)

// composeReminder builds the subject and body shared by every channel for one record.
func composeReminder(r *record.Record, daysLeft int) (subject, body string) {
	name := r.FullName()
	subject = fmt.Sprintf("[Alerta] Vencimiento de especialización en %d días - %s", daysLeft, name)
	body = fmt.Sprintf(
		"Hola %s.\n\n"+
			"Tu especialización: %s\n"+
			"Vence el: %s (faltan %d días).\n\n"+
			"Te recomendamos programar el reentrenamiento con anticipación.\n\n"+
			"Saludos,\nSistema de Alerta Temprana",
		name, r.Specialization, r.ExpiryDate, daysLeft)
	return subject, body
}
