// internal/infra/telegram/client.go
package telegram

import (
	"strings"

	"gopkg.in/telebot.v3"
)

// maxMessageRunes is Telegram's limit for a single text message.
const maxMessageRunes = 4096

// TelebotAdapter implements the domain Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends text to a chat, split into several messages when it exceeds
// Telegram's size limit.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	recipient := &telebot.Chat{ID: recipientChatID}
	for _, part := range splitMessage(text, maxMessageRunes) {
		if _, err := tba.bot.Send(recipient, part, options); err != nil {
			return err
		}
	}
	return nil
}

// sendLong replies in the current chat, splitting like SendMessage.
func sendLong(c telebot.Context, text string, opts ...interface{}) error {
	for _, part := range splitMessage(text, maxMessageRunes) {
		if err := c.Send(part, opts...); err != nil {
			return err
		}
	}
	return nil
}

// splitMessage cuts text into parts of at most limit runes, preferring line breaks.
// A single line longer than limit is cut mid-line.
func splitMessage(text string, limit int) []string {
	if len([]rune(text)) <= limit {
		return []string{text}
	}
	var parts []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			parts = append(parts, strings.TrimRight(string(cur), "\n"))
			cur = cur[:0]
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		r := []rune(line)
		if len(cur)+len(r) > limit {
			flush()
		}
		for len(r) > limit {
			parts = append(parts, string(r[:limit]))
			r = r[limit:]
		}
		cur = append(cur, r...)
	}
	flush()
	return parts
}
