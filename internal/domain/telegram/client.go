package telegram

import "gopkg.in/telebot.v3"

// Client sends messages to operators through the admin bot.
// Run reports go through it so the scheduler does not depend on the bot library directly.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
