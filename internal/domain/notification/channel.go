// internal/domain/notification/channel.go
package notification

// Channel is an outbound notification medium.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Channels lists every channel in processing order.
var Channels = []Channel{ChannelEmail, ChannelSMS}

// Valid reports whether c is one of the known channels.
func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelSMS
}
