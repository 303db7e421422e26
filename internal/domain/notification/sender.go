// internal/domain/notification/sender.go
package notification

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by a Sender whose credentials are missing.
var ErrNotConfigured = errors.New("sender not configured")

// Message is the content shared by every channel for one record.
type Message struct {
	To      string
	Subject string // ignored by SMS
	Body    string
}

// Receipt describes an accepted send.
type Receipt struct {
	ProviderRef string
}

// Sender makes a single delivery attempt on one channel. Implementations do not retry.
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, msg Message) (Receipt, error)
}
