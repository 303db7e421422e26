// internal/domain/notification/ledger.go
package notification

import (
	"context"
	"fmt"
	"time"
)

// Key identifies one notification event. At most one ledger entry exists per Key.
type Key struct {
	RecordID       int64
	Specialization string
	ExpiryDate     string // YYYY-MM-DD as stored on the record
	Threshold      int
	Channel        Channel
}

func (k Key) String() string {
	return fmt.Sprintf("%d|%s|%s|%d|%s", k.RecordID, k.Specialization, k.ExpiryDate, k.Threshold, k.Channel)
}

// Entry is a ledger row.
type Entry struct {
	ID          int64
	Key         Key
	ProviderRef string
	SentAt      time.Time
	RecordName  string // filled by history listings
}

// Claim holds exclusive ownership of a single Key until Commit or Release.
type Claim interface {
	// Sent reports whether the key was already in the ledger when the claim was taken.
	Sent() bool
	// Commit records the key as sent. A duplicate is a silent no-op.
	Commit(ctx context.Context, providerRef string) error
	// Release gives the key up without recording it. Safe after Commit.
	Release() error
}

// Ledger is the durable set of notifications already dispatched.
type Ledger interface {
	AlreadySent(ctx context.Context, key Key) (bool, error)
	// MarkSent inserts the key if absent. inserted is false for a duplicate.
	MarkSent(ctx context.Context, key Key, providerRef string) (inserted bool, err error)
	// Claim serializes check, dispatch and write for one key across concurrent runs.
	Claim(ctx context.Context, key Key) (Claim, error)
	ListRecent(ctx context.Context, limit int) ([]*Entry, error)
	// Count returns the number of notifications ever recorded.
	Count(ctx context.Context) (int, error)
}
