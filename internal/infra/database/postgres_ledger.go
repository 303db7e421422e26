// internal/infra/database/postgres_ledger.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"specialization_alert_bot/internal/domain/expiry"
	"specialization_alert_bot/internal/domain/notification"
)

const insertNotificationQuery = `INSERT INTO notifications (record_id, specialization, expiry_date, days_before, channel, provider_ref)
               VALUES ($1, $2, $3, $4, $5, $6)
               ON CONFLICT ON CONSTRAINT notifications_key_unique DO NOTHING`

const existsNotificationQuery = `SELECT EXISTS (
               SELECT 1 FROM notifications
               WHERE record_id = $1 AND specialization = $2 AND expiry_date = $3 AND days_before = $4 AND channel = $5)`

// PostgresLedger stores dispatched notifications. The notifications_key_unique
// constraint is what guarantees one row per key; every write goes through
// ON CONFLICT DO NOTHING so duplicates are silent.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func keyArgs(k notification.Key) []any {
	return []any{k.RecordID, k.Specialization, k.ExpiryDate, k.Threshold, string(k.Channel)}
}

func (l *PostgresLedger) AlreadySent(ctx context.Context, key notification.Key) (bool, error) {
	var exists bool
	if err := l.db.QueryRowContext(ctx, existsNotificationQuery, keyArgs(key)...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking notification ledger: %w", err)
	}
	return exists, nil
}

func (l *PostgresLedger) MarkSent(ctx context.Context, key notification.Key, providerRef string) (bool, error) {
	res, err := l.db.ExecContext(ctx, insertNotificationQuery, append(keyArgs(key), providerRef)...)
	if err != nil {
		return false, fmt.Errorf("error writing notification ledger: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n == 1, nil
}

// Claim opens a transaction and takes a transaction-scoped advisory lock derived
// from the key, so concurrent claimers of the same key queue behind each other.
// The existence check runs under the lock.
func (l *PostgresLedger) Claim(ctx context.Context, key notification.Key) (notification.Claim, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin ledger claim: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key.String()); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to lock ledger key %s: %w", key, err)
	}
	var exists bool
	if err := tx.QueryRowContext(ctx, existsNotificationQuery, keyArgs(key)...).Scan(&exists); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("error checking notification ledger under lock: %w", err)
	}
	return &postgresClaim{tx: tx, key: key, sent: exists}, nil
}

func (l *PostgresLedger) ListRecent(ctx context.Context, limit int) ([]*notification.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT n.id, n.record_id, n.specialization, n.expiry_date, n.days_before, n.channel, n.provider_ref, n.sent_at,
                      COALESCE(TRIM(r.first_name || ' ' || r.last_name), '')
               FROM notifications n
               LEFT JOIN records r ON r.id = n.record_id
               ORDER BY n.sent_at DESC, n.id DESC
               LIMIT $1`

	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}
	defer rows.Close()

	entries := make([]*notification.Entry, 0)
	for rows.Next() {
		var (
			e       notification.Entry
			exp     time.Time
			channel string
		)
		if err := rows.Scan(&e.ID, &e.Key.RecordID, &e.Key.Specialization, &exp, &e.Key.Threshold,
			&channel, &e.ProviderRef, &e.SentAt, &e.RecordName); err != nil {
			return nil, fmt.Errorf("error scanning notification: %w", err)
		}
		e.Key.ExpiryDate = exp.Format(expiry.ISODate)
		e.Key.Channel = notification.Channel(channel)
		if !e.Key.Channel.Valid() {
			return nil, fmt.Errorf("notification %d has unknown channel %q", e.ID, channel)
		}
		entries = append(entries, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return entries, nil
}

func (l *PostgresLedger) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting notifications: %w", err)
	}
	return n, nil
}

type postgresClaim struct {
	tx   *sql.Tx
	key  notification.Key
	sent bool
}

func (c *postgresClaim) Sent() bool { return c.sent }

func (c *postgresClaim) Commit(ctx context.Context, providerRef string) error {
	if _, err := c.tx.ExecContext(ctx, insertNotificationQuery, append(keyArgs(c.key), providerRef)...); err != nil {
		_ = c.tx.Rollback()
		return fmt.Errorf("error writing notification ledger: %w", err)
	}
	if err := c.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger claim: %w", err)
	}
	return nil
}

func (c *postgresClaim) Release() error {
	if err := c.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to release ledger claim: %w", err)
	}
	return nil
}
