package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"specialization_alert_bot/internal/domain/expiry"
	"specialization_alert_bot/internal/domain/notification"
	"specialization_alert_bot/internal/domain/record"
	"specialization_alert_bot/internal/infra/database"
)

// memLedger is an in-memory Ledger with per-key locking equivalent to the
// advisory lock taken by the Postgres implementation.
type memLedger struct {
	mu        sync.Mutex
	entries   map[notification.Key]string
	locks     map[notification.Key]*sync.Mutex
	commitErr error
}

func newMemLedger() *memLedger {
	return &memLedger{
		entries: make(map[notification.Key]string),
		locks:   make(map[notification.Key]*sync.Mutex),
	}
}

func (l *memLedger) AlreadySent(_ context.Context, key notification.Key) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.entries[key]
	return ok, nil
}

func (l *memLedger) MarkSent(_ context.Context, key notification.Key, ref string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[key]; ok {
		return false, nil
	}
	l.entries[key] = ref
	return true, nil
}

func (l *memLedger) Claim(ctx context.Context, key notification.Key) (notification.Claim, error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	sent, _ := l.AlreadySent(ctx, key)
	return &memClaim{ledger: l, key: key, lock: m, sent: sent}, nil
}

func (l *memLedger) ListRecent(_ context.Context, limit int) ([]*notification.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*notification.Entry, 0, len(l.entries))
	for k, ref := range l.entries {
		out = append(out, &notification.Entry{Key: k, ProviderRef: ref})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (l *memLedger) Count(context.Context) (int, error) {
	return l.len(), nil
}

func (l *memLedger) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *memLedger) has(key notification.Key) bool {
	ok, _ := l.AlreadySent(context.Background(), key)
	return ok
}

type memClaim struct {
	ledger *memLedger
	key    notification.Key
	lock   *sync.Mutex
	sent   bool
	once   sync.Once
}

func (c *memClaim) Sent() bool { return c.sent }

func (c *memClaim) Commit(ctx context.Context, ref string) error {
	if c.ledger.commitErr != nil {
		return c.ledger.commitErr
	}
	_, err := c.ledger.MarkSent(ctx, c.key, ref)
	return err
}

func (c *memClaim) Release() error {
	c.once.Do(c.lock.Unlock)
	return nil
}

// memRecords is an in-memory record.Repository.
type memRecords struct {
	mu      sync.Mutex
	records []*record.Record
	nextID  int64
	listErr error
}

func newMemRecords(recs ...*record.Record) *memRecords {
	m := &memRecords{}
	for _, r := range recs {
		if r.ID > m.nextID {
			m.nextID = r.ID
		}
		m.records = append(m.records, r)
	}
	return m
}

func (m *memRecords) Create(_ context.Context, r *record.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	m.records = append(m.records, r)
	return nil
}

func (m *memRecords) BulkCreate(ctx context.Context, recs []*record.Record) (int, error) {
	for _, r := range recs {
		if err := m.Create(ctx, r); err != nil {
			return 0, err
		}
	}
	return len(recs), nil
}

func (m *memRecords) GetByID(_ context.Context, id int64) (*record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, database.ErrRecordNotFound
}

func (m *memRecords) Update(_ context.Context, r *record.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.records {
		if existing.ID == r.ID {
			cp := *r
			m.records[i] = &cp
			return nil
		}
	}
	return database.ErrRecordNotFound
}

func (m *memRecords) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return database.ErrRecordNotFound
}

func (m *memRecords) ListAll(_ context.Context) ([]*record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*record.Record, len(m.records))
	for i, r := range m.records {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}

// fakeSender records every attempt and fails for configured destinations.
type fakeSender struct {
	channel notification.Channel
	delay   time.Duration
	failAll error
	failFor map[string]bool

	mu       sync.Mutex
	attempts []notification.Message
}

func newFakeSender(ch notification.Channel) *fakeSender {
	return &fakeSender{channel: ch, failFor: make(map[string]bool)}
}

func (f *fakeSender) Channel() notification.Channel { return f.channel }

func (f *fakeSender) Send(ctx context.Context, msg notification.Message) (notification.Receipt, error) {
	f.mu.Lock()
	f.attempts = append(f.attempts, msg)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return notification.Receipt{}, ctx.Err()
		}
	}
	if f.failAll != nil {
		return notification.Receipt{}, f.failAll
	}
	if f.failFor[msg.To] {
		return notification.Receipt{}, errors.New("provider rejected destination")
	}
	return notification.Receipt{ProviderRef: string(f.channel) + "-ok"}, nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attempts)
}

// bogotaResolver resolves "today" as 2024-06-01 in America/Bogota.
func bogotaResolver(t *testing.T) *expiry.Resolver {
	t.Helper()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.FixedZone("COT", -5*60*60))
	r, err := expiry.NewResolver("America/Bogota", expiry.ClockFunc(func() time.Time { return now }))
	require.NoError(t, err)
	return r
}
