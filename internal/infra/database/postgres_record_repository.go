package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"specialization_alert_bot/internal/domain/expiry"
	"specialization_alert_bot/internal/domain/record"
)

// ErrRecordNotFound is returned when no record matches the requested ID.
var ErrRecordNotFound = errors.New("record not found")

const recordColumns = `id, first_name, last_name, specialization, issued_date, expiry_date,
               school, company, email, phone, created_at`

type PostgresRecordRepository struct {
	db *sql.DB
}

func NewPostgresRecordRepository(db *sql.DB) *PostgresRecordRepository {
	return &PostgresRecordRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord maps one records row onto the domain type. DATE columns come back as
// time.Time and are rendered in the canonical layout.
func scanRecord(s rowScanner) (*record.Record, error) {
	var (
		r      record.Record
		issued sql.NullTime
		exp    time.Time
	)
	if err := s.Scan(&r.ID, &r.FirstName, &r.LastName, &r.Specialization, &issued, &exp,
		&r.School, &r.Company, &r.Email, &r.Phone, &r.CreatedAt); err != nil {
		return nil, err
	}
	if issued.Valid {
		r.IssuedDate = issued.Time.Format(expiry.ISODate)
	}
	r.ExpiryDate = exp.Format(expiry.ISODate)
	return &r, nil
}

// nullableDate turns an empty date string into SQL NULL.
func nullableDate(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *PostgresRecordRepository) Create(ctx context.Context, rec *record.Record) error {
	query := `INSERT INTO records (first_name, last_name, specialization, issued_date, expiry_date, school, company, email, phone)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, rec.FirstName, rec.LastName, rec.Specialization,
		nullableDate(rec.IssuedDate), rec.ExpiryDate, rec.School, rec.Company, rec.Email, rec.Phone).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating record: %w", err)
	}
	return nil
}

// BulkCreate inserts all records in a single transaction and returns how many were stored.
func (r *PostgresRecordRepository) BulkCreate(ctx context.Context, records []*record.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction for bulk create: %w", err)
	}
	defer txn.Rollback() // no-op after commit

	stmt, err := txn.PrepareContext(ctx, `INSERT INTO records (first_name, last_name, specialization, issued_date, expiry_date, school, company, email, phone)
                                         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for bulk create: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.FirstName, rec.LastName, rec.Specialization,
			nullableDate(rec.IssuedDate), rec.ExpiryDate, rec.School, rec.Company, rec.Email, rec.Phone); err != nil {
			return 0, fmt.Errorf("error executing bulk create (row %d, %s %s): %w", i+1, rec.FirstName, rec.LastName, err)
		}
	}

	if err := txn.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit bulk create: %w", err)
	}
	return len(records), nil
}

func (r *PostgresRecordRepository) GetByID(ctx context.Context, id int64) (*record.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = $1`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("error getting record by ID: %w", err)
	}
	return rec, nil
}

func (r *PostgresRecordRepository) Update(ctx context.Context, rec *record.Record) error {
	query := `UPDATE records
               SET first_name = $1, last_name = $2, specialization = $3, issued_date = $4, expiry_date = $5,
                   school = $6, company = $7, email = $8, phone = $9
               WHERE id = $10`
	res, err := r.db.ExecContext(ctx, query, rec.FirstName, rec.LastName, rec.Specialization,
		nullableDate(rec.IssuedDate), rec.ExpiryDate, rec.School, rec.Company, rec.Email, rec.Phone, rec.ID)
	if err != nil {
		return fmt.Errorf("error updating record: %w", err)
	}
	return requireAffected(res, ErrRecordNotFound)
}

// Delete removes the record; its ledger entries go with it through ON DELETE CASCADE.
func (r *PostgresRecordRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting record: %w", err)
	}
	return requireAffected(res, ErrRecordNotFound)
}

func (r *PostgresRecordRepository) ListAll(ctx context.Context) ([]*record.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records ORDER BY expiry_date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing records: %w", err)
	}
	defer rows.Close()

	records := make([]*record.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning record: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
