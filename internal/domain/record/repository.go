package record

import (
	"context"
)

// Repository defines the operations for persisting and retrieving tracked records.
type Repository interface {
	Create(ctx context.Context, r *Record) error
	BulkCreate(ctx context.Context, records []*Record) (int, error)
	GetByID(ctx context.Context, id int64) (*Record, error)
	Update(ctx context.Context, r *Record) error
	Delete(ctx context.Context, id int64) error
	// ListAll returns every tracked record ordered by expiry date. The alert
	// check treats the result as its snapshot for the run.
	ListAll(ctx context.Context) ([]*Record, error)
}
