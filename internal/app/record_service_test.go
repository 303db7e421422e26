package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"specialization_alert_bot/internal/domain/record"
	"specialization_alert_bot/internal/domain/user"
	"specialization_alert_bot/internal/infra/database"
	"specialization_alert_bot/internal/infra/logger"
)

var (
	admin  = &user.User{ID: 1, Username: "admin", Role: user.RoleAdmin}
	viewer = &user.User{ID: 2, Username: "viewer", Role: user.RoleUser}
)

func newRecordService(t *testing.T, recs ...*record.Record) (*RecordService, *memRecords) {
	t.Helper()
	repo := newMemRecords(recs...)
	return NewRecordService(repo, bogotaResolver(t), 30, logger.Discard()), repo
}

func TestRecordServiceCreateNormalizesDates(t *testing.T) {
	svc, _ := newRecordService(t)
	rec, err := svc.Create(context.Background(), admin, RecordInput{
		FirstName: " Ana ", LastName: "Ruiz", Specialization: "Buceo",
		IssuedDate: "not a date", ExpiryDate: "08/06/2024", Email: "ana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", rec.FirstName)
	assert.Equal(t, "2024-06-08", rec.ExpiryDate)
	assert.Equal(t, "", rec.IssuedDate)
	assert.NotZero(t, rec.ID)
}

func TestRecordServiceValidation(t *testing.T) {
	svc, _ := newRecordService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, RecordInput{FirstName: "Ana", LastName: "Ruiz", Specialization: "Buceo", ExpiryDate: "June 8"})
	assert.ErrorIs(t, err, ErrInvalidExpiryDate)

	_, err = svc.Create(ctx, admin, RecordInput{FirstName: "Ana", ExpiryDate: "2024-06-08"})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = svc.Create(ctx, viewer, RecordInput{FirstName: "Ana", LastName: "Ruiz", Specialization: "Buceo", ExpiryDate: "2024-06-08"})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.Create(ctx, nil, RecordInput{})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestRecordServiceUpdateAndDelete(t *testing.T) {
	svc, repo := newRecordService(t, &record.Record{ID: 7, FirstName: "Ana", LastName: "Ruiz", Specialization: "Buceo", ExpiryDate: "2024-06-08"})
	ctx := context.Background()

	rec, err := svc.Update(ctx, admin, 7, RecordInput{FirstName: "Ana", LastName: "Ruiz", Specialization: "Buceo", ExpiryDate: "2025-06-08"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.ID)

	stored, err := repo.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-08", stored.ExpiryDate)

	_, err = svc.Update(ctx, admin, 99, RecordInput{FirstName: "A", LastName: "B", Specialization: "C", ExpiryDate: "2025-06-08"})
	assert.ErrorIs(t, err, database.ErrRecordNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, viewer, 7), ErrNotAuthorized)
	require.NoError(t, svc.Delete(ctx, admin, 7))
	_, err = repo.GetByID(ctx, 7)
	assert.ErrorIs(t, err, database.ErrRecordNotFound)
}

func TestRecordServiceListFiltersAndStats(t *testing.T) {
	svc, _ := newRecordService(t,
		&record.Record{ID: 1, FirstName: "Ana", LastName: "Ruiz", Company: "Acme", Specialization: "Buceo", ExpiryDate: "2024-06-08"},
		&record.Record{ID: 2, FirstName: "Luis", LastName: "Gomez", Specialization: "Rescate", ExpiryDate: "2024-05-01"},
		&record.Record{ID: 3, FirstName: "Eva", LastName: "Diaz", Specialization: "Buceo", ExpiryDate: "2025-01-01"},
	)
	ctx := context.Background()

	d, err := svc.List(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, DashboardStats{Total: 3, Upcoming: 1, Expired: 1}, d.Stats)
	require.Len(t, d.Records, 3)
	require.NotNil(t, d.Records[0].DaysRemaining)
	assert.Equal(t, 7, *d.Records[0].DaysRemaining)

	d, err = svc.List(ctx, "acme", "")
	require.NoError(t, err)
	require.Len(t, d.Records, 1)
	assert.Equal(t, int64(1), d.Records[0].ID)
	assert.Equal(t, 3, d.Stats.Total)

	d, err = svc.List(ctx, "", FilterExpired)
	require.NoError(t, err)
	require.Len(t, d.Records, 1)
	assert.Equal(t, int64(2), d.Records[0].ID)

	d, err = svc.List(ctx, "buceo", FilterUpcoming)
	require.NoError(t, err)
	require.Len(t, d.Records, 1)
	assert.Equal(t, int64(1), d.Records[0].ID)
}

func TestRecordServiceImport(t *testing.T) {
	svc, repo := newRecordService(t)

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"nombre", "apellido", "especializacion", "fecha_vencimiento", "email"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Ana", "Ruiz", "Buceo", "2024-06-08", "ana@example.com"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"Luis", "", "Buceo", "2024-06-08", ""}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = svc.Import(context.Background(), viewer, bytes.NewReader(buf.Bytes()))
	assert.ErrorIs(t, err, ErrNotAuthorized)

	report, err := svc.Import(context.Background(), admin, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, ImportReport{Inserted: 1, Skipped: 1}, report)

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "ana@example.com", all[0].Email)
}
