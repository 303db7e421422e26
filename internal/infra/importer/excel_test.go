package importer

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellRef, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestLoadRecords(t *testing.T) {
	buf := workbook(t, [][]any{
		{"Nombre", "Apellido", "Especializacion", "Fecha_Expedicion", "Fecha_Vencimiento", "Empresa", "Email", "Celular"},
		{"Ana", "Ruiz", "Buceo", "08/06/2022", "2024-06-08", "Acme", "ana@example.com", "+573001112233"},
		{"", "", "", "", "", "", "", ""},
		{"Luis", "Gomez", "Rescate", "", "31-12-2025", "", "", ""},
		{"Sin", "Fecha", "Buceo", "", "", "", "x@example.com", ""},
		{"Mala", "Fecha", "Buceo", "", "someday", "", "", ""},
	})

	res, err := LoadRecords(buf)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 2, res.Skipped)

	ana := res.Records[0]
	assert.Equal(t, "Ana", ana.FirstName)
	assert.Equal(t, "2022-06-08", ana.IssuedDate)
	assert.Equal(t, "2024-06-08", ana.ExpiryDate)
	assert.Equal(t, "Acme", ana.Company)
	assert.Equal(t, "+573001112233", ana.Phone)

	assert.Equal(t, "2025-12-31", res.Records[1].ExpiryDate)
	assert.Equal(t, "", res.Records[1].IssuedDate)
}

func TestLoadRecordsEnglishHeadersAndSerialDates(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"first_name", "last_name", "specialization", "expiry_date"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Ana", "Ruiz", "Buceo", time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	res, err := LoadRecords(buf)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "2024-06-08", res.Records[0].ExpiryDate)
}

func TestLoadRecordsMissingColumn(t *testing.T) {
	buf := workbook(t, [][]any{
		{"nombre", "apellido", "especializacion"},
		{"Ana", "Ruiz", "Buceo"},
	})
	_, err := LoadRecords(buf)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoadRecordsRejectsNonWorkbook(t *testing.T) {
	_, err := LoadRecords(bytes.NewBufferString("nombre,apellido\n"))
	assert.Error(t, err)
}

func TestLoadRecordsReadsActiveSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"notas"}))
	idx, err := f.NewSheet("Personal")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Personal", "A1", &[]any{"nombre", "apellido", "especializacion", "fecha_vencimiento"}))
	require.NoError(t, f.SetSheetRow("Personal", "A2", &[]any{"Ana", "Ruiz", "Buceo", "2024-06-08"}))
	f.SetActiveSheet(idx)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	res, err := LoadRecords(buf)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Ana", res.Records[0].FirstName)
}
