// internal/infra/importer/excel.go
package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"specialization_alert_bot/internal/domain/expiry"
	"specialization_alert_bot/internal/domain/record"
)

// ErrMissingColumn is returned when a required header is absent from the sheet.
var ErrMissingColumn = errors.New("missing required column")

// headerAliases maps accepted header spellings onto canonical column names.
var headerAliases = map[string]string{
	"nombre":            "first_name",
	"first_name":        "first_name",
	"apellido":          "last_name",
	"last_name":         "last_name",
	"especializacion":   "specialization",
	"especialización":   "specialization",
	"specialization":    "specialization",
	"fecha_expedicion":  "issued_date",
	"issued_date":       "issued_date",
	"fecha_vencimiento": "expiry_date",
	"expiry_date":       "expiry_date",
	"escuela":           "school",
	"school":            "school",
	"empresa":           "company",
	"company":           "company",
	"email":             "email",
	"celular":           "phone",
	"phone":             "phone",
}

var requiredColumns = []string{"first_name", "last_name", "specialization", "expiry_date"}

// Result summarizes one workbook read.
type Result struct {
	Records []*record.Record
	Skipped int // data rows dropped for missing required values
}

// LoadRecords reads the active sheet of an .xlsx workbook. The first row holds
// headers; blank rows are ignored and rows lacking a required value are skipped.
func LoadRecords(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrMissingColumn, sheet)
	}

	columns := make(map[string]int)
	for i, h := range rows[0] {
		if canonical, ok := headerAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, dup := columns[canonical]; !dup {
				columns[canonical] = i
			}
		}
	}
	for _, req := range requiredColumns {
		if _, ok := columns[req]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, req)
		}
	}

	res := &Result{Records: make([]*record.Record, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		cell := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		rec := &record.Record{
			FirstName:      cell("first_name"),
			LastName:       cell("last_name"),
			Specialization: cell("specialization"),
			IssuedDate:     parseCellDate(cell("issued_date")),
			ExpiryDate:     parseCellDate(cell("expiry_date")),
			School:         cell("school"),
			Company:        cell("company"),
			Email:          cell("email"),
			Phone:          cell("phone"),
		}
		if rec.FirstName == "" || rec.LastName == "" || rec.Specialization == "" || rec.ExpiryDate == "" {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// parseCellDate accepts the text layouts of expiry.ParseDate and raw Excel date serials.
func parseCellDate(v string) string {
	if v == "" {
		return ""
	}
	if iso, ok := expiry.NormalizeDate(v); ok {
		return iso
	}
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil || serial <= 0 {
		return ""
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return ""
	}
	return t.Format(expiry.ISODate)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
