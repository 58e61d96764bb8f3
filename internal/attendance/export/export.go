// Package export renders attendance rows as CSV or XLSX downloads.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	errors "github.com/DeependraDeveloper/AMS-BACKEND/internal"
)

// NotAvailable fills the employee columns of rows whose user is gone.
const NotAvailable = "N/A"

const sheetName = "Attendence"

var Header = []string{"DATE", "EMPLOYEE", "PHONE", "IN TIME", "OUT TIME", "DURATION", "STATUS"}

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat reads the ?format= query value. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", errors.NewValidationError(fmt.Sprintf("Unsupported export format: %q", s), errors.ErrCodeValidationFailed)
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

type Row struct {
	Date     time.Time
	Employee string
	Phone    string
	InTime   string
	OutTime  string
	Duration string
	Status   string
}

// Cells renders the row in header order. Dates are M/D/YYYY in loc.
func (r Row) Cells(loc *time.Location) []string {
	return []string{
		r.Date.In(loc).Format("1/2/2006"),
		r.Employee,
		r.Phone,
		r.InTime,
		r.OutTime,
		r.Duration,
		r.Status,
	}
}

type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// Render builds the download for rows. name is the file name without
// extension.
func Render(format Format, name string, rows []Row, loc *time.Location) (*File, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatXLSX:
		err = WriteXLSX(&buf, rows, loc)
	default:
		format = FormatCSV
		err = WriteCSV(&buf, rows, loc)
	}
	if err != nil {
		return nil, errors.NewInternalError("failed to render export", err)
	}
	return &File{
		Name:        name + "." + string(format),
		ContentType: format.ContentType(),
		Body:        buf.Bytes(),
	}, nil
}

func WriteCSV(w io.Writer, rows []Row, loc *time.Location) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row.Cells(loc)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteXLSX(w io.Writer, rows []Row, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	if err := setRow(f, 1, Header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, i+2, row.Cells(loc)); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, n int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("set row %d: %w", n, err)
	}
	return nil
}
