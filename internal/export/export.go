// Package export renders the state table as CSV, XLSX or PDF documents.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"flight-state-table/internal/model"
	"flight-state-table/pkg/utils"
)

// Format is a supported export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Render produces the document for rows in format f.
func Render(f Format, rows []model.Row, at time.Time) ([]byte, error) {
	switch f {
	case FormatCSV:
		return CSV(rows)
	case FormatXLSX:
		return XLSX(rows, at)
	case FormatPDF:
		return PDF(rows, at)
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
}

// csvRecord carries one row with header-labelled columns.
type csvRecord struct {
	ICAO24         string `csv:"ICAO24 address"`
	Callsign       string `csv:"Callsign"`
	OriginCountry  string `csv:"Origin Country"`
	TimePosition   string `csv:"Time Position"`
	LastContact    string `csv:"Last Contact"`
	Longitude      string `csv:"Longitude"`
	Latitude       string `csv:"Latitude"`
	BaroAltitude   string `csv:"Barometric Altitude"`
	OnGround       string `csv:"On Ground"`
	Velocity       string `csv:"Velocity"`
	Heading        string `csv:"Heading"`
	VerticalRate   string `csv:"Vertical Rate"`
	Sensors        string `csv:"Sensors"`
	GeoAltitude    string `csv:"Geometric Altitude"`
	Squawk         string `csv:"Squawk"`
	SPI            string `csv:"SPI"`
	PositionSource string `csv:"Position Source"`
}

func toRecord(row model.Row) csvRecord {
	c := make([]string, model.FieldCount)
	copy(c, row)
	return csvRecord{
		c[0], c[1], c[2], c[3], c[4], c[5], c[6], c[7], c[8],
		c[9], c[10], c[11], c[12], c[13], c[14], c[15], c[16],
	}
}

// CSV renders rows with a header line. The header is written even when there
// are no rows.
func CSV(rows []model.Row) ([]byte, error) {
	records := make([]csvRecord, len(rows))
	for i, row := range rows {
		records[i] = toRecord(row)
	}

	data, err := csvutil.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode CSV: %w", err)
	}
	return data, nil
}

const xlsxSheet = "states"

// XLSX renders rows into a single sheet with a header row.
func XLSX(rows []model.Row, at time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, err
	}

	headers := model.Headers()
	if err := f.SetSheetRow(xlsxSheet, "A1", &headers); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cells := make([]interface{}, model.FieldCount)
		for j := range cells {
			if j < len(row) {
				cells[j] = row[j]
			} else {
				cells[j] = ""
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &cells); err != nil {
			return nil, err
		}
	}

	props := &excelize.DocProperties{Title: "Flight states"}
	if !at.IsZero() {
		props.Created = at.UTC().Format(time.RFC3339)
	}
	if err := f.SetDocProps(props); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pdfColumns are the columns printed in the PDF; the full 17 do not fit a
// landscape A4 page legibly.
var pdfColumns = []struct {
	index int
	width float64
}{
	{0, 20}, {1, 22}, {2, 40}, {4, 24}, {5, 22}, {6, 22},
	{7, 24}, {8, 16}, {9, 20}, {10, 18}, {11, 18}, {14, 16}, {16, 14},
}

// PDF renders rows as a landscape table.
func PDF(rows []model.Row, at time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	return writePDF(pdf, rows, at)
}

// writePDF lays out the table on pdf. Cell text is UTF-8 and the core fonts
// are cp1252, so every string goes through the translator.
func writePDF(pdf *gofpdf.Fpdf, rows []model.Row, at time.Time) ([]byte, error) {
	headers := model.Headers()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Flight States")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Captured: %s  States: %d", utils.FormatTime(at), len(rows)))
	pdf.Ln(8)

	writeHeader := func() {
		pdf.SetFont("Arial", "B", 7)
		for _, col := range pdfColumns {
			pdf.CellFormat(col.width, 5, tr(headers[col.index]), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 7)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			writeHeader()
		}
	})
	writeHeader()

	for _, row := range rows {
		for _, col := range pdfColumns {
			text := ""
			if col.index < len(row) {
				text = tr(row[col.index])
			}
			pdf.CellFormat(col.width, 5, text, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
