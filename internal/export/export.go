// Package export renders calculation breakdowns as downloadable files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"financecalc/internal/finance"
)

type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts "csv" or "pdf", case-insensitively. An empty value
// selects CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Filename returns the attachment name for a calculator's export.
func (f Format) Filename(calculator string) string {
	return fmt.Sprintf("%s.%s", calculator, f)
}

// Write renders t to w in the given format.
func Write(w io.Writer, f Format, t finance.Table) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatPDF:
		return WritePDF(w, t, time.Now())
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

// WriteCSV writes the column header followed by one record per row.
func WriteCSV(w io.Writer, t finance.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("error writing CSV rows: %w", err)
	}
	return nil
}

const pdfBottomMargin = 18.0

// WritePDF lays out the summary block and the breakdown table on A4 pages,
// repeating the column header on each new page.
func WritePDF(w io.Writer, t finance.Table, generated time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, pdfBottomMargin)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, tr("Generated by FinanceCalc | "+generated.Format("2006-01-02")), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFillColor(40, 40, 40)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr("  "+t.Title), "", 1, "L", true, 0, "")
	pdf.Ln(6)

	if len(t.Summary) > 0 {
		pdf.SetTextColor(50, 50, 50)
		for _, s := range t.Summary {
			pdf.SetFont("Arial", "", 10)
			pdf.CellFormat(70, 7, tr(s.Label), "", 0, "L", false, 0, "")
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(0, 7, tr(s.Value), "", 1, "L", false, 0, "")
		}
		pdf.Ln(6)
	}

	if len(t.Columns) > 0 {
		width := 190.0 / float64(len(t.Columns))
		header := func() {
			pdf.SetFont("Arial", "B", 9)
			pdf.SetFillColor(240, 240, 240)
			pdf.SetTextColor(0, 0, 0)
			for _, c := range t.Columns {
				pdf.CellFormat(width, 7, tr(c), "B", 0, "C", true, 0, "")
			}
			pdf.Ln(-1)
			pdf.SetFont("Arial", "", 9)
			pdf.SetTextColor(50, 50, 50)
		}

		header()
		_, pageHeight := pdf.GetPageSize()
		for _, row := range t.Rows {
			if pdf.GetY()+6 > pageHeight-pdfBottomMargin {
				pdf.AddPage()
				header()
			}
			for i, cell := range row {
				align := "R"
				if i == 0 {
					align = "C"
				}
				pdf.CellFormat(width, 6, tr(cell), "", 0, align, false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("error writing PDF: %w", err)
	}
	return nil
}
