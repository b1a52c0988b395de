package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// GridSheet is one page of a timetable: a column per day and a row per period.
type GridSheet struct {
	Title   string
	Columns []string
	Rows    []string
	Cells   [][]string // [row][column]
}

// PDFExporter renders timetable sheets and flat datasets on landscape A4 pages.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

const (
	pageWidth  = 277.0
	labelWidth = 22.0
	lineHeight = 5.0
)

// RenderGrid draws one page per sheet.
func (e *PDFExporter) RenderGrid(title string, sheets []GridSheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("pdf requires at least one sheet")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 10)

	for _, sheet := range sheets {
		if len(sheet.Columns) == 0 {
			return nil, fmt.Errorf("sheet %q has no columns", sheet.Title)
		}
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 14)
		heading := sheet.Title
		if title != "" {
			heading = title + " - " + sheet.Title
		}
		pdf.CellFormat(0, 10, heading, "", 1, "L", false, 0, "")
		pdf.Ln(2)

		colWidth := (pageWidth - labelWidth) / float64(len(sheet.Columns))
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(labelWidth, 8, "", "1", 0, "C", true, 0, "")
		for _, col := range sheet.Columns {
			pdf.CellFormat(colWidth, 8, col, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 8)
		for r, label := range sheet.Rows {
			height := 8.0
			for c := range sheet.Columns {
				lines := pdf.SplitLines([]byte(cellText(sheet, r, c)), colWidth-2)
				if h := float64(len(lines))*lineHeight + 2; h > height {
					height = h
				}
			}
			x, y := pdf.GetXY()
			pdf.SetFont("Arial", "B", 9)
			pdf.CellFormat(labelWidth, height, label, "1", 0, "C", true, 0, "")
			pdf.SetFont("Arial", "", 8)
			for c := range sheet.Columns {
				cx := x + labelWidth + float64(c)*colWidth
				pdf.Rect(cx, y, colWidth, height, "D")
				pdf.SetXY(cx+1, y+1)
				pdf.MultiCell(colWidth-2, lineHeight, cellText(sheet, r, c), "", "L", false)
			}
			pdf.SetXY(x, y+height)
		}
	}

	return output(pdf)
}

// Render draws a flat dataset as a single table.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	colWidth := pageWidth / float64(len(data.Headers))
	pdf.SetFont("Arial", "B", 9)
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range data.Rows {
		for i := range data.Headers {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	return output(pdf)
}

func cellText(sheet GridSheet, row, col int) string {
	if row >= len(sheet.Cells) || col >= len(sheet.Cells[row]) {
		return ""
	}
	return sheet.Cells[row][col]
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
