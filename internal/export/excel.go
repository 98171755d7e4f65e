// Package export renders a full, already filtered and sorted result set
// into a styled xlsx workbook. It is presentation-only: records arrive
// pre-validated and are never mutated here.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Column width bounds, in Excel character units.
const (
	minColumnWidth = 12
	maxColumnWidth = 48
	widthPadding   = 4
)

// Document describes one sheet of tabular data.
type Document struct {
	Title      string  // sheet name
	HeaderFill string  // solid fill color for the header row, RGB hex
	Headers    []string
	Rows       [][]any // one slice per record, aligned with Headers
}

// Build produces the workbook: styled header row, bordered wrap-text data
// cells, frozen first row, auto-filter over the header span, and column
// widths sized to content within [minColumnWidth, maxColumnWidth].
func Build(doc Document) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", doc.Title); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	if err := f.SetSheetRow(doc.Title, "A1", &doc.Headers); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}
	for i, row := range doc.Rows {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(doc.Title, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(doc.Headers))
	if err != nil {
		return nil, fmt.Errorf("resolve last column: %w", err)
	}

	border := []excelize.Border{
		{Type: "left", Color: "D1D5DB", Style: 1},
		{Type: "right", Color: "D1D5DB", Style: 1},
		{Type: "top", Color: "D1D5DB", Style: 1},
		{Type: "bottom", Color: "D1D5DB", Style: 1},
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{doc.HeaderFill}},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(doc.Title, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	if len(doc.Rows) > 0 {
		dataStyle, err := f.NewStyle(&excelize.Style{
			Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
			Border:    border,
		})
		if err != nil {
			return nil, fmt.Errorf("data style: %w", err)
		}
		lastCell := fmt.Sprintf("%s%d", lastCol, len(doc.Rows)+1)
		if err := f.SetCellStyle(doc.Title, "A2", lastCell, dataStyle); err != nil {
			return nil, fmt.Errorf("apply data style: %w", err)
		}
	}

	if err := f.SetPanes(doc.Title, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header row: %w", err)
	}
	if err := f.AutoFilter(doc.Title, fmt.Sprintf("A1:%s1", lastCol), nil); err != nil {
		return nil, fmt.Errorf("enable auto filter: %w", err)
	}

	if err := autoFitColumns(f, doc); err != nil {
		return nil, err
	}

	return f, nil
}

// BuildBuffer builds the workbook and serializes it for an HTTP response.
func BuildBuffer(doc Document) (*bytes.Buffer, error) {
	f, err := Build(doc)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf, nil
}

// autoFitColumns sizes each column to its longest rendered cell.
func autoFitColumns(f *excelize.File, doc Document) error {
	for i, header := range doc.Headers {
		longest := len([]rune(header))
		for _, row := range doc.Rows {
			if i >= len(row) {
				continue
			}
			if n := len([]rune(cellText(row[i]))); n > longest {
				longest = n
			}
		}

		width := float64(longest + widthPadding)
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		if width < minColumnWidth {
			width = minColumnWidth
		}

		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("resolve column %d: %w", i+1, err)
		}
		if err := f.SetColWidth(doc.Title, col, col, width); err != nil {
			return fmt.Errorf("set width for column %s: %w", col, err)
		}
	}
	return nil
}

// cellText renders a cell value the way it appears in the sheet.
func cellText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
