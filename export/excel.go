package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// WriteReport writes the pivoted rows to <dir>/stparts_<runID>.xlsx.
// The sheet is named after the source, carries a merged title row, a
// frozen header, and "#,##0.00"-formatted price columns. An empty rows
// slice still produces a valid headers-only workbook.
func WriteReport(runID uuid.UUID, source string, rows [][]any, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", source); err != nil {
		return "", fmt.Errorf("rename sheet: %w", err)
	}

	columns := ReportColumns()
	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return "", fmt.Errorf("column name: %w", err)
	}

	if err := f.MergeCell(source, "A1", lastCol+"1"); err != nil {
		return "", fmt.Errorf("merge title: %w", err)
	}
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return "", fmt.Errorf("title style: %w", err)
	}
	if err := f.SetCellStyle(source, "A1", lastCol+"1", titleStyle); err != nil {
		return "", fmt.Errorf("apply title style: %w", err)
	}
	if err := f.SetCellValue(source, "A1", "Source: "+source); err != nil {
		return "", fmt.Errorf("title cell: %w", err)
	}

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(source, "A2", &header); err != nil {
		return "", fmt.Errorf("header row: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return "", fmt.Errorf("row cell: %w", err)
		}
		if err := f.SetSheetRow(source, cell, &row); err != nil {
			return "", fmt.Errorf("data row %d: %w", i+1, err)
		}
	}

	if err := formatPriceColumns(f, source, columns); err != nil {
		return "", err
	}

	// Keep title and header visible while scrolling the data.
	if err := f.SetPanes(source, &excelize.Panes{
		Freeze:      true,
		YSplit:      2,
		TopLeftCell: "A3",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return "", fmt.Errorf("freeze panes: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("stparts_%s.xlsx", runID))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}

func formatPriceColumns(f *excelize.File, sheet string, columns []string) error {
	numFmt := "#,##0.00"
	priceStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("price style: %w", err)
	}
	for i, col := range columns {
		if !strings.HasPrefix(col, "price") {
			continue
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("price column name: %w", err)
		}
		if err := f.SetColStyle(sheet, name, priceStyle); err != nil {
			return fmt.Errorf("price column style: %w", err)
		}
		if err := f.SetColWidth(sheet, name, name, 12); err != nil {
			return fmt.Errorf("price column width: %w", err)
		}
	}
	return nil
}
