package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/bradleyqms/sales-report/internal/model"
)

const sheetName = "Management Report"

// WriteXLSX 写出带样式的 XLSX 报表
// 表头深蓝白字，合计行浅蓝，总计行加深一档
func WriteXLSX(path string, layout Layout, items []model.LineItem) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create total style: %w", err)
	}
	grandStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"B4C7E7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create grand total style: %w", err)
	}

	headers := layout.Headers()
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}
	endCol, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheetName, "A1", endCol, headerStyle)

	rowNum := 2
	for i := range items {
		if items[i].Kind == model.RowSpacer {
			rowNum++
			continue
		}

		for j, cell := range layout.Row(&items[i]) {
			name, _ := excelize.CoordinatesToCellName(j+1, rowNum)
			f.SetCellValue(sheetName, name, cell)
		}

		start, _ := excelize.CoordinatesToCellName(1, rowNum)
		end, _ := excelize.CoordinatesToCellName(len(headers), rowNum)
		switch items[i].Kind {
		case model.RowGrandTotal:
			f.SetCellStyle(sheetName, start, end, grandStyle)
		case model.RowSectionTotal:
			f.SetCellStyle(sheetName, start, end, totalStyle)
		}
		rowNum++
	}

	f.SetColWidth(sheetName, "A", "A", 35)
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	f.SetColWidth(sheetName, "B", lastCol, 14)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save xlsx file: %w", err)
	}
	return nil
}
