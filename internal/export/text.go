package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/bradleyqms/sales-report/internal/model"
)

// RenderText 渲染固定列宽的文本报表
// 首列左对齐，数值列右对齐，合计行后跟分隔线
func RenderText(layout Layout, items []model.LineItem) string {
	widths := layout.Widths()
	headers := layout.Headers()

	var b strings.Builder
	headerLine := padRow(headers, widths, true)
	separator := strings.Repeat("-", len(headerLine))
	b.WriteString(headerLine + "\n")
	b.WriteString(separator + "\n")

	for i := range items {
		if items[i].Kind == model.RowSpacer {
			b.WriteString("\n")
			continue
		}
		b.WriteString(padRow(layout.Row(&items[i]), widths, false) + "\n")
		if items[i].IsTotal() {
			b.WriteString(separator + "\n")
		}
	}
	return b.String()
}

// WriteTXT 写出文本格式文件
func WriteTXT(path string, layout Layout, items []model.LineItem) error {
	if err := os.WriteFile(path, []byte(RenderText(layout, items)), 0644); err != nil {
		return fmt.Errorf("failed to write txt file: %w", err)
	}
	return nil
}

// padRow 按列宽拼一行，headerMode 时所有列左对齐
func padRow(cells []string, widths []int, headerMode bool) string {
	var b strings.Builder
	for i, cell := range cells {
		w := 12
		if i < len(widths) {
			w = widths[i]
		}
		if i == 0 || headerMode {
			b.WriteString(fmt.Sprintf("%-*s", w, cell))
		} else {
			b.WriteString(fmt.Sprintf("%*s", w, cell))
		}
	}
	return strings.TrimRight(b.String(), " ")
}
