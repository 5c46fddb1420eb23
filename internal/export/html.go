package export

import (
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/bradleyqms/sales-report/internal/model"
)

// RenderHTML 渲染适合贴进邮件正文的 HTML 表格
// 合计行高亮，空行用占位单元格撑高度
func RenderHTML(layout Layout, items []model.LineItem) string {
	headers := layout.Headers()
	cols := len(headers)

	var b strings.Builder
	b.WriteString("<html>\n<body>\n")
	b.WriteString(`<table border="1" style="border-collapse: collapse; font-family: Arial, sans-serif; font-size: 12px;">` + "\n")

	b.WriteString(`<tr style="background-color: #f0f0f0;">` + "\n")
	for i, h := range headers {
		align := "right"
		if i == 0 {
			align = "left"
		}
		fmt.Fprintf(&b, `<th style="padding: 8px; text-align: %s;">%s</th>`+"\n", align, html.EscapeString(h))
	}
	b.WriteString("</tr>\n")

	for i := range items {
		if items[i].Kind == model.RowSpacer {
			fmt.Fprintf(&b, `<tr><td colspan="%d" style="height: 10px;"></td></tr>`+"\n", cols)
			continue
		}

		bg := "white"
		if items[i].IsTotal() {
			bg = "#e6f3ff"
		}
		fmt.Fprintf(&b, `<tr style="background-color: %s;">`+"\n", bg)
		for j, cell := range layout.Row(&items[i]) {
			if j == 0 {
				fmt.Fprintf(&b, `<td style="padding: 8px;">%s</td>`+"\n", html.EscapeString(cell))
			} else {
				fmt.Fprintf(&b, `<td style="padding: 8px; text-align: right;">%s</td>`+"\n", html.EscapeString(cell))
			}
		}
		b.WriteString("</tr>\n")
	}

	b.WriteString("</table>\n</body>\n</html>\n")
	return b.String()
}

// WriteHTML 写出 HTML 格式文件
func WriteHTML(path string, layout Layout, items []model.LineItem) error {
	if err := os.WriteFile(path, []byte(RenderHTML(layout, items)), 0644); err != nil {
		return fmt.Errorf("failed to write html file: %w", err)
	}
	return nil
}
