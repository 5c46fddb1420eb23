package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/bradleyqms/sales-report/internal/model"
)

// WriteCSV 写出 CSV 格式，空行不进 CSV
func WriteCSV(path string, layout Layout, items []model.LineItem) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(layout.Headers()); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range items {
		if items[i].Kind == model.RowSpacer {
			continue
		}
		if err := w.Write(layout.CSVRow(&items[i])); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
