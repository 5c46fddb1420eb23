package resolver

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bradleyqms/sales-report/internal/model"
)

// LoadMappingTable 按扩展名加载映射文件，支持 CSV 与 XLSX
func LoadMappingTable(path string) (*model.MappingTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadMappingCSV(path)
	case ".xlsx":
		return loadMappingXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported mapping file format: %s", path)
	}
}

// loadMappingCSV 读取 CSV 映射文件
func loadMappingCSV(path string) (*model.MappingTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping csv: %w", err)
	}

	return buildMappingTable(rows)
}

// loadMappingXLSX 读取 XLSX 映射文件的第一个工作表
func loadMappingXLSX(path string) (*model.MappingTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("mapping file has no sheets: %s", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping sheet: %w", err)
	}

	return buildMappingTable(rows)
}

// buildMappingTable 从表头+数据行构建映射表，并检测缺失列
func buildMappingTable(rows [][]string) (*model.MappingTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("mapping file is empty")
	}

	colIndex := make(map[string]int)
	for i, name := range rows[0] {
		colIndex[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range model.ExpectedMappingColumns {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		log.Printf("映射文件缺少列: %v，对应维度将为空", missing)
	}

	cell := func(row []string, col string) string {
		idx, ok := colIndex[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	table := &model.MappingTable{MissingColumns: missing}
	for _, row := range rows[1:] {
		entry := model.MappingEntry{
			SalesEmployee: cell(row, model.ColSalesEmployee),
			CustomerName:  cell(row, model.ColCustomerName),
			MarketGroup:   cell(row, model.ColMarketGroup),
			Region:        cell(row, model.ColRegion),
			ChannelLevel:  cell(row, model.ColChannelLevel),
			CompanyGroup:  cell(row, model.ColCompanyGroup),
			Owner:         cell(row, model.ColSalesEmployeeCleaned),
		}
		if entry.SalesEmployee == "" && entry.CustomerName == "" {
			continue
		}
		table.Entries = append(table.Entries, entry)
	}

	return table, nil
}
