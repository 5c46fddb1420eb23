// Package ingest 读取 SAP 提取的 QRY 文件并拼成统一的原始记录集。
// 文件名格式: QRY_<类别>[_<OPEN|TOTAL>]_<时段>_<区域>.csv，
// 每行形如 "实体名=金额"，金额用逗号作小数点。
package ingest

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bradleyqms/sales-report/internal/model"
)

// 区域代号到公司主体的映射
var regionToEntity = map[string]string{
	"Gmbh":   model.EntityGmbH,
	"GmbH":   model.EntityGmbH,
	"CH":     model.EntityAG,
	"Export": model.EntityExport,
	"USA":    model.EntityUSA,
	"UK":     model.EntityUK,
}

// 区域代号到币种的映射
var regionToCurrency = map[string]string{
	"Gmbh":   "EUR",
	"GmbH":   "EUR",
	"CH":     "CHF",
	"Export": "EUR",
	"USA":    "USD",
	"UK":     "GBP",
}

// 折算到欧元的汇率表
var fxRates = map[string]float64{
	"CHF": 1.08,
	"USD": 0.96,
	"GBP": 1.20,
	"EUR": 1.00,
}

// fileMeta 从文件名解析出的元信息
type fileMeta struct {
	category  string
	timeframe string
	region    string
}

// parseFileName 解析 QRY 文件名
func parseFileName(name string) fileMeta {
	base := strings.TrimSuffix(strings.TrimPrefix(name, "QRY_"), ".csv")
	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return fileMeta{category: "unknown", timeframe: "unknown", region: "unknown"}
	}

	meta := fileMeta{category: parts[0]}
	if parts[1] == "OPEN" || parts[1] == "TOTAL" {
		meta.category += "_" + parts[1]
		meta.timeframe = parts[2]
		meta.region = strings.Join(parts[3:], "_")
	} else {
		meta.timeframe = parts[1]
		meta.region = strings.Join(parts[2:], "_")
	}
	return meta
}

// employeeRegion 判断该区域的实体名是否为销售员（GmbH/CH 提取按销售员给出）
func employeeRegion(region string) bool {
	lower := strings.ToLower(region)
	return lower == "gmbh" || lower == "ch"
}

// ReadDir 读取目录下全部 QRY 提取文件
// 目录不存在或没有匹配文件时返回空集，不报错
func ReadDir(dir string) ([]model.RawRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("提取目录不存在: %s", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read extracts dir: %w", err)
	}

	loadedAt := time.Now()
	var records []model.RawRecord

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.Contains(name, "QRY") || !strings.HasSuffix(name, ".csv") {
			continue
		}

		recs, err := readFile(filepath.Join(dir, name), parseFileName(name), loadedAt)
		if err != nil {
			log.Printf("读取提取文件失败 %s: %v", name, err)
			continue
		}
		records = append(records, recs...)
	}

	return records, nil
}

// readFile 逐行解析单个提取文件
func readFile(path string, meta fileMeta, loadedAt time.Time) ([]model.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []model.RawRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// 去掉行尾多余的 '='，再按最后一个 '=' 切分
		line = strings.TrimRight(line, "=")
		idx := strings.LastIndex(line, "=")
		if idx < 0 {
			continue
		}

		entityName := line[:idx]
		valueStr := strings.ReplaceAll(line[idx+1:], ",", ".")
		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			log.Printf("无法解析金额 %s: %q", filepath.Base(path), valueStr)
			continue
		}

		records = append(records, buildRecord(entityName, value, meta, loadedAt))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// buildRecord 将一行提取数据转成 RawRecord 并折算欧元
func buildRecord(entityName string, value float64, meta fileMeta, loadedAt time.Time) model.RawRecord {
	rec := model.RawRecord{
		DocType:     meta.category,
		Value:       value,
		PostingDate: loadedAt,
	}

	if employeeRegion(meta.region) {
		rec.SalesEmployee = entityName
	} else {
		// 客户名里可能残留 '='，取最后一段
		if i := strings.LastIndex(entityName, "="); i >= 0 {
			entityName = entityName[i+1:]
		}
		rec.CustomerName = entityName
	}

	if entity, ok := regionToEntity[meta.region]; ok {
		rec.Entity = entity
	} else {
		rec.Entity = meta.region
	}

	if currency, ok := regionToCurrency[meta.region]; ok {
		rec.Currency = currency
	} else {
		rec.Currency = "EUR"
	}

	rate, ok := fxRates[rec.Currency]
	if !ok {
		rate = 1.0
	}
	rec.ValueEUR = value * rate
	if rec.Currency == "USD" {
		rec.ValueUSD = value
	}

	return rec
}
