package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/bradleyqms/sales-report/internal/config"
	"github.com/bradleyqms/sales-report/internal/ingest"
	"github.com/bradleyqms/sales-report/internal/model"
	"github.com/bradleyqms/sales-report/internal/resolver"
)

var (
	dataDir   = flag.String("dataDir", "", "QRY 提取文件目录 (覆盖配置文件)")
	mapFile   = flag.String("mapping", "", "映射表文件 (覆盖配置文件)")
	suggest   = flag.Bool("suggest", false, "对未命中实体给出近似映射候选")
	threshold = flag.Float64("threshold", 0.6, "候选相似度下限 (0-1)")
)

// mapdiag 扫描提取文件并列出未命中映射的实体，
// 辅助维护映射表；生产路径不做任何模糊匹配。
func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("加载 .env 失败: %v", err)
	}

	cfg, _, err := config.LoadConfigWithInfo()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
	}
	if *dataDir != "" {
		cfg.Data.ExtractsDir = *dataDir
	}
	if *mapFile != "" {
		cfg.Data.MappingFile = *mapFile
	}

	records, err := ingest.ReadDir(cfg.Data.ExtractsDir)
	if err != nil {
		log.Fatalf("读取提取文件失败: %v", err)
	}
	table, err := resolver.LoadMappingTable(cfg.Data.MappingFile)
	if err != nil {
		log.Fatalf("读取映射表失败: %v", err)
	}

	_, ledger := resolver.New(table).Resolve(records)

	fmt.Printf("记录数: %d, 映射条目数: %d\n", len(records), len(table.Entries))
	if ledger.Len() == 0 {
		fmt.Println("所有实体均已命中映射")
		return
	}

	fmt.Printf("\n未命中映射实体 (%d 个):\n", ledger.Len())
	for _, e := range ledger.Entries() {
		fmt.Printf("  [%s] %-40s 出现 %d 次", e.Type, e.Name, e.Count)
		if !e.FirstSeen.IsZero() {
			fmt.Printf("  %s ~ %s", e.FirstSeen.Format("2006-01-02"), e.LastSeen.Format("2006-01-02"))
		}
		fmt.Println()

		if *suggest {
			for _, c := range suggestCandidates(e, table, *threshold) {
				fmt.Printf("      候选: %-40s 相似度 %.2f\n", c.key, c.score)
			}
		}
	}
}

type candidate struct {
	key   string
	score float64
}

// suggestCandidates 在同路径的映射键里找近似项，按相似度降序取前三
func suggestCandidates(e *model.LedgerEntry, table *model.MappingTable, threshold float64) []candidate {
	target := normalize(e.Name)
	seen := make(map[string]bool)
	var out []candidate

	for _, entry := range table.Entries {
		key := entry.CustomerName
		if e.Type == model.EntityTypeEmployee {
			key = entry.SalesEmployee
		}
		key = strings.TrimSpace(key)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		if score := similarity(target, normalize(key)); score >= threshold {
			out = append(out, candidate{key: key, score: score})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].key < out[j].key
	})
	if len(out) > 3 {
		out = out[:3]
	}
	return out
}

// normalize 去掉大小写与标点差异，只留字母数字
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// similarity 2*LCS/(len(a)+len(b))，与常见序列相似度口径一致
func similarity(a, b string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return 2 * float64(prev[len(b)]) / float64(len(a)+len(b))
}
