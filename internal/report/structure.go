package report

import (
	"encoding/json"
	"os"

	"github.com/bradleyqms/sales-report/internal/model"
)

// LoadStructure 加载声明式报表结构并校验节点类型
// 合计节点只能引用此前已出现的小节，不允许前向引用
func LoadStructure(path string) (*model.ReportStructure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Reason: err.Error()}
	}

	var structure model.ReportStructure
	if err := json.Unmarshal(data, &structure); err != nil {
		return nil, &ConfigError{Path: path, Reason: "invalid json: " + err.Error()}
	}

	if err := validateStructure(path, &structure); err != nil {
		return nil, err
	}
	return &structure, nil
}

func validateStructure(path string, structure *model.ReportStructure) error {
	all := make(map[string]bool)
	for i := range structure.Sections {
		all[structure.Sections[i].Title] = true
	}

	seen := make(map[string]bool)
	for i := range structure.Sections {
		node := &structure.Sections[i]
		kind, err := node.Kind()
		if err != nil {
			return &ConfigError{Path: path, Reason: err.Error()}
		}

		if kind == model.SectionLeafGroup && node.FallbackCount() > 1 {
			return &ConfigError{Path: path, Reason: "section " + node.Title + ": multiple fallback items"}
		}
		if kind == model.SectionComponentTotal {
			// 引用文件里更靠后的小节是前向引用，直接拒绝；
			// 引用根本不存在的标题在聚合时按零处理
			for _, ref := range node.Components {
				if all[ref] && !seen[ref] {
					return &ConfigError{Path: path, Reason: "section " + node.Title + ": forward reference to " + ref}
				}
			}
		}
		seen[node.Title] = true
	}
	return nil
}
