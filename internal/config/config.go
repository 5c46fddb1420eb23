package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Report ReportConfig `toml:"report"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据文件配置
type DataConfig struct {
	ExtractsDir   string `toml:"extracts_dir"`    // QRY 提取文件目录
	MappingFile   string `toml:"mapping_file"`    // 实体映射表 (csv 或 xlsx)
	BudgetFile    string `toml:"budget_file"`     // 预算表
	GVLBudgetFile string `toml:"gvl_budget_file"` // GVL 按销售员的预算表
	PriorFile     string `toml:"prior_file"`      // 上年同期表
	GVLPriorFile  string `toml:"gvl_prior_file"`  // GVL 上年同期表
	OutputDir     string `toml:"output_dir"`      // 导出目录
	StructureDir  string `toml:"structure_dir"`   // 报表结构 JSON 目录
}

// ReportConfig 报表业务配置
type ReportConfig struct {
	EURToUSD float64 `toml:"eur_to_usd"` // 欧元转美元汇率
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    18080,
			DevMode: false,
		},
		Data: DataConfig{
			ExtractsDir:   "data/extracts",
			MappingFile:   "data/mappings/entity_mappings.csv",
			BudgetFile:    "data/budget/budget_processed.csv",
			GVLBudgetFile: "data/budget/budget_gvl.csv",
			PriorFile:     "data/prior/prior_sales_processed.csv",
			GVLPriorFile:  "data/prior/prior_sales_gvl.csv",
			OutputDir:     "data/outputs",
			StructureDir:  "configs",
		},
		Report: ReportConfig{
			EURToUSD: 1.07,
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{}
	config := DefaultConfig()

	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(config)
			return config, info, nil
		}
		return nil, info, err
	}

	info.PortSpecified = isPortSpecifiedInToml(data)

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, info, err
	}

	applyEnvOverrides(config)

	return config, info, nil
}

// applyEnvOverrides 环境变量覆盖（配合 .env，用于本地运行）
func applyEnvOverrides(config *AppConfig) {
	if v := os.Getenv("EUR_TO_USD"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil && rate > 0 {
			config.Report.EURToUSD = rate
		}
	}
	if v := os.Getenv("SALESREPORT_OUTPUT_DIR"); v != "" {
		config.Data.OutputDir = v
	}
}

// LoadConfig 从 config.toml 加载配置
// 配置文件位于可执行文件同目录下
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo()
	return config, err
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// EnsureOutputDir 确保导出目录存在
func EnsureOutputDir(config *AppConfig) (string, error) {
	if err := os.MkdirAll(config.Data.OutputDir, 0755); err != nil {
		return "", err
	}
	return config.Data.OutputDir, nil
}
