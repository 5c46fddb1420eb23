package report

import "fmt"

// ConfigError 报表结构配置不可用，属于致命错误
type ConfigError struct {
	Path   string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("report config %s: %s", e.Path, e.Reason)
}

// DataSourceError 必需数据文件不可读，属于致命错误
type DataSourceError struct {
	Path string
	Err  error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source %s: %v", e.Path, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}
