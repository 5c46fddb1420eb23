package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bradleyqms/sales-report/internal/config"
	"github.com/bradleyqms/sales-report/internal/runner"
	"github.com/bradleyqms/sales-report/internal/server"
)

var (
	port    = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode = flag.Bool("dev", false, "开发模式")
	dataDir = flag.String("dataDir", "", "QRY 提取文件目录 (覆盖配置文件)")
	runOnce = flag.Bool("once", false, "只执行一次报表生成后退出，不启动服务")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  Sales Report - 销售管理报表生成工具")
	fmt.Println("==========================================")

	// .env 仅用于本地开发时注入 EUR_TO_USD 等覆盖项
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("加载 .env 失败: %v", err)
	}

	// 加载配置
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.ExtractsDir = *dataDir
	}

	// 确保输出目录存在
	outputDir, err := config.EnsureOutputDir(cfg)
	if err != nil {
		log.Printf("创建输出目录失败: %v", err)
	} else {
		fmt.Printf("输出目录: %s\n", outputDir)
	}

	if *runOnce {
		runAndExit(cfg)
		return
	}

	// 创建服务器
	srv := server.NewServer(cfg)

	// 启动服务器
	go func() {
		fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
		if err := srv.Run(); err != nil {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	fmt.Printf("触发生成: POST http://localhost:%d/api/run\n", cfg.Server.Port)
	fmt.Println("\n按 Ctrl+C 停止服务...")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n服务已停止")
}

// runAndExit 命令行单次生成，便于定时任务调用
func runAndExit(cfg *config.AppConfig) {
	result, err := runner.New(cfg).Run("", time.Now())
	if err != nil {
		log.Fatalf("报表生成失败: %v", err)
	}

	fmt.Printf("处理记录数: %d\n", result.RecordCount)
	for _, v := range result.Variants {
		if v.Err != "" {
			fmt.Printf("变体 %s 失败: %s\n", v.Name, v.Err)
			continue
		}
		fmt.Printf("变体 %s: %d 行 (%s)\n", v.Name, len(v.Items), v.Unit)
	}
	if len(result.Unmapped) > 0 {
		fmt.Printf("未命中映射实体: %d 个\n", len(result.Unmapped))
	}
	for _, f := range result.OutputFiles {
		fmt.Printf("已导出: %s\n", f)
	}
}
