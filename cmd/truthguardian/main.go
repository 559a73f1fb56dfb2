package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/truthguardian/crawler/internal/config"
	"github.com/truthguardian/crawler/internal/manager"
	"github.com/truthguardian/crawler/internal/models"
	"github.com/truthguardian/crawler/internal/pipeline"
	"github.com/truthguardian/crawler/internal/processor"
	"github.com/truthguardian/crawler/internal/spiders"
	"github.com/truthguardian/crawler/internal/storage"
	"github.com/truthguardian/crawler/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// crawl参数
	spiderName  string
	memoryStore bool

	// process参数
	batchSize    int
	showProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "truthguardian",
	Short: "谣言监控数据采集平台",
	Long: `TruthGuardian - 谣言监控数据采集平台 (Go版本)

从新闻站点、政府网站、辟谣平台和社交媒体采集疫情相关信息,
经清洗、去重后入库,并支持离线批量处理(摘要、标签、推荐级别)。

常用命令:
  # 运行单个爬虫
  truthguardian crawl --spider news

  # 启动爬虫管理器(进程隔离 + 定时调度)
  truthguardian manage

  # 批量处理已入库的未处理数据
  truthguardian process

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      cfg.Logging.Level,
			LogDir:     cfg.Logging.LogDir,
			MaxSize:    cfg.Logging.Rotation.MaxSize,
			MaxBackups: cfg.Logging.Rotation.MaxBackups,
			MaxAge:     cfg.Logging.Rotation.MaxAge,
			Compress:   cfg.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "运行单个爬虫并把采集结果送入处理管道",
	RunE: func(cmd *cobra.Command, args []string) error {
		if spiderName == "" {
			return fmt.Errorf("必须通过 --spider 指定爬虫,可用: %s", strings.Join(spiders.Names(), ", "))
		}

		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		spider, err := spiders.New(spiderName, cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		pipe := pipeline.NewDefault(store)

		// 统计各阶段结果
		var emitted, stored, dropped, failed int
		emit := func(ctx context.Context, item models.Item) {
			emitted++
			result := pipe.Run(ctx, item)
			switch {
			case result.Passed():
				stored++
			case result.Dropped():
				dropped++
			case result.Failed():
				failed++
			}
		}

		utils.Infof("🕷️  启动爬虫: %s", spiderName)
		startTime := time.Now()
		if err := spider.Crawl(ctx, emit); err != nil {
			return fmt.Errorf("爬虫 %s 执行失败: %w", spiderName, err)
		}
		endTime := time.Now()

		fmt.Println("\n==================================================")
		fmt.Printf("📊 采集统计 [%s]\n", spiderName)
		fmt.Println("==================================================")
		fmt.Printf("✅ 产出数据项: %d\n", emitted)
		fmt.Printf("✅ 入库: %d\n", stored)
		fmt.Printf("⏭️  丢弃(去重/过滤): %d\n", dropped)
		fmt.Printf("❌ 失败: %d\n", failed)
		fmt.Printf("⏱️  耗时: %.2f秒\n", endTime.Sub(startTime).Seconds())
		fmt.Println("==================================================")

		reporter := utils.NewReporter(cfg.Logging.LogDir)
		if err := reporter.GenerateReport(utils.CrawlReport{
			Spider:    spiderName,
			StartTime: startTime,
			EndTime:   endTime,
			Duration:  endTime.Sub(startTime).Seconds(),
			Emitted:   emitted,
			Stored:    stored,
			Dropped:   dropped,
			Failed:    failed,
		}); err != nil {
			utils.Warnf("生成采集报告失败: %v", err)
		}

		utils.Info("✨ 采集任务完成!")
		return nil
	},
}

var manageCmd = &cobra.Command{
	Use:   "manage",
	Short: "启动爬虫管理器,负责进程隔离、崩溃重启和定时调度",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		m := manager.NewManager(cfg, configFile)
		utils.Infof("🚀 爬虫管理器已启动,受管爬虫: %s", strings.Join(spiders.Names(), ", "))
		return m.Run(ctx)
	},
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "批量处理未处理数据: 摘要提取、标签生成、关键词匹配、推荐级别",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		p := processor.New(store, cfg)
		p.ShowProgress = showProgress

		counts, err := p.ProcessAll(ctx, batchSize)
		if err != nil {
			return fmt.Errorf("批量处理失败: %w", err)
		}

		fmt.Println("\n==================================================")
		fmt.Println("📊 处理统计")
		fmt.Println("==================================================")
		fmt.Printf("✅ 新闻: %d\n", counts.News)
		fmt.Printf("✅ 谣言: %d\n", counts.Rumor)
		fmt.Printf("✅ 社交媒体: %d\n", counts.Social)
		fmt.Printf("✅ 总计: %d\n", counts.Total())
		fmt.Println("==================================================")

		utils.Info("✨ 批量处理完成!")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "显示已注册爬虫和当前配置概要",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		fmt.Println("已注册爬虫:")
		for _, name := range spiders.Names() {
			fmt.Printf("  • %s\n", name)
		}

		fmt.Println("\n配置概要:")
		fmt.Printf("  新闻源: %d个, 政府源: %d个, 辟谣源: %d个\n",
			len(cfg.Sources.News), len(cfg.Sources.Government), len(cfg.Sources.Rumor))
		fmt.Printf("  监控关键词: %d个 (严格模式: %v)\n", len(cfg.Keywords.Words), cfg.Keywords.Strict)
		fmt.Printf("  数据库: %s\n", utils.RedactDSN(cfg.Database.DSN))
		fmt.Printf("  每日全量调度: %s\n", cfg.Schedule.DailyAt)
		fmt.Printf("  监控间隔: %d秒, 停止宽限期: %d秒\n",
			cfg.Manager.MonitorInterval, cfg.Manager.StopGrace)
		fmt.Printf("  处理批大小: %d, 摘要长度: %d, 标签数: %d\n",
			cfg.Processor.BatchSize, cfg.Processor.SummaryMaxLength, cfg.Processor.TagsTopK)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("TruthGuardian %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 谣言监控数据采集平台")
	},
}

// openStore 按配置打开存储后端
// --memory用于无数据库环境下的试运行
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if memoryStore {
		utils.Warn("使用内存存储,进程退出后数据丢失")
		return storage.NewMemory(), nil
	}

	store, err := storage.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}
	return store, nil
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// crawl参数
	crawlCmd.Flags().StringVarP(&spiderName, "spider", "s", "", "爬虫名称 (必需)")
	crawlCmd.Flags().BoolVar(&memoryStore, "memory", false, "使用内存存储代替数据库")

	// process参数
	processCmd.Flags().IntVar(&batchSize, "batch-size", 0, "单批处理记录数,0表示使用配置值")
	processCmd.Flags().BoolVar(&showProgress, "progress", true, "显示进度条")
	processCmd.Flags().BoolVar(&memoryStore, "memory", false, "使用内存存储代替数据库")

	// 添加子命令
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(manageCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
