package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
)

// CrawlReport 单轮采集的运行报告
type CrawlReport struct {
	Spider    string    `json:"spider"`     // 爬虫名称
	StartTime time.Time `json:"start_time"` // 开始时间
	EndTime   time.Time `json:"end_time"`   // 结束时间
	Duration  float64   `json:"duration"`   // 耗时(秒)
	Emitted   int       `json:"emitted"`    // 产出数据项
	Stored    int       `json:"stored"`     // 入库数量
	Dropped   int       `json:"dropped"`    // 去重/过滤丢弃
	Failed    int       `json:"failed"`     // 管道失败
}

// Reporter 采集报告生成器,每轮采集结束后落盘一份JSON报告
type Reporter struct {
	outputDir string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// GenerateReport 生成本轮采集报告
func (r *Reporter) GenerateReport(report CrawlReport) error {
	reportsDir := filepath.Join(r.outputDir, "reports")
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	filename := fmt.Sprintf("crawl_%s_%s.json",
		report.Spider, report.EndTime.Format("20060102_150405"))

	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}

	path := filepath.Join(reportsDir, filename)
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Infof("✅ 报告已生成: %s", path)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
