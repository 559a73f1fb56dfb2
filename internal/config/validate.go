package config

import (
	"fmt"
	"time"

	"github.com/truthguardian/crawler/internal/utils"
)

// Validate 检查配置的合法性,启动前调用
// 配置错误应该在进程启动时立即暴露,而不是在采集中途
func (c *Config) Validate() error {
	if c.Crawl.Timeout < 0 {
		return fmt.Errorf("crawl.timeout 不能为负数: %d", c.Crawl.Timeout)
	}
	if c.Crawl.RetryTimes < 0 {
		return fmt.Errorf("crawl.retry_times 不能为负数: %d", c.Crawl.RetryTimes)
	}
	if c.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages 不能为负数: %d", c.Crawl.MaxPages)
	}

	if c.Schedule.DailyAt != "" {
		if _, err := time.Parse("15:04", c.Schedule.DailyAt); err != nil {
			return fmt.Errorf("schedule.daily_at 格式无效(应为HH:MM): %s", c.Schedule.DailyAt)
		}
	}
	for spider, hours := range c.Schedule.Hours {
		for _, hour := range hours {
			if hour < 0 || hour > 23 {
				return fmt.Errorf("schedule.hours.%s 包含无效小时: %d", spider, hour)
			}
		}
	}

	if c.Manager.MaxMemoryUsage < 0 || c.Manager.MaxMemoryUsage > 100 {
		return fmt.Errorf("manager.max_memory_usage 必须在0-100之间: %.1f", c.Manager.MaxMemoryUsage)
	}
	if c.Manager.MaxCPUUsage < 0 || c.Manager.MaxCPUUsage > 100 {
		return fmt.Errorf("manager.max_cpu_usage 必须在0-100之间: %.1f", c.Manager.MaxCPUUsage)
	}

	if c.Processor.BatchSize < 0 {
		return fmt.Errorf("processor.batch_size 不能为负数: %d", c.Processor.BatchSize)
	}

	if err := validateSources("sources.news", c.Sources.News); err != nil {
		return err
	}
	if err := validateSources("sources.government", c.Sources.Government); err != nil {
		return err
	}
	if err := validateSources("sources.rumor", c.Sources.Rumor); err != nil {
		return err
	}

	return nil
}

// validateSources 检查站点源配置: 名称、域名和入口URL缺一不可
func validateSources(section string, sources []NewsSource) error {
	for i, src := range sources {
		if src.Name == "" {
			return fmt.Errorf("%s[%d] 缺少name", section, i)
		}
		if src.Domain == "" {
			return fmt.Errorf("%s[%d] (%s) 缺少domain", section, i, src.Name)
		}
		if len(src.StartURLs) == 0 {
			return fmt.Errorf("%s[%d] (%s) 缺少start_urls", section, i, src.Name)
		}
		for _, startURL := range src.StartURLs {
			if err := utils.ValidateURL(startURL); err != nil {
				return fmt.Errorf("%s[%d] (%s) 入口URL无效 %s: %w", section, i, src.Name, startURL, err)
			}
		}
	}
	return nil
}
