package models

import "time"

// CrawlerState 爬虫运行状态
type CrawlerState string

const (
	StateStopped CrawlerState = "stopped" // 已停止
	StateRunning CrawlerState = "running" // 运行中
)

// CrawlerStatus 单个爬虫的运行时状态
// 由管理器在初始化时为每个注册爬虫创建,仅管理器的调度/监控循环修改
// 进程重启后重新生成,不做持久化(运维遥测数据,非业务状态)
type CrawlerStatus struct {
	Status       CrawlerState `json:"status"`        // 当前状态
	LastStart    *time.Time   `json:"last_start"`    // 最近启动时间
	LastEnd      *time.Time   `json:"last_end"`      // 最近结束时间
	ErrorCount   int          `json:"error_count"`   // 错误计数,显式重启时归零
	ItemsScraped int          `json:"items_scraped"` // 已采集数据项数量
}

// CrawlTask 爬虫任务队列中的一项
type CrawlTask struct {
	ID       string    `json:"id"`       // 任务唯一ID (UUID)
	Spider   string    `json:"spider"`   // 爬虫名称
	Priority int       `json:"priority"` // 优先级(0-9),数字越大优先级越高
	AddedAt  time.Time `json:"added_at"` // 入队时间
}
