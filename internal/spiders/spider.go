package spiders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/truthguardian/crawler/internal/config"
	"github.com/truthguardian/crawler/internal/models"
)

// EmitFunc 爬虫产出数据项的回调,由调用方接入处理管道
type EmitFunc func(ctx context.Context, item models.Item)

// Spider 站点爬虫统一接口
// Crawl阻塞执行一轮完整采集,单个页面失败记日志后跳过,
// 只有无法继续的错误(如登录失败)才返回error
type Spider interface {
	// Name 返回爬虫注册名
	Name() string

	// Crawl 执行一轮采集,产出的数据项通过emit交给管道
	Crawl(ctx context.Context, emit EmitFunc) error
}

// Factory 爬虫构造函数
type Factory func(cfg *config.Config) Spider

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register 注册爬虫构造函数,由各爬虫文件的init调用
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("爬虫重复注册: %s", name))
	}
	registry[name] = factory
}

// New 按名称创建爬虫实例
func New(name string, cfg *config.Config) (Spider, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("未知的爬虫: %s (可用: %s)", name, strings.Join(Names(), ", "))
	}
	return factory(cfg), nil
}

// Names 返回所有已注册的爬虫名称(有序)
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// generateSummary 生成摘要: 截取前maxLen个字符,回退到最后一个句号保持句子完整
func generateSummary(content string, maxLen int) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= maxLen {
		return string(runes)
	}
	summary := runes[:maxLen]
	if idx := lastIndexRune(summary, '。'); idx > 0 {
		summary = summary[:idx+1]
	}
	return string(summary)
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
