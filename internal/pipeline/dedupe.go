package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/truthguardian/crawler/internal/models"
	"github.com/truthguardian/crawler/internal/storage"
	"github.com/truthguardian/crawler/internal/utils"
)

// DuplicateFilter 去重阶段
// 内存指纹集合是快路径缓存,每轮采集开始时清空;存储层按自然ID的检查是权威慢路径
// 存储检查失败按"非重复"放行,自然ID唯一索引是最终防线
type DuplicateFilter struct {
	store storage.Store

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDuplicateFilter 创建去重阶段
func NewDuplicateFilter(store storage.Store) *DuplicateFilter {
	return &DuplicateFilter{
		store: store,
		seen:  make(map[string]struct{}),
	}
}

// Name 实现Stage接口
func (f *DuplicateFilter) Name() string { return "duplicate_filter" }

// Reset 清空本轮指纹集合
func (f *DuplicateFilter) Reset() {
	f.mu.Lock()
	f.seen = make(map[string]struct{})
	f.mu.Unlock()
}

// Process 实现Stage接口
func (f *DuplicateFilter) Process(ctx context.Context, item models.Item) models.StageResult {
	fp := fingerprint(item)

	f.mu.Lock()
	if _, dup := f.seen[fp]; dup {
		f.mu.Unlock()
		return models.Drop("重复数据(本轮指纹)")
	}
	f.mu.Unlock()

	// 慢路径: 查询存储层
	exists, err := f.store.Exists(ctx, item.Kind(), item.NaturalID())
	if err != nil {
		// 存储不可达时放行,由存储层唯一约束兜底
		utils.Warnf("去重检查失败,按非重复处理 %s: %v", item.Describe(), err)
		exists = false
	}

	f.mu.Lock()
	f.seen[fp] = struct{}{}
	f.mu.Unlock()

	if exists {
		return models.Drop("重复数据(已入库)")
	}
	return models.Pass()
}

// fingerprint 按类型生成内容指纹
// 输入构造固定,字段顺序不同的内容产生不同指纹
func fingerprint(item models.Item) string {
	switch it := item.(type) {
	case *models.NewsItem:
		return utils.GenerateID(fmt.Sprintf("%s|%s", it.URL, it.Title), "fp")
	case *models.RumorItem:
		return utils.GenerateID(fmt.Sprintf("%s|%s", it.Title, truncateRunes(it.Content, 100)), "fp")
	case *models.SocialPost:
		return utils.GenerateID(fmt.Sprintf("%s|%s|%s", it.Platform, it.UserID, truncateRunes(it.Content, 100)), "fp")
	default:
		return utils.GenerateID(item.NaturalID(), "fp")
	}
}

// truncateRunes 按字符数截断
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
