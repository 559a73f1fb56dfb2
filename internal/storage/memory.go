package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/truthguardian/crawler/internal/models"
)

// Memory 内存存储实现
// 用于测试和演练运行,语义与Postgres实现保持一致
type Memory struct {
	mu     sync.RWMutex
	news   map[string]*models.NewsRecord
	rumors map[string]*models.RumorRecord
	social map[string]*models.SocialRecord
	logs   []*models.ProcessLog
	nextID int64
}

var _ Store = (*Memory)(nil)

// NewMemory 创建内存存储
func NewMemory() *Memory {
	return &Memory{
		news:   make(map[string]*models.NewsRecord),
		rumors: make(map[string]*models.RumorRecord),
		social: make(map[string]*models.SocialRecord),
	}
}

// Exists 实现Store接口
func (m *Memory) Exists(_ context.Context, kind models.ItemKind, naturalID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch kind {
	case models.KindNews:
		_, ok := m.news[naturalID]
		return ok, nil
	case models.KindRumor:
		_, ok := m.rumors[naturalID]
		return ok, nil
	case models.KindSocial:
		_, ok := m.social[naturalID]
		return ok, nil
	default:
		return false, fmt.Errorf("未知的数据类型: %s", kind)
	}
}

// Upsert 实现Store接口
func (m *Memory) Upsert(_ context.Context, item models.Item) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	switch it := item.(type) {
	case *models.NewsItem:
		if existing, ok := m.news[it.NewsID]; ok {
			mergeNewsRecord(existing, newsRecordFromItem(it, now))
			return existing.ID, false, nil
		}
		record := newsRecordFromItem(it, now)
		m.nextID++
		record.ID = m.nextID
		m.news[it.NewsID] = record
		return record.ID, true, nil

	case *models.RumorItem:
		if existing, ok := m.rumors[it.RumorID]; ok {
			mergeRumorRecord(existing, rumorRecordFromItem(it, now))
			return existing.ID, false, nil
		}
		record := rumorRecordFromItem(it, now)
		m.nextID++
		record.ID = m.nextID
		m.rumors[it.RumorID] = record
		return record.ID, true, nil

	case *models.SocialPost:
		if existing, ok := m.social[it.PostID]; ok {
			mergeSocialRecord(existing, socialRecordFromItem(it, now))
			return existing.ID, false, nil
		}
		record := socialRecordFromItem(it, now)
		m.nextID++
		record.ID = m.nextID
		m.social[it.PostID] = record
		return record.ID, true, nil

	default:
		return 0, false, fmt.Errorf("未知的数据项类型: %T", item)
	}
}

// AppendLog 实现Store接口
func (m *Memory) AppendLog(_ context.Context, entry *models.ProcessLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *entry
	m.nextID++
	clone.ID = m.nextID
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	m.logs = append(m.logs, &clone)
	return nil
}

// ListUnprocessedNews 实现Store接口
func (m *Memory) ListUnprocessedNews(_ context.Context, limit int) ([]*models.NewsRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []*models.NewsRecord
	for _, r := range m.news {
		if !r.Processed {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return cloneSlice(records), nil
}

// ListUnprocessedRumors 实现Store接口
func (m *Memory) ListUnprocessedRumors(_ context.Context, limit int) ([]*models.RumorRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []*models.RumorRecord
	for _, r := range m.rumors {
		if !r.Processed {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return cloneSlice(records), nil
}

// ListUnprocessedSocial 实现Store接口
func (m *Memory) ListUnprocessedSocial(_ context.Context, limit int) ([]*models.SocialRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []*models.SocialRecord
	for _, r := range m.social {
		if !r.Processed {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return cloneSlice(records), nil
}

// SaveProcessedNews 实现Store接口
func (m *Memory) SaveProcessedNews(ctx context.Context, records []*models.NewsRecord, logs []*models.ProcessLog) error {
	m.mu.Lock()
	for _, r := range records {
		clone := *r
		m.news[r.NewsID] = &clone
	}
	m.mu.Unlock()

	for _, entry := range logs {
		if err := m.AppendLog(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// SaveProcessedRumors 实现Store接口
func (m *Memory) SaveProcessedRumors(ctx context.Context, records []*models.RumorRecord, logs []*models.ProcessLog) error {
	m.mu.Lock()
	for _, r := range records {
		clone := *r
		m.rumors[r.RumorID] = &clone
	}
	m.mu.Unlock()

	for _, entry := range logs {
		if err := m.AppendLog(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// SaveProcessedSocial 实现Store接口
func (m *Memory) SaveProcessedSocial(ctx context.Context, records []*models.SocialRecord, logs []*models.ProcessLog) error {
	m.mu.Lock()
	for _, r := range records {
		clone := *r
		m.social[r.PostID] = &clone
	}
	m.mu.Unlock()

	for _, entry := range logs {
		if err := m.AppendLog(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// Close 实现Store接口
func (m *Memory) Close() {}

// GetNews 按自然ID读取新闻记录(测试辅助)
func (m *Memory) GetNews(naturalID string) (*models.NewsRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.news[naturalID]
	if !ok {
		return nil, false
	}
	clone := *r
	return &clone, true
}

// GetRumor 按自然ID读取谣言记录(测试辅助)
func (m *Memory) GetRumor(naturalID string) (*models.RumorRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rumors[naturalID]
	if !ok {
		return nil, false
	}
	clone := *r
	return &clone, true
}

// GetSocial 按自然ID读取社交记录(测试辅助)
func (m *Memory) GetSocial(naturalID string) (*models.SocialRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.social[naturalID]
	if !ok {
		return nil, false
	}
	clone := *r
	return &clone, true
}

// Logs 返回全部处理日志的副本(测试辅助)
func (m *Memory) Logs() []*models.ProcessLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneSlice(m.logs)
}

func cloneSlice[T any](in []*T) []*T {
	out := make([]*T, len(in))
	for i, v := range in {
		clone := *v
		out[i] = &clone
	}
	return out
}

// mergeNewsRecord 把新采集的非空字段合并进已有记录,刷新crawl_time
func mergeNewsRecord(dst, src *models.NewsRecord) {
	mergeString(&dst.Title, src.Title)
	mergeString(&dst.Content, src.Content)
	mergeString(&dst.Summary, src.Summary)
	mergeString(&dst.Source, src.Source)
	mergeString(&dst.URL, src.URL)
	mergeString(&dst.Author, src.Author)
	mergeString(&dst.Category, src.Category)
	mergeString(&dst.Tags, src.Tags)
	mergeString(&dst.Media, src.Media)
	mergeString(&dst.SourceType, src.SourceType)
	mergeInt(&dst.RecommendationLevel, src.RecommendationLevel)
	mergeFloat(&dst.KeywordMatch, src.KeywordMatch)
	if !src.PubDate.IsZero() {
		dst.PubDate = src.PubDate
	}
	dst.CrawlTime = src.CrawlTime
}

// mergeRumorRecord 谣言记录合并
func mergeRumorRecord(dst, src *models.RumorRecord) {
	mergeString(&dst.Title, src.Title)
	mergeString(&dst.Content, src.Content)
	mergeString(&dst.Source, src.Source)
	mergeString(&dst.Refutation, src.Refutation)
	mergeString(&dst.RefutationSource, src.RefutationSource)
	mergeString(&dst.URL, src.URL)
	mergeString(&dst.Category, src.Category)
	mergeString(&dst.Tags, src.Tags)
	mergeString(&dst.Media, src.Media)
	mergeString(&dst.SourceType, src.SourceType)
	mergeInt(&dst.SpreadLevel, src.SpreadLevel)
	mergeInt(&dst.HarmLevel, src.HarmLevel)
	if !src.PubDate.IsZero() {
		dst.PubDate = src.PubDate
	}
	dst.CrawlTime = src.CrawlTime
}

// mergeSocialRecord 社交记录合并
func mergeSocialRecord(dst, src *models.SocialRecord) {
	mergeString(&dst.Platform, src.Platform)
	mergeString(&dst.Content, src.Content)
	mergeString(&dst.UserID, src.UserID)
	mergeString(&dst.Username, src.Username)
	mergeString(&dst.VerifiedType, src.VerifiedType)
	mergeString(&dst.URL, src.URL)
	mergeString(&dst.Media, src.Media)
	mergeString(&dst.Tags, src.Tags)
	mergeString(&dst.Topics, src.Topics)
	mergeString(&dst.Location, src.Location)
	mergeString(&dst.ContentType, src.ContentType)
	mergeInt(&dst.Shares, src.Shares)
	mergeInt(&dst.Comments, src.Comments)
	mergeInt(&dst.Likes, src.Likes)
	mergeInt(&dst.RecommendationLevel, src.RecommendationLevel)
	mergeFloat(&dst.KeywordMatch, src.KeywordMatch)
	if !src.PubDate.IsZero() {
		dst.PubDate = src.PubDate
	}
	dst.CrawlTime = src.CrawlTime
}
