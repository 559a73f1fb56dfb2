package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/truthguardian/crawler/internal/models"
)

// Store 存储协作方接口
// 管道的存储阶段和数据处理器都通过它读写,实现方保证Upsert按自然ID幂等
type Store interface {
	// Exists 按自然ID检查记录是否已存在
	Exists(ctx context.Context, kind models.ItemKind, naturalID string) (bool, error)

	// Upsert 首次出现时插入,重复出现时合并非空字段并刷新crawl_time
	// 返回记录行ID和是否为新插入
	Upsert(ctx context.Context, item models.Item) (id int64, created bool, err error)

	// AppendLog 追加一条处理日志
	AppendLog(ctx context.Context, entry *models.ProcessLog) error

	// ListUnprocessedNews 查询未处理的新闻记录
	ListUnprocessedNews(ctx context.Context, limit int) ([]*models.NewsRecord, error)

	// ListUnprocessedRumors 查询未处理的谣言记录
	ListUnprocessedRumors(ctx context.Context, limit int) ([]*models.RumorRecord, error)

	// ListUnprocessedSocial 查询未处理的社交媒体记录
	ListUnprocessedSocial(ctx context.Context, limit int) ([]*models.SocialRecord, error)

	// SaveProcessedNews 按批提交处理结果,日志随批写入
	SaveProcessedNews(ctx context.Context, records []*models.NewsRecord, logs []*models.ProcessLog) error

	// SaveProcessedRumors 按批提交谣言处理结果
	SaveProcessedRumors(ctx context.Context, records []*models.RumorRecord, logs []*models.ProcessLog) error

	// SaveProcessedSocial 按批提交社交媒体处理结果
	SaveProcessedSocial(ctx context.Context, records []*models.SocialRecord, logs []*models.ProcessLog) error

	// Close 释放底层连接
	Close()
}

// newsRecordFromItem 新闻项目转存储记录
func newsRecordFromItem(item *models.NewsItem, now time.Time) *models.NewsRecord {
	return &models.NewsRecord{
		NewsID:              item.NewsID,
		Title:               item.Title,
		Content:             item.Content,
		Summary:             item.Summary,
		Source:              item.Source,
		URL:                 item.URL,
		PubDate:             item.PubDate,
		CrawlTime:           now,
		Author:              item.Author,
		Category:            item.Category,
		Tags:                models.MarshalList(item.Tags),
		Media:               models.MarshalMedia(item.Media),
		SourceType:          item.SourceType,
		RecommendationLevel: item.RecommendationLevel,
		KeywordMatch:        item.KeywordMatch,
	}
}

// rumorRecordFromItem 谣言项目转存储记录
func rumorRecordFromItem(item *models.RumorItem, now time.Time) *models.RumorRecord {
	return &models.RumorRecord{
		RumorID:          item.RumorID,
		Title:            item.Title,
		Content:          item.Content,
		Source:           item.Source,
		Refutation:       item.Refutation,
		RefutationSource: item.RefutationSource,
		URL:              item.URL,
		PubDate:          item.PubDate,
		CrawlTime:        now,
		Category:         item.Category,
		SpreadLevel:      item.SpreadLevel,
		HarmLevel:        item.HarmLevel,
		Tags:             models.MarshalList(item.Tags),
		Media:            models.MarshalMedia(item.Media),
		SourceType:       item.SourceType,
	}
}

// socialRecordFromItem 社交帖子转存储记录
func socialRecordFromItem(item *models.SocialPost, now time.Time) *models.SocialRecord {
	return &models.SocialRecord{
		PostID:              item.PostID,
		Platform:            item.Platform,
		Content:             item.Content,
		UserID:              item.UserID,
		Username:            item.Username,
		VerifiedType:        item.VerifiedType,
		PubDate:             item.PubDate,
		CrawlTime:           now,
		URL:                 item.URL,
		Shares:              item.Shares,
		Comments:            item.Comments,
		Likes:               item.Likes,
		Media:               models.MarshalMedia(item.Media),
		Tags:                models.MarshalList(item.Tags),
		Topics:              models.MarshalList(item.Topics),
		Location:            item.Location,
		ContentType:         item.ContentType,
		RecommendationLevel: item.RecommendationLevel,
		KeywordMatch:        item.KeywordMatch,
	}
}

// mergeString 非空时覆盖目标字段
func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// mergeInt 非零时覆盖目标字段
func mergeInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

// mergeFloat 非零时覆盖目标字段
func mergeFloat(dst *float64, src float64) {
	if src != 0 {
		*dst = src
	}
}

// tableForKind 数据类型对应的表名
func tableForKind(kind models.ItemKind) (table, idColumn string, err error) {
	switch kind {
	case models.KindNews:
		return "news_data", "news_id", nil
	case models.KindRumor:
		return "rumor_data", "rumor_id", nil
	case models.KindSocial:
		return "social_media_data", "post_id", nil
	default:
		return "", "", fmt.Errorf("未知的数据类型: %s", kind)
	}
}
