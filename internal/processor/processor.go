package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/truthguardian/crawler/internal/config"
	"github.com/truthguardian/crawler/internal/models"
	"github.com/truthguardian/crawler/internal/storage"
	"github.com/truthguardian/crawler/internal/utils"
)

// Counts 各类数据的处理数量统计
type Counts struct {
	News   int `json:"news"`
	Rumor  int `json:"rumor"`
	Social int `json:"social"`
}

// Total 返回处理总数
func (c Counts) Total() int { return c.News + c.Rumor + c.Social }

// Processor 数据处理器
// 显式调用的批处理阶段: 查询未处理记录,重新清洗、生成摘要、
// 提取标签、计算关键词匹配度,按批提交
type Processor struct {
	store storage.Store
	cfg   *config.Config

	// ShowProgress CLI运行时显示进度条
	ShowProgress bool
}

// New 创建数据处理器
func New(store storage.Store, cfg *config.Config) *Processor {
	return &Processor{store: store, cfg: cfg}
}

// ProcessAll 处理全部未处理记录,batchSize<=0时使用配置值
// 单条记录处理失败记日志后继续,批提交失败时中断并返回已完成数量
func (p *Processor) ProcessAll(ctx context.Context, batchSize int) (Counts, error) {
	if batchSize <= 0 {
		batchSize = p.cfg.Processor.BatchSize
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	var counts Counts
	utils.Infof("开始批处理未处理数据,批大小 %d", batchSize)

	news, err := p.processNews(ctx, batchSize)
	counts.News = news
	if err != nil {
		return counts, fmt.Errorf("处理新闻数据失败: %w", err)
	}

	rumors, err := p.processRumors(ctx, batchSize)
	counts.Rumor = rumors
	if err != nil {
		return counts, fmt.Errorf("处理谣言数据失败: %w", err)
	}

	social, err := p.processSocial(ctx, batchSize)
	counts.Social = social
	if err != nil {
		return counts, fmt.Errorf("处理社交媒体数据失败: %w", err)
	}

	utils.Infof("批处理完成: 新闻 %d 条, 谣言 %d 条, 社交媒体 %d 条", counts.News, counts.Rumor, counts.Social)
	return counts, nil
}

func (p *Processor) processNews(ctx context.Context, batchSize int) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		records, err := p.store.ListUnprocessedNews(ctx, batchSize)
		if err != nil {
			return total, err
		}
		if len(records) == 0 {
			return total, nil
		}

		// 先清洗再分词,以当前批次为语料建TF-IDF模型
		model := newTFIDFModel()
		tokenized := make([][]string, len(records))
		for i, rec := range records {
			rec.Title = utils.CleanText(rec.Title)
			rec.Content = utils.FilterAds(utils.CleanText(rec.Content))
			tokenized[i] = tokenize(rec.Content)
			model.AddDocument(tokenized[i])
		}

		bar := p.newBar(len(records), "处理新闻")
		now := time.Now()
		logs := make([]*models.ProcessLog, 0, len(records))
		for i, rec := range records {
			msg := p.enrichNews(rec, tokenized[i], model)
			markProcessed(&rec.Processed, &rec.ProcessedTime, now)
			logs = append(logs, newLog(models.KindNews, rec.NewsID, msg, now))
			barAdd(bar)
		}

		if err := p.store.SaveProcessedNews(ctx, records, logs); err != nil {
			return total, err
		}
		total += len(records)
	}
}

func (p *Processor) processRumors(ctx context.Context, batchSize int) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		records, err := p.store.ListUnprocessedRumors(ctx, batchSize)
		if err != nil {
			return total, err
		}
		if len(records) == 0 {
			return total, nil
		}

		model := newTFIDFModel()
		tokenized := make([][]string, len(records))
		for i, rec := range records {
			rec.Title = utils.CleanText(rec.Title)
			rec.Content = utils.FilterAds(utils.CleanText(rec.Content))
			if rec.Refutation != "" {
				rec.Refutation = utils.FilterAds(utils.CleanText(rec.Refutation))
			}
			tokenized[i] = tokenize(rec.Content + " " + rec.Refutation)
			model.AddDocument(tokenized[i])
		}

		bar := p.newBar(len(records), "处理谣言")
		now := time.Now()
		logs := make([]*models.ProcessLog, 0, len(records))
		for i, rec := range records {
			msg := p.enrichRumor(rec, tokenized[i], model)
			markProcessed(&rec.Processed, &rec.ProcessedTime, now)
			logs = append(logs, newLog(models.KindRumor, rec.RumorID, msg, now))
			barAdd(bar)
		}

		if err := p.store.SaveProcessedRumors(ctx, records, logs); err != nil {
			return total, err
		}
		total += len(records)
	}
}

func (p *Processor) processSocial(ctx context.Context, batchSize int) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		records, err := p.store.ListUnprocessedSocial(ctx, batchSize)
		if err != nil {
			return total, err
		}
		if len(records) == 0 {
			return total, nil
		}

		model := newTFIDFModel()
		tokenized := make([][]string, len(records))
		for i, rec := range records {
			rec.Content = utils.FilterAds(utils.CleanText(rec.Content))
			tokenized[i] = tokenize(rec.Content)
			model.AddDocument(tokenized[i])
		}

		bar := p.newBar(len(records), "处理社交媒体")
		now := time.Now()
		logs := make([]*models.ProcessLog, 0, len(records))
		for i, rec := range records {
			msg := p.enrichSocial(rec, tokenized[i], model)
			markProcessed(&rec.Processed, &rec.ProcessedTime, now)
			logs = append(logs, newLog(models.KindSocial, rec.PostID, msg, now))
			barAdd(bar)
		}

		if err := p.store.SaveProcessedSocial(ctx, records, logs); err != nil {
			return total, err
		}
		total += len(records)
	}
}

// enrichNews 单条新闻的摘要和标签提取,清洗已在分词前完成
func (p *Processor) enrichNews(rec *models.NewsRecord, words []string, model *tfidfModel) string {
	weights := textRank(words)
	maxLen := p.summaryMaxLength()
	rec.Summary = buildSummary(rec.Content, weights, maxLen)

	if rec.Tags == "" {
		rec.Tags = models.MarshalList(model.TopK(words, p.tagsTopK()))
	}
	rec.KeywordMatch = utils.KeywordMatch(rec.Title+rec.Content, p.cfg.Keywords.Words)

	return fmt.Sprintf("摘要 %d 字, 关键词匹配度 %.2f", len([]rune(rec.Summary)), rec.KeywordMatch)
}

// enrichRumor 单条谣言的标签提取
func (p *Processor) enrichRumor(rec *models.RumorRecord, words []string, model *tfidfModel) string {
	if rec.Tags == "" {
		rec.Tags = models.MarshalList(model.TopK(words, p.tagsTopK()))
	}

	return fmt.Sprintf("正文 %d 字, 辟谣 %d 字", len([]rune(rec.Content)), len([]rune(rec.Refutation)))
}

// enrichSocial 单条社交媒体帖子的推荐级别计算
func (p *Processor) enrichSocial(rec *models.SocialRecord, words []string, model *tfidfModel) string {
	if rec.Tags == "" {
		rec.Tags = models.MarshalList(model.TopK(words, p.tagsTopK()))
	}
	rec.KeywordMatch = utils.KeywordMatch(rec.Content, p.cfg.Keywords.Words)

	engagement := rec.Shares + rec.Comments + rec.Likes
	rec.RecommendationLevel = recommendationLevel(rec.VerifiedType, engagement, rec.KeywordMatch)

	return fmt.Sprintf("推荐级别 %d, 关键词匹配度 %.2f", rec.RecommendationLevel, rec.KeywordMatch)
}

// recommendationLevel 社交媒体推荐级别启发式
// 认证机构/媒体+2, 高互动+1, 高关键词匹配+1, 上限5
func recommendationLevel(verifiedType string, engagement int, keywordMatch float64) int {
	level := 0
	if verifiedType == "official" || verifiedType == "media" {
		level += 2
	}
	if engagement > 1000 {
		level++
	}
	if keywordMatch > 0.2 {
		level++
	}
	if level > 5 {
		level = 5
	}
	return level
}

func (p *Processor) summaryMaxLength() int {
	if p.cfg.Processor.SummaryMaxLength > 0 {
		return p.cfg.Processor.SummaryMaxLength
	}
	return 200
}

func (p *Processor) tagsTopK() int {
	if p.cfg.Processor.TagsTopK > 0 {
		return p.cfg.Processor.TagsTopK
	}
	return 5
}

func (p *Processor) newBar(total int, desc string) *progressbar.ProgressBar {
	if !p.ShowProgress {
		return nil
	}
	return utils.NewProgressBar(total, desc)
}

func barAdd(bar *progressbar.ProgressBar) {
	if bar != nil {
		if err := bar.Add(1); err != nil {
			utils.Debugf("更新进度条失败: %v", err)
		}
	}
}

func markProcessed(processed *bool, processedTime **time.Time, now time.Time) {
	*processed = true
	t := now
	*processedTime = &t
}

func newLog(kind models.ItemKind, dataID, msg string, now time.Time) *models.ProcessLog {
	return &models.ProcessLog{
		DataType:    kind,
		DataID:      dataID,
		ProcessType: models.ProcessTypeEnrich,
		Status:      models.LogStatusSuccess,
		Message:     msg,
		CreatedAt:   now,
	}
}
