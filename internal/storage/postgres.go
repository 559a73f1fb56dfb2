package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/truthguardian/crawler/internal/config"
	"github.com/truthguardian/crawler/internal/models"
	"github.com/truthguardian/crawler/internal/utils"
)

// Postgres 基于pgx连接池的存储实现
// 自然ID上的唯一索引是去重的最终防线,Upsert依赖ON CONFLICT合并
type Postgres struct {
	pool    *pgxpool.Pool
	builder sq.StatementBuilderType
}

var _ Store = (*Postgres)(nil)

// NewPostgres 创建Postgres存储并验证连通性
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("解析数据库连接串失败: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("创建连接池失败: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	return &Postgres{
		pool:    pool,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

// Migrate 创建数据表和唯一索引
func (p *Postgres) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS news_data (
			id BIGSERIAL PRIMARY KEY,
			news_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			pub_date TIMESTAMPTZ,
			crawl_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			author TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '',
			media TEXT NOT NULL DEFAULT '',
			source_type TEXT NOT NULL DEFAULT '',
			recommendation_level INT NOT NULL DEFAULT 0,
			keyword_match DOUBLE PRECISION NOT NULL DEFAULT 0,
			processed BOOLEAN NOT NULL DEFAULT FALSE,
			processed_time TIMESTAMPTZ
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_news_data_news_id ON news_data (news_id)`,
		`CREATE TABLE IF NOT EXISTS rumor_data (
			id BIGSERIAL PRIMARY KEY,
			rumor_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			refutation TEXT NOT NULL DEFAULT '',
			refutation_source TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			pub_date TIMESTAMPTZ,
			crawl_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			category TEXT NOT NULL DEFAULT '',
			spread_level INT NOT NULL DEFAULT 0,
			harm_level INT NOT NULL DEFAULT 0,
			tags TEXT NOT NULL DEFAULT '',
			media TEXT NOT NULL DEFAULT '',
			source_type TEXT NOT NULL DEFAULT '',
			processed BOOLEAN NOT NULL DEFAULT FALSE,
			processed_time TIMESTAMPTZ
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_rumor_data_rumor_id ON rumor_data (rumor_id)`,
		`CREATE TABLE IF NOT EXISTS social_media_data (
			id BIGSERIAL PRIMARY KEY,
			post_id TEXT NOT NULL,
			platform TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			user_id TEXT NOT NULL DEFAULT '',
			username TEXT NOT NULL DEFAULT '',
			verified_type TEXT NOT NULL DEFAULT '',
			pub_date TIMESTAMPTZ,
			crawl_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			url TEXT NOT NULL DEFAULT '',
			shares INT NOT NULL DEFAULT 0,
			comments INT NOT NULL DEFAULT 0,
			likes INT NOT NULL DEFAULT 0,
			media TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '',
			topics TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			content_type TEXT NOT NULL DEFAULT '',
			recommendation_level INT NOT NULL DEFAULT 0,
			keyword_match DOUBLE PRECISION NOT NULL DEFAULT 0,
			processed BOOLEAN NOT NULL DEFAULT FALSE,
			processed_time TIMESTAMPTZ
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_social_media_data_post_id ON social_media_data (post_id)`,
		`CREATE TABLE IF NOT EXISTS process_logs (
			id BIGSERIAL PRIMARY KEY,
			data_type TEXT NOT NULL,
			data_id TEXT NOT NULL,
			process_type TEXT NOT NULL,
			status TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("执行建表语句失败: %w", err)
		}
	}

	utils.Info("数据表初始化完成")
	return nil
}

// Exists 实现Store接口
func (p *Postgres) Exists(ctx context.Context, kind models.ItemKind, naturalID string) (bool, error) {
	table, idColumn, err := tableForKind(kind)
	if err != nil {
		return false, err
	}

	query, args, err := p.builder.
		Select("1").
		From(table).
		Where(sq.Eq{idColumn: naturalID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("构造查询失败: %w", err)
	}

	var one int
	err = p.pool.QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("查询记录失败: %w", err)
	}
	return true, nil
}

// Upsert 实现Store接口
func (p *Postgres) Upsert(ctx context.Context, item models.Item) (int64, bool, error) {
	now := time.Now()

	switch it := item.(type) {
	case *models.NewsItem:
		return p.upsertNews(ctx, newsRecordFromItem(it, now))
	case *models.RumorItem:
		return p.upsertRumor(ctx, rumorRecordFromItem(it, now))
	case *models.SocialPost:
		return p.upsertSocial(ctx, socialRecordFromItem(it, now))
	default:
		return 0, false, fmt.Errorf("未知的数据项类型: %T", item)
	}
}

// 合并策略: 新值非空则覆盖,否则保留旧值; crawl_time总是刷新
// xmax=0 表示本次为插入而非更新
const upsertNewsSQL = `
INSERT INTO news_data
	(news_id, title, content, summary, source, url, pub_date, crawl_time,
	 author, category, tags, media, source_type, recommendation_level, keyword_match)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (news_id) DO UPDATE SET
	title = CASE WHEN EXCLUDED.title <> '' THEN EXCLUDED.title ELSE news_data.title END,
	content = CASE WHEN EXCLUDED.content <> '' THEN EXCLUDED.content ELSE news_data.content END,
	summary = CASE WHEN EXCLUDED.summary <> '' THEN EXCLUDED.summary ELSE news_data.summary END,
	source = CASE WHEN EXCLUDED.source <> '' THEN EXCLUDED.source ELSE news_data.source END,
	url = CASE WHEN EXCLUDED.url <> '' THEN EXCLUDED.url ELSE news_data.url END,
	pub_date = COALESCE(EXCLUDED.pub_date, news_data.pub_date),
	crawl_time = EXCLUDED.crawl_time,
	author = CASE WHEN EXCLUDED.author <> '' THEN EXCLUDED.author ELSE news_data.author END,
	category = CASE WHEN EXCLUDED.category <> '' THEN EXCLUDED.category ELSE news_data.category END,
	tags = CASE WHEN EXCLUDED.tags <> '' THEN EXCLUDED.tags ELSE news_data.tags END,
	media = CASE WHEN EXCLUDED.media <> '' THEN EXCLUDED.media ELSE news_data.media END,
	source_type = CASE WHEN EXCLUDED.source_type <> '' THEN EXCLUDED.source_type ELSE news_data.source_type END,
	recommendation_level = CASE WHEN EXCLUDED.recommendation_level <> 0 THEN EXCLUDED.recommendation_level ELSE news_data.recommendation_level END,
	keyword_match = CASE WHEN EXCLUDED.keyword_match <> 0 THEN EXCLUDED.keyword_match ELSE news_data.keyword_match END
RETURNING id, (xmax = 0) AS created`

func (p *Postgres) upsertNews(ctx context.Context, r *models.NewsRecord) (int64, bool, error) {
	var id int64
	var created bool
	err := p.pool.QueryRow(ctx, upsertNewsSQL,
		r.NewsID, r.Title, r.Content, r.Summary, r.Source, r.URL, nullableTime(r.PubDate), r.CrawlTime,
		r.Author, r.Category, r.Tags, r.Media, r.SourceType, r.RecommendationLevel, r.KeywordMatch,
	).Scan(&id, &created)
	if err != nil {
		return 0, false, fmt.Errorf("写入新闻记录失败: %w", err)
	}
	return id, created, nil
}

const upsertRumorSQL = `
INSERT INTO rumor_data
	(rumor_id, title, content, source, refutation, refutation_source, url, pub_date,
	 crawl_time, category, spread_level, harm_level, tags, media, source_type)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (rumor_id) DO UPDATE SET
	title = CASE WHEN EXCLUDED.title <> '' THEN EXCLUDED.title ELSE rumor_data.title END,
	content = CASE WHEN EXCLUDED.content <> '' THEN EXCLUDED.content ELSE rumor_data.content END,
	source = CASE WHEN EXCLUDED.source <> '' THEN EXCLUDED.source ELSE rumor_data.source END,
	refutation = CASE WHEN EXCLUDED.refutation <> '' THEN EXCLUDED.refutation ELSE rumor_data.refutation END,
	refutation_source = CASE WHEN EXCLUDED.refutation_source <> '' THEN EXCLUDED.refutation_source ELSE rumor_data.refutation_source END,
	url = CASE WHEN EXCLUDED.url <> '' THEN EXCLUDED.url ELSE rumor_data.url END,
	pub_date = COALESCE(EXCLUDED.pub_date, rumor_data.pub_date),
	crawl_time = EXCLUDED.crawl_time,
	category = CASE WHEN EXCLUDED.category <> '' THEN EXCLUDED.category ELSE rumor_data.category END,
	spread_level = CASE WHEN EXCLUDED.spread_level <> 0 THEN EXCLUDED.spread_level ELSE rumor_data.spread_level END,
	harm_level = CASE WHEN EXCLUDED.harm_level <> 0 THEN EXCLUDED.harm_level ELSE rumor_data.harm_level END,
	tags = CASE WHEN EXCLUDED.tags <> '' THEN EXCLUDED.tags ELSE rumor_data.tags END,
	media = CASE WHEN EXCLUDED.media <> '' THEN EXCLUDED.media ELSE rumor_data.media END,
	source_type = CASE WHEN EXCLUDED.source_type <> '' THEN EXCLUDED.source_type ELSE rumor_data.source_type END
RETURNING id, (xmax = 0) AS created`

func (p *Postgres) upsertRumor(ctx context.Context, r *models.RumorRecord) (int64, bool, error) {
	var id int64
	var created bool
	err := p.pool.QueryRow(ctx, upsertRumorSQL,
		r.RumorID, r.Title, r.Content, r.Source, r.Refutation, r.RefutationSource, r.URL,
		nullableTime(r.PubDate), r.CrawlTime, r.Category, r.SpreadLevel, r.HarmLevel,
		r.Tags, r.Media, r.SourceType,
	).Scan(&id, &created)
	if err != nil {
		return 0, false, fmt.Errorf("写入谣言记录失败: %w", err)
	}
	return id, created, nil
}

const upsertSocialSQL = `
INSERT INTO social_media_data
	(post_id, platform, content, user_id, username, verified_type, pub_date, crawl_time,
	 url, shares, comments, likes, media, tags, topics, location, content_type,
	 recommendation_level, keyword_match)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
ON CONFLICT (post_id) DO UPDATE SET
	platform = CASE WHEN EXCLUDED.platform <> '' THEN EXCLUDED.platform ELSE social_media_data.platform END,
	content = CASE WHEN EXCLUDED.content <> '' THEN EXCLUDED.content ELSE social_media_data.content END,
	user_id = CASE WHEN EXCLUDED.user_id <> '' THEN EXCLUDED.user_id ELSE social_media_data.user_id END,
	username = CASE WHEN EXCLUDED.username <> '' THEN EXCLUDED.username ELSE social_media_data.username END,
	verified_type = CASE WHEN EXCLUDED.verified_type <> '' THEN EXCLUDED.verified_type ELSE social_media_data.verified_type END,
	pub_date = COALESCE(EXCLUDED.pub_date, social_media_data.pub_date),
	crawl_time = EXCLUDED.crawl_time,
	url = CASE WHEN EXCLUDED.url <> '' THEN EXCLUDED.url ELSE social_media_data.url END,
	shares = CASE WHEN EXCLUDED.shares <> 0 THEN EXCLUDED.shares ELSE social_media_data.shares END,
	comments = CASE WHEN EXCLUDED.comments <> 0 THEN EXCLUDED.comments ELSE social_media_data.comments END,
	likes = CASE WHEN EXCLUDED.likes <> 0 THEN EXCLUDED.likes ELSE social_media_data.likes END,
	media = CASE WHEN EXCLUDED.media <> '' THEN EXCLUDED.media ELSE social_media_data.media END,
	tags = CASE WHEN EXCLUDED.tags <> '' THEN EXCLUDED.tags ELSE social_media_data.tags END,
	topics = CASE WHEN EXCLUDED.topics <> '' THEN EXCLUDED.topics ELSE social_media_data.topics END,
	location = CASE WHEN EXCLUDED.location <> '' THEN EXCLUDED.location ELSE social_media_data.location END,
	content_type = CASE WHEN EXCLUDED.content_type <> '' THEN EXCLUDED.content_type ELSE social_media_data.content_type END,
	recommendation_level = CASE WHEN EXCLUDED.recommendation_level <> 0 THEN EXCLUDED.recommendation_level ELSE social_media_data.recommendation_level END,
	keyword_match = CASE WHEN EXCLUDED.keyword_match <> 0 THEN EXCLUDED.keyword_match ELSE social_media_data.keyword_match END
RETURNING id, (xmax = 0) AS created`

func (p *Postgres) upsertSocial(ctx context.Context, r *models.SocialRecord) (int64, bool, error) {
	var id int64
	var created bool
	err := p.pool.QueryRow(ctx, upsertSocialSQL,
		r.PostID, r.Platform, r.Content, r.UserID, r.Username, r.VerifiedType,
		nullableTime(r.PubDate), r.CrawlTime, r.URL, r.Shares, r.Comments, r.Likes,
		r.Media, r.Tags, r.Topics, r.Location, r.ContentType,
		r.RecommendationLevel, r.KeywordMatch,
	).Scan(&id, &created)
	if err != nil {
		return 0, false, fmt.Errorf("写入社交记录失败: %w", err)
	}
	return id, created, nil
}

// AppendLog 实现Store接口
func (p *Postgres) AppendLog(ctx context.Context, entry *models.ProcessLog) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query, args, err := p.builder.
		Insert("process_logs").
		Columns("data_type", "data_id", "process_type", "status", "message", "created_at").
		Values(string(entry.DataType), entry.DataID, entry.ProcessType, entry.Status, entry.Message, createdAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("构造日志插入失败: %w", err)
	}

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("写入处理日志失败: %w", err)
	}
	return nil
}

// ListUnprocessedNews 实现Store接口
func (p *Postgres) ListUnprocessedNews(ctx context.Context, limit int) ([]*models.NewsRecord, error) {
	query, args, err := p.selectUnprocessed("news_data", limit,
		"id", "news_id", "title", "content", "summary", "source", "url", "pub_date",
		"crawl_time", "author", "category", "tags", "media", "source_type",
		"recommendation_level", "keyword_match", "processed", "processed_time")
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询未处理新闻失败: %w", err)
	}
	defer rows.Close()

	var records []*models.NewsRecord
	for rows.Next() {
		var r models.NewsRecord
		var pubDate *time.Time
		if err := rows.Scan(&r.ID, &r.NewsID, &r.Title, &r.Content, &r.Summary, &r.Source,
			&r.URL, &pubDate, &r.CrawlTime, &r.Author, &r.Category, &r.Tags, &r.Media,
			&r.SourceType, &r.RecommendationLevel, &r.KeywordMatch, &r.Processed, &r.ProcessedTime); err != nil {
			return nil, fmt.Errorf("扫描新闻记录失败: %w", err)
		}
		if pubDate != nil {
			r.PubDate = *pubDate
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// ListUnprocessedRumors 实现Store接口
func (p *Postgres) ListUnprocessedRumors(ctx context.Context, limit int) ([]*models.RumorRecord, error) {
	query, args, err := p.selectUnprocessed("rumor_data", limit,
		"id", "rumor_id", "title", "content", "source", "refutation", "refutation_source",
		"url", "pub_date", "crawl_time", "category", "spread_level", "harm_level",
		"tags", "media", "source_type", "processed", "processed_time")
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询未处理谣言失败: %w", err)
	}
	defer rows.Close()

	var records []*models.RumorRecord
	for rows.Next() {
		var r models.RumorRecord
		var pubDate *time.Time
		if err := rows.Scan(&r.ID, &r.RumorID, &r.Title, &r.Content, &r.Source, &r.Refutation,
			&r.RefutationSource, &r.URL, &pubDate, &r.CrawlTime, &r.Category, &r.SpreadLevel,
			&r.HarmLevel, &r.Tags, &r.Media, &r.SourceType, &r.Processed, &r.ProcessedTime); err != nil {
			return nil, fmt.Errorf("扫描谣言记录失败: %w", err)
		}
		if pubDate != nil {
			r.PubDate = *pubDate
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// ListUnprocessedSocial 实现Store接口
func (p *Postgres) ListUnprocessedSocial(ctx context.Context, limit int) ([]*models.SocialRecord, error) {
	query, args, err := p.selectUnprocessed("social_media_data", limit,
		"id", "post_id", "platform", "content", "user_id", "username", "verified_type",
		"pub_date", "crawl_time", "url", "shares", "comments", "likes", "media", "tags",
		"topics", "location", "content_type", "recommendation_level", "keyword_match",
		"processed", "processed_time")
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询未处理社交记录失败: %w", err)
	}
	defer rows.Close()

	var records []*models.SocialRecord
	for rows.Next() {
		var r models.SocialRecord
		var pubDate *time.Time
		if err := rows.Scan(&r.ID, &r.PostID, &r.Platform, &r.Content, &r.UserID, &r.Username,
			&r.VerifiedType, &pubDate, &r.CrawlTime, &r.URL, &r.Shares, &r.Comments, &r.Likes,
			&r.Media, &r.Tags, &r.Topics, &r.Location, &r.ContentType, &r.RecommendationLevel,
			&r.KeywordMatch, &r.Processed, &r.ProcessedTime); err != nil {
			return nil, fmt.Errorf("扫描社交记录失败: %w", err)
		}
		if pubDate != nil {
			r.PubDate = *pubDate
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// selectUnprocessed 构造未处理记录查询
func (p *Postgres) selectUnprocessed(table string, limit int, columns ...string) (string, []interface{}, error) {
	builder := p.builder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"processed": false}).
		OrderBy("id ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("构造查询失败: %w", err)
	}
	return query, args, nil
}

// SaveProcessedNews 实现Store接口
func (p *Postgres) SaveProcessedNews(ctx context.Context, records []*models.NewsRecord, logs []*models.ProcessLog) error {
	return p.saveBatch(ctx, logs, func(tx pgx.Tx) error {
		for _, r := range records {
			query, args, err := p.builder.
				Update("news_data").
				Set("content", r.Content).
				Set("summary", r.Summary).
				Set("tags", r.Tags).
				Set("keyword_match", r.KeywordMatch).
				Set("recommendation_level", r.RecommendationLevel).
				Set("processed", r.Processed).
				Set("processed_time", r.ProcessedTime).
				Where(sq.Eq{"id": r.ID}).
				ToSql()
			if err != nil {
				return fmt.Errorf("构造更新语句失败: %w", err)
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("更新新闻记录失败: %w", err)
			}
		}
		return nil
	})
}

// SaveProcessedRumors 实现Store接口
func (p *Postgres) SaveProcessedRumors(ctx context.Context, records []*models.RumorRecord, logs []*models.ProcessLog) error {
	return p.saveBatch(ctx, logs, func(tx pgx.Tx) error {
		for _, r := range records {
			query, args, err := p.builder.
				Update("rumor_data").
				Set("content", r.Content).
				Set("refutation", r.Refutation).
				Set("tags", r.Tags).
				Set("processed", r.Processed).
				Set("processed_time", r.ProcessedTime).
				Where(sq.Eq{"id": r.ID}).
				ToSql()
			if err != nil {
				return fmt.Errorf("构造更新语句失败: %w", err)
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("更新谣言记录失败: %w", err)
			}
		}
		return nil
	})
}

// SaveProcessedSocial 实现Store接口
func (p *Postgres) SaveProcessedSocial(ctx context.Context, records []*models.SocialRecord, logs []*models.ProcessLog) error {
	return p.saveBatch(ctx, logs, func(tx pgx.Tx) error {
		for _, r := range records {
			query, args, err := p.builder.
				Update("social_media_data").
				Set("content", r.Content).
				Set("tags", r.Tags).
				Set("keyword_match", r.KeywordMatch).
				Set("recommendation_level", r.RecommendationLevel).
				Set("processed", r.Processed).
				Set("processed_time", r.ProcessedTime).
				Where(sq.Eq{"id": r.ID}).
				ToSql()
			if err != nil {
				return fmt.Errorf("构造更新语句失败: %w", err)
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("更新社交记录失败: %w", err)
			}
		}
		return nil
	})
}

// saveBatch 单事务提交一批更新和日志
func (p *Postgres) saveBatch(ctx context.Context, logs []*models.ProcessLog, update func(pgx.Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := update(tx); err != nil {
		return err
	}

	for _, entry := range logs {
		createdAt := entry.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		query, args, err := p.builder.
			Insert("process_logs").
			Columns("data_type", "data_id", "process_type", "status", "message", "created_at").
			Values(string(entry.DataType), entry.DataID, entry.ProcessType, entry.Status, entry.Message, createdAt).
			ToSql()
		if err != nil {
			return fmt.Errorf("构造日志插入失败: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("写入处理日志失败: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// Close 实现Store接口
func (p *Postgres) Close() {
	p.pool.Close()
}

// nullableTime 零值时间转NULL
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
