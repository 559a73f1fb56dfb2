package spiders

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/truthguardian/crawler/internal/config"
	"github.com/truthguardian/crawler/internal/fetch"
	"github.com/truthguardian/crawler/internal/models"
	"github.com/truthguardian/crawler/internal/utils"
)

func init() {
	Register("sina", func(cfg *config.Config) Spider {
		return NewSinaSpider(cfg)
	})
}

// 单页结果数,新浪搜索API的最大值
const sinaPageSize = 20

// SinaSpider 新浪新闻搜索爬虫
// 通过新浪搜索API按关键词采集新闻,与微博爬虫共用登录会话逻辑
type SinaSpider struct {
	cfg     *config.Config
	session *apiSession
}

// NewSinaSpider 创建新浪搜索爬虫
func NewSinaSpider(cfg *config.Config) *SinaSpider {
	return &SinaSpider{
		cfg: cfg,
		session: &apiSession{
			client: fetch.NewClient(cfg.Crawl),
			auth:   cfg.Social.Auth,
		},
	}
}

// Name 实现Spider接口
func (s *SinaSpider) Name() string { return "sina" }

// Crawl 实现Spider接口,登录失败时终止整轮采集
func (s *SinaSpider) Crawl(ctx context.Context, emit EmitFunc) error {
	if err := s.session.login(ctx); err != nil {
		return fmt.Errorf("登录失败,爬虫终止: %w", err)
	}

	keyword := s.cfg.Social.Sina.Keyword
	maxPages := s.cfg.Crawl.MaxPages
	delay := time.Duration(s.cfg.Crawl.DownloadDelay) * time.Second
	utils.Infof("开始新浪新闻搜索采集,关键词: %s, 最大页数: %d", keyword, maxPages)

	total := 0
	for page := 1; page <= maxPages; page++ {
		resp, err := s.search(ctx, keyword, page)
		if err != nil {
			utils.Errorf("获取第 %d 页数据失败: %v", page, err)
			continue
		}

		// 翻页终止只看原始结果列表,整页都是无效行时继续翻页
		if len(resp.Data.Results) == 0 {
			utils.Infof("第 %d 页没有更多数据,结束采集", page)
			break
		}

		items := s.parseResults(resp.Data.Results)
		for _, item := range items {
			emit(ctx, item)
			total++
		}
		utils.Infof("第 %d 页采集到 %d 条新闻", page, len(items))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	utils.Infof("新浪新闻采集完成,共 %d 条", total)
	return nil
}

type sinaResponse struct {
	Data struct {
		Results []sinaResult `json:"results"`
	} `json:"data"`
}

type sinaResult struct {
	ID       json.Number `json:"id"`
	DocID    string      `json:"docid"`
	Title    string      `json:"title"`
	Media    string      `json:"media"`
	URL      string      `json:"url"`
	Intro    string      `json:"intro"`
	ImgURL   string      `json:"img_url"`
	Category string      `json:"category"`
	Datetime string      `json:"datetime"`
}

// search 调用新浪搜索API
func (s *SinaSpider) search(ctx context.Context, keyword string, page int) (*sinaResponse, error) {
	sina := s.cfg.Social.Sina

	params := url.Values{}
	params.Set("q", keyword)
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("type", "news")
	params.Set("size", fmt.Sprintf("%d", sinaPageSize))
	params.Set("sort", "time")

	headers := map[string]string{
		"Accept": "application/json, text/plain, */*",
	}
	if sina.Cookie != "" {
		headers["Cookie"] = sina.Cookie
	}

	var resp sinaResponse
	if err := s.session.client.GetJSON(ctx, sina.APIURL, params, s.session.authHeaders(headers), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// parseResults 把搜索结果行转换为新闻项目
func (s *SinaSpider) parseResults(results []sinaResult) []*models.NewsItem {
	keywords := s.cfg.Keywords.Words

	var items []*models.NewsItem
	for _, row := range results {
		// 标题里带搜索高亮标签,清理后再用
		title := utils.CleanText(row.Title)
		if title == "" {
			continue
		}

		newsID := row.DocID
		if newsID == "" {
			newsID = row.ID.String()
		}
		if newsID == "" || newsID == "0" {
			utils.Warnf("跳过缺少docid的结果: %s", title)
			continue
		}

		source := row.Media
		if source == "" {
			source = "新浪新闻"
		}
		category := row.Category
		if category == "" {
			category = "cms"
		}

		content := utils.CleanText(row.Intro)
		item := &models.NewsItem{
			NewsID:       "sina_" + newsID,
			Title:        title,
			Content:      content,
			Summary:      generateSummary(content, 200),
			Source:       source,
			URL:          row.URL,
			PubDate:      utils.ParseDate(row.Datetime),
			Category:     category,
			Tags:         utils.MatchKeywords(title+content, keywords, 5),
			SourceType:   models.SourceTypeNews,
			KeywordMatch: utils.KeywordMatch(title+content, keywords),
		}
		if row.ImgURL != "" {
			item.Media = append(item.Media, models.Media{Type: "image", URL: row.ImgURL})
		}
		items = append(items, item)
	}
	return items
}
