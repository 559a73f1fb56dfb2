package spiders

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/truthguardian/crawler/internal/config"
	"github.com/truthguardian/crawler/internal/fetch"
	"github.com/truthguardian/crawler/internal/models"
	"github.com/truthguardian/crawler/internal/utils"
)

func init() {
	Register("news", func(cfg *config.Config) Spider {
		return NewNewsSpider(cfg)
	})
}

// 详情页字段抽取候选选择器链,靠前的优先
// 覆盖主流新闻站点的常见页面结构
var (
	newsTitleSelectors = []string{
		"h1.article-title",
		"h1.post-title",
		"h1.entry-title",
		"div.article-title h1",
		"div.post-title h1",
		"div.title h1",
		"header h1",
		"article h1",
		"div.article h1",
	}

	newsContentSelectors = []string{
		"div.article-content",
		"div.post-content",
		"div.entry-content",
		"article.content",
		"div.article",
		"div.content",
		"article",
		"div.main-content",
		"div.article-body",
	}

	newsDateSelectors = []string{
		"meta[property=\"article:published_time\"]",
		"meta[name=\"publishdate\"]",
		"span.publish-time",
		"span.time",
		"span.date",
		"div.date",
		"time",
	}

	newsAuthorSelectors = []string{
		"meta[name=\"author\"]",
		"span.author",
		"p.author",
		"div.author",
		"span.source",
	}

	newsCategorySelectors = []string{
		"meta[property=\"article:section\"]",
		"span.category",
		"div.category a",
		"div.breadcrumb a",
	}
)

// 新闻详情页URL启发式判断规则
var (
	newsURLExcludePatterns = []*regexp.Regexp{
		regexp.MustCompile(`/search`),
		regexp.MustCompile(`/tag/`),
		regexp.MustCompile(`/author/`),
		regexp.MustCompile(`/about`),
		regexp.MustCompile(`/contact`),
		regexp.MustCompile(`/login`),
		regexp.MustCompile(`/register`),
		regexp.MustCompile(`/rss`),
		regexp.MustCompile(`/feed`),
		regexp.MustCompile(`\.(?:jpg|jpeg|png|gif|bmp|pdf|doc|docx|xls|xlsx|ppt|zip|rar)$`),
	}

	newsURLIncludePatterns = []*regexp.Regexp{
		regexp.MustCompile(`/news/`),
		regexp.MustCompile(`/article/`),
		regexp.MustCompile(`/story/`),
		regexp.MustCompile(`/\d{4}/`),
		regexp.MustCompile(`/\d{4}-\d{2}/`),
		regexp.MustCompile(`/\d{8}/`),
		regexp.MustCompile(`/p/\d+`),
		regexp.MustCompile(`/content/\d+`),
	}
)

// NewsSpider 新闻站点爬虫
// 从配置的列表页入口出发,逐页发现详情链接,
// 用候选选择器链做容错抽取
type NewsSpider struct {
	cfg      *config.Config
	renderer *fetch.Renderer
}

// NewNewsSpider 创建新闻爬虫
func NewNewsSpider(cfg *config.Config) *NewsSpider {
	s := &NewsSpider{cfg: cfg}
	if cfg.Crawl.DynamicFallback {
		s.renderer = fetch.NewRenderer(cfg.Crawl.Headless, 3*time.Second)
	}
	return s
}

// Name 实现Spider接口
func (s *NewsSpider) Name() string { return "news" }

// Crawl 实现Spider接口,逐个采集配置的新闻源
func (s *NewsSpider) Crawl(ctx context.Context, emit EmitFunc) error {
	if s.renderer != nil {
		defer s.renderer.Close()
	}

	for _, src := range s.cfg.Sources.News {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		utils.Infof("开始采集新闻源: %s (%s)", src.Name, src.Domain)
		s.crawlSource(ctx, src, emit)
	}
	return nil
}

// crawlSource 采集单个新闻源: 列表页 → 详情页 → 翻页
func (s *NewsSpider) crawlSource(ctx context.Context, src config.NewsSource, emit EmitFunc) {
	c := newCollector(s.cfg.Crawl)

	// 本轮已访问URL集合,跨列表页去重
	visited := make(map[string]struct{})
	pages := 0
	maxPages := s.cfg.Crawl.MaxPages

	c.OnError(func(r *colly.Response, err error) {
		utils.Warnf("页面抓取失败 [%s]: %v", r.Request.URL, err)
	})

	c.OnResponse(func(r *colly.Response) {
		if ctx.Err() != nil {
			return
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			utils.Warnf("解析页面失败 [%s]: %v", r.Request.URL, err)
			return
		}
		pageURL := r.Request.URL.String()

		if r.Ctx.Get("kind") == "list" {
			// 详情链接发现
			links := collectLinks(doc, src.ListSelectors, pageURL)
			if len(links) == 0 {
				links = collectLinks(doc, []string{"a[href]"}, pageURL)
			}
			count := 0
			for _, link := range links {
				if !isNewsURL(link) {
					continue
				}
				if _, seen := visited[link]; seen {
					continue
				}
				visited[link] = struct{}{}
				count++
				requestPage(c, link, "detail")
			}
			utils.Infof("列表页 %s 发现 %d 条详情链接", pageURL, count)

			// 翻页
			if next := findNextPage(doc, pageURL); next != "" && pages < maxPages {
				if _, seen := visited[next]; !seen {
					visited[next] = struct{}{}
					pages++
					requestPage(c, next, "list")
				}
			}
			return
		}

		if item := s.parseDetail(ctx, src, pageURL, doc); item != nil {
			emit(ctx, item)
		}
	})

	for _, startURL := range src.StartURLs {
		if _, seen := visited[startURL]; seen {
			continue
		}
		visited[startURL] = struct{}{}
		pages++
		requestPage(c, startURL, "list")
	}
}

// parseDetail 解析新闻详情页,抽取失败或被关键词过滤时返回nil
func (s *NewsSpider) parseDetail(ctx context.Context, src config.NewsSource, pageURL string, doc *goquery.Document) models.Item {
	title := utils.CleanText(firstText(doc, newsTitleSelectors))
	if title == "" {
		title = utils.CleanText(doc.Find("title").First().Text())
	}
	if title == "" {
		utils.Debugf("跳过无标题页面: %s", pageURL)
		return nil
	}

	content, contentHTML := firstContent(doc, newsContentSelectors)

	// 静态抽取不到正文时尝试浏览器渲染
	if content == "" && s.renderer != nil {
		utils.Debugf("静态抽取无正文,尝试浏览器渲染: %s", pageURL)
		if html, err := s.renderer.RenderHTML(ctx, pageURL); err != nil {
			utils.Warnf("浏览器渲染失败 [%s]: %v", pageURL, err)
		} else if rendered, rerr := goquery.NewDocumentFromReader(strings.NewReader(html)); rerr == nil {
			content, contentHTML = firstContent(rendered, newsContentSelectors)
		}
	}

	if content == "" {
		utils.Debugf("跳过无正文页面: %s", pageURL)
		return nil
	}

	// 严格模式下不含关键词的文章被丢弃,关键词列表为空时放行
	keywords := s.cfg.Keywords.Words
	if s.cfg.Keywords.Strict && !utils.ContainsAnyKeyword(title+content, keywords) {
		utils.Debugf("跳过不含关键词的文章: %s", pageURL)
		return nil
	}

	cleanContent := utils.CleanText(content)
	item := &models.NewsItem{
		NewsID:       utils.GenerateID(pageURL+"|"+title, "news"),
		Title:        title,
		Content:      cleanContent,
		Summary:      generateSummary(cleanContent, 200),
		Source:       src.Name,
		URL:          utils.CleanURL(pageURL, ""),
		PubDate:      utils.ParseDate(firstMeta(doc, newsDateSelectors)),
		Author:       utils.CleanText(firstMeta(doc, newsAuthorSelectors)),
		Category:     utils.CleanText(firstMeta(doc, newsCategorySelectors)),
		Tags:         utils.MatchKeywords(title+cleanContent, keywords, 5),
		SourceType:   models.SourceTypeNews,
		KeywordMatch: utils.KeywordMatch(title+cleanContent, keywords),
	}
	for _, img := range utils.ExtractImages(contentHTML, pageURL) {
		item.Media = append(item.Media, models.Media{Type: "image", URL: img})
	}

	return item
}

// isNewsURL 判断链接是否像新闻详情页
// 先排除功能页和静态资源,再按路径特征收录
func isNewsURL(link string) bool {
	lower := strings.ToLower(link)
	for _, pattern := range newsURLExcludePatterns {
		if pattern.MatchString(lower) {
			return false
		}
	}
	for _, pattern := range newsURLIncludePatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}
	return false
}
