package spiders

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/truthguardian/crawler/internal/config"
	"github.com/truthguardian/crawler/internal/models"
	"github.com/truthguardian/crawler/internal/utils"
)

func init() {
	Register("gov", func(cfg *config.Config) Spider {
		return NewGovSpider(cfg)
	})
}

// 政府站点详情链接特征: 正文页/政务公开/信息发布栏目
var govLinkSelectors = []string{
	`a[href*="content"], a[href*="zwgk"], a[href*="info"]`,
}

var (
	govTitleSelectors = []string{
		".article_title",
		".content-title",
		".title",
		"h1",
	}

	govContentSelectors = []string{
		"#UCAP-CONTENT",
		".article_content",
		".TRS_Editor",
		".pages_content",
		".content",
	}

	govDateSelectors = []string{
		"meta[name=\"firstpublishedtime\"]",
		".pubtime",
		"span.date",
		".date",
		".time",
	}

	govSourceSelectors = []string{
		".source",
		".department",
		".publisher",
	}

	// 站点标题后缀,如"国务院政策文件库_中国政府网"
	govTitleSuffixPattern = regexp.MustCompile(`[-_|（(].*$`)

	sourcePrefixPattern = regexp.MustCompile(`^来源[：:]\s*`)
)

// 域名到发布机构名称的映射,更具体的域名在前
var govSourceMapping = []struct {
	domain string
	name   string
}{
	{"nhc.gov.cn", "国家卫健委"},
	{"gov.cn", "中国政府网"},
}

// URL路径段到栏目分类的映射
var govCategoryMapping = map[string]string{
	"zhengce": "政策",
	"zhengwu": "政务",
	"zwgk":    "政务公开",
	"xinwen":  "新闻",
	"tpxw":    "图片新闻",
	"tzgg":    "通知公告",
	"zcwj":    "政策文件",
	"zxft":    "在线访谈",
	"hygq":    "回应关切",
}

// GovSpider 政府网站爬虫
// 与新闻爬虫共用采集骨架,但链接发现和字段抽取
// 针对政务站点的页面结构
type GovSpider struct {
	cfg *config.Config
}

// NewGovSpider 创建政府网站爬虫
func NewGovSpider(cfg *config.Config) *GovSpider {
	return &GovSpider{cfg: cfg}
}

// Name 实现Spider接口
func (s *GovSpider) Name() string { return "gov" }

// Crawl 实现Spider接口
func (s *GovSpider) Crawl(ctx context.Context, emit EmitFunc) error {
	for _, src := range s.cfg.Sources.Government {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		utils.Infof("开始采集政府站点: %s (%s)", src.Name, src.Domain)
		s.crawlSource(ctx, src, emit)
	}
	return nil
}

func (s *GovSpider) crawlSource(ctx context.Context, src config.NewsSource, emit EmitFunc) {
	c := newCollector(s.cfg.Crawl)

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
			selectors := src.ListSelectors
			if len(selectors) == 0 {
				selectors = govLinkSelectors
			}
			links := collectLinks(doc, selectors, pageURL)
			count := 0
			for _, link := range links {
				if _, seen := visited[link]; seen {
					continue
				}
				visited[link] = struct{}{}
				count++
				requestPage(c, link, "detail")
			}
			utils.Infof("列表页 %s 发现 %d 条详情链接", pageURL, count)

			if next := findNextPage(doc, pageURL); next != "" && pages < maxPages {
				if _, seen := visited[next]; !seen {
					visited[next] = struct{}{}
					pages++
					requestPage(c, next, "list")
				}
			}
			return
		}

		if item := s.parseDetail(src, pageURL, doc); item != nil {
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

// parseDetail 解析政务详情页
func (s *GovSpider) parseDetail(src config.NewsSource, pageURL string, doc *goquery.Document) models.Item {
	title := utils.CleanText(firstText(doc, govTitleSelectors))
	if title == "" {
		// 页面<title>兜底,去掉站点名后缀
		raw := strings.TrimSpace(doc.Find("title").First().Text())
		title = utils.CleanText(govTitleSuffixPattern.ReplaceAllString(raw, ""))
	}
	if title == "" {
		utils.Debugf("跳过无标题页面: %s", pageURL)
		return nil
	}

	content, contentHTML := firstContent(doc, govContentSelectors)
	if content == "" {
		// 选择器链全部落空时拼接正文段落
		var paras []string
		doc.Find("p").Each(func(_ int, p *goquery.Selection) {
			if text := strings.TrimSpace(p.Text()); text != "" {
				paras = append(paras, text)
			}
		})
		content = strings.Join(paras, "\n")
	}
	if content == "" {
		utils.Debugf("跳过无正文页面: %s", pageURL)
		return nil
	}

	keywords := s.cfg.Keywords.Words
	if s.cfg.Keywords.Strict && !utils.ContainsAnyKeyword(title+content, keywords) {
		utils.Debugf("跳过不含关键词的页面: %s", pageURL)
		return nil
	}

	department := utils.CleanText(sourcePrefixPattern.ReplaceAllString(
		strings.TrimSpace(firstText(doc, govSourceSelectors)), ""))

	cleanContent := utils.CleanText(content)
	item := &models.NewsItem{
		NewsID:       utils.GenerateID(pageURL+"|"+title, "news"),
		Title:        title,
		Content:      cleanContent,
		Summary:      generateSummary(cleanContent, 200),
		Source:       govSource(src, pageURL),
		URL:          utils.CleanURL(pageURL, ""),
		PubDate:      utils.ParseDate(firstMeta(doc, govDateSelectors)),
		Author:       department,
		Category:     govCategory(doc, pageURL),
		Tags:         utils.MatchKeywords(title+cleanContent, keywords, 5),
		SourceType:   models.SourceTypeGovernment,
		KeywordMatch: utils.KeywordMatch(title+cleanContent, keywords),
	}
	for _, img := range utils.ExtractImages(contentHTML, pageURL) {
		item.Media = append(item.Media, models.Media{Type: "image", URL: img})
	}
	return item
}

// govSource 按域名映射发布机构名称
func govSource(src config.NewsSource, pageURL string) string {
	for _, m := range govSourceMapping {
		if strings.Contains(pageURL, m.domain) {
			return m.name
		}
	}
	if src.Name != "" {
		return src.Name
	}
	return "政府网站"
}

// govCategory 按URL路径段推断栏目分类,再用面包屑导航兜底
func govCategory(doc *goquery.Document, pageURL string) string {
	for segment, category := range govCategoryMapping {
		if strings.Contains(pageURL, "/"+segment+"/") {
			return category
		}
	}

	crumbs := doc.Find(".breadcrumb a")
	if crumbs.Length() > 1 {
		if text := utils.CleanText(crumbs.Eq(1).Text()); text != "" {
			return text
		}
	}
	return "政府信息"
}
