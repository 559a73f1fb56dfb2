package spiders

import (
	"crypto/tls"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/truthguardian/crawler/internal/config"
	"github.com/truthguardian/crawler/internal/utils"
)

// newCollector 创建站点爬虫共用的Colly collector
// 同步模式保证列表页先于详情页处理;跳过证书验证以兼容
// 使用过期或自签名证书的站点;DetectCharset处理GBK编码页面
func newCollector(cfg config.CrawlConfig) *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	c.DetectCharset = true

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c.SetRequestTimeout(timeout)
	c.WithTransport(&http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
	})

	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       time.Duration(cfg.DownloadDelay) * time.Second,
	}); err != nil {
		utils.Warnf("设置请求限速失败: %v", err)
	}

	return c
}

// requestPage 发起带类型标记的请求,kind区分列表页和详情页
func requestPage(c *colly.Collector, pageURL, kind string) {
	reqCtx := colly.NewContext()
	reqCtx.Put("kind", kind)
	if err := c.Request(http.MethodGet, pageURL, nil, reqCtx, nil); err != nil {
		utils.Warnf("请求页面失败 [%s]: %v", pageURL, err)
	}
}

// firstText 按选择器链取第一个非空文本,链中靠前的选择器优先
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// firstContent 按选择器链取第一个非空内容块,返回纯文本和原始HTML
func firstContent(doc *goquery.Document, selectors []string) (text, html string) {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		text = strings.TrimSpace(node.Text())
		if text == "" {
			continue
		}
		html, _ = node.Html()
		return text, html
	}
	return "", ""
}

// firstMeta 按选择器链取值,meta选择器读content属性,其余读文本
func firstMeta(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		var value string
		if strings.HasPrefix(sel, "meta") {
			value, _ = node.Attr("content")
		} else {
			value = node.Text()
		}
		value = strings.TrimSpace(value)
		if value != "" {
			return value
		}
	}
	return ""
}

// 翻页链接候选选择器
var nextPageSelectors = []string{
	"a[rel=\"next\"]",
	"a.next",
	"a.nextPage",
	"a.pagination-next",
	"a.next-page",
}

// findNextPage 查找下一页链接,选择器之外再按链接文本"下一页"兜底
func findNextPage(doc *goquery.Document, baseURL string) string {
	for _, sel := range nextPageSelectors {
		if href, ok := doc.Find(sel).First().Attr("href"); ok && href != "" {
			return utils.NormalizeURL(href, baseURL)
		}
	}

	var next string
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.TrimSpace(a.Text()) != "下一页" {
			return true
		}
		if href, ok := a.Attr("href"); ok && href != "" {
			next = utils.NormalizeURL(href, baseURL)
			return false
		}
		return true
	})
	return next
}

// collectLinks 按列表选择器链收集详情页链接,第一条命中的选择器生效
func collectLinks(doc *goquery.Document, selectors []string, baseURL string) []string {
	for _, sel := range selectors {
		var links []string
		doc.Find(sel).Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok || href == "" || strings.HasPrefix(href, "javascript") || strings.HasPrefix(href, "#") {
				return
			}
			if abs := utils.NormalizeURL(href, baseURL); abs != "" {
				links = append(links, abs)
			}
		})
		if len(links) > 0 {
			return links
		}
	}
	return nil
}
