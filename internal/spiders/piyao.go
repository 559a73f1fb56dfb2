package spiders

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/truthguardian/crawler/internal/config"
	"github.com/truthguardian/crawler/internal/fetch"
	"github.com/truthguardian/crawler/internal/models"
	"github.com/truthguardian/crawler/internal/utils"
)

func init() {
	Register("piyao", func(cfg *config.Config) Spider {
		return NewPiyaoSpider(cfg)
	})
}

// 辟谣平台页面选择器,站点改版时靠后的选择器兜底
var (
	piyaoListSelectors = []string{
		"#list li h2 a",
		"div.list ul li a",
		".list ul li a",
		"ul li h2 a",
	}

	piyaoTitleSelectors = []string{
		"div.con_tit h2",
		"h2",
		".article-title",
	}

	piyaoInfoSelectors = []string{
		"div.con_tit p",
		"div.source",
		".article-info",
	}

	piyaoContentSelectors = []string{
		"div#detailContent",
		"div.con_txt",
		".article-content",
		".content",
	}

	piyaoSourcePattern = regexp.MustCompile(`来源[：:]\s*(.*?)(?:时间|$)`)
	piyaoTimePattern   = regexp.MustCompile(`时间[：:]\s*(.*?)(?:来源|$)`)
)

// 传播范围和危害程度的默认评估值,后续由人工或处理器修正
const (
	defaultSpreadLevel = 5
	defaultHarmLevel   = 5
)

// PiyaoSpider 辟谣平台爬虫
// 列表页 → 谣言详情页 → 可选的"真相"二跳页面,
// 真相页内容作为辟谣内容存储
type PiyaoSpider struct {
	cfg    *config.Config
	client *fetch.Client
}

// NewPiyaoSpider 创建辟谣平台爬虫
func NewPiyaoSpider(cfg *config.Config) *PiyaoSpider {
	return &PiyaoSpider{
		cfg:    cfg,
		client: fetch.NewClient(cfg.Crawl),
	}
}

// Name 实现Spider接口
func (s *PiyaoSpider) Name() string { return "piyao" }

// Crawl 实现Spider接口
func (s *PiyaoSpider) Crawl(ctx context.Context, emit EmitFunc) error {
	for _, src := range s.cfg.Sources.Rumor {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		utils.Infof("开始采集辟谣平台: %s (%s)", src.Name, src.Domain)
		s.crawlSource(ctx, src, emit)
	}
	return nil
}

func (s *PiyaoSpider) crawlSource(ctx context.Context, src config.NewsSource, emit EmitFunc) {
	delay := time.Duration(s.cfg.Crawl.DownloadDelay) * time.Second
	visited := make(map[string]struct{})

	for _, startURL := range src.StartURLs {
		doc, err := s.fetchDoc(ctx, startURL)
		if err != nil {
			utils.Warnf("抓取列表页失败 [%s]: %v", startURL, err)
			continue
		}

		selectors := src.ListSelectors
		if len(selectors) == 0 {
			selectors = piyaoListSelectors
		}
		links := collectLinks(doc, selectors, startURL)
		utils.Infof("列表页 %s 发现 %d 条谣言条目", startURL, len(links))

		for _, link := range links {
			if ctx.Err() != nil {
				return
			}
			if _, seen := visited[link]; seen {
				continue
			}
			visited[link] = struct{}{}

			if item := s.parseDetail(ctx, src, link); item != nil {
				emit(ctx, item)
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	}
}

// parseDetail 解析谣言详情页,存在真相链接时二跳获取辟谣内容
func (s *PiyaoSpider) parseDetail(ctx context.Context, src config.NewsSource, pageURL string) models.Item {
	doc, err := s.fetchDoc(ctx, pageURL)
	if err != nil {
		utils.Warnf("抓取详情页失败 [%s]: %v", pageURL, err)
		return nil
	}

	title := utils.CleanText(firstText(doc, piyaoTitleSelectors))
	if title == "" {
		utils.Debugf("跳过无标题页面: %s", pageURL)
		return nil
	}

	source, pubDate := parsePiyaoInfo(doc)
	content, contentHTML := piyaoContent(doc)
	if content == "" {
		utils.Debugf("跳过无正文页面: %s", pageURL)
		return nil
	}

	item := &models.RumorItem{
		RumorID:     utils.GenerateID(pageURL+"|"+title, "rumor"),
		Title:       title,
		Content:     utils.CleanText(content),
		Source:      source,
		URL:         utils.CleanURL(pageURL, ""),
		PubDate:     pubDate,
		Category:    "辟谣",
		SpreadLevel: defaultSpreadLevel,
		HarmLevel:   defaultHarmLevel,
		Tags:        utils.MatchKeywords(title+content, s.cfg.Keywords.Words, 5),
		SourceType:  models.SourceTypeRumor,
	}
	if item.Source == "" {
		item.Source = src.Name
	}
	for _, img := range utils.ExtractImages(contentHTML, pageURL) {
		item.Media = append(item.Media, models.Media{Type: "image", URL: img})
	}

	// 二跳真相页面
	if truthURL := findTruthLink(doc, pageURL); truthURL != "" {
		utils.Infof("发现真相链接,继续抓取: %s", truthURL)
		s.attachRefutation(ctx, item, truthURL)
	}

	return item
}

// attachRefutation 抓取真相页面,内容写入辟谣字段
func (s *PiyaoSpider) attachRefutation(ctx context.Context, item *models.RumorItem, truthURL string) {
	doc, err := s.fetchDoc(ctx, truthURL)
	if err != nil {
		utils.Warnf("抓取真相页面失败 [%s]: %v", truthURL, err)
		return
	}

	content, _ := piyaoContent(doc)
	if content == "" {
		return
	}
	item.Refutation = utils.CleanText(content)

	if source, _ := parsePiyaoInfo(doc); source != "" {
		item.RefutationSource = source
	} else {
		item.RefutationSource = "中国互联网联合辟谣平台"
	}
}

func (s *PiyaoSpider) fetchDoc(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := s.client.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// parsePiyaoInfo 从来源信息行解析来源和发布时间
// 格式如"来源：新华网 时间：2023-01-05"
func parsePiyaoInfo(doc *goquery.Document) (source string, pubDate time.Time) {
	text := strings.TrimSpace(firstText(doc, piyaoInfoSelectors))
	if text == "" {
		return "", utils.ParseDate("")
	}

	if m := piyaoSourcePattern.FindStringSubmatch(text); m != nil {
		source = strings.TrimSpace(m[1])
	}
	timeStr := ""
	if m := piyaoTimePattern.FindStringSubmatch(text); m != nil {
		timeStr = strings.TrimSpace(m[1])
	}
	return source, utils.ParseDate(timeStr)
}

// piyaoContent 抽取正文,跳过"点击真相"之类的跳转提示段落
func piyaoContent(doc *goquery.Document) (text, html string) {
	for _, sel := range piyaoContentSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}

		var paras []string
		node.Find("p").Each(func(_ int, p *goquery.Selection) {
			t := strings.TrimSpace(p.Text())
			if t == "" || strings.Contains(t, "点击真相") || strings.Contains(t, "查看真相") {
				return
			}
			paras = append(paras, t)
		})
		if len(paras) == 0 {
			if t := strings.TrimSpace(node.Text()); t != "" {
				paras = append(paras, t)
			}
		}
		if len(paras) == 0 {
			continue
		}

		html, _ = node.Html()
		return strings.Join(paras, "\n"), html
	}
	return "", ""
}

// findTruthLink 在正文中查找"点击真相"跳转链接
func findTruthLink(doc *goquery.Document, baseURL string) string {
	var truthURL string
	for _, sel := range piyaoContentSelectors {
		doc.Find(sel + " a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			text := a.Text()
			if !strings.Contains(text, "点击真相") && !strings.Contains(text, "查看真相") {
				return true
			}
			if href, ok := a.Attr("href"); ok && href != "" {
				truthURL = utils.NormalizeURL(href, baseURL)
				return false
			}
			return true
		})
		if truthURL != "" {
			break
		}
	}
	return truthURL
}
