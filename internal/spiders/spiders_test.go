package spiders

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/truthguardian/crawler/internal/config"
	"github.com/truthguardian/crawler/internal/models"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("构造文档失败: %v", err)
	}
	return doc
}

func testConfig() *config.Config {
	return &config.Config{
		Crawl: config.CrawlConfig{
			UserAgent:  "test-agent",
			Timeout:    5,
			RetryTimes: 0,
			MaxPages:   3,
		},
		Keywords: config.KeywordsConfig{
			Words: []string{"疫情", "辟谣", "谣言", "疫苗"},
		},
	}
}

func TestRegistryNames(t *testing.T) {
	names := Names()
	for _, want := range []string{"news", "gov", "weibo", "sina", "piyao"} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("注册表缺少爬虫 %s, 实际: %v", want, names)
		}
	}
}

func TestRegistryUnknownSpider(t *testing.T) {
	if _, err := New("douyin", testConfig()); err == nil {
		t.Error("未注册的爬虫应当返回错误")
	}
}

func TestGenerateSummary(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{"短内容原样返回", "这是一条短新闻。", 200, "这是一条短新闻。"},
		{"截断到最后一个句号", "第一句话。第二句话。第三句话延伸", 10, "第一句话。"},
		{"无句号时硬截断", "没有句号的长内容需要截断处理", 6, "没有句号的长"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := generateSummary(tt.content, tt.maxLen); got != tt.want {
				t.Errorf("generateSummary() = %q, 期望 %q", got, tt.want)
			}
		})
	}
}

func TestIsNewsURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"新闻路径", "https://example.com/news/20240101.html", true},
		{"文章路径", "https://example.com/article/12345", true},
		{"年份路径", "https://example.com/2024/0101/c1001.html", true},
		{"内容编号路径", "https://example.com/content/123456", true},
		{"搜索页排除", "https://example.com/search?q=test", false},
		{"标签页排除", "https://example.com/tag/covid", false},
		{"图片排除", "https://example.com/news/photo.jpg", false},
		{"登录页排除", "https://example.com/login", false},
		{"无特征路径排除", "https://example.com/somewhere", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNewsURL(tt.url); got != tt.want {
				t.Errorf("isNewsURL(%s) = %v, 期望 %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestMapVerifiedType(t *testing.T) {
	tests := []struct {
		name         string
		verified     bool
		verifiedType int
		want         string
	}{
		{"未认证用户", false, -1, "personal"},
		{"个人黄V", true, 0, "personal"},
		{"政府机构", true, 1, "official"},
		{"媒体蓝V", true, 3, "media"},
		{"企业蓝V", true, 2, "official"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapVerifiedType(tt.verified, tt.verifiedType); got != tt.want {
				t.Errorf("mapVerifiedType(%v, %d) = %s, 期望 %s", tt.verified, tt.verifiedType, got, tt.want)
			}
		})
	}
}

func TestCleanWeiboText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"去除HTML标签", `建议大家及时关注<a href="/k/辟谣">#辟谣#</a>信息`, "建议大家及时关注#辟谣#信息"},
		{"解码HTML实体", "疫苗&amp;核酸  检测", "疫苗&核酸 检测"},
		{"保留@用户", `<a href="/u/123">@健康中国</a> 发布通报`, "@健康中国 发布通报"},
		{"空文本", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanWeiboText(tt.input); got != tt.want {
				t.Errorf("cleanWeiboText() = %q, 期望 %q", got, tt.want)
			}
		})
	}
}

func TestExtractTopics(t *testing.T) {
	topics := extractTopics("#辟谣#最新消息 #疫情防控#进展 #辟谣#重复话题")
	if len(topics) != 2 {
		t.Fatalf("期望2个话题, 实际 %d: %v", len(topics), topics)
	}
	if topics[0] != "辟谣" || topics[1] != "疫情防控" {
		t.Errorf("话题提取错误: %v", topics)
	}
}

func TestGovCategory(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"政策路径", "https://www.gov.cn/zhengce/2024/content.htm", "政策"},
		{"政务公开路径", "https://www.gov.cn/zwgk/2024/info.htm", "政务公开"},
		{"通知公告路径", "https://www.nhc.gov.cn/tzgg/202401/abc.shtml", "通知公告"},
		{"无特征路径默认值", "https://www.gov.cn/other/page.htm", "政府信息"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDoc(t, "<html><body></body></html>")
			if got := govCategory(doc, tt.url); got != tt.want {
				t.Errorf("govCategory(%s) = %s, 期望 %s", tt.url, got, tt.want)
			}
		})
	}
}

func TestGovSource(t *testing.T) {
	src := config.NewsSource{Name: "某省政府"}
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"卫健委域名", "http://www.nhc.gov.cn/xcs/yqtb/202401/abc.shtml", "国家卫健委"},
		{"政府网域名", "https://www.gov.cn/zhengce/content.htm", "中国政府网"},
		{"其他域名用配置名称", "https://www.example.com/info", "某省政府"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := govSource(src, tt.url); got != tt.want {
				t.Errorf("govSource(%s) = %s, 期望 %s", tt.url, got, tt.want)
			}
		})
	}
}

func TestNewsSpiderCrawl(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/news/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><ul class="news-list">
			<li><a href="/news/2024/covid-vaccine.html">疫苗接种最新进展</a></li>
			<li><a href="/about">关于我们</a></li>
		</ul></body></html>`)
	})
	mux.HandleFunc("/news/2024/covid-vaccine.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>疫苗接种最新进展</title></head><body>
			<h1 class="article-title">疫苗接种最新进展</h1>
			<span class="date">2024-01-05 10:30</span>
			<span class="author">记者张三</span>
			<div class="article-content"><p>全国疫苗接种工作持续推进。相关部门发布辟谣声明。</p></div>
		</body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.Sources.News = []config.NewsSource{{
		Name:          "测试新闻网",
		Domain:        "test.example.com",
		StartURLs:     []string{srv.URL + "/news/"},
		ListSelectors: []string{"ul.news-list a"},
	}}

	var items []models.Item
	spider := NewNewsSpider(cfg)
	err := spider.Crawl(context.Background(), func(_ context.Context, item models.Item) {
		items = append(items, item)
	})
	if err != nil {
		t.Fatalf("Crawl失败: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("期望采集1条新闻, 实际 %d", len(items))
	}
	news, ok := items[0].(*models.NewsItem)
	if !ok {
		t.Fatalf("期望NewsItem, 实际 %T", items[0])
	}
	if news.Title != "疫苗接种最新进展" {
		t.Errorf("标题错误: %s", news.Title)
	}
	if !strings.Contains(news.Content, "疫苗接种工作") {
		t.Errorf("正文错误: %s", news.Content)
	}
	if news.Source != "测试新闻网" {
		t.Errorf("来源错误: %s", news.Source)
	}
	if !strings.HasPrefix(news.NewsID, "news_") {
		t.Errorf("news_id应带news前缀: %s", news.NewsID)
	}
	if news.SourceType != models.SourceTypeNews {
		t.Errorf("source_type错误: %s", news.SourceType)
	}
	if news.KeywordMatch <= 0 {
		t.Errorf("关键词匹配度应大于0: %f", news.KeywordMatch)
	}
}

func TestNewsSpiderStrictKeywordFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/news/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><ul class="news-list">
			<li><a href="/news/2024/sports.html">体育赛事报道</a></li>
		</ul></body></html>`)
	})
	mux.HandleFunc("/news/2024/sports.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<h1 class="article-title">体育赛事报道</h1>
			<div class="article-content"><p>昨晚的比赛结果令人振奋。</p></div>
		</body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.Keywords.Strict = true
	cfg.Sources.News = []config.NewsSource{{
		Name:          "测试新闻网",
		StartURLs:     []string{srv.URL + "/news/"},
		ListSelectors: []string{"ul.news-list a"},
	}}

	var items []models.Item
	spider := NewNewsSpider(cfg)
	if err := spider.Crawl(context.Background(), func(_ context.Context, item models.Item) {
		items = append(items, item)
	}); err != nil {
		t.Fatalf("Crawl失败: %v", err)
	}

	if len(items) != 0 {
		t.Errorf("严格模式下不含关键词的文章应被丢弃, 实际采集 %d 条", len(items))
	}
}

func TestGovSpiderCrawl(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/zwgk/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><ul>
			<li><a href="/zwgk/content_12345.htm">关于疫情防控工作的通知</a></li>
		</ul></body></html>`)
	})
	mux.HandleFunc("/zwgk/content_12345.htm", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>关于疫情防控工作的通知_中国政府网</title></head><body>
			<div class="article_title">关于疫情防控工作的通知</div>
			<span class="date">2024年01月05日</span>
			<div class="source">来源：国务院办公厅</div>
			<div class="article_content"><p>为做好疫情防控工作,现通知如下。</p></div>
		</body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.Sources.Government = []config.NewsSource{{
		Name:      "测试政府网",
		StartURLs: []string{srv.URL + "/zwgk/"},
	}}

	var items []models.Item
	spider := NewGovSpider(cfg)
	if err := spider.Crawl(context.Background(), func(_ context.Context, item models.Item) {
		items = append(items, item)
	}); err != nil {
		t.Fatalf("Crawl失败: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("期望采集1条政务信息, 实际 %d", len(items))
	}
	news := items[0].(*models.NewsItem)
	if news.Title != "关于疫情防控工作的通知" {
		t.Errorf("标题错误: %s", news.Title)
	}
	if news.SourceType != models.SourceTypeGovernment {
		t.Errorf("source_type错误: %s", news.SourceType)
	}
	if news.Category != "政务公开" {
		t.Errorf("分类错误: %s", news.Category)
	}
	if news.Author != "国务院办公厅" {
		t.Errorf("发布部门错误: %s", news.Author)
	}
}

func TestPiyaoSpiderCrawl(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/bq/index.htm", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div id="list"><ul>
			<li><h2><a href="/detail/rumor1.htm">网传自来水加大氯气投放是谣言</a></h2></li>
		</ul></div></body></html>`)
	})
	mux.HandleFunc("/detail/rumor1.htm", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<div class="con_tit"><h2>网传自来水加大氯气投放是谣言</h2>
			<p>来源：中国互联网联合辟谣平台 时间：2024-01-05</p></div>
			<div id="detailContent">
				<p>近日网传部分地区自来水加大氯气投放,引发关注。</p>
				<p><a href="/detail/truth1.htm">点击真相</a></p>
			</div>
		</body></html>`)
	})
	mux.HandleFunc("/detail/truth1.htm", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<div class="con_tit"><h2>真相说明</h2><p>来源：新华网 时间：2024-01-05</p></div>
			<div id="detailContent"><p>经核实,该消息为谣言,自来水生产流程未做调整。</p></div>
		</body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.Sources.Rumor = []config.NewsSource{{
		Name:      "中国互联网联合辟谣平台",
		StartURLs: []string{srv.URL + "/bq/index.htm"},
	}}

	var items []models.Item
	spider := NewPiyaoSpider(cfg)
	if err := spider.Crawl(context.Background(), func(_ context.Context, item models.Item) {
		items = append(items, item)
	}); err != nil {
		t.Fatalf("Crawl失败: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("期望采集1条谣言, 实际 %d", len(items))
	}
	rumor, ok := items[0].(*models.RumorItem)
	if !ok {
		t.Fatalf("期望RumorItem, 实际 %T", items[0])
	}
	if rumor.Title != "网传自来水加大氯气投放是谣言" {
		t.Errorf("标题错误: %s", rumor.Title)
	}
	if !strings.HasPrefix(rumor.RumorID, "rumor_") {
		t.Errorf("rumor_id应带rumor前缀: %s", rumor.RumorID)
	}
	if rumor.Source != "中国互联网联合辟谣平台" {
		t.Errorf("来源错误: %s", rumor.Source)
	}
	if !strings.Contains(rumor.Refutation, "该消息为谣言") {
		t.Errorf("辟谣内容错误: %s", rumor.Refutation)
	}
	if rumor.RefutationSource != "新华网" {
		t.Errorf("辟谣来源错误: %s", rumor.RefutationSource)
	}
	if rumor.SpreadLevel != defaultSpreadLevel || rumor.HarmLevel != defaultHarmLevel {
		t.Errorf("传播/危害评估应使用默认值: %d/%d", rumor.SpreadLevel, rumor.HarmLevel)
	}
}

func TestWeiboSpiderCrawl(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"test-token"}`)
	})
	page := 0
	mux.HandleFunc("/api/container/getIndex", func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("缺少bearer token: %s", auth)
		}
		page++
		if page > 1 {
			fmt.Fprint(w, `{"data":{"cards":[]}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"cards":[
			{"card_type":11},
			{"card_type":9,"mblog":{
				"mid":"5012345678901234",
				"text":"<a href='/k/辟谣'>#辟谣#</a>网传消息不实,请勿转发",
				"created_at":"Sun Jan 05 12:30:00 +0800 2025",
				"region_name":"发布于 北京",
				"attitudes_count":1500,"comments_count":200,"reposts_count":80,
				"user":{"id":123456,"screen_name":"健康中国","verified":true,"verified_type":1},
				"pics":[{"large":{"url":"https://wx1.sinaimg.cn/large/abc.jpg"}}]
			}}
		]}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.Social.Auth = config.APIAuthConfig{BaseURL: srv.URL, Username: "user1", Password: "pass1"}
	cfg.Social.Weibo = config.WeiboConfig{
		APIURL:  srv.URL + "/api/container/getIndex",
		Keyword: "辟谣",
	}

	var items []models.Item
	spider := NewWeiboSpider(cfg)
	if err := spider.Crawl(context.Background(), func(_ context.Context, item models.Item) {
		items = append(items, item)
	}); err != nil {
		t.Fatalf("Crawl失败: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("期望采集1条微博, 实际 %d", len(items))
	}
	post := items[0].(*models.SocialPost)
	if post.PostID != "5012345678901234" {
		t.Errorf("post_id应使用原生mid: %s", post.PostID)
	}
	if post.Platform != "weibo" {
		t.Errorf("平台错误: %s", post.Platform)
	}
	if post.Content != "#辟谣#网传消息不实,请勿转发" {
		t.Errorf("内容清理错误: %q", post.Content)
	}
	if post.VerifiedType != "official" {
		t.Errorf("认证类型错误: %s", post.VerifiedType)
	}
	if post.Likes != 1500 || post.Comments != 200 || post.Shares != 80 {
		t.Errorf("互动数错误: %d/%d/%d", post.Likes, post.Comments, post.Shares)
	}
	if post.Location != "北京" {
		t.Errorf("地理位置错误: %s", post.Location)
	}
	if len(post.Media) != 1 || post.Media[0].URL != "https://wx1.sinaimg.cn/large/abc.jpg" {
		t.Errorf("图片提取错误: %v", post.Media)
	}
	if len(post.Topics) != 1 || post.Topics[0] != "辟谣" {
		t.Errorf("话题提取错误: %v", post.Topics)
	}
	if post.ContentType != models.ContentTypeOriginal {
		t.Errorf("内容类型错误: %s", post.ContentType)
	}
}

func TestWeiboSpiderSkipsBarrenPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"test-token"}`)
	})
	page := 0
	mux.HandleFunc("/api/container/getIndex", func(w http.ResponseWriter, r *http.Request) {
		page++
		switch page {
		case 1:
			// 整页都是话题/用户卡片,没有可解析的微博
			fmt.Fprint(w, `{"data":{"cards":[{"card_type":11},{"card_type":4}]}}`)
		case 2:
			fmt.Fprint(w, `{"data":{"cards":[
				{"card_type":9,"mblog":{
					"mid":"5098765432109876",
					"text":"网传消息不实",
					"created_at":"Sun Jan 05 12:30:00 +0800 2025",
					"user":{"id":1,"screen_name":"测试用户"}
				}}
			]}}`)
		default:
			fmt.Fprint(w, `{"data":{"cards":[]}}`)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.Social.Auth = config.APIAuthConfig{BaseURL: srv.URL, Username: "user1", Password: "pass1"}
	cfg.Social.Weibo = config.WeiboConfig{APIURL: srv.URL + "/api/container/getIndex", Keyword: "辟谣"}

	var items []models.Item
	spider := NewWeiboSpider(cfg)
	if err := spider.Crawl(context.Background(), func(_ context.Context, item models.Item) {
		items = append(items, item)
	}); err != nil {
		t.Fatalf("Crawl失败: %v", err)
	}

	// 无可解析微博的页面不应终止翻页,第2页的数据仍然被采集
	if len(items) != 1 {
		t.Fatalf("期望采集1条微博, 实际 %d", len(items))
	}
	if got := items[0].(*models.SocialPost).PostID; got != "5098765432109876" {
		t.Errorf("post_id错误: %s", got)
	}
	if page != 3 {
		t.Errorf("期望请求3页(空卡片列表才终止), 实际 %d", page)
	}
}

func TestWeiboSpiderLoginFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Social.Auth = config.APIAuthConfig{BaseURL: srv.URL, Username: "user1", Password: "wrong"}
	cfg.Social.Weibo = config.WeiboConfig{APIURL: srv.URL + "/api/container/getIndex", Keyword: "辟谣"}

	spider := NewWeiboSpider(cfg)
	err := spider.Crawl(context.Background(), func(_ context.Context, _ models.Item) {
		t.Error("登录失败后不应产出数据")
	})
	if err == nil {
		t.Fatal("登录失败应终止采集并返回错误")
	}
}

func TestSinaSpiderCrawl(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"test-token"}`)
	})
	page := 0
	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("type"); got != "news" {
			t.Errorf("type参数错误: %s", got)
		}
		if got := r.URL.Query().Get("sort"); got != "time" {
			t.Errorf("sort参数错误: %s", got)
		}
		page++
		if page > 1 {
			fmt.Fprint(w, `{"data":{"results":[]}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"results":[{
			"id":98765,"docid":"comos-abcdef123",
			"title":"<font color=red>辟谣</font>:网传消息不实",
			"media":"","url":"https://news.sina.com.cn/c/2024-01-05/doc.shtml",
			"img_url":"https://n.sinaimg.cn/news/abc.jpg",
			"category":"","datetime":"2小时前"
		}]}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.Social.Auth = config.APIAuthConfig{BaseURL: srv.URL, Username: "user1", Password: "pass1"}
	cfg.Social.Sina = config.SinaConfig{APIURL: srv.URL + "/api/search", Keyword: "辟谣"}

	var items []models.Item
	spider := NewSinaSpider(cfg)
	if err := spider.Crawl(context.Background(), func(_ context.Context, item models.Item) {
		items = append(items, item)
	}); err != nil {
		t.Fatalf("Crawl失败: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("期望采集1条新闻, 实际 %d", len(items))
	}
	news := items[0].(*models.NewsItem)
	if news.NewsID != "sina_comos-abcdef123" {
		t.Errorf("news_id应使用原生docid: %s", news.NewsID)
	}
	if strings.Contains(news.Title, "<font") {
		t.Errorf("标题应清理高亮标签: %s", news.Title)
	}
	if news.Source != "新浪新闻" {
		t.Errorf("来源默认值错误: %s", news.Source)
	}
	if news.Category != "cms" {
		t.Errorf("分类默认值错误: %s", news.Category)
	}
	if news.PubDate.IsZero() {
		t.Error("发布时间不应为零值")
	}
}

func TestSinaSpiderSkipsBarrenPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"test-token"}`)
	})
	page := 0
	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		page++
		switch page {
		case 1:
			// 整页都是缺少docid/id的无效行
			fmt.Fprint(w, `{"data":{"results":[
				{"id":0,"docid":"","title":"无效行一"},
				{"id":0,"docid":"","title":"无效行二"}
			]}}`)
		case 2:
			fmt.Fprint(w, `{"data":{"results":[{
				"id":98766,"docid":"comos-xyz789",
				"title":"第二页有效新闻",
				"url":"https://news.sina.com.cn/c/2024-01-05/doc2.shtml",
				"datetime":"3小时前"
			}]}}`)
		default:
			fmt.Fprint(w, `{"data":{"results":[]}}`)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.Social.Auth = config.APIAuthConfig{BaseURL: srv.URL, Username: "user1", Password: "pass1"}
	cfg.Social.Sina = config.SinaConfig{APIURL: srv.URL + "/api/search", Keyword: "辟谣"}

	var items []models.Item
	spider := NewSinaSpider(cfg)
	if err := spider.Crawl(context.Background(), func(_ context.Context, item models.Item) {
		items = append(items, item)
	}); err != nil {
		t.Fatalf("Crawl失败: %v", err)
	}

	// 无有效行的页面不应终止翻页,第2页的数据仍然被采集
	if len(items) != 1 {
		t.Fatalf("期望采集1条新闻, 实际 %d", len(items))
	}
	if got := items[0].(*models.NewsItem).NewsID; got != "sina_comos-xyz789" {
		t.Errorf("news_id错误: %s", got)
	}
	if page != 3 {
		t.Errorf("期望请求3页(空结果列表才终止), 实际 %d", page)
	}
}
