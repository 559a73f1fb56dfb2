package spiders

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/truthguardian/crawler/internal/config"
	"github.com/truthguardian/crawler/internal/fetch"
	"github.com/truthguardian/crawler/internal/models"
	"github.com/truthguardian/crawler/internal/utils"
)

func init() {
	Register("weibo", func(cfg *config.Config) Spider {
		return NewWeiboSpider(cfg)
	})
}

// 微博内容卡片类型,其余卡片(话题/用户推荐等)跳过
const weiboCardTypePost = 9

var (
	weiboHTMLTagPattern = regexp.MustCompile(`<[^>]+>`)
	weiboSpacePattern   = regexp.MustCompile(` +`)
	weiboTopicPattern   = regexp.MustCompile(`#([^#\s]+)#`)
)

// WeiboSpider 微博搜索爬虫
// 通过移动端container API按关键词搜索,逐页采集直到
// 空页或达到最大页数
type WeiboSpider struct {
	cfg     *config.Config
	session *apiSession
}

// NewWeiboSpider 创建微博搜索爬虫
func NewWeiboSpider(cfg *config.Config) *WeiboSpider {
	return &WeiboSpider{
		cfg: cfg,
		session: &apiSession{
			client: fetch.NewClient(cfg.Crawl),
			auth:   cfg.Social.Auth,
		},
	}
}

// Name 实现Spider接口
func (s *WeiboSpider) Name() string { return "weibo" }

// Crawl 实现Spider接口,登录失败时终止整轮采集
func (s *WeiboSpider) Crawl(ctx context.Context, emit EmitFunc) error {
	if err := s.session.login(ctx); err != nil {
		return fmt.Errorf("登录失败,爬虫终止: %w", err)
	}

	keyword := s.cfg.Social.Weibo.Keyword
	maxPages := s.cfg.Crawl.MaxPages
	delay := time.Duration(s.cfg.Crawl.DownloadDelay) * time.Second
	utils.Infof("开始微博搜索采集,关键词: %s, 最大页数: %d", keyword, maxPages)

	total := 0
	for page := 1; page <= maxPages; page++ {
		resp, err := s.search(ctx, keyword, page)
		if err != nil {
			utils.Errorf("获取第 %d 页数据失败: %v", page, err)
			continue
		}

		// 翻页终止只看原始卡片列表,整页都是话题/用户卡片时继续翻页
		if len(resp.Data.Cards) == 0 {
			utils.Infof("第 %d 页没有更多数据,结束采集", page)
			break
		}

		posts := s.parseCards(resp.Data.Cards)
		for _, post := range posts {
			emit(ctx, post)
			total++
		}
		utils.Infof("第 %d 页采集到 %d 条微博", page, len(posts))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	utils.Infof("微博采集完成,共 %d 条", total)
	return nil
}

type weiboResponse struct {
	Data struct {
		Cards []weiboCard `json:"cards"`
	} `json:"data"`
}

type weiboCard struct {
	CardType int        `json:"card_type"`
	Mblog    *weiboPost `json:"mblog"`
}

type weiboPost struct {
	Mid             string     `json:"mid"`
	Text            string     `json:"text"`
	CreatedAt       string     `json:"created_at"`
	RegionName      string     `json:"region_name"`
	AttitudesCount  int        `json:"attitudes_count"`
	CommentsCount   int        `json:"comments_count"`
	RepostsCount    int        `json:"reposts_count"`
	RetweetedStatus *weiboPost `json:"retweeted_status"`
	User            struct {
		ID             json.Number `json:"id"`
		ScreenName     string      `json:"screen_name"`
		Verified       bool        `json:"verified"`
		VerifiedType   int         `json:"verified_type"`
		VerifiedReason string      `json:"verified_reason"`
	} `json:"user"`
	Pics []struct {
		Large struct {
			URL string `json:"url"`
		} `json:"large"`
	} `json:"pics"`
}

// search 调用container API搜索指定关键词
func (s *WeiboSpider) search(ctx context.Context, keyword string, page int) (*weiboResponse, error) {
	wb := s.cfg.Social.Weibo

	params := url.Values{}
	params.Set("containerid", fmt.Sprintf("100103type=1&q=%s", keyword))
	params.Set("page_type", "searchall")
	params.Set("page", fmt.Sprintf("%d", page))

	headers := map[string]string{
		"Accept":           "application/json, text/plain, */*",
		"Referer":          "https://m.weibo.cn/search?containerid=" + url.QueryEscape("100103type=1&q="+keyword),
		"X-Requested-With": "XMLHttpRequest",
		"MWeibo-Pwa":       "1",
	}
	if wb.UserAgent != "" {
		headers["User-Agent"] = wb.UserAgent
	}
	if wb.Cookie != "" {
		headers["Cookie"] = wb.Cookie
	}

	var resp weiboResponse
	if err := s.session.client.GetJSON(ctx, wb.APIURL, params, s.session.authHeaders(headers), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// parseCards 解析微博卡片列表,单条解析失败跳过
func (s *WeiboSpider) parseCards(cards []weiboCard) []*models.SocialPost {
	keywords := s.cfg.Keywords.Words

	var posts []*models.SocialPost
	for _, card := range cards {
		if card.CardType != weiboCardTypePost || card.Mblog == nil {
			continue
		}
		mblog := card.Mblog
		if mblog.Mid == "" {
			utils.Warnf("跳过缺少mid的微博")
			continue
		}

		content := cleanWeiboText(mblog.Text)
		contentType := models.ContentTypeOriginal
		if mblog.RetweetedStatus != nil {
			contentType = models.ContentTypeRepost
		}

		post := &models.SocialPost{
			PostID:       mblog.Mid,
			Platform:     "weibo",
			Content:      content,
			UserID:       mblog.User.ID.String(),
			Username:     mblog.User.ScreenName,
			VerifiedType: mapVerifiedType(mblog.User.Verified, mblog.User.VerifiedType),
			PubDate:      utils.ParseDate(mblog.CreatedAt),
			URL:          "https://m.weibo.cn/detail/" + mblog.Mid,
			Shares:       mblog.RepostsCount,
			Comments:     mblog.CommentsCount,
			Likes:        mblog.AttitudesCount,
			Tags:         utils.MatchKeywords(content, keywords, 5),
			Topics:       extractTopics(content),
			Location:     strings.TrimPrefix(mblog.RegionName, "发布于 "),
			ContentType:  contentType,
			KeywordMatch: utils.KeywordMatch(content, keywords),
		}
		for _, pic := range mblog.Pics {
			if pic.Large.URL != "" {
				post.Media = append(post.Media, models.Media{Type: "image", URL: pic.Large.URL})
			}
		}
		posts = append(posts, post)
	}
	return posts
}

// cleanWeiboText 清理微博正文HTML
// 解码HTML实体,去除标签,保留@用户和#话题#文本
func cleanWeiboText(text string) string {
	if text == "" {
		return ""
	}
	text = html.UnescapeString(text)
	text = weiboHTMLTagPattern.ReplaceAllString(text, "")
	text = weiboSpacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// extractTopics 提取#话题#标签
func extractTopics(content string) []string {
	var topics []string
	seen := make(map[string]struct{})
	for _, m := range weiboTopicPattern.FindAllStringSubmatch(content, -1) {
		topic := m[1]
		if _, dup := seen[topic]; dup {
			continue
		}
		seen[topic] = struct{}{}
		topics = append(topics, topic)
	}
	return topics
}

// mapVerifiedType 把微博认证类型映射为平台无关的认证分类
// verified_type: 0=个人黄V, 1=政府, 3=媒体, 其余蓝V归为机构
func mapVerifiedType(verified bool, verifiedType int) string {
	if !verified {
		return "personal"
	}
	switch verifiedType {
	case 0:
		return "personal"
	case 3:
		return "media"
	default:
		return "official"
	}
}
