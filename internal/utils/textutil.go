package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	// HTML标签
	htmlTagPattern = regexp.MustCompile(`<[^>]+>`)
	// 连续空白字符
	whitespacePattern = regexp.MustCompile(`\s+`)
	// 白名单外的字符(保留字母数字下划线、空白、汉字和常用中文标点)
	charWhitelistPattern = regexp.MustCompile(`[^\w\s\x{4e00}-\x{9fff}。，、；：“”（）《》？！]`)
	// 日期字符串中的前后缀噪音
	dateNoisePattern = regexp.MustCompile(`发布时间[：:]|\s+来源[：:].*$`)
	// 段落分隔
	paragraphPattern = regexp.MustCompile(`\n+`)
)

// 广告关键词列表
var adKeywords = []string{
	"广告", "推广", "赞助", "点击购买", "限时优惠",
	"联系电话", "推荐使用", "购买链接", "折扣", "促销",
	"联系我们", "微信号", "QQ群", "加入我们", "转发有奖",
}

// 广告模式正则表达式
var adPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[购领][买取][链方地][接式址][：:].+`),
	regexp.MustCompile(`[加关]入?[我官]?们?的?[微群].{0,10}[：:].{5,30}`),
	regexp.MustCompile(`[联微][系信][方电][式话][：:].{5,15}`),
	regexp.MustCompile(`(?:http|https|www).+?(?:\.com|\.cn|\.net)`),
	regexp.MustCompile(`[送优][礼惠][：:].+`),
}

// CleanText 清洗文本: 去除HTML标签,丢弃白名单外的字符,合并空白字符
// 幂等: CleanText(CleanText(s)) == CleanText(s)
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	// 替换HTML标签
	text = htmlTagPattern.ReplaceAllString(text, " ")

	// 丢弃特殊字符
	text = charWhitelistPattern.ReplaceAllString(text, "")

	// 合并空白字符必须最后执行,丢弃字符会留下相邻空白
	text = whitespacePattern.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// FilterAds 过滤广告内容
// 按空行拆分段落,丢弃命中广告关键词或广告模式的段落后重新拼接
func FilterAds(text string) string {
	if text == "" {
		return ""
	}

	paragraphs := paragraphPattern.Split(text, -1)
	filtered := make([]string, 0, len(paragraphs))

	for _, para := range paragraphs {
		if isAdParagraph(para) {
			continue
		}
		filtered = append(filtered, para)
	}

	return strings.Join(filtered, "\n")
}

func isAdParagraph(para string) bool {
	for _, keyword := range adKeywords {
		if strings.Contains(para, keyword) {
			return true
		}
	}
	for _, pattern := range adPatterns {
		if pattern.MatchString(para) {
			return true
		}
	}
	return false
}

// 默认日期布局,按顺序尝试
var defaultDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006年01月02日 15:04:05",
	"2006年01月02日 15:04",
	"2006年01月02日",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	// 微博created_at格式
	"Mon Jan 02 15:04:05 -0700 2006",
}

var (
	cnDatePattern     = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
	dashDatePattern   = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	monthDayPattern   = regexp.MustCompile(`(\d{1,2})月(\d{1,2})日`)
	yesterdayPattern  = regexp.MustCompile(`昨天\s*(\d{1,2}):(\d{1,2})`)
	todayPattern      = regexp.MustCompile(`今天\s*(\d{1,2}):(\d{1,2})`)
	daysAgoPattern    = regexp.MustCompile(`(\d+)\s*天前`)
	hoursAgoPattern   = regexp.MustCompile(`(\d+)\s*小时前`)
	minutesAgoPattern = regexp.MustCompile(`(\d+)\s*分钟前`)
)

// ParseDate 解析日期字符串
// 按顺序尝试布局列表,再尝试常见中文日期模式,全部失败时返回当前时间
// 调用方不应把兜底返回值当作可信的发布时间
func ParseDate(dateStr string, layouts ...string) time.Time {
	now := time.Now()
	if dateStr == "" {
		return now
	}

	// 清理日期字符串
	dateStr = strings.TrimSpace(dateNoisePattern.ReplaceAllString(dateStr, ""))

	if len(layouts) == 0 {
		layouts = defaultDateLayouts
	}

	// 尝试按布局解析
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, dateStr, time.Local); err == nil {
			return t
		}
	}

	// 尝试匹配常见模式
	if m := cnDatePattern.FindStringSubmatch(dateStr); m != nil {
		return time.Date(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]), 0, 0, 0, 0, time.Local)
	}
	if m := dashDatePattern.FindStringSubmatch(dateStr); m != nil {
		return time.Date(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]), 0, 0, 0, 0, time.Local)
	}
	if m := yesterdayPattern.FindStringSubmatch(dateStr); m != nil {
		y := now.AddDate(0, 0, -1)
		return time.Date(y.Year(), y.Month(), y.Day(), atoi(m[1]), atoi(m[2]), 0, 0, time.Local)
	}
	if m := todayPattern.FindStringSubmatch(dateStr); m != nil {
		return time.Date(now.Year(), now.Month(), now.Day(), atoi(m[1]), atoi(m[2]), 0, 0, time.Local)
	}
	if m := daysAgoPattern.FindStringSubmatch(dateStr); m != nil {
		return now.AddDate(0, 0, -atoi(m[1]))
	}
	if m := hoursAgoPattern.FindStringSubmatch(dateStr); m != nil {
		return now.Add(-time.Duration(atoi(m[1])) * time.Hour)
	}
	if m := minutesAgoPattern.FindStringSubmatch(dateStr); m != nil {
		return now.Add(-time.Duration(atoi(m[1])) * time.Minute)
	}
	if m := monthDayPattern.FindStringSubmatch(dateStr); m != nil {
		return time.Date(now.Year(), time.Month(atoi(m[1])), atoi(m[2]), 0, 0, 0, 0, time.Local)
	}

	Warnf("无法解析日期: %s", dateStr)
	return now
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// GenerateID 生成唯一ID
// 对内容的UTF-8编码做SHA-256,截取前16位十六进制字符,可选前缀
func GenerateID(content, prefix string) string {
	sum := sha256.Sum256([]byte(content))
	id := hex.EncodeToString(sum[:])[:16]
	if prefix != "" {
		return fmt.Sprintf("%s_%s", prefix, id)
	}
	return id
}

// CleanURL 清理URL: 解析相对URL并去除查询参数和片段
// baseURL为空时只做清理,无法解析时返回空字符串
func CleanURL(rawURL, baseURL string) string {
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	// 处理相对URL
	if baseURL != "" && !parsed.IsAbs() {
		base, err := url.Parse(baseURL)
		if err != nil {
			return ""
		}
		parsed = base.ResolveReference(parsed)
	}

	return fmt.Sprintf("%s://%s%s", parsed.Scheme, parsed.Host, parsed.Path)
}

// NormalizeURL 将相对URL解析为绝对URL,保留查询参数
func NormalizeURL(rawURL, baseURL string) string {
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if parsed.IsAbs() || baseURL == "" {
		return rawURL
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return rawURL
	}
	return base.ResolveReference(parsed).String()
}

// ContainsAnyKeyword 判断文本是否包含任一关键词
// 关键词列表为空时视为包含(不设关键词即不过滤)
func ContainsAnyKeyword(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// KeywordMatch 计算关键词匹配度: 文本中出现的关键词占关键词总数的比例
func KeywordMatch(text string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	matched := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

// MatchKeywords 返回文本中出现的关键词,最多limit个
func MatchKeywords(text string, keywords []string, limit int) []string {
	var matched []string
	for _, kw := range keywords {
		if kw == "" || !strings.Contains(text, kw) {
			continue
		}
		matched = append(matched, kw)
		if limit > 0 && len(matched) >= limit {
			break
		}
	}
	return matched
}

// ExtractImages 提取HTML中的图片URL,相对路径按baseURL转换为绝对URL
func ExtractImages(html, baseURL string) []string {
	if html == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		Warnf("解析HTML失败,跳过图片提取: %v", err)
		return nil
	}

	var images []string
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			return
		}
		images = append(images, NormalizeURL(src, baseURL))
	})

	return images
}
