package models

import (
	"fmt"
	"time"
)

// ItemKind 数据项类型
type ItemKind string

const (
	KindNews   ItemKind = "news"   // 新闻
	KindRumor  ItemKind = "rumor"  // 谣言
	KindSocial ItemKind = "social" // 社交媒体
)

// SourceType 数据来源类型
const (
	SourceTypeNews       = "news"       // 新闻网站
	SourceTypeGovernment = "government" // 政府网站
	SourceTypeRumor      = "rumor"      // 辟谣平台
	SourceTypeSocial     = "social"     // 社交媒体
)

// ContentType 社交媒体内容类型
const (
	ContentTypeOriginal = "original" // 原创
	ContentTypeRepost   = "repost"   // 转发
)

// Media 相关媒体(图片/视频链接)
type Media struct {
	Type string `json:"type"` // image或video
	URL  string `json:"url"`  // 媒体URL
}

// Item 爬虫产出的临时数据项
// 三种具体类型: *NewsItem / *RumorItem / *SocialPost
// 管道各阶段通过类型断言访问具体字段
type Item interface {
	// Kind 返回数据项类型
	Kind() ItemKind

	// NaturalID 返回来源内唯一的自然标识(news_id/rumor_id/post_id)
	NaturalID() string

	// Describe 返回日志用的简短描述
	Describe() string
}

// NewsItem 新闻项目
type NewsItem struct {
	NewsID              string    `json:"news_id"`              // 唯一ID,用于去重
	Title               string    `json:"title"`                // 标题
	Content             string    `json:"content"`              // 内容
	Summary             string    `json:"summary"`              // 摘要
	Source              string    `json:"source"`               // 新闻来源(网站名称)
	URL                 string    `json:"url"`                  // 原始URL
	PubDate             time.Time `json:"pub_date"`             // 发布时间
	Author              string    `json:"author"`               // 作者/发布者
	Category            string    `json:"category"`             // 分类/栏目
	Tags                []string  `json:"tags"`                 // 标签列表
	Media               []Media   `json:"media"`                // 相关媒体
	SourceType          string    `json:"source_type"`          // 数据来源类型
	RecommendationLevel int       `json:"recommendation_level"` // 推荐级别(0-5)
	KeywordMatch        float64   `json:"keyword_match"`        // 关键词匹配度(0.0-1.0)
}

// Kind 实现Item接口
func (n *NewsItem) Kind() ItemKind { return KindNews }

// NaturalID 实现Item接口
func (n *NewsItem) NaturalID() string { return n.NewsID }

// Describe 实现Item接口
func (n *NewsItem) Describe() string {
	return fmt.Sprintf("news[%s] %s", n.NewsID, n.Title)
}

// RumorItem 谣言项目
type RumorItem struct {
	RumorID          string    `json:"rumor_id"`          // 唯一ID,用于去重
	Title            string    `json:"title"`             // 谣言标题
	Content          string    `json:"content"`           // 谣言内容
	Source           string    `json:"source"`            // 谣言来源
	Refutation       string    `json:"refutation"`        // 辟谣内容
	RefutationSource string    `json:"refutation_source"` // 辟谣来源
	URL              string    `json:"url"`               // 原始URL
	PubDate          time.Time `json:"pub_date"`          // 发布时间
	Category         string    `json:"category"`          // 谣言类型/分类
	SpreadLevel      int       `json:"spread_level"`      // 传播范围评估(1-10)
	HarmLevel        int       `json:"harm_level"`        // 危害程度评估(1-10)
	Tags             []string  `json:"tags"`              // 标签列表
	Media            []Media   `json:"media"`             // 相关媒体
	SourceType       string    `json:"source_type"`       // 数据来源类型
}

// Kind 实现Item接口
func (r *RumorItem) Kind() ItemKind { return KindRumor }

// NaturalID 实现Item接口
func (r *RumorItem) NaturalID() string { return r.RumorID }

// Describe 实现Item接口
func (r *RumorItem) Describe() string {
	return fmt.Sprintf("rumor[%s] %s", r.RumorID, r.Title)
}

// SocialPost 社交媒体帖子
type SocialPost struct {
	PostID              string    `json:"post_id"`              // 唯一ID
	Platform            string    `json:"platform"`             // 平台(微博/微信/抖音等)
	Content             string    `json:"content"`              // 内容
	UserID              string    `json:"user_id"`              // 发布者ID
	Username            string    `json:"username"`             // 发布者名称
	VerifiedType        string    `json:"verified_type"`        // 认证类型(official/media/personal)
	PubDate             time.Time `json:"pub_date"`             // 发布时间
	URL                 string    `json:"url"`                  // 原始URL
	Shares              int       `json:"shares"`               // 转发/分享数
	Comments            int       `json:"comments"`             // 评论数
	Likes               int       `json:"likes"`                // 点赞数
	Media               []Media   `json:"media"`                // 相关媒体
	Tags                []string  `json:"tags"`                 // 标签列表
	Topics              []string  `json:"topics"`               // 话题标签
	Location            string    `json:"location"`             // 地理位置
	ContentType         string    `json:"content_type"`         // 内容类型(original/repost)
	RecommendationLevel int       `json:"recommendation_level"` // 推荐级别(0-5)
	KeywordMatch        float64   `json:"keyword_match"`        // 关键词匹配度(0.0-1.0)
}

// Kind 实现Item接口
func (p *SocialPost) Kind() ItemKind { return KindSocial }

// NaturalID 实现Item接口
func (p *SocialPost) NaturalID() string { return p.PostID }

// Describe 实现Item接口
func (p *SocialPost) Describe() string {
	return fmt.Sprintf("social[%s:%s] @%s", p.Platform, p.PostID, p.Username)
}
