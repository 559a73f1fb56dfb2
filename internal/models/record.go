package models

import (
	"encoding/json"
	"time"
)

// NewsRecord 持久化的新闻数据
// 在NewsItem基础上增加处理状态字段,media/tags以JSON字符串形式存储
type NewsRecord struct {
	ID                  int64      `json:"id"`
	NewsID              string     `json:"news_id"` // 新闻唯一ID
	Title               string     `json:"title"`
	Content             string     `json:"content"`
	Summary             string     `json:"summary"`
	Source              string     `json:"source"`
	URL                 string     `json:"url"`
	PubDate             time.Time  `json:"pub_date"`
	CrawlTime           time.Time  `json:"crawl_time"` // 采集时间,重复采集时刷新
	Author              string     `json:"author"`
	Category            string     `json:"category"`
	Tags                string     `json:"tags"`  // JSON数组字符串
	Media               string     `json:"media"` // JSON数组字符串
	SourceType          string     `json:"source_type"`
	RecommendationLevel int        `json:"recommendation_level"`
	KeywordMatch        float64    `json:"keyword_match"`
	Processed           bool       `json:"processed"`      // 是否已处理
	ProcessedTime       *time.Time `json:"processed_time"` // 处理时间
}

// RumorRecord 持久化的谣言数据
type RumorRecord struct {
	ID               int64      `json:"id"`
	RumorID          string     `json:"rumor_id"` // 谣言唯一ID
	Title            string     `json:"title"`
	Content          string     `json:"content"`
	Source           string     `json:"source"`
	Refutation       string     `json:"refutation"`
	RefutationSource string     `json:"refutation_source"`
	URL              string     `json:"url"`
	PubDate          time.Time  `json:"pub_date"`
	CrawlTime        time.Time  `json:"crawl_time"`
	Category         string     `json:"category"`
	SpreadLevel      int        `json:"spread_level"`
	HarmLevel        int        `json:"harm_level"`
	Tags             string     `json:"tags"`
	Media            string     `json:"media"`
	SourceType       string     `json:"source_type"`
	Processed        bool       `json:"processed"`
	ProcessedTime    *time.Time `json:"processed_time"`
}

// SocialRecord 持久化的社交媒体数据
type SocialRecord struct {
	ID                  int64      `json:"id"`
	PostID              string     `json:"post_id"` // 帖子唯一ID
	Platform            string     `json:"platform"`
	Content             string     `json:"content"`
	UserID              string     `json:"user_id"`
	Username            string     `json:"username"`
	VerifiedType        string     `json:"verified_type"`
	PubDate             time.Time  `json:"pub_date"`
	CrawlTime           time.Time  `json:"crawl_time"`
	URL                 string     `json:"url"`
	Shares              int        `json:"shares"`
	Comments            int        `json:"comments"`
	Likes               int        `json:"likes"`
	Media               string     `json:"media"`
	Tags                string     `json:"tags"`
	Topics              string     `json:"topics"`
	Location            string     `json:"location"`
	ContentType         string     `json:"content_type"`
	RecommendationLevel int        `json:"recommendation_level"`
	KeywordMatch        float64    `json:"keyword_match"`
	Processed           bool       `json:"processed"`
	ProcessedTime       *time.Time `json:"processed_time"`
}

// ProcessLog 数据处理日志,只追加不修改
type ProcessLog struct {
	ID          int64     `json:"id"`
	DataType    ItemKind  `json:"data_type"`    // 数据类型
	DataID      string    `json:"data_id"`      // 数据自然ID
	ProcessType string    `json:"process_type"` // 处理类型
	Status      string    `json:"status"`       // success或error
	Message     string    `json:"message"`      // 处理消息
	CreatedAt   time.Time `json:"created_at"`   // 创建时间
}

// 处理日志状态
const (
	LogStatusSuccess = "success"
	LogStatusError   = "error"
)

// 处理类型
const (
	ProcessTypeStore  = "store"             // 管道存储
	ProcessTypeEnrich = "clean_and_extract" // 批处理清洗/摘要/标签
)

// MarshalList 将字符串列表序列化为存储用的JSON字符串
// 空列表返回空字符串
func MarshalList(values []string) string {
	if len(values) == 0 {
		return ""
	}
	data, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(data)
}

// UnmarshalList 从存储的JSON字符串解析字符串列表
func UnmarshalList(data string) []string {
	if data == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil
	}
	return values
}

// MarshalMedia 将媒体列表序列化为存储用的JSON字符串
func MarshalMedia(media []Media) string {
	if len(media) == 0 {
		return ""
	}
	data, err := json.Marshal(media)
	if err != nil {
		return ""
	}
	return string(data)
}

// UnmarshalMedia 从存储的JSON字符串解析媒体列表
func UnmarshalMedia(data string) []Media {
	if data == "" {
		return nil
	}
	var media []Media
	if err := json.Unmarshal([]byte(data), &media); err != nil {
		return nil
	}
	return media
}
