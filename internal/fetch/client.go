package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"

	"github.com/truthguardian/crawler/internal/config"
	"github.com/truthguardian/crawler/internal/utils"
)

// 可重试的HTTP状态码
var retryStatusCodes = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
}

// Client 带重试和解压的HTTP抓取客户端
// 单个页面抓取失败不会中断整轮采集,重试耗尽后把错误交给调用方处理
type Client struct {
	httpClient *http.Client
	userAgent  string
	retryTimes int
	backoff    time.Duration
	headers    map[string]string
}

// NewClient 创建抓取客户端
func NewClient(cfg config.CrawlConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	backoff := time.Duration(cfg.RetryBackoff) * time.Second
	if backoff <= 0 {
		backoff = 2 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true, // 部分政府站点使用过期或自签名证书
				},
				// 手动处理Content-Encoding,请求头中显式声明支持的压缩格式
				DisableCompression: true,
			},
			Timeout: timeout,
		},
		userAgent:  cfg.UserAgent,
		retryTimes: cfg.RetryTimes,
		backoff:    backoff,
		headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
			"Accept-Encoding": "gzip, deflate, br",
		},
	}
}

// Get 抓取单个URL,返回解压并转码为UTF-8后的响应体
func (c *Client) Get(ctx context.Context, pageURL string) ([]byte, error) {
	return c.GetWithHeaders(ctx, pageURL, nil)
}

// GetWithHeaders 带额外请求头抓取(如Cookie/Referer/Authorization)
func (c *Client) GetWithHeaders(ctx context.Context, pageURL string, extra map[string]string) ([]byte, error) {
	if len(extra) > 0 {
		utils.Debugf("附加请求头 %s: %s", pageURL, utils.RedactHeaderMap(extra))
	}

	var lastErr error

	for attempt := 0; attempt <= c.retryTimes; attempt++ {
		if attempt > 0 {
			// 线性退避
			wait := time.Duration(attempt) * c.backoff
			utils.Debugf("第 %d 次重试 %s (等待 %v)", attempt, pageURL, wait)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		body, retryable, err := c.doGet(ctx, pageURL, extra)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	return nil, fmt.Errorf("抓取失败 %s: %w", pageURL, lastErr)
}

// GetJSON 抓取并解析JSON响应,params拼接为查询参数
func (c *Client) GetJSON(ctx context.Context, apiURL string, params url.Values, extra map[string]string, out interface{}) error {
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(apiURL, "?") {
			sep = "&"
		}
		apiURL = apiURL + sep + params.Encode()
	}

	body, err := c.GetWithHeaders(ctx, apiURL, extra)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("解析JSON响应失败 %s: %w", apiURL, err)
	}
	return nil
}

// PostJSON 发送JSON请求体并解析JSON响应,用于登录等API调用
// POST不做自动重试,避免非幂等请求重复提交
func (c *Client) PostJSON(ctx context.Context, apiURL string, payload interface{}, extra map[string]string, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化请求体失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for name, value := range extra {
		req.Header.Set(name, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求失败 %s: %w", apiURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应体失败: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP状态码 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("解析JSON响应失败 %s: %w", apiURL, err)
	}
	return nil
}

// doGet 执行单次请求,返回响应体和是否可重试
func (c *Client) doGet(ctx context.Context, pageURL string, extra map[string]string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("构造请求失败: %w", err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for name, value := range c.headers {
		req.Header.Set(name, value)
	}
	for name, value := range extra {
		req.Header.Set(name, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// 超时和连接错误可重试
		return nil, isTransientError(err), err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, retryStatusCodes[resp.StatusCode], fmt.Errorf("HTTP状态码 %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("读取响应体失败: %w", err)
	}

	// 解压
	body, err := decompressBody(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return nil, false, err
	}

	// 按响应声明的字符集转码为UTF-8(GBK/GB2312政府站点)
	decoded, err := decodeCharset(body, resp.Header.Get("Content-Type"))
	if err != nil {
		utils.Warnf("字符集转码失败,返回原始内容 %s: %v", pageURL, err)
		return body, false, nil
	}

	return decoded, false, nil
}

// isTransientError 判断网络错误是否为瞬时错误
func isTransientError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF")
}

// decompressBody 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
func decompressBody(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "":
		return body, nil

	default:
		// 未知编码,返回警告但仍然返回原始内容
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}

// decodeCharset 按Content-Type或文档内声明的字符集转码为UTF-8
func decodeCharset(body []byte, contentType string) ([]byte, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(reader)
}
