package fetch

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/truthguardian/crawler/internal/config"
)

func testCrawlConfig() config.CrawlConfig {
	return config.CrawlConfig{
		UserAgent:    "test-agent/1.0",
		Timeout:      5,
		RetryTimes:   2,
		RetryBackoff: 0,
	}
}

func TestClientGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent/1.0" {
			t.Errorf("User-Agent = %s", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html>页面内容</html>"))
	}))
	defer server.Close()

	client := NewClient(testCrawlConfig())
	body, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() 失败: %v", err)
	}
	if string(body) != "<html>页面内容</html>" {
		t.Errorf("响应体 = %q", string(body))
	}
}

func TestClientRetryOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("恢复正常"))
	}))
	defer server.Close()

	client := NewClient(testCrawlConfig())
	body, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() 失败: %v", err)
	}
	if string(body) != "恢复正常" {
		t.Errorf("响应体 = %q", string(body))
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("请求次数 = %d, want 3", got)
	}
}

func TestClientNoRetryOnClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(testCrawlConfig())
	if _, err := client.Get(context.Background(), server.URL); err == nil {
		t.Fatal("404应返回错误")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("请求次数 = %d, want 1 (4xx不应重试)", got)
	}
}

func TestClientRetryExhausted(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testCrawlConfig())
	if _, err := client.Get(context.Background(), server.URL); err == nil {
		t.Fatal("重试耗尽后应返回错误")
	}
	// 1次请求 + 2次重试
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("请求次数 = %d, want 3", got)
	}
}

func TestClientGzipDecompress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		gw := gzip.NewWriter(w)
		gw.Write([]byte("压缩的内容"))
		gw.Close()
	}))
	defer server.Close()

	client := NewClient(testCrawlConfig())
	body, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() 失败: %v", err)
	}
	if string(body) != "压缩的内容" {
		t.Errorf("解压后内容 = %q", string(body))
	}
}

func TestClientGBKDecode(t *testing.T) {
	gbkBody, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("<html>政府公告</html>"))
	if err != nil {
		t.Fatalf("GBK编码失败: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=gbk")
		w.Write(gbkBody)
	}))
	defer server.Close()

	client := NewClient(testCrawlConfig())
	body, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() 失败: %v", err)
	}
	if string(body) != "<html>政府公告</html>" {
		t.Errorf("转码后内容 = %q", string(body))
	}
}

func TestClientGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "辟谣" {
			t.Errorf("查询参数 q = %s", r.URL.Query().Get("q"))
		}
		if r.Header.Get("Authorization") != "Bearer token123" {
			t.Errorf("Authorization = %s", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"total":42}`))
	}))
	defer server.Close()

	client := NewClient(testCrawlConfig())

	var result struct {
		OK    bool `json:"ok"`
		Total int  `json:"total"`
	}
	params := url.Values{"q": []string{"辟谣"}}
	headers := map[string]string{"Authorization": "Bearer token123"}

	if err := client.GetJSON(context.Background(), server.URL, params, headers, &result); err != nil {
		t.Fatalf("GetJSON() 失败: %v", err)
	}
	if !result.OK || result.Total != 42 {
		t.Errorf("解析结果 = %+v", result)
	}
}

func TestDecompressBodyUnknownEncoding(t *testing.T) {
	body, err := decompressBody("zstd", []byte("原始内容"))
	if err != nil {
		t.Fatalf("未知编码不应报错: %v", err)
	}
	if string(body) != "原始内容" {
		t.Errorf("应原样返回: %q", string(body))
	}
}
