package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/truthguardian/crawler/internal/utils"
)

// Renderer 基于无头浏览器的页面渲染器
// 静态抓取提取不到正文时作为兜底,获取JS渲染后的完整HTML
type Renderer struct {
	mu       sync.Mutex
	browser  *rod.Browser
	headless bool
	waitTime time.Duration
}

// NewRenderer 创建渲染器,浏览器在首次使用时才启动
func NewRenderer(headless bool, waitTime time.Duration) *Renderer {
	if waitTime <= 0 {
		waitTime = 2 * time.Second
	}
	return &Renderer{
		headless: headless,
		waitTime: waitTime,
	}
}

// ensureBrowser 懒启动浏览器
func (r *Renderer) ensureBrowser() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return nil
	}

	l := launcher.New().Headless(r.headless)
	// 部分政府站点证书过期
	l = l.Set("ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("连接浏览器失败: %w", err)
	}

	r.browser = browser
	utils.Debugf("浏览器已启动: %s", controlURL)
	return nil
}

// RenderHTML 加载页面并返回渲染后的HTML
func (r *Renderer) RenderHTML(ctx context.Context, pageURL string) (html string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("页面渲染panic: %v", rec)
			utils.Errorf("捕获panic: URL=%s, 错误=%v", pageURL, rec)
		}
	}()

	if err := r.ensureBrowser(); err != nil {
		return "", err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return "", fmt.Errorf("创建标签页失败: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("导航失败 %s: %w", pageURL, err)
	}

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("等待页面加载失败 %s: %w", pageURL, err)
	}

	// 额外等待动态内容加载
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(r.waitTime):
	}

	html, err = page.HTML()
	if err != nil {
		return "", fmt.Errorf("获取页面HTML失败 %s: %w", pageURL, err)
	}

	utils.Debugf("页面渲染完成: %s (%d 字节)", pageURL, len(html))
	return html, nil
}

// Close 关闭浏览器
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		r.browser.MustClose()
		r.browser = nil
		utils.Debugf("浏览器已关闭")
	}
}
