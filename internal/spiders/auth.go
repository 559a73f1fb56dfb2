package spiders

import (
	"context"
	"errors"
	"fmt"

	"github.com/truthguardian/crawler/internal/config"
	"github.com/truthguardian/crawler/internal/fetch"
	"github.com/truthguardian/crawler/internal/utils"
)

// apiSession 搜索API的登录会话
// 登录失败是搜索类爬虫唯一的致命错误,整轮采集终止
type apiSession struct {
	client *fetch.Client
	auth   config.APIAuthConfig
	token  string
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// login 用用户名密码换取bearer token
func (s *apiSession) login(ctx context.Context) error {
	payload := map[string]string{
		"username": s.auth.Username,
		"password": s.auth.Password,
	}

	var resp loginResponse
	url := s.auth.BaseURL + "/api/auth/login"
	if err := s.client.PostJSON(ctx, url, payload, nil, &resp); err != nil {
		return fmt.Errorf("登录请求失败: %w", err)
	}
	if resp.AccessToken == "" {
		return errors.New("登录响应中没有token")
	}

	s.token = resp.AccessToken
	utils.Infof("登录成功, token: %s", utils.RedactValue(s.token))
	return nil
}

// authHeaders 返回带bearer token的请求头,合并调用方的额外头部
func (s *apiSession) authHeaders(extra map[string]string) map[string]string {
	headers := map[string]string{
		"Authorization": "Bearer " + s.token,
	}
	for name, value := range extra {
		headers[name] = value
	}
	return headers
}
