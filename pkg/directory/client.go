// pkg/directory/client.go
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"NotifyHub/pkg/errno"
	"NotifyHub/pkg/model"
)

// Client 用户目录服务客户端
//
// 负责把用户ID解析为投递所需的公开资料（姓名、邮箱、聊天账号）。
type Client struct {
	BaseURL      string
	ServiceToken string
	Client       *http.Client
}

// profileResponse 用户目录服务的公开资料响应结构
type profileResponse struct {
	ID             string `json:"id"`
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	ChatHandle     string `json:"chatHandle"`
	IdentifierCode string `json:"identifierCode"`
}

// NewClient 创建用户目录客户端
func NewClient(baseURL, serviceToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL:      baseURL,
		ServiceToken: serviceToken,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Resolve 按用户ID拉取公开资料，用户不存在时返回未找到
func (c *Client) Resolve(ctx context.Context, userID string) (*model.UserProfile, error) {
	endpoint := fmt.Sprintf("%s/internal/users/%s/public", c.BaseURL, url.PathEscape(userID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.ServiceToken != "" {
		httpReq.Header.Set("X-Service-Token", c.ServiceToken)
	}

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("请求用户目录服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errno.ErrRecipientNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("用户目录服务返回非200状态码: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	var profile profileResponse
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("解析用户资料失败: %w", err)
	}

	return &model.UserProfile{
		ID:             profile.ID,
		FullName:       profile.FullName,
		Email:          profile.Email,
		ChatHandle:     profile.ChatHandle,
		IdentifierCode: profile.IdentifierCode,
	}, nil
}
