// pkg/mailer/client.go
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client 邮件网关客户端
//
// 通过内部邮件网关发送邮件，一次请求对应一封邮件。
type Client struct {
	GatewayURL string
	Sender     string
	Token      string
	Client     *http.Client
}

// sendRequest 邮件网关发送请求结构
type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// sendResponse 邮件网关发送响应结构
type sendResponse struct {
	MessageID string `json:"messageId"`
	Code      int    `json:"code"`
	Msg       string `json:"msg"`
}

// NewClient 创建邮件网关客户端
func NewClient(gatewayURL, sender, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		GatewayURL: gatewayURL,
		Sender:     sender,
		Token:      token,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send 发送一封邮件
func (c *Client) Send(ctx context.Context, address, subject, body string) error {
	req := sendRequest{
		From:    c.Sender,
		To:      address,
		Subject: subject,
		Body:    body,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("序列化邮件请求失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.GatewayURL+"/v1/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("请求邮件网关失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("邮件网关返回非200状态码: %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应体失败: %w", err)
	}

	var result sendResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("解析邮件网关响应失败: %w", err)
	}
	if result.Code != 0 {
		return fmt.Errorf("邮件网关返回错误: %s", result.Msg)
	}

	return nil
}
