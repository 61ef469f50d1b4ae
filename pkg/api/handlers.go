// pkg/api/handlers.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"NotifyHub/pkg/dispatcher"
	"NotifyHub/pkg/errno"
	"NotifyHub/pkg/model"
)

// NotificationQuery 通知查询边界
type NotificationQuery interface {
	GetNotification(ctx context.Context, id string) (*model.NotificationRecord, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool, channel model.NotificationChannel, limit, offset int) ([]*model.NotificationRecord, int64, error)
	ListByBroadcast(ctx context.Context, broadcastID string) ([]*model.NotificationRecord, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

// BroadcastQuery 广播记录查询边界
type BroadcastQuery interface {
	GetBroadcast(ctx context.Context, id string) (*model.BroadcastRecord, error)
	ListBroadcasts(ctx context.Context, sentBy string, dateFrom, dateTo *time.Time, search string, limit, offset int) ([]*model.BroadcastRecord, int64, error)
}

// TemplateRepository 模板管理边界
type TemplateRepository interface {
	CreateTemplate(ctx context.Context, template *model.NotificationTemplate) error
	GetTemplate(ctx context.Context, id string) (*model.NotificationTemplate, error)
	UpdateTemplate(ctx context.Context, template *model.NotificationTemplate) error
	DeleteTemplate(ctx context.Context, id string) error
	ListTemplates(ctx context.Context, templateType model.TemplateType, search string, limit, offset int) ([]*model.NotificationTemplate, int64, error)
}

// MessagingChecker 消息连接状态检查边界
type MessagingChecker interface {
	IsConnected() bool
}

// Handlers API处理程序
type Handlers struct {
	dispatcher    *dispatcher.Dispatcher
	notifications NotificationQuery
	broadcasts    BroadcastQuery
	templates     TemplateRepository
	messaging     MessagingChecker
}

// NewHandlers 创建新的API处理程序
func NewHandlers(
	d *dispatcher.Dispatcher,
	notifications NotificationQuery,
	broadcasts BroadcastQuery,
	templates TemplateRepository,
) *Handlers {
	return &Handlers{
		dispatcher:    d,
		notifications: notifications,
		broadcasts:    broadcasts,
		templates:     templates,
	}
}

// HealthCheck 健康检查处理程序
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// SetMessagingChecker 注入消息连接检查，未注入时就绪检查不考察消息连接
func (h *Handlers) SetMessagingChecker(m MessagingChecker) {
	h.messaging = m
}

// ReadinessCheck 就绪检查处理程序，事件流连接断开时报告未就绪
func (h *Handlers) ReadinessCheck(c *gin.Context) {
	if h.messaging != nil && !h.messaging.IsConnected() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// respondError 按错误类别映射HTTP状态码
func respondError(c *gin.Context, err error) {
	switch {
	case errno.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errno.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// toChannels 把字符串渠道列表转换为渠道类型
func toChannels(values []string) []model.NotificationChannel {
	var channels []model.NotificationChannel
	for _, v := range values {
		channels = append(channels, model.NotificationChannel(v))
	}
	return channels
}
