// pkg/api/notification.go
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"NotifyHub/pkg/dispatcher"
	"NotifyHub/pkg/model"
)

// EventRequest 事件触发请求
type EventRequest struct {
	EventType     string                 `json:"eventType" binding:"required"`
	PrimaryUserID string                 `json:"primaryUserId" binding:"required"`
	ActorUserID   string                 `json:"actorUserId"`
	Channels      []string               `json:"channels"`
	Payload       map[string]interface{} `json:"payload"`
}

// ProcessEvent 处理领域事件触发的通知
func (h *Handlers) ProcessEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	err := h.dispatcher.ProcessEvent(c.Request.Context(), &dispatcher.EventRequest{
		EventType:     model.EventType(req.EventType),
		PrimaryUserID: req.PrimaryUserID,
		ActorUserID:   req.ActorUserID,
		Channels:      toChannels(req.Channels),
		Payload:       req.Payload,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "accepted",
	})
}

// SendRequest 直接发送请求
type SendRequest struct {
	TargetUserIDs []string               `json:"targetUserIds" binding:"required"`
	Channels      []string               `json:"channels" binding:"required"`
	Title         string                 `json:"title" binding:"required"`
	Body          string                 `json:"body" binding:"required"`
	Metadata      map[string]interface{} `json:"metadata"`
	SentBy        string                 `json:"sentBy"`
}

// SendDirect 直接向多个用户发送通知
func (h *Handlers) SendDirect(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	broadcastID, err := h.dispatcher.SendDirect(c.Request.Context(), &dispatcher.DirectSendRequest{
		TargetUserIDs: req.TargetUserIDs,
		Channels:      toChannels(req.Channels),
		Title:         req.Title,
		Body:          req.Body,
		Metadata:      req.Metadata,
		SentBy:        req.SentBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"broadcastId": broadcastID,
	})
}

// SendByEmailRequest 按邮箱地址发送请求
type SendByEmailRequest struct {
	TargetEmails []string               `json:"targetEmails" binding:"required"`
	Channels     []string               `json:"channels" binding:"required"`
	Title        string                 `json:"title" binding:"required"`
	Body         string                 `json:"body" binding:"required"`
	Metadata     map[string]interface{} `json:"metadata"`
	SentBy       string                 `json:"sentBy"`
}

// SendDirectByEmail 按邮箱地址直接发送通知
func (h *Handlers) SendDirectByEmail(c *gin.Context) {
	var req SendByEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	broadcastID, err := h.dispatcher.SendDirectByEmail(c.Request.Context(), &dispatcher.EmailSendRequest{
		TargetEmails: req.TargetEmails,
		Channels:     toChannels(req.Channels),
		Title:        req.Title,
		Body:         req.Body,
		Metadata:     req.Metadata,
		SentBy:       req.SentBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"broadcastId": broadcastID,
	})
}

// SendFromTemplateRequest 基于模板的发送请求
type SendFromTemplateRequest struct {
	TemplateID      string                 `json:"templateId" binding:"required"`
	TargetUserIDs   []string               `json:"targetUserIds" binding:"required"`
	PlaceholderData map[string]interface{} `json:"placeholderData"`
	Channels        []string               `json:"channels"`
	SentBy          string                 `json:"sentBy"`
}

// SendFromTemplate 使用存储的模板发送通知
func (h *Handlers) SendFromTemplate(c *gin.Context) {
	var req SendFromTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	broadcastID, err := h.dispatcher.SendFromTemplate(c.Request.Context(), &dispatcher.TemplateSendRequest{
		TemplateID:      req.TemplateID,
		TargetUserIDs:   req.TargetUserIDs,
		PlaceholderData: req.PlaceholderData,
		Channels:        toChannels(req.Channels),
		SentBy:          req.SentBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"broadcastId": broadcastID,
	})
}

// ListNotifications 按用户查询通知
func (h *Handlers) ListNotifications(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "userId参数不能为空",
		})
		return
	}

	unreadOnly := c.Query("unreadOnly") == "true"
	channel := model.NotificationChannel(c.Query("channel"))
	limit, offset := pagination(c)

	records, total, err := h.notifications.ListByUser(c.Request.Context(), userID, unreadOnly, channel, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  records,
		"total": total,
	})
}

// GetNotification 按ID查询单条通知
func (h *Handlers) GetNotification(c *gin.Context) {
	record, err := h.notifications.GetNotification(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": record,
	})
}

// CountUnread 统计站内信未读数
func (h *Handlers) CountUnread(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "userId参数不能为空",
		})
		return
	}

	count, err := h.notifications.CountUnread(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": count,
	})
}

// MarkReadRequest 已读状态更新请求
type MarkReadRequest struct {
	Read *bool `json:"read" binding:"required"`
}

// MarkRead 更新通知已读状态
func (h *Handlers) MarkRead(c *gin.Context) {
	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	record, err := h.dispatcher.MarkRead(c.Request.Context(), c.Param("id"), *req.Read)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": record,
	})
}

// pagination 解析分页参数，limit默认20、最大100
func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
