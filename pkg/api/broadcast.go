// pkg/api/broadcast.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ListBroadcasts 查询广播记录
func (h *Handlers) ListBroadcasts(c *gin.Context) {
	sentBy := c.Query("sentBy")
	search := c.Query("search")
	limit, offset := pagination(c)

	var dateFrom, dateTo *time.Time
	if v := c.Query("dateFrom"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "dateFrom格式无效: " + err.Error(),
			})
			return
		}
		dateFrom = &t
	}
	if v := c.Query("dateTo"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "dateTo格式无效: " + err.Error(),
			})
			return
		}
		dateTo = &t
	}

	records, total, err := h.broadcasts.ListBroadcasts(c.Request.Context(), sentBy, dateFrom, dateTo, search, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  records,
		"total": total,
	})
}

// GetBroadcast 查询单条广播记录及其产生的通知
func (h *Handlers) GetBroadcast(c *gin.Context) {
	id := c.Param("id")

	record, err := h.broadcasts.GetBroadcast(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	notifications, err := h.notifications.ListByBroadcast(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":          record,
		"notifications": notifications,
	})
}
