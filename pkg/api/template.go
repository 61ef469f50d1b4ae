// pkg/api/template.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"NotifyHub/pkg/model"
)

// TemplateRequest 模板创建/更新请求
type TemplateRequest struct {
	TemplateKey      string                 `json:"templateKey" binding:"required"`
	TemplateName     string                 `json:"templateName" binding:"required"`
	Type             string                 `json:"type" binding:"required"`
	ContentPrimary   string                 `json:"contentPrimary"`
	ContentSecondary string                 `json:"contentSecondary"`
	DefaultChannels  []string               `json:"defaultChannels"`
	Metadata         map[string]interface{} `json:"metadata"`
	CreatedBy        string                 `json:"createdBy"`
}

// CreateTemplate 创建通知模板
func (h *Handlers) CreateTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	template := &model.NotificationTemplate{
		TemplateKey:      req.TemplateKey,
		TemplateName:     req.TemplateName,
		Type:             model.TemplateType(req.Type),
		ContentPrimary:   req.ContentPrimary,
		ContentSecondary: req.ContentSecondary,
		DefaultChannels:  req.DefaultChannels,
		Metadata:         req.Metadata,
		CreatedBy:        req.CreatedBy,
	}
	if template.CreatedBy == "" {
		template.CreatedBy = model.SystemUserID
	}

	if err := h.templates.CreateTemplate(c.Request.Context(), template); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": template,
	})
}

// ListTemplates 按条件查询模板
func (h *Handlers) ListTemplates(c *gin.Context) {
	templateType := model.TemplateType(c.Query("type"))
	search := c.Query("search")
	limit, offset := pagination(c)

	templates, total, err := h.templates.ListTemplates(c.Request.Context(), templateType, search, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  templates,
		"total": total,
	})
}

// GetTemplate 按ID查询模板
func (h *Handlers) GetTemplate(c *gin.Context) {
	template, err := h.templates.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": template,
	})
}

// UpdateTemplate 更新模板
func (h *Handlers) UpdateTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	template, err := h.templates.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	template.TemplateKey = req.TemplateKey
	template.TemplateName = req.TemplateName
	template.Type = model.TemplateType(req.Type)
	template.ContentPrimary = req.ContentPrimary
	template.ContentSecondary = req.ContentSecondary
	template.DefaultChannels = req.DefaultChannels
	template.Metadata = req.Metadata

	if err := h.templates.UpdateTemplate(c.Request.Context(), template); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": template,
	})
}

// DeleteTemplate 删除模板
func (h *Handlers) DeleteTemplate(c *gin.Context) {
	if err := h.templates.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "deleted",
	})
}
