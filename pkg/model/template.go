// pkg/model/template.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TemplateType 模板类型
type TemplateType string

const (
	// TemplateGeneral 通用模板，所有收件人内容相同
	TemplateGeneral TemplateType = "GENERAL"
	// TemplatePersonalized 个性化模板，支持 {{name}} 之类的占位符
	TemplatePersonalized TemplateType = "PERSONALIZED"
)

// NotificationTemplate 可复用的通知模板
type NotificationTemplate struct {
	ID               string            `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateKey      string            `gorm:"type:varchar(100);uniqueIndex;not null" json:"template_key"`
	TemplateName     string            `gorm:"type:varchar(255);not null" json:"template_name"`
	Type             TemplateType      `gorm:"type:varchar(20);not null;index" json:"type"`
	ContentPrimary   string            `gorm:"type:text" json:"content_primary"`
	ContentSecondary string            `gorm:"type:text" json:"content_secondary"`
	DefaultChannels  pq.StringArray    `gorm:"type:text[]" json:"default_channels"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	SentTimes        int               `gorm:"not null;default:0" json:"sent_times"`
	CreatedBy        string            `gorm:"type:uuid;not null;index" json:"created_by"`
	CreatedAt        time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (t *NotificationTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

func (NotificationTemplate) TableName() string {
	return "notification_templates"
}

// Content 返回可用的模板内容，主内容为空时回退到次语言内容
func (t *NotificationTemplate) Content() string {
	if t.ContentPrimary != "" {
		return t.ContentPrimary
	}
	return t.ContentSecondary
}
