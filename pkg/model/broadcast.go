// pkg/model/broadcast.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BroadcastRecord 广播记录，跟踪一次可能覆盖多个用户和渠道的逻辑发送
type BroadcastRecord struct {
	ID             string            `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID     string            `gorm:"type:varchar(36);index" json:"template_id,omitempty"`
	Title          string            `gorm:"type:varchar(500);not null" json:"title"`
	Body           string            `gorm:"type:text;not null" json:"body"`
	Channels       pq.StringArray    `gorm:"type:text[];not null" json:"channels"`
	RecipientCount int               `gorm:"not null;default:0" json:"recipient_count"`
	SuccessCount   int               `gorm:"not null;default:0" json:"success_count"`
	FailureCount   int               `gorm:"not null;default:0" json:"failure_count"`
	SentBy         string            `gorm:"type:uuid;not null;index" json:"sent_by"`
	SentAt         time.Time         `gorm:"not null;index" json:"sent_at"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (b *BroadcastRecord) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

func (BroadcastRecord) TableName() string {
	return "broadcast_records"
}

// ChannelList 把存储用的字符串数组还原为渠道枚举
func (b *BroadcastRecord) ChannelList() []NotificationChannel {
	channels := make([]NotificationChannel, 0, len(b.Channels))
	for _, c := range b.Channels {
		channels = append(channels, NotificationChannel(c))
	}
	return channels
}

// ChannelStrings 渠道枚举转为存储用的字符串数组
func ChannelStrings(channels []NotificationChannel) pq.StringArray {
	out := make(pq.StringArray, 0, len(channels))
	for _, c := range channels {
		out = append(out, string(c))
	}
	return out
}
