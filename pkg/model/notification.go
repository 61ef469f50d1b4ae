// pkg/model/notification.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationChannel 通知渠道
type NotificationChannel string

const (
	ChannelInApp NotificationChannel = "IN_APP"
	ChannelEmail NotificationChannel = "EMAIL"
	ChannelChat  NotificationChannel = "CHAT"
)

// ValidChannel 判断渠道取值是否合法
func ValidChannel(c NotificationChannel) bool {
	switch c {
	case ChannelInApp, ChannelEmail, ChannelChat:
		return true
	}
	return false
}

// DeliveryStatus 通知投递状态
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "PENDING"
	DeliverySent    DeliveryStatus = "SENT"
	DeliveryFailed  DeliveryStatus = "FAILED"
)

// NotificationRecord 通知记录，对应一个用户在一个渠道上的一条消息
type NotificationRecord struct {
	ID             string              `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string              `gorm:"type:uuid;not null;index:idx_user_channel;index:idx_user_is_read" json:"user_id"`
	BroadcastID    string              `gorm:"type:varchar(36);index" json:"broadcast_id,omitempty"`
	Channel        NotificationChannel `gorm:"type:varchar(20);not null;index:idx_user_channel" json:"channel"`
	Title          string              `gorm:"type:varchar(500);not null" json:"title"`
	Body           string              `gorm:"type:text;not null" json:"body"`
	IsRead         bool                `gorm:"default:false;index:idx_user_is_read" json:"is_read"`
	ReadAt         *time.Time          `json:"read_at,omitempty"`
	DeliveryStatus DeliveryStatus      `gorm:"type:varchar(20);not null;default:'PENDING'" json:"delivery_status"`
	TemplateKey    string              `gorm:"type:varchar(100)" json:"template_key,omitempty"`
	Metadata       datatypes.JSONMap   `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time           `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func (n *NotificationRecord) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

func (NotificationRecord) TableName() string {
	return "notifications"
}
