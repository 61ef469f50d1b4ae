// pkg/model/outbox.go
package model

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OutboxStatus 投递发件箱条目状态
//
// FAILED 表示可重试失败，PERMANENTLY_FAILED 为终态，
// 扫描查询不会再命中终态条目。
type OutboxStatus string

const (
	OutboxPending           OutboxStatus = "PENDING"
	OutboxSent              OutboxStatus = "SENT"
	OutboxFailed            OutboxStatus = "FAILED"
	OutboxPermanentlyFailed OutboxStatus = "PERMANENTLY_FAILED"
)

// DefaultMaxRetries 默认最大重试次数
const DefaultMaxRetries = 3

// MaxLastErrorLen lastError 字段的截断长度
const MaxLastErrorLen = 1000

// DeliveryOutboxEntry 一次待处理/进行中的异步投递
//
// 由调度器在扇出时创建，之后仅由发件箱工作器修改，永不删除，
// 同时充当投递审计日志。
type DeliveryOutboxEntry struct {
	ID               string              `gorm:"type:uuid;primaryKey" json:"id"`
	NotificationID   string              `gorm:"type:uuid;not null;index" json:"notification_id"`
	Channel          NotificationChannel `gorm:"type:varchar(20);not null" json:"channel"`
	RecipientAddress string              `gorm:"type:varchar(320)" json:"recipient_address"`
	Status           OutboxStatus        `gorm:"type:varchar(20);not null;index:idx_outbox_due" json:"status"`
	RetryCount       int                 `gorm:"not null;default:0" json:"retry_count"`
	MaxRetries       int                 `gorm:"not null;default:3" json:"max_retries"`
	NextRetryAt      time.Time           `gorm:"index:idx_outbox_due" json:"next_retry_at"`
	LastError        string              `gorm:"type:varchar(1000)" json:"last_error,omitempty"`
	DeliveredAt      *time.Time          `json:"delivered_at,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func (e *DeliveryOutboxEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

func (DeliveryOutboxEntry) TableName() string {
	return "delivery_outbox"
}

// Terminal 判断条目是否处于终态，终态条目不再参与扫描
func (e *DeliveryOutboxEntry) Terminal() bool {
	return e.Status == OutboxSent || e.Status == OutboxPermanentlyFailed
}

// TruncateError 截断过长的错误信息
//
// 按字节截断但不切开多字节字符，保证结果是合法UTF-8，
// 否则数据库会拒绝写入lastError列。
func TruncateError(msg string) string {
	if len(msg) <= MaxLastErrorLen {
		return msg
	}
	cut := MaxLastErrorLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
