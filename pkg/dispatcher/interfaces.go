// pkg/dispatcher/interfaces.go
package dispatcher

import (
	"context"

	"NotifyHub/pkg/model"
)

// NotificationStore 通知记录持久化边界
type NotificationStore interface {
	CreateNotification(ctx context.Context, record *model.NotificationRecord) error
	GetNotification(ctx context.Context, id string) (*model.NotificationRecord, error)
	UpdateNotification(ctx context.Context, record *model.NotificationRecord) error
}

// OutboxStore 投递发件箱持久化边界，异步投递的入队端
type OutboxStore interface {
	EnqueueOutbox(ctx context.Context, entry *model.DeliveryOutboxEntry) error
}

// BroadcastStore 广播记录持久化边界
type BroadcastStore interface {
	CreateBroadcast(ctx context.Context, record *model.BroadcastRecord) error
	UpdateBroadcastStats(ctx context.Context, id string, successCount, failureCount int) error
}

// TemplateStore 模板存储边界
type TemplateStore interface {
	GetTemplate(ctx context.Context, id string) (*model.NotificationTemplate, error)
	IncrementSentTimes(ctx context.Context, id string) error
}

// UserDirectory 用户目录，负责把用户ID解析为投递所需的资料
type UserDirectory interface {
	Resolve(ctx context.Context, userID string) (*model.UserProfile, error)
}
