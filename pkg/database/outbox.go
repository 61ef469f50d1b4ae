// pkg/database/outbox.go
package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"NotifyHub/pkg/model"
)

type OutboxDB struct {
	db *gorm.DB
}

func (p *Postgres) Outbox() *OutboxDB {
	return &OutboxDB{db: p.db}
}

func (o *OutboxDB) EnqueueOutbox(ctx context.Context, entry *model.DeliveryOutboxEntry) error {
	if err := o.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("写入发件箱失败: %w", err)
	}
	return nil
}

// DueOutboxEntries 查询到期的待投递条目
//
// 终态条目（SENT、PERMANENTLY_FAILED）天然不会命中。
func (o *OutboxDB) DueOutboxEntries(ctx context.Context, now time.Time, limit int) ([]*model.DeliveryOutboxEntry, error) {
	var entries []*model.DeliveryOutboxEntry
	err := o.db.WithContext(ctx).
		Where("status IN ? AND next_retry_at <= ?",
			[]model.OutboxStatus{model.OutboxPending, model.OutboxFailed}, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("查询到期发件箱条目失败: %w", err)
	}
	return entries, nil
}

// SaveDeliveryResult 保存一次投递的处理结果
//
// 单条目事务：发件箱条目和对应通知的状态一起提交，
// 不与同一轮的其他条目共享事务。
func (o *OutboxDB) SaveDeliveryResult(
	ctx context.Context,
	entry *model.DeliveryOutboxEntry,
	notificationStatus model.DeliveryStatus,
) error {
	return o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(entry).Error; err != nil {
			return fmt.Errorf("保存发件箱条目失败: %w", err)
		}
		if notificationStatus != "" {
			if err := tx.Model(&model.NotificationRecord{}).
				Where("id = ?", entry.NotificationID).
				Update("delivery_status", notificationStatus).Error; err != nil {
				return fmt.Errorf("回写通知投递状态失败: %w", err)
			}
		}
		return nil
	})
}

// ListByNotification 查询一条通知的全部投递记录（审计用）
func (o *OutboxDB) ListByNotification(ctx context.Context, notificationID string) ([]*model.DeliveryOutboxEntry, error) {
	var entries []*model.DeliveryOutboxEntry
	err := o.db.WithContext(ctx).
		Where("notification_id = ?", notificationID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("查询投递记录失败: %w", err)
	}
	return entries, nil
}
