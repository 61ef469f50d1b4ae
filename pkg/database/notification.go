// pkg/database/notification.go
package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"NotifyHub/pkg/errno"
	"NotifyHub/pkg/model"
)

type NotificationDB struct {
	db *gorm.DB
}

func (p *Postgres) Notification() *NotificationDB {
	return &NotificationDB{db: p.db}
}

func (n *NotificationDB) CreateNotification(ctx context.Context, record *model.NotificationRecord) error {
	if err := n.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("保存通知记录失败: %w", err)
	}
	return nil
}

func (n *NotificationDB) GetNotification(ctx context.Context, id string) (*model.NotificationRecord, error) {
	var record model.NotificationRecord
	err := n.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errno.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("获取通知记录失败: %w", err)
	}
	return &record, nil
}

func (n *NotificationDB) UpdateNotification(ctx context.Context, record *model.NotificationRecord) error {
	if err := n.db.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("更新通知记录失败: %w", err)
	}
	return nil
}

// ListByUser 按用户查询通知，支持未读和渠道过滤
func (n *NotificationDB) ListByUser(
	ctx context.Context,
	userID string,
	unreadOnly bool,
	channel model.NotificationChannel,
	limit, offset int,
) ([]*model.NotificationRecord, int64, error) {
	query := n.db.WithContext(ctx).Model(&model.NotificationRecord{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if channel != "" {
		query = query.Where("channel = ?", channel)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计用户通知失败: %w", err)
	}

	var records []*model.NotificationRecord
	err := query.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询用户通知失败: %w", err)
	}
	return records, total, nil
}

// ListByBroadcast 查询一次广播产生的全部通知
func (n *NotificationDB) ListByBroadcast(ctx context.Context, broadcastID string) ([]*model.NotificationRecord, error) {
	var records []*model.NotificationRecord
	err := n.db.WithContext(ctx).
		Where("broadcast_id = ?", broadcastID).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("查询广播通知失败: %w", err)
	}
	return records, nil
}

// CountUnread 统计用户未读站内信数量
func (n *NotificationDB) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := n.db.WithContext(ctx).Model(&model.NotificationRecord{}).
		Where("user_id = ? AND channel = ? AND is_read = ?", userID, model.ChannelInApp, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("统计未读通知失败: %w", err)
	}
	return count, nil
}
