// pkg/database/broadcast.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"NotifyHub/pkg/errno"
	"NotifyHub/pkg/model"
)

type BroadcastDB struct {
	db *gorm.DB
}

func (p *Postgres) Broadcast() *BroadcastDB {
	return &BroadcastDB{db: p.db}
}

func (b *BroadcastDB) CreateBroadcast(ctx context.Context, record *model.BroadcastRecord) error {
	if err := b.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("创建广播记录失败: %w", err)
	}
	return nil
}

// UpdateBroadcastStats 扇出结束后一次性写回成功/失败计数
func (b *BroadcastDB) UpdateBroadcastStats(ctx context.Context, id string, successCount, failureCount int) error {
	err := b.db.WithContext(ctx).Model(&model.BroadcastRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"success_count": successCount,
			"failure_count": failureCount,
		}).Error
	if err != nil {
		return fmt.Errorf("更新广播统计失败: %w", err)
	}
	return nil
}

func (b *BroadcastDB) GetBroadcast(ctx context.Context, id string) (*model.BroadcastRecord, error) {
	var record model.BroadcastRecord
	err := b.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errno.ErrBroadcastNotFound
		}
		return nil, fmt.Errorf("获取广播记录失败: %w", err)
	}
	return &record, nil
}

// ListBroadcasts 按条件查询广播历史
func (b *BroadcastDB) ListBroadcasts(
	ctx context.Context,
	sentBy string,
	dateFrom, dateTo *time.Time,
	search string,
	limit, offset int,
) ([]*model.BroadcastRecord, int64, error) {
	query := b.db.WithContext(ctx).Model(&model.BroadcastRecord{})
	if sentBy != "" {
		query = query.Where("sent_by = ?", sentBy)
	}
	if dateFrom != nil {
		query = query.Where("sent_at >= ?", *dateFrom)
	}
	if dateTo != nil {
		query = query.Where("sent_at <= ?", *dateTo)
	}
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title ILIKE ? OR body ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计广播记录失败: %w", err)
	}

	var records []*model.BroadcastRecord
	err := query.Order("sent_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询广播记录失败: %w", err)
	}
	return records, total, nil
}
