// pkg/repository/memory.go
package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"NotifyHub/pkg/errno"
	"NotifyHub/pkg/model"
)

// Store 内存存储
//
// 实现与数据库层相同的存储边界，用于本地开发和测试。
type Store struct {
	notifications map[string]*model.NotificationRecord
	outbox        map[string]*model.DeliveryOutboxEntry
	broadcasts    map[string]*model.BroadcastRecord
	templates     map[string]*model.NotificationTemplate
	templateKeys  map[string]string // templateKey -> id
	mutex         sync.RWMutex
}

// NewStore 创建内存存储
func NewStore() *Store {
	return &Store{
		notifications: make(map[string]*model.NotificationRecord),
		outbox:        make(map[string]*model.DeliveryOutboxEntry),
		broadcasts:    make(map[string]*model.BroadcastRecord),
		templates:     make(map[string]*model.NotificationTemplate),
		templateKeys:  make(map[string]string),
	}
}

// CreateNotification 保存通知记录
func (s *Store) CreateNotification(ctx context.Context, record *model.NotificationRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	clone := *record
	s.notifications[record.ID] = &clone
	return nil
}

// GetNotification 按ID读取通知记录
func (s *Store) GetNotification(ctx context.Context, id string) (*model.NotificationRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	record, ok := s.notifications[id]
	if !ok {
		return nil, errno.ErrNotificationNotFound
	}
	clone := *record
	return &clone, nil
}

// UpdateNotification 整体覆盖通知记录
func (s *Store) UpdateNotification(ctx context.Context, record *model.NotificationRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.notifications[record.ID]; !ok {
		return errno.ErrNotificationNotFound
	}
	record.UpdatedAt = time.Now()
	clone := *record
	s.notifications[record.ID] = &clone
	return nil
}

// ListByUser 按用户查询通知
func (s *Store) ListByUser(
	ctx context.Context,
	userID string,
	unreadOnly bool,
	channel model.NotificationChannel,
	limit, offset int,
) ([]*model.NotificationRecord, int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var matched []*model.NotificationRecord
	for _, record := range s.notifications {
		if record.UserID != userID {
			continue
		}
		if unreadOnly && record.IsRead {
			continue
		}
		if channel != "" && record.Channel != channel {
			continue
		}
		clone := *record
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// ListByBroadcast 查询广播生成的所有通知
func (s *Store) ListByBroadcast(ctx context.Context, broadcastID string) ([]*model.NotificationRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var matched []*model.NotificationRecord
	for _, record := range s.notifications {
		if record.BroadcastID == broadcastID {
			clone := *record
			matched = append(matched, &clone)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}

// CountUnread 统计站内信未读数
func (s *Store) CountUnread(ctx context.Context, userID string) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var count int64
	for _, record := range s.notifications {
		if record.UserID == userID && record.Channel == model.ChannelInApp && !record.IsRead {
			count++
		}
	}
	return count, nil
}

// EnqueueOutbox 追加发件箱条目
func (s *Store) EnqueueOutbox(ctx context.Context, entry *model.DeliveryOutboxEntry) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	clone := *entry
	s.outbox[entry.ID] = &clone
	return nil
}

// DueOutboxEntries 扫描到期待投递的条目
func (s *Store) DueOutboxEntries(ctx context.Context, now time.Time, limit int) ([]*model.DeliveryOutboxEntry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var due []*model.DeliveryOutboxEntry
	for _, entry := range s.outbox {
		if entry.Status != model.OutboxPending && entry.Status != model.OutboxFailed {
			continue
		}
		if entry.NextRetryAt.After(now) {
			continue
		}
		clone := *entry
		due = append(due, &clone)
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].NextRetryAt.Before(due[j].NextRetryAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// SaveDeliveryResult 保存投递结果
//
// notificationStatus 非空时同步回写通知的投递状态。
func (s *Store) SaveDeliveryResult(
	ctx context.Context,
	entry *model.DeliveryOutboxEntry,
	notificationStatus model.DeliveryStatus,
) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.outbox[entry.ID]; !ok {
		return errno.ErrOutboxEntryNotFound
	}
	entry.UpdatedAt = time.Now()
	clone := *entry
	s.outbox[entry.ID] = &clone

	if notificationStatus != "" {
		if record, ok := s.notifications[entry.NotificationID]; ok {
			record.DeliveryStatus = notificationStatus
			record.UpdatedAt = time.Now()
		}
	}
	return nil
}

// ListByNotification 查询通知对应的发件箱条目
func (s *Store) ListByNotification(ctx context.Context, notificationID string) ([]*model.DeliveryOutboxEntry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var matched []*model.DeliveryOutboxEntry
	for _, entry := range s.outbox {
		if entry.NotificationID == notificationID {
			clone := *entry
			matched = append(matched, &clone)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}

// GetOutboxEntry 按ID读取发件箱条目
func (s *Store) GetOutboxEntry(ctx context.Context, id string) (*model.DeliveryOutboxEntry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, ok := s.outbox[id]
	if !ok {
		return nil, errno.ErrOutboxEntryNotFound
	}
	clone := *entry
	return &clone, nil
}

// CreateBroadcast 保存广播记录
func (s *Store) CreateBroadcast(ctx context.Context, record *model.BroadcastRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.SentAt.IsZero() {
		record.SentAt = time.Now()
	}
	clone := *record
	s.broadcasts[record.ID] = &clone
	return nil
}

// UpdateBroadcastStats 回写广播的成功/失败计数
func (s *Store) UpdateBroadcastStats(ctx context.Context, id string, successCount, failureCount int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	record, ok := s.broadcasts[id]
	if !ok {
		return errno.ErrBroadcastNotFound
	}
	record.SuccessCount = successCount
	record.FailureCount = failureCount
	return nil
}

// GetBroadcast 按ID读取广播记录
func (s *Store) GetBroadcast(ctx context.Context, id string) (*model.BroadcastRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	record, ok := s.broadcasts[id]
	if !ok {
		return nil, errno.ErrBroadcastNotFound
	}
	clone := *record
	return &clone, nil
}

// ListBroadcasts 按条件查询广播记录
func (s *Store) ListBroadcasts(
	ctx context.Context,
	sentBy string,
	dateFrom, dateTo *time.Time,
	search string,
	limit, offset int,
) ([]*model.BroadcastRecord, int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var matched []*model.BroadcastRecord
	for _, record := range s.broadcasts {
		if sentBy != "" && record.SentBy != sentBy {
			continue
		}
		if dateFrom != nil && record.SentAt.Before(*dateFrom) {
			continue
		}
		if dateTo != nil && record.SentAt.After(*dateTo) {
			continue
		}
		if search != "" && !containsFold(record.Title, search) && !containsFold(record.Body, search) {
			continue
		}
		clone := *record
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].SentAt.After(matched[j].SentAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// CreateTemplate 保存模板，模板标识全局唯一
func (s *Store) CreateTemplate(ctx context.Context, template *model.NotificationTemplate) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.templateKeys[template.TemplateKey]; exists {
		return errno.ErrTemplateKeyExists
	}
	if template.ID == "" {
		template.ID = uuid.New().String()
	}
	if template.CreatedAt.IsZero() {
		template.CreatedAt = time.Now()
	}
	clone := *template
	s.templates[template.ID] = &clone
	s.templateKeys[template.TemplateKey] = template.ID
	return nil
}

// GetTemplate 按ID读取模板
func (s *Store) GetTemplate(ctx context.Context, id string) (*model.NotificationTemplate, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	template, ok := s.templates[id]
	if !ok {
		return nil, errno.ErrTemplateNotFound
	}
	clone := *template
	return &clone, nil
}

// UpdateTemplate 整体覆盖模板
func (s *Store) UpdateTemplate(ctx context.Context, template *model.NotificationTemplate) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	existing, ok := s.templates[template.ID]
	if !ok {
		return errno.ErrTemplateNotFound
	}
	if existing.TemplateKey != template.TemplateKey {
		delete(s.templateKeys, existing.TemplateKey)
		s.templateKeys[template.TemplateKey] = template.ID
	}
	template.UpdatedAt = time.Now()
	clone := *template
	s.templates[template.ID] = &clone
	return nil
}

// DeleteTemplate 删除模板，已经用于发送的模板不允许删除
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	template, ok := s.templates[id]
	if !ok {
		return errno.ErrTemplateNotFound
	}
	if template.SentTimes > 0 {
		return errno.ErrTemplateInUse
	}
	delete(s.templateKeys, template.TemplateKey)
	delete(s.templates, id)
	return nil
}

// IncrementSentTimes 模板使用次数加一
func (s *Store) IncrementSentTimes(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	template, ok := s.templates[id]
	if !ok {
		return errno.ErrTemplateNotFound
	}
	template.SentTimes++
	return nil
}

// ListTemplates 按条件查询模板
func (s *Store) ListTemplates(
	ctx context.Context,
	templateType model.TemplateType,
	search string,
	limit, offset int,
) ([]*model.NotificationTemplate, int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var matched []*model.NotificationTemplate
	for _, template := range s.templates {
		if templateType != "" && template.Type != templateType {
			continue
		}
		if search != "" && !containsFold(template.TemplateName, search) && !containsFold(template.TemplateKey, search) {
			continue
		}
		clone := *template
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}
