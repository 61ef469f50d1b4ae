// pkg/repository/memory_test.go
package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"NotifyHub/pkg/errno"
	"NotifyHub/pkg/model"
)

func TestNotFoundSentinels(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.GetNotification(ctx, "missing"); !errors.Is(err, errno.ErrNotificationNotFound) {
		t.Errorf("GetNotification error = %v, want ErrNotificationNotFound", err)
	}
	if _, err := store.GetBroadcast(ctx, "missing"); !errors.Is(err, errno.ErrBroadcastNotFound) {
		t.Errorf("GetBroadcast error = %v, want ErrBroadcastNotFound", err)
	}
	if _, err := store.GetTemplate(ctx, "missing"); !errors.Is(err, errno.ErrTemplateNotFound) {
		t.Errorf("GetTemplate error = %v, want ErrTemplateNotFound", err)
	}

	// 发件箱条目缺失用自己的哨兵错误，不能和通知缺失混淆
	if _, err := store.GetOutboxEntry(ctx, "missing"); !errors.Is(err, errno.ErrOutboxEntryNotFound) {
		t.Errorf("GetOutboxEntry error = %v, want ErrOutboxEntryNotFound", err)
	}
	err := store.SaveDeliveryResult(ctx, &model.DeliveryOutboxEntry{ID: "missing"}, "")
	if !errors.Is(err, errno.ErrOutboxEntryNotFound) {
		t.Errorf("SaveDeliveryResult error = %v, want ErrOutboxEntryNotFound", err)
	}
}

func TestSaveDeliveryResultWritesBackNotification(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	record := &model.NotificationRecord{
		UserID:         "u1",
		Channel:        model.ChannelEmail,
		Title:          "t",
		Body:           "b",
		DeliveryStatus: model.DeliveryPending,
	}
	if err := store.CreateNotification(ctx, record); err != nil {
		t.Fatal(err)
	}
	entry := &model.DeliveryOutboxEntry{
		NotificationID: record.ID,
		Channel:        model.ChannelEmail,
		Status:         model.OutboxPending,
		MaxRetries:     model.DefaultMaxRetries,
		NextRetryAt:    time.Now(),
	}
	if err := store.EnqueueOutbox(ctx, entry); err != nil {
		t.Fatal(err)
	}

	// 状态为空时只保存条目
	entry.Status = model.OutboxFailed
	if err := store.SaveDeliveryResult(ctx, entry, ""); err != nil {
		t.Fatal(err)
	}
	saved, _ := store.GetNotification(ctx, record.ID)
	if saved.DeliveryStatus != model.DeliveryPending {
		t.Errorf("通知状态 = %s, 不应被改写", saved.DeliveryStatus)
	}

	// 状态非空时同步回写通知
	entry.Status = model.OutboxSent
	if err := store.SaveDeliveryResult(ctx, entry, model.DeliverySent); err != nil {
		t.Fatal(err)
	}
	saved, _ = store.GetNotification(ctx, record.ID)
	if saved.DeliveryStatus != model.DeliverySent {
		t.Errorf("通知状态 = %s, want %s", saved.DeliveryStatus, model.DeliverySent)
	}
}
