// pkg/dispatcher/dispatcher_test.go
package dispatcher

import (
	"context"
	"errors"
	"testing"

	"NotifyHub/pkg/errno"
	"NotifyHub/pkg/model"
	"NotifyHub/pkg/render"
	"NotifyHub/pkg/repository"
)

func newTestDispatcher() (*Dispatcher, *repository.Store, *repository.StaticDirectory) {
	store := repository.NewStore()
	users := repository.NewStaticDirectory()
	d := NewDispatcher(store, store, store, store, users, render.NewRenderer())
	return d, store, users
}

func putUser(users *repository.StaticDirectory, id, name, email, chat string) {
	users.Put(&model.UserProfile{
		ID:         id,
		FullName:   name,
		Email:      email,
		ChatHandle: chat,
	})
}

func TestSendDirectFanOut(t *testing.T) {
	d, store, users := newTestDispatcher()
	ctx := context.Background()

	putUser(users, "u1", "张三", "u1@example.com", "")
	putUser(users, "u2", "李四", "u2@example.com", "")

	broadcastID, err := d.SendDirect(ctx, &DirectSendRequest{
		TargetUserIDs: []string{"u1", "u2"},
		Channels:      []model.NotificationChannel{model.ChannelInApp, model.ChannelEmail},
		Title:         "系统维护",
		Body:          "今晚维护",
		SentBy:        "admin-1",
	})
	if err != nil {
		t.Fatalf("SendDirect() error = %v", err)
	}

	// 每个(用户,渠道)对各一条通知记录
	records, err := store.ListByBroadcast(ctx, broadcastID)
	if err != nil {
		t.Fatalf("ListByBroadcast() error = %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("通知记录数 = %d, want 4", len(records))
	}

	// 只有非站内渠道生成发件箱条目
	outboxCount := 0
	for _, record := range records {
		entries, err := store.ListByNotification(ctx, record.ID)
		if err != nil {
			t.Fatalf("ListByNotification() error = %v", err)
		}
		if record.Channel == model.ChannelInApp {
			if len(entries) != 0 {
				t.Errorf("站内信不应生成发件箱条目, got %d", len(entries))
			}
			continue
		}
		if len(entries) != 1 {
			t.Fatalf("渠道 %s 的发件箱条目数 = %d, want 1", record.Channel, len(entries))
		}
		entry := entries[0]
		if entry.Status != model.OutboxPending {
			t.Errorf("新条目状态 = %s, want %s", entry.Status, model.OutboxPending)
		}
		if entry.MaxRetries != model.DefaultMaxRetries {
			t.Errorf("MaxRetries = %d, want %d", entry.MaxRetries, model.DefaultMaxRetries)
		}
		if entry.RecipientAddress == "" {
			t.Error("投递地址应在入队时固化")
		}
		outboxCount++
	}
	if outboxCount != 2 {
		t.Errorf("发件箱条目总数 = %d, want 2", outboxCount)
	}

	broadcast, err := store.GetBroadcast(ctx, broadcastID)
	if err != nil {
		t.Fatalf("GetBroadcast() error = %v", err)
	}
	if broadcast.RecipientCount != 2 {
		t.Errorf("RecipientCount = %d, want 2", broadcast.RecipientCount)
	}
	if broadcast.SuccessCount != 4 || broadcast.FailureCount != 0 {
		t.Errorf("统计 = (%d, %d), want (4, 0)", broadcast.SuccessCount, broadcast.FailureCount)
	}
	if broadcast.SentBy != "admin-1" {
		t.Errorf("SentBy = %s", broadcast.SentBy)
	}
}

func TestSendDirectValidation(t *testing.T) {
	d, _, _ := newTestDispatcher()
	ctx := context.Background()

	_, err := d.SendDirect(ctx, &DirectSendRequest{
		Channels: []model.NotificationChannel{model.ChannelInApp},
		Title:    "t", Body: "b",
	})
	if !errors.Is(err, errno.ErrNoRecipients) {
		t.Errorf("空收件人 error = %v, want ErrNoRecipients", err)
	}

	_, err = d.SendDirect(ctx, &DirectSendRequest{
		TargetUserIDs: []string{"u1"},
		Title:         "t", Body: "b",
	})
	if !errors.Is(err, errno.ErrNoChannels) {
		t.Errorf("空渠道 error = %v, want ErrNoChannels", err)
	}

	_, err = d.SendDirect(ctx, &DirectSendRequest{
		TargetUserIDs: []string{"u1"},
		Channels:      []model.NotificationChannel{"SMS"},
		Title:         "t", Body: "b",
	})
	if !errors.Is(err, errno.ErrInvalidChannel) {
		t.Errorf("未知渠道 error = %v, want ErrInvalidChannel", err)
	}
}

func TestSendDirectUnresolvedUserCountsFailures(t *testing.T) {
	d, store, users := newTestDispatcher()
	ctx := context.Background()

	putUser(users, "u1", "张三", "u1@example.com", "")
	// u2 未注册

	broadcastID, err := d.SendDirect(ctx, &DirectSendRequest{
		TargetUserIDs: []string{"u1", "u2"},
		Channels:      []model.NotificationChannel{model.ChannelInApp, model.ChannelEmail},
		Title:         "t", Body: "b",
	})
	if err != nil {
		t.Fatalf("SendDirect() error = %v", err)
	}

	// 解析失败的用户按全部渠道计失败，不中断整批
	broadcast, _ := store.GetBroadcast(ctx, broadcastID)
	if broadcast.SuccessCount != 2 || broadcast.FailureCount != 2 {
		t.Errorf("统计 = (%d, %d), want (2, 2)", broadcast.SuccessCount, broadcast.FailureCount)
	}
}

func TestSendDirectEmailWithoutAddress(t *testing.T) {
	d, store, users := newTestDispatcher()
	ctx := context.Background()

	putUser(users, "u1", "张三", "", "")

	broadcastID, err := d.SendDirect(ctx, &DirectSendRequest{
		TargetUserIDs: []string{"u1"},
		Channels:      []model.NotificationChannel{model.ChannelInApp, model.ChannelEmail},
		Title:         "t", Body: "b",
	})
	if err != nil {
		t.Fatalf("SendDirect() error = %v", err)
	}

	broadcast, _ := store.GetBroadcast(ctx, broadcastID)
	if broadcast.SuccessCount != 1 || broadcast.FailureCount != 1 {
		t.Errorf("统计 = (%d, %d), want (1, 1)", broadcast.SuccessCount, broadcast.FailureCount)
	}

	records, _ := store.ListByBroadcast(ctx, broadcastID)
	if len(records) != 1 || records[0].Channel != model.ChannelInApp {
		t.Errorf("没有邮箱时只应创建站内信记录, got %d", len(records))
	}
}

func TestProcessEventDefaultChannels(t *testing.T) {
	d, store, users := newTestDispatcher()
	ctx := context.Background()

	putUser(users, "u1", "张三", "u1@example.com", "")

	err := d.ProcessEvent(ctx, &EventRequest{
		EventType:     model.EventPaymentStatusChanged,
		PrimaryUserID: "u1",
		Payload:       map[string]interface{}{"status": "PAID"},
	})
	if err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}

	records, _, err := store.ListByUser(ctx, "u1", false, "", 100, 0)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(records) != len(model.EventPaymentStatusChanged.DefaultChannels()) {
		t.Fatalf("通知记录数 = %d, want %d", len(records), len(model.EventPaymentStatusChanged.DefaultChannels()))
	}
	for _, record := range records {
		if record.TemplateKey != string(model.EventPaymentStatusChanged) {
			t.Errorf("TemplateKey = %s", record.TemplateKey)
		}
		if record.BroadcastID != "" {
			t.Error("事件通知不应关联广播记录")
		}

		entries, _ := store.ListByNotification(ctx, record.ID)
		if record.Channel == model.ChannelInApp && len(entries) != 0 {
			t.Error("站内信不应入队")
		}
		if record.Channel == model.ChannelEmail && len(entries) != 1 {
			t.Error("EMAIL渠道应入队")
		}
	}
}

func TestProcessEventUnknownUser(t *testing.T) {
	d, _, _ := newTestDispatcher()

	err := d.ProcessEvent(context.Background(), &EventRequest{
		EventType:     model.EventAccountVerified,
		PrimaryUserID: "ghost",
	})
	if !errors.Is(err, errno.ErrRecipientNotFound) {
		t.Errorf("error = %v, want ErrRecipientNotFound", err)
	}
}

func TestProcessEventSkipsEmailWithoutAddress(t *testing.T) {
	d, store, users := newTestDispatcher()
	ctx := context.Background()

	putUser(users, "u1", "张三", "", "")

	err := d.ProcessEvent(ctx, &EventRequest{
		EventType:     model.EventPaymentStatusChanged,
		PrimaryUserID: "u1",
	})
	if err != nil {
		t.Fatalf("ProcessEvent() error = %v", err)
	}

	// EMAIL被跳过，其余渠道照常
	records, _, _ := store.ListByUser(ctx, "u1", false, "", 100, 0)
	for _, record := range records {
		if record.Channel == model.ChannelEmail {
			t.Error("没有邮箱时不应创建EMAIL记录")
		}
	}
	if len(records) == 0 {
		t.Error("其余渠道应照常创建记录")
	}
}

func TestSendDirectByEmail(t *testing.T) {
	d, store, _ := newTestDispatcher()
	ctx := context.Background()

	broadcastID, err := d.SendDirectByEmail(ctx, &EmailSendRequest{
		TargetEmails: []string{"a@example.com", "b@example.com"},
		Channels:     []model.NotificationChannel{model.ChannelEmail},
		Title:        "邀请", Body: "欢迎加入",
	})
	if err != nil {
		t.Fatalf("SendDirectByEmail() error = %v", err)
	}

	records, _ := store.ListByBroadcast(ctx, broadcastID)
	if len(records) != 2 {
		t.Fatalf("通知记录数 = %d, want 2", len(records))
	}
	for _, record := range records {
		if record.UserID != model.SystemUserID {
			t.Errorf("无账号收件人应使用系统用户ID, got %s", record.UserID)
		}
		entries, _ := store.ListByNotification(ctx, record.ID)
		if len(entries) != 1 {
			t.Fatalf("发件箱条目数 = %d, want 1", len(entries))
		}
		if entries[0].RecipientAddress != "a@example.com" && entries[0].RecipientAddress != "b@example.com" {
			t.Errorf("投递地址 = %s", entries[0].RecipientAddress)
		}
	}
}

func TestSendDirectByEmailRejectsOtherChannels(t *testing.T) {
	d, _, _ := newTestDispatcher()

	_, err := d.SendDirectByEmail(context.Background(), &EmailSendRequest{
		TargetEmails: []string{"a@example.com"},
		Channels:     []model.NotificationChannel{model.ChannelInApp},
		Title:        "t", Body: "b",
	})
	if !errors.Is(err, errno.ErrChannelNotAllowed) {
		t.Errorf("error = %v, want ErrChannelNotAllowed", err)
	}
}

func TestSendFromTemplate(t *testing.T) {
	d, store, users := newTestDispatcher()
	ctx := context.Background()

	putUser(users, "u1", "张三", "u1@example.com", "")

	template := &model.NotificationTemplate{
		TemplateKey:    "welcome",
		TemplateName:   "欢迎通知",
		Type:           model.TemplatePersonalized,
		ContentPrimary: "你好 {{name}}，欢迎使用 {{product}}！",
		DefaultChannels: []string{
			string(model.ChannelInApp),
		},
	}
	if err := store.CreateTemplate(ctx, template); err != nil {
		t.Fatalf("CreateTemplate() error = %v", err)
	}

	broadcastID, err := d.SendFromTemplate(ctx, &TemplateSendRequest{
		TemplateID:      template.ID,
		TargetUserIDs:   []string{"u1"},
		PlaceholderData: map[string]interface{}{"product": "NotifyHub"},
	})
	if err != nil {
		t.Fatalf("SendFromTemplate() error = %v", err)
	}

	records, _ := store.ListByBroadcast(ctx, broadcastID)
	if len(records) != 1 {
		t.Fatalf("通知记录数 = %d, want 1", len(records))
	}
	if records[0].Body != "你好 张三，欢迎使用 NotifyHub！" {
		t.Errorf("渲染结果 = %q", records[0].Body)
	}
	if records[0].TemplateKey != "welcome" {
		t.Errorf("TemplateKey = %s", records[0].TemplateKey)
	}

	broadcast, _ := store.GetBroadcast(ctx, broadcastID)
	if broadcast.TemplateID != template.ID {
		t.Errorf("广播应关联模板, TemplateID = %s", broadcast.TemplateID)
	}

	// 发送后模板使用次数加一
	stored, _ := store.GetTemplate(ctx, template.ID)
	if stored.SentTimes != 1 {
		t.Errorf("SentTimes = %d, want 1", stored.SentTimes)
	}
}

func TestSendFromTemplateNoContent(t *testing.T) {
	d, store, users := newTestDispatcher()
	ctx := context.Background()

	putUser(users, "u1", "张三", "", "")

	template := &model.NotificationTemplate{
		TemplateKey:     "empty",
		TemplateName:    "空模板",
		Type:            model.TemplateGeneral,
		DefaultChannels: []string{string(model.ChannelInApp)},
	}
	if err := store.CreateTemplate(ctx, template); err != nil {
		t.Fatalf("CreateTemplate() error = %v", err)
	}

	_, err := d.SendFromTemplate(ctx, &TemplateSendRequest{
		TemplateID:    template.ID,
		TargetUserIDs: []string{"u1"},
	})
	if !errors.Is(err, errno.ErrTemplateNoContent) {
		t.Errorf("error = %v, want ErrTemplateNoContent", err)
	}
}

func TestSendFromTemplateSecondaryFallback(t *testing.T) {
	d, store, users := newTestDispatcher()
	ctx := context.Background()

	putUser(users, "u1", "张三", "", "")

	template := &model.NotificationTemplate{
		TemplateKey:      "fallback",
		TemplateName:     "回退模板",
		Type:             model.TemplateGeneral,
		ContentSecondary: "secondary content",
		DefaultChannels:  []string{string(model.ChannelInApp)},
	}
	if err := store.CreateTemplate(ctx, template); err != nil {
		t.Fatalf("CreateTemplate() error = %v", err)
	}

	broadcastID, err := d.SendFromTemplate(ctx, &TemplateSendRequest{
		TemplateID:    template.ID,
		TargetUserIDs: []string{"u1"},
	})
	if err != nil {
		t.Fatalf("SendFromTemplate() error = %v", err)
	}

	records, _ := store.ListByBroadcast(ctx, broadcastID)
	if len(records) != 1 || records[0].Body != "secondary content" {
		t.Errorf("主内容为空时应回退到次语言内容, records = %v", records)
	}
}

func TestSendFromTemplateUnknownTemplate(t *testing.T) {
	d, _, _ := newTestDispatcher()

	_, err := d.SendFromTemplate(context.Background(), &TemplateSendRequest{
		TemplateID:    "no-such-template",
		TargetUserIDs: []string{"u1"},
	})
	if !errors.Is(err, errno.ErrTemplateNotFound) {
		t.Errorf("error = %v, want ErrTemplateNotFound", err)
	}
}

func TestMarkReadLifecycle(t *testing.T) {
	d, store, _ := newTestDispatcher()
	ctx := context.Background()

	record := &model.NotificationRecord{
		UserID:  "u1",
		Channel: model.ChannelInApp,
		Title:   "t", Body: "b",
		DeliveryStatus: model.DeliveryPending,
	}
	if err := store.CreateNotification(ctx, record); err != nil {
		t.Fatalf("CreateNotification() error = %v", err)
	}

	updated, err := d.MarkRead(ctx, record.ID, true)
	if err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if !updated.IsRead || updated.ReadAt == nil {
		t.Fatal("标记已读后应设置readAt")
	}
	firstReadAt := *updated.ReadAt

	// 重复标记已读不改变readAt
	again, err := d.MarkRead(ctx, record.ID, true)
	if err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if again.ReadAt == nil || !again.ReadAt.Equal(firstReadAt) {
		t.Error("重复标记已读不应改变readAt")
	}

	// 标记未读清空readAt
	cleared, err := d.MarkRead(ctx, record.ID, false)
	if err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if cleared.IsRead || cleared.ReadAt != nil {
		t.Error("标记未读应清空readAt")
	}
}

func TestMarkReadRejectsNonInApp(t *testing.T) {
	d, store, _ := newTestDispatcher()
	ctx := context.Background()

	record := &model.NotificationRecord{
		UserID:  "u1",
		Channel: model.ChannelEmail,
		Title:   "t", Body: "b",
		DeliveryStatus: model.DeliveryPending,
	}
	if err := store.CreateNotification(ctx, record); err != nil {
		t.Fatalf("CreateNotification() error = %v", err)
	}

	_, err := d.MarkRead(ctx, record.ID, true)
	if !errors.Is(err, errno.ErrNotInAppRecord) {
		t.Errorf("error = %v, want ErrNotInAppRecord", err)
	}
}

func TestMarkReadUnknownNotification(t *testing.T) {
	d, _, _ := newTestDispatcher()

	_, err := d.MarkRead(context.Background(), "no-such-id", true)
	if !errors.Is(err, errno.ErrNotificationNotFound) {
		t.Errorf("error = %v, want ErrNotificationNotFound", err)
	}
}
