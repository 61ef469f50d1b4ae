// pkg/dispatcher/dispatcher.go
package dispatcher

import (
	"context"
	"fmt"
	"log"
	"time"

	"NotifyHub/pkg/errno"
	"NotifyHub/pkg/model"
	"NotifyHub/pkg/render"
)

// Dispatcher 通知调度器
//
// 把一次逻辑发送扇出为每用户、每渠道的通知记录；
// 非站内渠道写入发件箱，由工作器异步投递。
type Dispatcher struct {
	notifications NotificationStore
	outbox        OutboxStore
	broadcasts    BroadcastStore
	templates     TemplateStore
	directory     UserDirectory
	renderer      *render.Renderer
	now           func() time.Time
}

// NewDispatcher 创建通知调度器
func NewDispatcher(
	notifications NotificationStore,
	outbox OutboxStore,
	broadcasts BroadcastStore,
	templates TemplateStore,
	directory UserDirectory,
	renderer *render.Renderer,
) *Dispatcher {
	if renderer == nil {
		renderer = render.NewRenderer()
	}
	return &Dispatcher{
		notifications: notifications,
		outbox:        outbox,
		broadcasts:    broadcasts,
		templates:     templates,
		directory:     directory,
		renderer:      renderer,
		now:           time.Now,
	}
}

// EventRequest 领域事件触发的通知请求
type EventRequest struct {
	EventType     model.EventType
	PrimaryUserID string
	ActorUserID   string
	Channels      []model.NotificationChannel
	Payload       map[string]interface{}
}

// DirectSendRequest 直接发送请求
type DirectSendRequest struct {
	TargetUserIDs []string
	Channels      []model.NotificationChannel
	Title         string
	Body          string
	Metadata      map[string]interface{}
	SentBy        string
}

// EmailSendRequest 按邮箱地址直接发送的请求，收件人无需注册账号
type EmailSendRequest struct {
	TargetEmails []string
	Channels     []model.NotificationChannel
	Title        string
	Body         string
	Metadata     map[string]interface{}
	SentBy       string
}

// TemplateSendRequest 基于模板的发送请求
type TemplateSendRequest struct {
	TemplateID      string
	TargetUserIDs   []string
	PlaceholderData map[string]interface{}
	Channels        []model.NotificationChannel
	SentBy          string
}

// ProcessEvent 处理一个领域事件
//
// 未指定渠道时使用事件类型的默认渠道表；
// 收件人没有邮箱时跳过EMAIL渠道，不影响其余渠道。
func (d *Dispatcher) ProcessEvent(ctx context.Context, req *EventRequest) error {
	channels := req.Channels
	if len(channels) == 0 {
		channels = req.EventType.DefaultChannels()
	}
	if err := validateChannels(channels); err != nil {
		return err
	}

	profile, err := d.directory.Resolve(ctx, req.PrimaryUserID)
	if err != nil {
		return err
	}

	content := req.EventType.Content()
	placeholders := render.StringifyValues(req.Payload)

	log.Printf("处理通知事件: 类型=%s, 用户=%s, 渠道数=%d", req.EventType, req.PrimaryUserID, len(channels))

	for _, channel := range channels {
		if channel == model.ChannelEmail && profile.Email == "" {
			log.Printf("用户 %s 没有邮箱地址，跳过EMAIL渠道", req.PrimaryUserID)
			continue
		}

		record := &model.NotificationRecord{
			UserID:         req.PrimaryUserID,
			Channel:        channel,
			Title:          d.renderer.Render(content.Title, placeholders, profile),
			Body:           d.renderer.Render(content.Body, placeholders, profile),
			DeliveryStatus: model.DeliveryPending,
			TemplateKey:    string(req.EventType),
			Metadata:       req.Payload,
		}
		if err := d.notifications.CreateNotification(ctx, record); err != nil {
			return fmt.Errorf("保存通知记录失败: %w", err)
		}

		if channel != model.ChannelInApp {
			if err := d.enqueue(ctx, record, recipientAddress(channel, profile)); err != nil {
				return err
			}
		}
	}
	return nil
}

// SendDirect 直接向多个用户发送通知，返回广播ID
//
// 单个收件人的解析或写入失败只计入失败数，不中断整批处理；
// 成功/失败计数在整个双重循环结束后一次性写回广播记录。
func (d *Dispatcher) SendDirect(ctx context.Context, req *DirectSendRequest) (string, error) {
	if len(req.TargetUserIDs) == 0 {
		return "", errno.ErrNoRecipients
	}
	if len(req.Channels) == 0 {
		return "", errno.ErrNoChannels
	}
	if err := validateChannels(req.Channels); err != nil {
		return "", err
	}

	broadcast, err := d.createBroadcast(ctx, "", req.Title, req.Body, req.Channels,
		len(req.TargetUserIDs), req.SentBy, req.Metadata)
	if err != nil {
		return "", err
	}

	placeholders := render.StringifyValues(req.Metadata)
	successCount, failureCount := 0, 0

	for _, userID := range req.TargetUserIDs {
		profile, err := d.directory.Resolve(ctx, userID)
		if err != nil {
			log.Printf("解析用户 %s 失败: %v", userID, err)
			failureCount += len(req.Channels)
			continue
		}

		for _, channel := range req.Channels {
			if d.fanOutOne(ctx, broadcast.ID, userID, channel, req.Title, req.Body, "", placeholders, req.Metadata, profile) {
				successCount++
			} else {
				failureCount++
			}
		}
	}

	if err := d.broadcasts.UpdateBroadcastStats(ctx, broadcast.ID, successCount, failureCount); err != nil {
		log.Printf("更新广播 %s 统计失败: %v", broadcast.ID, err)
	}
	return broadcast.ID, nil
}

// SendDirectByEmail 按邮箱地址直接发送，只支持EMAIL渠道
func (d *Dispatcher) SendDirectByEmail(ctx context.Context, req *EmailSendRequest) (string, error) {
	if len(req.TargetEmails) == 0 {
		return "", errno.ErrNoRecipients
	}
	if len(req.Channels) == 0 {
		return "", errno.ErrNoChannels
	}
	// 收件人没有用户ID，站内信等渠道无从投递
	for _, channel := range req.Channels {
		if channel != model.ChannelEmail {
			return "", errno.ErrChannelNotAllowed
		}
	}

	broadcast, err := d.createBroadcast(ctx, "", req.Title, req.Body, req.Channels,
		len(req.TargetEmails), req.SentBy, req.Metadata)
	if err != nil {
		return "", err
	}

	placeholders := render.StringifyValues(req.Metadata)
	successCount, failureCount := 0, 0

	for _, email := range req.TargetEmails {
		record := &model.NotificationRecord{
			UserID:         model.SystemUserID,
			BroadcastID:    broadcast.ID,
			Channel:        model.ChannelEmail,
			Title:          d.renderer.Render(req.Title, placeholders, nil),
			Body:           d.renderer.Render(req.Body, placeholders, nil),
			DeliveryStatus: model.DeliveryPending,
			Metadata:       req.Metadata,
		}
		if err := d.notifications.CreateNotification(ctx, record); err != nil {
			log.Printf("保存通知记录失败: %v", err)
			failureCount++
			continue
		}
		if err := d.enqueue(ctx, record, email); err != nil {
			log.Printf("%v", err)
			failureCount++
			continue
		}
		successCount++
	}

	if err := d.broadcasts.UpdateBroadcastStats(ctx, broadcast.ID, successCount, failureCount); err != nil {
		log.Printf("更新广播 %s 统计失败: %v", broadcast.ID, err)
	}
	return broadcast.ID, nil
}

// SendFromTemplate 使用存储的模板发送，返回广播ID
//
// 模板主内容为空时回退到次语言内容；整批结束后把模板使用次数加一。
func (d *Dispatcher) SendFromTemplate(ctx context.Context, req *TemplateSendRequest) (string, error) {
	template, err := d.templates.GetTemplate(ctx, req.TemplateID)
	if err != nil {
		return "", err
	}

	channels := req.Channels
	if len(channels) == 0 {
		for _, c := range template.DefaultChannels {
			channels = append(channels, model.NotificationChannel(c))
		}
	}
	if len(channels) == 0 {
		return "", errno.ErrNoChannels
	}
	if err := validateChannels(channels); err != nil {
		return "", err
	}
	if len(req.TargetUserIDs) == 0 {
		return "", errno.ErrNoRecipients
	}

	content := template.Content()
	if content == "" {
		return "", errno.ErrTemplateNoContent
	}

	broadcast, err := d.createBroadcast(ctx, template.ID, template.TemplateName, content,
		channels, len(req.TargetUserIDs), req.SentBy, req.PlaceholderData)
	if err != nil {
		return "", err
	}

	placeholders := render.StringifyValues(req.PlaceholderData)
	successCount, failureCount := 0, 0

	for _, userID := range req.TargetUserIDs {
		profile, err := d.directory.Resolve(ctx, userID)
		if err != nil {
			log.Printf("解析用户 %s 失败: %v", userID, err)
			failureCount += len(channels)
			continue
		}

		for _, channel := range channels {
			if d.fanOutOne(ctx, broadcast.ID, userID, channel, template.TemplateName, content,
				template.TemplateKey, placeholders, req.PlaceholderData, profile) {
				successCount++
			} else {
				failureCount++
			}
		}
	}

	if err := d.broadcasts.UpdateBroadcastStats(ctx, broadcast.ID, successCount, failureCount); err != nil {
		log.Printf("更新广播 %s 统计失败: %v", broadcast.ID, err)
	}
	if err := d.templates.IncrementSentTimes(ctx, template.ID); err != nil {
		log.Printf("更新模板 %s 使用次数失败: %v", template.ID, err)
	}
	return broadcast.ID, nil
}

// MarkRead 更新通知的已读状态，幂等
//
// 只有站内信会发生已读流转；重复标记已读不改变readAt，
// 标记未读会清空readAt。
func (d *Dispatcher) MarkRead(ctx context.Context, notificationID string, read bool) (*model.NotificationRecord, error) {
	record, err := d.notifications.GetNotification(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if record.Channel != model.ChannelInApp {
		return nil, errno.ErrNotInAppRecord
	}

	if read {
		if record.ReadAt == nil {
			now := d.now()
			record.IsRead = true
			record.ReadAt = &now
		}
	} else {
		record.IsRead = false
		record.ReadAt = nil
	}

	if err := d.notifications.UpdateNotification(ctx, record); err != nil {
		return nil, fmt.Errorf("更新通知已读状态失败: %w", err)
	}
	return record, nil
}

// fanOutOne 为单个(用户,渠道)对创建通知记录并按需入队，返回是否成功
func (d *Dispatcher) fanOutOne(
	ctx context.Context,
	broadcastID, userID string,
	channel model.NotificationChannel,
	title, body, templateKey string,
	placeholders map[string]string,
	metadata map[string]interface{},
	profile *model.UserProfile,
) bool {
	// 没有邮箱地址的用户，EMAIL渠道按失败计
	if channel == model.ChannelEmail && profile.Email == "" {
		log.Printf("用户 %s 没有邮箱地址，跳过EMAIL渠道", userID)
		return false
	}

	record := &model.NotificationRecord{
		UserID:         userID,
		BroadcastID:    broadcastID,
		Channel:        channel,
		Title:          d.renderer.Render(title, placeholders, profile),
		Body:           d.renderer.Render(body, placeholders, profile),
		DeliveryStatus: model.DeliveryPending,
		TemplateKey:    templateKey,
		Metadata:       metadata,
	}
	if err := d.notifications.CreateNotification(ctx, record); err != nil {
		log.Printf("保存通知记录失败: %v", err)
		return false
	}

	if channel != model.ChannelInApp {
		if err := d.enqueue(ctx, record, recipientAddress(channel, profile)); err != nil {
			log.Printf("%v", err)
			return false
		}
	}
	return true
}

// enqueue 为一条通知写入发件箱，投递地址在入队时固化，
// 之后目录服务不可用也不影响重试
func (d *Dispatcher) enqueue(ctx context.Context, record *model.NotificationRecord, address string) error {
	entry := &model.DeliveryOutboxEntry{
		NotificationID:   record.ID,
		Channel:          record.Channel,
		RecipientAddress: address,
		Status:           model.OutboxPending,
		RetryCount:       0,
		MaxRetries:       model.DefaultMaxRetries,
		NextRetryAt:      d.now(),
	}
	if err := d.outbox.EnqueueOutbox(ctx, entry); err != nil {
		return fmt.Errorf("写入发件箱失败: %w", err)
	}
	return nil
}

// createBroadcast 在扇出开始前创建广播记录
func (d *Dispatcher) createBroadcast(
	ctx context.Context,
	templateID, title, body string,
	channels []model.NotificationChannel,
	recipientCount int,
	sentBy string,
	metadata map[string]interface{},
) (*model.BroadcastRecord, error) {
	if sentBy == "" {
		sentBy = model.SystemUserID
	}
	broadcast := &model.BroadcastRecord{
		TemplateID:     templateID,
		Title:          title,
		Body:           body,
		Channels:       model.ChannelStrings(channels),
		RecipientCount: recipientCount,
		SentBy:         sentBy,
		SentAt:         d.now(),
		Metadata:       metadata,
	}
	if err := d.broadcasts.CreateBroadcast(ctx, broadcast); err != nil {
		return nil, fmt.Errorf("创建广播记录失败: %w", err)
	}
	log.Printf("创建广播记录: %s, 收件人数=%d", broadcast.ID, recipientCount)
	return broadcast, nil
}

// recipientAddress 按渠道取投递地址
func recipientAddress(channel model.NotificationChannel, profile *model.UserProfile) string {
	switch channel {
	case model.ChannelEmail:
		return profile.Email
	case model.ChannelChat:
		return profile.ChatHandle
	}
	return ""
}

// validateChannels 校验渠道取值
func validateChannels(channels []model.NotificationChannel) error {
	for _, c := range channels {
		if !model.ValidChannel(c) {
			return errno.ErrInvalidChannel
		}
	}
	return nil
}
