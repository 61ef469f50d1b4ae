// pkg/messaging/events.go
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"NotifyHub/pkg/dispatcher"
	"NotifyHub/pkg/errno"
	"NotifyHub/pkg/model"
)

// EventMessage 通知事件的消息结构
type EventMessage struct {
	EventType     string                 `json:"eventType"`
	PrimaryUserID string                 `json:"primaryUserId"`
	ActorUserID   string                 `json:"actorUserId,omitempty"`
	Channels      []string               `json:"channels,omitempty"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
}

// EventConsumer 通知事件消费者
//
// 从JetStream消费领域事件并交给调度器扇出。
type EventConsumer struct {
	client     *NATSClient
	dispatcher *dispatcher.Dispatcher
	stream     string
	consumer   string
}

// NewEventConsumer 创建通知事件消费者
func NewEventConsumer(client *NATSClient, d *dispatcher.Dispatcher, stream, consumer string) *EventConsumer {
	return &EventConsumer{
		client:     client,
		dispatcher: d,
		stream:     stream,
		consumer:   consumer,
	}
}

// Start 开始消费通知事件
func (e *EventConsumer) Start() error {
	return e.client.Subscribe(e.stream, e.consumer, "notify.events.*", e.handleMessage)
}

// handleMessage 处理单条事件消息
//
// 校验类错误直接确认丢弃，重回队列也不会成功；
// 其他错误返回给消费循环触发Nak重投。
func (e *EventConsumer) handleMessage(data []byte) error {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("解析事件消息失败, 丢弃: %v", err)
		return nil
	}
	if msg.PrimaryUserID == "" {
		log.Printf("事件消息缺少primaryUserId, 丢弃: %s", msg.EventType)
		return nil
	}

	req := &dispatcher.EventRequest{
		EventType:     model.EventType(msg.EventType),
		PrimaryUserID: msg.PrimaryUserID,
		ActorUserID:   msg.ActorUserID,
		Payload:       msg.Payload,
	}
	for _, c := range msg.Channels {
		req.Channels = append(req.Channels, model.NotificationChannel(c))
	}

	if err := e.dispatcher.ProcessEvent(context.Background(), req); err != nil {
		if errno.IsValidation(err) || errno.IsNotFound(err) {
			log.Printf("事件 %s 处理被拒绝, 丢弃: %v", msg.EventType, err)
			return nil
		}
		return fmt.Errorf("处理事件 %s 失败: %w", msg.EventType, err)
	}
	return nil
}
