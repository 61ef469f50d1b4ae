// pkg/model/event.go
package model

// EventType 触发通知的领域事件类型
type EventType string

const (
	EventPaymentStatusChanged EventType = "PAYMENT_STATUS_CHANGED"
	EventIssueStatusChanged   EventType = "ISSUE_STATUS_CHANGED"
	EventIssueMessageNew      EventType = "ISSUE_MESSAGE_NEW"
	EventAccountVerified      EventType = "ACCOUNT_VERIFIED"
	EventAccountRegistered    EventType = "ACCOUNT_REGISTERED"
	EventAdminBroadcast       EventType = "ADMIN_BROADCAST"
)

// EventContent 事件对应的标题/正文模板，内容经过占位符渲染后投递
type EventContent struct {
	Title string
	Body  string
}

// defaultEventChannels 各事件类型的默认投递渠道
var defaultEventChannels = map[EventType][]NotificationChannel{
	EventPaymentStatusChanged: {ChannelEmail, ChannelInApp},
	EventIssueStatusChanged:   {ChannelInApp, ChannelEmail},
	EventIssueMessageNew:      {ChannelInApp},
	EventAccountVerified:      {ChannelEmail},
	EventAccountRegistered:    {ChannelEmail},
	EventAdminBroadcast:       {ChannelInApp, ChannelEmail},
}

// eventContents 各事件类型的静态内容模板
var eventContents = map[EventType]EventContent{
	EventPaymentStatusChanged: {
		Title: "支付状态更新",
		Body:  "您的支付状态已变更为 {{newStatus}}。",
	},
	EventIssueStatusChanged: {
		Title: "工单状态更新",
		Body:  "您的工单状态已变更为 {{newStatus}}。",
	},
	EventIssueMessageNew: {
		Title: "新消息提醒",
		Body:  "您有一条新消息：{{messagePreview}}",
	},
	EventAccountVerified: {
		Title: "账号审核通过",
		Body:  "{{name}} 您好，您的账号已通过审核，欢迎使用。",
	},
	EventAccountRegistered: {
		Title: "注册成功",
		Body:  "{{name}} 您好，感谢注册，您的识别码为 {{registration}}。",
	},
	EventAdminBroadcast: {
		Title: "{{title}}",
		Body:  "{{message}}",
	},
}

// DefaultChannels 返回事件类型的默认渠道，未知类型只投递站内信
func (t EventType) DefaultChannels() []NotificationChannel {
	if channels, ok := defaultEventChannels[t]; ok {
		out := make([]NotificationChannel, len(channels))
		copy(out, channels)
		return out
	}
	return []NotificationChannel{ChannelInApp}
}

// Content 返回事件类型的内容模板，未知类型退回通用文案
func (t EventType) Content() EventContent {
	if content, ok := eventContents[t]; ok {
		return content
	}
	return EventContent{
		Title: "通知",
		Body:  "您有一条新的通知。",
	}
}
