// pkg/errno/errno.go
package errno

import "errors"

// 校验类错误，发生在任何记录写入之前，HTTP层映射为400
var (
	ErrNoChannels        = errors.New("未指定任何投递渠道")
	ErrInvalidChannel    = errors.New("存在不支持的投递渠道")
	ErrChannelNotAllowed = errors.New("该发送方式不支持所选渠道")
	ErrNoRecipients      = errors.New("未指定任何收件人")
	ErrTemplateNoContent = errors.New("模板没有可用内容")
	ErrTemplateInUse     = errors.New("模板已被使用，不能删除")
	ErrTemplateKeyExists = errors.New("模板标识已存在")
	ErrNotInAppRecord    = errors.New("只有站内信支持已读标记")
)

// 未找到类错误，HTTP层映射为404
var (
	ErrRecipientNotFound    = errors.New("收件人不存在")
	ErrTemplateNotFound     = errors.New("模板不存在")
	ErrNotificationNotFound = errors.New("通知不存在")
	ErrBroadcastNotFound    = errors.New("广播记录不存在")
	ErrOutboxEntryNotFound  = errors.New("发件箱条目不存在")
)

var validationErrors = []error{
	ErrNoChannels,
	ErrInvalidChannel,
	ErrChannelNotAllowed,
	ErrNoRecipients,
	ErrTemplateNoContent,
	ErrTemplateInUse,
	ErrTemplateKeyExists,
	ErrNotInAppRecord,
}

var notFoundErrors = []error{
	ErrRecipientNotFound,
	ErrTemplateNotFound,
	ErrNotificationNotFound,
	ErrBroadcastNotFound,
	ErrOutboxEntryNotFound,
}

// IsValidation 判断是否为校验类错误
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound 判断是否为未找到类错误
func IsNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
