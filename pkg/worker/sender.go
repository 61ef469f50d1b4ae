// pkg/worker/sender.go
package worker

import (
	"context"
	"log"
)

// Sender 渠道投递器，按发件箱条目里固化的地址发送
type Sender interface {
	Send(ctx context.Context, address, subject, body string) error
}

// chatSender 聊天渠道桩实现，协议对接不在当前范围内，直接视为成功
type chatSender struct{}

func (chatSender) Send(ctx context.Context, address, subject, body string) error {
	log.Printf("聊天渠道桩投递: 地址=%s, 标题=%s", address, subject)
	return nil
}
