// pkg/worker/worker.go
package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"NotifyHub/pkg/errno"
	"NotifyHub/pkg/model"
)

// OutboxQueue 工作器侧的发件箱边界
//
// SaveDeliveryResult 在一个事务里保存发件箱条目，并在
// notificationStatus 非空时同步更新对应通知的投递状态。
// 事务边界是单个条目，一个条目的持久化失败不会回滚
// 同一轮里其他条目已落库的结果。
type OutboxQueue interface {
	DueOutboxEntries(ctx context.Context, now time.Time, limit int) ([]*model.DeliveryOutboxEntry, error)
	SaveDeliveryResult(ctx context.Context, entry *model.DeliveryOutboxEntry, notificationStatus model.DeliveryStatus) error
}

// NotificationReader 工作器侧的通知读取边界
type NotificationReader interface {
	GetNotification(ctx context.Context, id string) (*model.NotificationRecord, error)
}

// Options 工作器运行参数
type Options struct {
	Interval    time.Duration // 扫描间隔，默认60秒
	BatchSize   int           // 单轮处理条数上限
	SendTimeout time.Duration // 单次投递超时
}

// Worker 发件箱工作器
//
// 定时扫描发件箱，对到期条目执行投递并维护重试状态机。
// 设计上单实例运行，不提供跨实例的行级协调。
type Worker struct {
	queue         OutboxQueue
	notifications NotificationReader
	senders       map[model.NotificationChannel]Sender
	interval      time.Duration
	batchSize     int
	sendTimeout   time.Duration
	cron          *cron.Cron
	now           func() time.Time
}

// NewWorker 创建发件箱工作器
func NewWorker(queue OutboxQueue, notifications NotificationReader, email Sender, opts Options) *Worker {
	if opts.Interval <= 0 {
		opts.Interval = 60 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 30 * time.Second
	}
	return &Worker{
		queue:         queue,
		notifications: notifications,
		senders: map[model.NotificationChannel]Sender{
			model.ChannelEmail: email,
			model.ChannelChat:  chatSender{},
		},
		interval:    opts.Interval,
		batchSize:   opts.BatchSize,
		sendTimeout: opts.SendTimeout,
		cron:        cron.New(),
		now:         time.Now,
	}
}

// Start 启动定时扫描
func (w *Worker) Start() error {
	_, err := w.cron.AddFunc(fmt.Sprintf("@every %s", w.interval), func() {
		if err := w.ProcessPending(context.Background()); err != nil {
			log.Printf("发件箱扫描失败: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("注册扫描任务失败: %w", err)
	}
	w.cron.Start()
	log.Printf("发件箱工作器已启动, 间隔=%s", w.interval)
	return nil
}

// Stop 停止定时扫描
func (w *Worker) Stop() {
	w.cron.Stop()
	log.Println("发件箱工作器已停止")
}

// ProcessPending 执行一轮扫描
//
// 到期条件: status ∈ {PENDING, FAILED} 且 nextRetryAt ≤ now。
// 条目之间相互独立，单个条目的异常不会中断整批处理。
func (w *Worker) ProcessPending(ctx context.Context) error {
	entries, err := w.queue.DueOutboxEntries(ctx, w.now(), w.batchSize)
	if err != nil {
		return fmt.Errorf("查询到期发件箱条目失败: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	log.Printf("发件箱工作器: 处理 %d 条待投递", len(entries))
	for _, entry := range entries {
		if err := w.ProcessEntry(ctx, entry); err != nil {
			log.Printf("处理发件箱条目 %s 失败: %v", entry.ID, err)
		}
	}
	return nil
}

// ProcessEntry 处理单个发件箱条目，状态流转的唯一主体
func (w *Worker) ProcessEntry(ctx context.Context, entry *model.DeliveryOutboxEntry) error {
	notification, err := w.notifications.GetNotification(ctx, entry.NotificationID)
	if err != nil {
		if errno.IsNotFound(err) {
			// 数据完整性问题，不属于瞬时故障，直接置为终态
			log.Printf("发件箱条目 %s 对应的通知 %s 不存在", entry.ID, entry.NotificationID)
			entry.Status = model.OutboxPermanentlyFailed
			entry.LastError = "Notification not found"
			return w.queue.SaveDeliveryResult(ctx, entry, "")
		}
		return err
	}

	sendErr := w.deliver(ctx, entry, notification)
	if sendErr == nil {
		now := w.now()
		entry.Status = model.OutboxSent
		entry.DeliveredAt = &now
		if err := w.queue.SaveDeliveryResult(ctx, entry, model.DeliverySent); err != nil {
			return err
		}
		log.Printf("通知 %s 经 %s 渠道投递成功", notification.ID, entry.Channel)
		return nil
	}

	entry.RetryCount++
	entry.LastError = model.TruncateError(sendErr.Error())

	if entry.RetryCount >= entry.MaxRetries {
		// 重试耗尽，终态失败并回写通知状态
		entry.Status = model.OutboxPermanentlyFailed
		log.Printf("通知 %s 重试次数耗尽", notification.ID)
		return w.queue.SaveDeliveryResult(ctx, entry, model.DeliveryFailed)
	}

	// 指数退避: 2^retryCount 分钟
	entry.Status = model.OutboxFailed
	entry.NextRetryAt = w.now().Add(time.Duration(1<<entry.RetryCount) * time.Minute)
	log.Printf("通知 %s 投递失败, 第 %d 次重试计划于 %s: %v",
		notification.ID, entry.RetryCount, entry.NextRetryAt.Format(time.RFC3339), sendErr)
	return w.queue.SaveDeliveryResult(ctx, entry, "")
}

// deliver 按渠道执行一次投递，单次投递受超时约束，
// 超时按普通瞬时失败进入重试
func (w *Worker) deliver(ctx context.Context, entry *model.DeliveryOutboxEntry, notification *model.NotificationRecord) error {
	sender, ok := w.senders[entry.Channel]
	if !ok {
		return fmt.Errorf("渠道 %s 没有对应的投递器", entry.Channel)
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()
	return sender.Send(sendCtx, entry.RecipientAddress, notification.Title, notification.Body)
}
