package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"NotifyHub/pkg/config"
	"NotifyHub/pkg/database"
	"NotifyHub/pkg/mailer"
	"NotifyHub/pkg/worker"
)

func main() {
	log.Println("启动发件箱工作器...")

	// 加载配置
	cfg, err := config.LoadConfig(config.GetDefaultConfigPath())
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 连接数据库
	db, err := database.NewPostgres(cfg)
	if err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}
	defer db.Close()

	// 创建邮件网关客户端
	email := mailer.NewClient(cfg.Email.GatewayURL, cfg.Email.Sender, cfg.Email.Token, cfg.Email.Timeout)

	// 创建并启动工作器
	w := worker.NewWorker(db.Outbox(), db.Notification(), email, worker.Options{
		Interval:    cfg.Worker.Interval,
		BatchSize:   cfg.Worker.BatchSize,
		SendTimeout: cfg.Worker.SendTimeout,
	})
	if err := w.Start(); err != nil {
		log.Fatalf("启动工作器失败: %v", err)
	}

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	w.Stop()
}
