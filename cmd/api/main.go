package main

import (
	"log"

	"NotifyHub/pkg/api"
	"NotifyHub/pkg/config"
	"NotifyHub/pkg/database"
	"NotifyHub/pkg/directory"
	"NotifyHub/pkg/dispatcher"
	"NotifyHub/pkg/messaging"
	"NotifyHub/pkg/render"
)

func main() {
	log.Println("启动通知API服务...")

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

	if err := db.AutoMigrate(); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 创建用户目录客户端
	users := directory.NewClient(cfg.Directory.BaseURL, cfg.Directory.ServiceToken, cfg.Directory.Timeout)

	// 创建通知调度器
	d := dispatcher.NewDispatcher(
		db.Notification(),
		db.Outbox(),
		db.Broadcast(),
		db.Template(),
		users,
		render.NewRenderer(),
	)

	// 创建API处理程序
	handlers := api.NewHandlers(d, db.Notification(), db.Broadcast(), db.Template())

	// 订阅通知事件流，NATS不可用时只提供HTTP入口
	if cfg.NATS.URL != "" {
		nc, err := messaging.NewNATSClient(cfg.NATS.URL, cfg.NATS.Stream)
		if err != nil {
			log.Printf("警告: 连接NATS失败, 事件订阅不可用: %v", err)
		} else {
			defer nc.Close()
			consumer := messaging.NewEventConsumer(nc, d, cfg.NATS.Stream, cfg.NATS.Consumer)
			if err := consumer.Start(); err != nil {
				log.Printf("警告: 订阅通知事件失败: %v", err)
			}
			handlers.SetMessagingChecker(nc)
		}
	}

	// 创建并启动服务器
	server := api.NewServer(cfg.API.Port, cfg.API.ReadTimeout, cfg.API.WriteTimeout)
	server.SetupRoutes(handlers)
	server.Start()
}
