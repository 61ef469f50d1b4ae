package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"`
	} `yaml:"app"`

	Database struct {
		Postgres struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			DBName   string `yaml:"dbname"`
			SSLMode  string `yaml:"sslmode"`
		} `yaml:"postgres"`
	} `yaml:"database"`

	NATS struct {
		URL      string `yaml:"url"`
		Stream   string `yaml:"stream"`
		Consumer string `yaml:"consumer"`
	} `yaml:"nats"`

	API struct {
		Port         string        `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"api"`

	Worker struct {
		Interval    time.Duration `yaml:"interval"`
		BatchSize   int           `yaml:"batch_size"`
		SendTimeout time.Duration `yaml:"send_timeout"`
	} `yaml:"worker"`

	Email struct {
		GatewayURL string        `yaml:"gateway_url"`
		Sender     string        `yaml:"sender"`
		Token      string        `yaml:"token"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"email"`

	Directory struct {
		BaseURL      string        `yaml:"base_url"`
		ServiceToken string        `yaml:"service_token"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"directory"`
}

// LoadConfig 从文件加载配置
func LoadConfig(path string) (*Config, error) {
	// 读取配置文件
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析YAML
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 环境变量覆盖
	overrideFromEnv(&config)

	// 补齐默认值
	applyDefaults(&config)

	return &config, nil
}

// overrideFromEnv 使用环境变量覆盖配置
func overrideFromEnv(config *Config) {
	// 应用配置
	if env := os.Getenv("APP_NAME"); env != "" {
		config.App.Name = env
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		config.App.Env = env
	}

	// 数据库配置
	if env := os.Getenv("DB_HOST"); env != "" {
		config.Database.Postgres.Host = env
	}
	if env := os.Getenv("DB_PORT"); env != "" {
		var port int
		fmt.Sscanf(env, "%d", &port)
		if port > 0 {
			config.Database.Postgres.Port = port
		}
	}
	if env := os.Getenv("DB_USER"); env != "" {
		config.Database.Postgres.User = env
	}
	if env := os.Getenv("DB_PASSWORD"); env != "" {
		config.Database.Postgres.Password = env
	}
	if env := os.Getenv("DB_NAME"); env != "" {
		config.Database.Postgres.DBName = env
	}

	// NATS配置
	if env := os.Getenv("NATS_URL"); env != "" {
		config.NATS.URL = env
	}

	// API配置
	if env := os.Getenv("API_PORT"); env != "" {
		config.API.Port = env
	}

	// 邮件网关配置
	if env := os.Getenv("EMAIL_GATEWAY_URL"); env != "" {
		config.Email.GatewayURL = env
	}
	if env := os.Getenv("EMAIL_SENDER"); env != "" {
		config.Email.Sender = env
	}
	if env := os.Getenv("EMAIL_TOKEN"); env != "" {
		config.Email.Token = env
	}

	// 用户目录配置
	if env := os.Getenv("DIRECTORY_BASE_URL"); env != "" {
		config.Directory.BaseURL = env
	}
	if env := os.Getenv("DIRECTORY_SERVICE_TOKEN"); env != "" {
		config.Directory.ServiceToken = env
	}
}

// applyDefaults 为缺省项填入默认值
func applyDefaults(config *Config) {
	if config.API.Port == "" {
		config.API.Port = "8080"
	}
	if config.Worker.Interval <= 0 {
		config.Worker.Interval = 60 * time.Second
	}
	if config.Worker.BatchSize <= 0 {
		config.Worker.BatchSize = 100
	}
	if config.Worker.SendTimeout <= 0 {
		config.Worker.SendTimeout = 30 * time.Second
	}
	if config.Email.Timeout <= 0 {
		config.Email.Timeout = 10 * time.Second
	}
	if config.Directory.Timeout <= 0 {
		config.Directory.Timeout = 10 * time.Second
	}
	if config.NATS.Stream == "" {
		config.NATS.Stream = "NOTIFY_EVENTS"
	}
	if config.NATS.Consumer == "" {
		config.NATS.Consumer = "notify-dispatcher"
	}
}

// GetDefaultConfigPath 获取默认配置文件路径
func GetDefaultConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev" // 默认开发环境
	}

	return fmt.Sprintf("configs/%s/app.yaml", env)
}
