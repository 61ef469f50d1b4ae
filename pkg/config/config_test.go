// pkg/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
app:
  name: notifyhub
  env: test
database:
  postgres:
    host: db.internal
    port: 5433
    user: svc
    password: secret
    dbname: notify
    sslmode: require
api:
  port: "9090"
worker:
  interval: 30s
  batch_size: 50
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.App.Name != "notifyhub" {
		t.Errorf("App.Name = %s", cfg.App.Name)
	}
	if cfg.Database.Postgres.Host != "db.internal" || cfg.Database.Postgres.Port != 5433 {
		t.Errorf("数据库配置 = %+v", cfg.Database.Postgres)
	}
	if cfg.API.Port != "9090" {
		t.Errorf("API.Port = %s", cfg.API.Port)
	}
	if cfg.Worker.Interval != 30*time.Second {
		t.Errorf("Worker.Interval = %s", cfg.Worker.Interval)
	}
	if cfg.Worker.BatchSize != 50 {
		t.Errorf("Worker.BatchSize = %d", cfg.Worker.BatchSize)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: notifyhub
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.API.Port != "8080" {
		t.Errorf("默认端口 = %s, want 8080", cfg.API.Port)
	}
	if cfg.Worker.Interval != 60*time.Second {
		t.Errorf("默认扫描间隔 = %s, want 60s", cfg.Worker.Interval)
	}
	if cfg.Worker.BatchSize != 100 {
		t.Errorf("默认批大小 = %d, want 100", cfg.Worker.BatchSize)
	}
	if cfg.Worker.SendTimeout != 30*time.Second {
		t.Errorf("默认投递超时 = %s, want 30s", cfg.Worker.SendTimeout)
	}
	if cfg.NATS.Stream != "NOTIFY_EVENTS" || cfg.NATS.Consumer != "notify-dispatcher" {
		t.Errorf("NATS默认值 = %+v", cfg.NATS)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, `
database:
  postgres:
    host: from-file
    port: 5432
`)

	t.Setenv("DB_HOST", "from-env")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("API_PORT", "7070")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Database.Postgres.Host != "from-env" {
		t.Errorf("DB_HOST覆盖失败: %s", cfg.Database.Postgres.Host)
	}
	if cfg.Database.Postgres.Port != 6543 {
		t.Errorf("DB_PORT覆盖失败: %d", cfg.Database.Postgres.Port)
	}
	if cfg.API.Port != "7070" {
		t.Errorf("API_PORT覆盖失败: %s", cfg.API.Port)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("no/such/file.yaml"); err == nil {
		t.Error("文件不存在时应返回错误")
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	t.Setenv("APP_ENV", "")
	if got := GetDefaultConfigPath(); got != "configs/dev/app.yaml" {
		t.Errorf("GetDefaultConfigPath() = %s", got)
	}

	t.Setenv("APP_ENV", "prod")
	if got := GetDefaultConfigPath(); got != "configs/prod/app.yaml" {
		t.Errorf("GetDefaultConfigPath() = %s", got)
	}
}
