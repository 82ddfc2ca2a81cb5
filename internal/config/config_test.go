package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg := Load()

	// 检查默认值
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("Expected HTTP_ADDR default ':8080', got '%s'", cfg.HTTP.Addr)
	}

	if cfg.Database.Host != "localhost" {
		t.Errorf("Expected DB_HOST default 'localhost', got '%s'", cfg.Database.Host)
	}

	if cfg.Database.Port != 5432 {
		t.Errorf("Expected DB_PORT default 5432, got %d", cfg.Database.Port)
	}

	if cfg.Database.Database != "lineops" {
		t.Errorf("Expected DB_NAME default 'lineops', got '%s'", cfg.Database.Database)
	}

	if cfg.Database.LockTimeout != 5*time.Second {
		t.Errorf("Expected DB_LOCK_TIMEOUT default 5s, got %v", cfg.Database.LockTimeout)
	}

	if cfg.Redis.Enabled {
		t.Error("Expected REDIS_ENABLED default false")
	}

	if cfg.Redis.Stream != "lineops:allocations" {
		t.Errorf("Expected REDIS_AUDIT_STREAM default 'lineops:allocations', got '%s'", cfg.Redis.Stream)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Expected LOG_LEVEL default 'info', got '%s'", cfg.Log.Level)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	// 设置环境变量
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_NAME", "test-db")
	os.Setenv("DB_LOCK_TIMEOUT", "250ms")
	os.Setenv("REDIS_ENABLED", "true")
	os.Setenv("LOG_LEVEL", "debug")
	defer os.Clearenv()

	cfg := Load()

	if cfg.Database.Host != "test-host" {
		t.Errorf("Expected DB_HOST 'test-host', got '%s'", cfg.Database.Host)
	}

	if cfg.Database.Database != "test-db" {
		t.Errorf("Expected DB_NAME 'test-db', got '%s'", cfg.Database.Database)
	}

	if cfg.Database.LockTimeout != 250*time.Millisecond {
		t.Errorf("Expected DB_LOCK_TIMEOUT 250ms, got %v", cfg.Database.LockTimeout)
	}

	if !cfg.Redis.Enabled {
		t.Error("Expected REDIS_ENABLED true")
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Expected LOG_LEVEL 'debug', got '%s'", cfg.Log.Level)
	}
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_LOCK_TIMEOUT", "soon")
	defer os.Clearenv()

	cfg := Load()
	if cfg.Database.LockTimeout != 5*time.Second {
		t.Errorf("Expected fallback 5s, got %v", cfg.Database.LockTimeout)
	}
}
