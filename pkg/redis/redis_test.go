package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/pawcare/vetclinic_backend/config"
)

func TestFromCentralConfigDefaults(t *testing.T) {
	cfg := FromCentralConfig(config.RedisConfig{Addr: "cache:6379", PoolSize: 50})

	if cfg.PoolSize != 50 {
		t.Errorf("PoolSize = %d, want 50", cfg.PoolSize)
	}
	if cfg.MinIdleConns != DefaultConfig().MinIdleConns {
		t.Errorf("MinIdleConns = %d, want default", cfg.MinIdleConns)
	}
	if cfg.ReadTimeout() != 3*time.Second {
		t.Errorf("ReadTimeout = %v, want 3s", cfg.ReadTimeout())
	}
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewRedis(Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer rdb.Close()

	if err := rdb.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Errorf("stored %q, want v", got)
	}
}

func TestNewRedisErrors(t *testing.T) {
	if _, err := NewRedis(Config{}); err == nil {
		t.Error("expected error for empty addr")
	}

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := NewRedis(Config{Addr: addr, DialTimeoutSeconds: 1}); err == nil {
		t.Error("expected ping failure for closed server")
	}
}
