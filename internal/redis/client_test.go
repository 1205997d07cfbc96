package redisclient

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNewRedisClientAppliesOptions(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewRedisClient(Options{Addr: mr.Addr(), PoolSize: 4, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	defer rdb.Close()

	opts := rdb.Options()
	if opts.PoolSize != 4 {
		t.Errorf("pool size = %d, want 4", opts.PoolSize)
	}
	if opts.ReadTimeout != time.Second || opts.WriteTimeout != time.Second {
		t.Errorf("timeouts = %s/%s, want 1s", opts.ReadTimeout, opts.WriteTimeout)
	}
}

func TestNewRedisClientDefaults(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewRedisClient(Options{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	defer rdb.Close()

	opts := rdb.Options()
	if opts.PoolSize != 10 {
		t.Errorf("default pool size = %d, want 10", opts.PoolSize)
	}
	if opts.ReadTimeout != 2*time.Second {
		t.Errorf("default read timeout = %s, want 2s", opts.ReadTimeout)
	}
}

func TestNewRedisClientUnreachable(t *testing.T) {
	if _, err := NewRedisClient(Options{Addr: "127.0.0.1:1"}); err == nil {
		t.Fatal("expected ping failure for unreachable address")
	}
}
