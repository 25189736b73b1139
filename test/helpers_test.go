//go:build integration
// +build integration

package test

import (
	"testing"

	goFlags "github.com/MrEthical07/goFlags"
	"github.com/MrEthical07/goFlags/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func permRegistry(t *testing.T) *goFlags.Registry {
	t.Helper()
	reg, err := goFlags.New().
		WithConfig(goFlags.Config{Metrics: goFlags.MetricsConfig{Enabled: true}}).
		Primitive("None", "Read", "Write").
		Alias("ReadWrite", "Read", "Write").
		Primitive("Delete").
		Alias("Admin", "ReadWrite", "Delete").
		Build()
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func newIntegrationStore(t *testing.T, reg *goFlags.Registry) (*store.Store, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	st, err := store.NewStore(rdb, reg, store.DefaultConfig(), store.Options{})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	return st, mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}
