package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	goFlags "github.com/MrEthical07/goFlags"
)

func testRegistry(t *testing.T) *goFlags.Registry {
	t.Helper()
	r, err := goFlags.New().
		WithMetricsEnabled(true).
		Primitive("None", "Read", "Write").
		Alias("ReadWrite", "Read", "Write").
		Primitive("Delete", "Admin").
		Build()
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return r
}

func newStoreTest(t *testing.T, reg *goFlags.Registry, cfg Config) (*Store, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})

	s, err := NewStore(rdb, reg, cfg, Options{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s, mr, rdb
}

func TestSaveLoadRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	s, _, rdb := newStoreTest(t, reg, DefaultConfig())
	ctx := context.Background()

	v := reg.MustOf("ReadWrite", "Admin")
	if err := s.Save(ctx, "alice", v); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != v {
		t.Fatalf("expected %v, got %v", v, got)
	}

	stored, err := rdb.HGet(ctx, "gf:alice", fieldFlags).Result()
	if err != nil {
		t.Fatalf("hget: %v", err)
	}
	if stored != "Read, Write, Admin" {
		t.Fatalf("expected name list in redis, got %q", stored)
	}

	if reg.Metrics().Value(goFlags.MetricStoreSave) != 1 || reg.Metrics().Value(goFlags.MetricStoreLoad) != 1 {
		t.Fatal("expected one save and one load counted")
	}
}

func TestSaveUnboundZeroStoresSentinel(t *testing.T) {
	reg := testRegistry(t)
	s, _, _ := newStoreTest(t, reg, DefaultConfig())
	ctx := context.Background()

	if err := s.Save(ctx, "nobody", goFlags.Set{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, "nobody")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.IsZero() || got.String() != "None" {
		t.Fatalf("expected None, got %q", got.String())
	}
}

func TestLoadMissing(t *testing.T) {
	reg := testRegistry(t)
	s, _, _ := newStoreTest(t, reg, DefaultConfig())

	v, err := s.Load(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !v.IsZero() {
		t.Fatal("expected zero on miss")
	}
	if reg.Metrics().Value(goFlags.MetricStoreMiss) != 1 {
		t.Fatal("expected one miss counted")
	}
}

func TestLoadFingerprintMismatch(t *testing.T) {
	reg := testRegistry(t)
	s, mr, _ := newStoreTest(t, reg, DefaultConfig())
	ctx := context.Background()

	if err := s.Save(ctx, "alice", reg.MustFlag("Read")); err != nil {
		t.Fatalf("save: %v", err)
	}

	other := goFlags.MustBuild(goFlags.Primitives("None", "Write", "Read")...)
	core, logs := observer.New(zapcore.WarnLevel)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	s2, err := NewStore(rdb, other, DefaultConfig(), Options{Logger: zap.New(core)})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, err := s2.Load(ctx, "alice"); !errors.Is(err, ErrFingerprintMismatch) {
		t.Fatalf("expected ErrFingerprintMismatch, got %v", err)
	}
	if logs.FilterMessage("flag set written by another registry").Len() != 1 {
		t.Fatalf("expected one warning, got %v", logs.All())
	}
}

func TestLoadCorruptEntries(t *testing.T) {
	reg := testRegistry(t)
	s, _, rdb := newStoreTest(t, reg, DefaultConfig())
	ctx := context.Background()
	fp := reg.Fingerprint().String()

	if err := rdb.HSet(ctx, "gf:bad", fieldFingerprint, fp, fieldFlags, "Read, Fly").Err(); err != nil {
		t.Fatalf("hset: %v", err)
	}
	_, err := s.Load(ctx, "bad")
	if !errors.Is(err, ErrCorrupt) || !errors.Is(err, goFlags.ErrParse) {
		t.Fatalf("expected ErrCorrupt wrapping ErrParse, got %v", err)
	}

	if err := rdb.HSet(ctx, "gf:half", fieldFlags, "Read").Err(); err != nil {
		t.Fatalf("hset: %v", err)
	}
	if _, err := s.Load(ctx, "half"); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for missing fingerprint, got %v", err)
	}

	if got := reg.Metrics().Value(goFlags.MetricStoreCorrupt); got != 2 {
		t.Fatalf("expected 2 corrupt reads, got %d", got)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	reg := testRegistry(t)
	s, _, _ := newStoreTest(t, reg, DefaultConfig())
	ctx := context.Background()

	if err := s.Save(ctx, "alice", reg.MustFlag("Admin")); err != nil {
		t.Fatalf("save: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.Delete(ctx, "alice"); err != nil {
			t.Fatalf("delete %d: %v", i, err)
		}
	}
	if _, err := s.Load(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestInvalidIDAndRegistryMismatch(t *testing.T) {
	reg := testRegistry(t)
	s, _, _ := newStoreTest(t, reg, DefaultConfig())
	ctx := context.Background()

	if err := s.Save(ctx, "", reg.Zero()); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := s.Load(ctx, ""); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}

	foreign := testRegistry(t)
	if err := s.Save(ctx, "alice", foreign.MustFlag("Read")); !errors.Is(err, goFlags.ErrRegistryMismatch) {
		t.Fatalf("expected ErrRegistryMismatch, got %v", err)
	}
	if _, err := s.Grant(ctx, "alice", foreign.MustFlag("Read")); !errors.Is(err, goFlags.ErrRegistryMismatch) {
		t.Fatalf("expected ErrRegistryMismatch from Grant, got %v", err)
	}
}

func TestGrantRevoke(t *testing.T) {
	reg := testRegistry(t)
	s, _, _ := newStoreTest(t, reg, DefaultConfig())
	ctx := context.Background()

	v, err := s.Grant(ctx, "bob", reg.MustFlag("Read"))
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if v.String() != "Read" {
		t.Fatalf("expected Read, got %q", v.String())
	}

	v, err = s.Grant(ctx, "bob", reg.MustOf("Write", "Delete"))
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if v.String() != "Read, Write, Delete" {
		t.Fatalf("unexpected grant result %q", v.String())
	}

	v, err = s.Revoke(ctx, "bob", reg.MustOf("ReadWrite"))
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if v.String() != "Delete" {
		t.Fatalf("unexpected revoke result %q", v.String())
	}

	loaded, err := s.Load(ctx, "bob")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != v {
		t.Fatalf("stored %v, returned %v", loaded, v)
	}
}

func TestGrantRefusesForeignEntry(t *testing.T) {
	reg := testRegistry(t)
	s, _, rdb := newStoreTest(t, reg, DefaultConfig())
	ctx := context.Background()

	if err := rdb.HSet(ctx, "gf:carol", fieldFingerprint, "other", fieldFlags, "Read").Err(); err != nil {
		t.Fatalf("hset: %v", err)
	}
	if _, err := s.Grant(ctx, "carol", reg.MustFlag("Admin")); !errors.Is(err, ErrFingerprintMismatch) {
		t.Fatalf("expected ErrFingerprintMismatch, got %v", err)
	}

	fp, err := rdb.HGet(ctx, "gf:carol", fieldFingerprint).Result()
	if err != nil || fp != "other" {
		t.Fatalf("foreign entry was overwritten: %q %v", fp, err)
	}
}

func TestConcurrentGrantsAreNotLost(t *testing.T) {
	reg := testRegistry(t)
	cfg := DefaultConfig()
	cfg.MaxRetries = 1000
	s, _, _ := newStoreTest(t, reg, cfg)
	ctx := context.Background()

	names := []string{"Read", "Write", "Delete", "Admin"}
	var wg sync.WaitGroup
	errs := make(chan error, len(names))
	for _, name := range names {
		wg.Add(1)
		go func(flag goFlags.Set) {
			defer wg.Done()
			if _, err := s.Grant(ctx, "dave", flag); err != nil {
				errs <- err
			}
		}(reg.MustFlag(name))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("grant: %v", err)
	}

	got, err := s.Load(ctx, "dave")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != reg.All() {
		t.Fatalf("expected every flag, got %q", got.String())
	}
}

func TestTTLExpiresEntries(t *testing.T) {
	reg := testRegistry(t)
	cfg := DefaultConfig()
	cfg.TTL = time.Minute
	s, mr, _ := newStoreTest(t, reg, cfg)
	ctx := context.Background()

	if err := s.Save(ctx, "temp", reg.MustFlag("Read")); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := s.Load(ctx, "temp"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestIDsUsesPrefix(t *testing.T) {
	reg := testRegistry(t)
	cfg := DefaultConfig()
	cfg.Prefix = "perm"
	s, _, rdb := newStoreTest(t, reg, cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Save(ctx, fmt.Sprintf("u%d", i), reg.MustFlag("Read")); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := rdb.Set(ctx, "unrelated", "x", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}

	ids, err := s.IDs(ctx)
	if err != nil {
		t.Fatalf("ids: %v", err)
	}
	sort.Strings(ids)
	if len(ids) != 3 || ids[0] != "u0" || ids[2] != "u2" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestRedisUnavailable(t *testing.T) {
	reg := testRegistry(t)
	s, mr, _ := newStoreTest(t, reg, DefaultConfig())
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := s.Load(ctx, "alice"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if err := s.Save(ctx, "alice", reg.Zero()); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if _, err := s.Ping(ctx); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable from ping, got %v", err)
	}
}

func TestNewStoreValidation(t *testing.T) {
	reg := testRegistry(t)
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	if _, err := NewStore(nil, reg, DefaultConfig(), Options{}); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewStore(rdb, nil, DefaultConfig(), Options{}); !errors.Is(err, goFlags.ErrNoRegistry) {
		t.Fatalf("expected ErrNoRegistry, got %v", err)
	}
	bad := DefaultConfig()
	bad.Prefix = " "
	if _, err := NewStore(rdb, reg, bad, Options{}); err == nil {
		t.Fatal("expected error for blank prefix")
	}
	bad = DefaultConfig()
	bad.MaxRetries = 0
	if _, err := NewStore(rdb, reg, bad, Options{}); err == nil {
		t.Fatal("expected error for zero retries")
	}
}
