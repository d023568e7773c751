package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T, opts ...RedisOption[testSnapshot]) (*RedisStore[testSnapshot], *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore[testSnapshot](client, opts...), mr
}

func TestRedisStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestRedisStore(t)

	t.Run("load missing thread", func(t *testing.T) {
		_, err := st.Load(ctx, "nope")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("save and load", func(t *testing.T) {
		want := testSnapshot{
			ThreadID: "thread-001",
			Node:     "approve",
			Step:     1,
			Vars:     map[string]any{"amount": float64(100)},
		}
		if err := st.Save(ctx, "thread-001", want); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := st.Load(ctx, "thread-001")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got.Node != want.Node || got.Step != want.Step {
			t.Errorf("loaded %+v, want %+v", got, want)
		}
	})

	t.Run("save replaces previous snapshot", func(t *testing.T) {
		if err := st.Save(ctx, "thread-001", testSnapshot{Node: "done", Step: 9}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := st.Load(ctx, "thread-001")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got.Node != "done" {
			t.Errorf("expected replaced snapshot, got %+v", got)
		}
	})
}

func TestRedisStore_Delete(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestRedisStore(t)

	if err := st.Save(ctx, "t", testSnapshot{Step: 1}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := st.Delete(ctx, "t"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := st.Load(ctx, "t"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := st.Delete(ctx, "absent"); err != nil {
		t.Errorf("Delete of absent thread failed: %v", err)
	}
}

func TestRedisStore_Prefix(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestRedisStore(t, WithRedisPrefix[testSnapshot]("custom:"))

	if err := st.Save(ctx, "t1", testSnapshot{Step: 1}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !mr.Exists("custom:t1") {
		t.Errorf("expected key %q, have %v", "custom:t1", mr.Keys())
	}
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestRedisStore(t, WithRedisTTL[testSnapshot](time.Minute))

	if err := st.Save(ctx, "t1", testSnapshot{Step: 1}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if ttl := mr.TTL(DefaultRedisPrefix + "t1"); ttl != time.Minute {
		t.Errorf("expected TTL of 1m, got %v", ttl)
	}

	// Expired snapshots read as not found.
	mr.FastForward(2 * time.Minute)
	if _, err := st.Load(ctx, "t1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestRedisStore_Ping(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestRedisStore(t)

	if err := st.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	mr.Close()
	if err := st.Ping(ctx); err == nil {
		t.Error("expected Ping failure after server shutdown")
	}
}
