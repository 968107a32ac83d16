package courier

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func countingOperation(calls *int32, resp *Response, err error) Operation {
	return func(ctx context.Context) (*Response, error) {
		atomic.AddInt32(calls, 1)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}
}

func TestCacheHitSkipsOperation(t *testing.T) {
	client := New(WithStore(NewMemoryStore(0)))
	var calls int32

	op := client.withCache(
		countingOperation(&calls, &Response{Status: 200}, nil),
		&CacheConfig{Key: "k", TTL: time.Second},
		client.store, "GET", "/x",
	)

	ctx := context.Background()
	if _, err := op(ctx); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if _, err := op(ctx); err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected 1 underlying call, got %d", calls)
	}
}

func TestCacheExpiryTriggersOperationAgain(t *testing.T) {
	client := New(WithStore(NewMemoryStore(0)))
	var calls int32

	op := client.withCache(
		countingOperation(&calls, &Response{Status: 200}, nil),
		&CacheConfig{Key: "k", TTL: 30 * time.Millisecond},
		client.store, "GET", "/x",
	)

	ctx := context.Background()
	_, _ = op(ctx)
	_, _ = op(ctx)
	time.Sleep(50 * time.Millisecond)
	_, _ = op(ctx)

	if calls != 2 {
		t.Errorf("expected operation to run again after ttl, got %d calls", calls)
	}
}

func TestCacheNeverMemoizesFailures(t *testing.T) {
	client := New(WithStore(NewMemoryStore(0)))
	var calls int32
	opErr := errors.New("transport down")

	op := client.withCache(
		countingOperation(&calls, nil, opErr),
		&CacheConfig{Key: "k", TTL: time.Minute},
		client.store, "GET", "/x",
	)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := op(ctx); !errors.Is(err, opErr) {
			t.Fatalf("call %d: expected failure to propagate, got %v", i, err)
		}
	}

	if calls != 3 {
		t.Errorf("failures must never be cached, expected 3 calls, got %d", calls)
	}
	if ok, _ := client.store.Has(ctx, "k"); ok {
		t.Error("failed result must not be stored")
	}
}

func TestCacheWithoutStoreIsPassthrough(t *testing.T) {
	client := New()
	var calls int32

	op := client.withCache(
		countingOperation(&calls, &Response{Status: 200}, nil),
		&CacheConfig{Key: "k", TTL: time.Minute},
		nil, "GET", "/x",
	)

	ctx := context.Background()
	_, _ = op(ctx)
	_, _ = op(ctx)

	if calls != 2 {
		t.Errorf("no store means no memoization, got %d calls", calls)
	}
}

func TestCacheFeatureStoreOverride(t *testing.T) {
	clientStore := NewMemoryStore(0)
	featureStore := NewMemoryStore(0)
	client := New(WithStore(clientStore))

	cfg := &Config{Cache: &CacheConfig{Key: "k", TTL: time.Minute, Store: featureStore}}
	if got := client.resolveStore(cfg.Cache, cfg); got != Store(featureStore) {
		t.Error("feature-level store must win over the client default")
	}

	cfg = &Config{Cache: &CacheConfig{Key: "k"}}
	if got := client.resolveStore(cfg.Cache, cfg); got != Store(clientStore) {
		t.Error("client store must be the fallback")
	}
}
