package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedisStore struct {
	values   map[string]string
	setCalls int
	delCalls int
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{values: make(map[string]string)}
}

func (f *fakeRedisStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.setCalls++
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeRedisStore) Get(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeRedisStore) Del(_ context.Context, keys ...string) error {
	f.delCalls++
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockAcquireAndRelease(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "cron:lead-sync", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}

	ok, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !ok {
		t.Fatalf("expected lock acquired")
	}
	if _, stored := store.values["cron:lead-sync"]; !stored {
		t.Fatalf("expected lock key persisted")
	}

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, stored := store.values["cron:lead-sync"]; stored {
		t.Fatalf("expected lock key removed")
	}
}

func TestRedisLockSecondAcquireFails(t *testing.T) {
	store := newFakeRedisStore()
	first, _ := NewRedisLock(store, "cron:lead-sync", time.Minute)
	second, _ := NewRedisLock(store, "cron:lead-sync", time.Minute)

	if ok, _ := first.Acquire(context.Background()); !ok {
		t.Fatalf("expected first acquire to succeed")
	}
	ok, err := second.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatalf("expected second acquire to fail while held")
	}
}

func TestRedisLockReleaseOnlyWhenOwned(t *testing.T) {
	store := newFakeRedisStore()
	lock, _ := NewRedisLock(store, "cron:lead-sync", time.Minute)

	if ok, _ := lock.Acquire(context.Background()); !ok {
		t.Fatalf("expected acquire to succeed")
	}
	store.values["cron:lead-sync"] = "another-owner"

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.delCalls != 0 {
		t.Fatalf("expected no delete when owner changed, got %d", store.delCalls)
	}
}

func TestRedisLockReleaseAfterExpiry(t *testing.T) {
	store := newFakeRedisStore()
	lock, _ := NewRedisLock(store, "cron:lead-sync", time.Minute)

	if ok, _ := lock.Acquire(context.Background()); !ok {
		t.Fatalf("expected acquire to succeed")
	}
	delete(store.values, "cron:lead-sync")

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("expected expired lock release to be a no-op, got %v", err)
	}
}

func TestNewRedisLockValidation(t *testing.T) {
	if _, err := NewRedisLock(nil, "key", time.Minute); err == nil {
		t.Fatalf("expected error without client")
	}
	if _, err := NewRedisLock(newFakeRedisStore(), "", time.Minute); err == nil {
		t.Fatalf("expected error without key")
	}
}
