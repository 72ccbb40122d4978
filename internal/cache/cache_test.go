package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemorySetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	if err := c.Set(ctx, "sessions:user:1", []int{1, 2, 3}, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got []int
	ok, err := c.Get(ctx, "sessions:user:1", &got)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if len(got) != 3 || got[2] != 3 {
		t.Fatalf("value: got=%v", got)
	}

	if err := c.Delete(ctx, "sessions:user:1", "missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if c.Has("sessions:user:1") {
		t.Fatalf("expected key to be deleted")
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	c := NewMemory()
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !c.Has("k") {
		t.Fatalf("expected live entry")
	}
	now = now.Add(time.Minute)
	if c.Has("k") {
		t.Fatalf("expected entry to expire at ttl")
	}
}
