package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCache_SetAndGet(t *testing.T) {
	c := New[string](Options{})
	defer c.Stop()

	c.Set("verdict:abc", "pass", 5*time.Second)

	got, ok := c.Get("verdict:abc")
	if !ok {
		t.Fatal("Get() should return ok=true for existing key")
	}
	if got != "pass" {
		t.Errorf("Get() = %v, want pass", got)
	}
}

func TestCache_GetNonExistent(t *testing.T) {
	c := New[*int](Options{})
	defer c.Stop()

	got, ok := c.Get("non-existent")
	if ok {
		t.Error("Get() should return ok=false for non-existent key")
	}
	if got != nil {
		t.Errorf("Get() = %v, want nil", got)
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	c := New[string](Options{})
	defer c.Stop()

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", "v", time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("key should exist before TTL expiration")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Error("key should be expired after TTL")
	}

	c.removeExpired()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after cleanup, want 0", c.Len())
	}
}

func TestCache_DeleteAndOverwrite(t *testing.T) {
	c := New[int](Options{})
	defer c.Stop()

	c.Set("k", 1, time.Hour)
	c.Set("k", 2, time.Hour)
	if got, _ := c.Get("k"); got != 2 {
		t.Errorf("Get() = %d, want 2 after overwrite", got)
	}

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("key should not exist after delete")
	}
}

func TestCache_MaxEntries(t *testing.T) {
	c := New[int](Options{MaxEntries: 2})
	defer c.Stop()

	c.Set("short", 1, time.Minute)
	c.Set("long", 2, time.Hour)
	c.Set("newest", 3, time.Hour)

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if _, ok := c.Get("short"); ok {
		t.Error("entry expiring first should be evicted")
	}
	if _, ok := c.Get("newest"); !ok {
		t.Error("new entry must be stored")
	}

	// перезапись существующего ключа ничего не вытесняет
	c.Set("long", 20, time.Hour)
	if _, ok := c.Get("newest"); !ok {
		t.Error("overwrite evicted another key")
	}
}

func TestCache_Stop(t *testing.T) {
	c := New[string](Options{})
	c.Stop()
	c.Stop()
}

func TestCache_NewWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewWithContext[string](ctx, Options{CleanupInterval: time.Millisecond})

	c.Set("k", "v", time.Hour)
	cancel()
	time.Sleep(10 * time.Millisecond)

	if got, ok := c.Get("k"); !ok || got != "v" {
		t.Error("cache should still work after context cancel")
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := New[int](Options{MaxEntries: 50})
	defer c.Stop()

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("k-%d-%d", g, i%80)
				c.Set(key, i, time.Hour)
				c.Get(key)
				if i%10 == 0 {
					c.Delete(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Len() = %d, exceeds MaxEntries", c.Len())
	}
}
