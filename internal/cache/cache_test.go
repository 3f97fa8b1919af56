package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	k1 := CacheKey("https://kb.example.com/search?q=claim")
	k2 := CacheKey("https://kb.example.com/search?q=claim")
	k3 := CacheKey("https://kb.example.com/search?q=other")

	if k1 != k2 {
		t.Error("same input must produce the same key")
	}
	if k1 == k3 {
		t.Error("different inputs must produce different keys")
	}
	if !strings.HasPrefix(k1, "verity:v1:") {
		t.Errorf("key missing namespace prefix: %s", k1)
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("k"); found {
		t.Fatal("empty cache reported a hit")
	}
	if err := c.Set("k", []byte("value"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found := c.Get("k")
	if !found || string(got) != "value" {
		t.Fatalf("Get = %q, %v", got, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("deleted key still present")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("value"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found := c.Get("k")
	if !found || string(got) != "value" {
		t.Fatalf("Get = %q, %v", got, found)
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Minute)

	if err := c.Set("k", []byte("value"), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expired entry reported a hit")
	}
	// Expired entry file is reaped on read
	if _, err := os.Stat(filepath.Join(dir, "k.cache")); !os.IsNotExist(err) {
		t.Error("expired entry file not removed")
	}
}

func TestDiskCacheCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Minute)

	if err := os.WriteFile(filepath.Join(dir, "k.cache"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("corrupt entry reported a hit")
	}
}

func TestLayeredCachePromotion(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Minute)

	if err := c.Set("k", []byte("value"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Drop the memory layer; the next read should come from disk and
	// repopulate memory
	_ = c.memory.Clear()
	got, found := c.Get("k")
	if !found || string(got) != "value" {
		t.Fatalf("disk fallback = %q, %v", got, found)
	}
	if _, found := c.memory.Get("k"); !found {
		t.Error("disk hit was not promoted to memory")
	}
}
