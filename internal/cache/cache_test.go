package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/estatuto/internal/model"
)

func TestKeys(t *testing.T) {
	a := PageKey("https://www.planalto.gov.br/ccivil_03/leis/lcp/lcp101.htm")
	b := PageKey("https://www.planalto.gov.br/ccivil_03/leis/lcp/lcp102.htm")
	if a == b {
		t.Fatal("different URLs share a key")
	}
	if !strings.HasPrefix(a, keyPrefix+"page-") {
		t.Errorf("unexpected key %q", a)
	}

	p1 := PromptKey("ementa", "gpt-4o-mini", "sys", "prompt")
	p2 := PromptKey("ementa", "gpt-4o-mini", "sysp", "rompt")
	if p1 == p2 {
		t.Error("prompt parts must be delimited")
	}
	if PromptKey("correct", "m", "s", "p") == PromptKey("ementa", "m", "s", "p") {
		t.Error("task must be part of the key")
	}
	if strings.ContainsAny(strings.TrimPrefix(p1, keyPrefix), ":/") {
		t.Errorf("key %q is not filename safe", p1)
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok := c.Get("k"); !ok || string(v) != "v" {
		t.Fatalf("Get = %q, %v", v, ok)
	}

	now = now.Add(2 * time.Hour)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry returned")
	}
	if _, err := os.Stat(filepath.Join(dir, "k.cache")); !os.IsNotExist(err) {
		t.Error("expired file not removed")
	}
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	if err := os.WriteFile(filepath.Join(dir, "bad.cache"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Fatal("corrupt entry returned")
	}
	if err := c.Delete("missing"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A fresh cache over the same directory only has the disk layer.
	fresh := NewLayeredCache(time.Minute, dir, time.Hour)
	if v, ok := fresh.Get("k"); !ok || string(v) != "v" {
		t.Fatalf("disk Get = %q, %v", v, ok)
	}
	if _, _, items := fresh.memory.Stats(); items != 1 {
		t.Errorf("memory items = %d, want 1 after promotion", items)
	}

	if err := fresh.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := fresh.Get("k"); ok {
		t.Error("deleted key still present")
	}
}

func TestFromConfig(t *testing.T) {
	if _, ok := FromConfig(model.CacheConfig{}).(Noop); !ok {
		t.Error("disabled cache should be Noop")
	}
	c := FromConfig(model.CacheConfig{Enabled: true, Dir: t.TempDir(), MemoryTTL: time.Minute, DiskTTL: time.Hour})
	if _, ok := c.(*LayeredCache); !ok {
		t.Errorf("enabled cache = %T", c)
	}
}
