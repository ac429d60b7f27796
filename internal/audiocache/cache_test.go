package audiocache

import (
	"archive/tar"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/russolabs/russo/internal/models"
	"github.com/russolabs/russo/internal/pipeline"
)

func newCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestKey_DeterministicAndDiscriminating(t *testing.T) {
	a := Key("hello", map[string]string{"voice": "alloy"})
	b := Key("hello", map[string]string{"voice": "alloy"})
	if a != b {
		t.Errorf("identical inputs should share a key: %q vs %q", a, b)
	}
	if len(a) != 24 {
		t.Errorf("expected 24-char key, got %d", len(a))
	}

	if Key("hello", nil) == Key("goodbye", nil) {
		t.Error("different prompts should produce different keys")
	}
	if Key("hello", map[string]string{"voice": "alloy"}) == Key("hello", map[string]string{"voice": "echo"}) {
		t.Error("different settings should produce different keys")
	}
}

func TestKey_ExtraMapOrderIrrelevant(t *testing.T) {
	// Maps iterate in random order; the key must not depend on it.
	extra := map[string]string{"voice": "alloy", "speed": "1.0", "model": "tts-1"}
	base := Key("p", extra)
	for i := 0; i < 20; i++ {
		if Key("p", extra) != base {
			t.Fatal("key changed across invocations with identical settings")
		}
	}
}

func TestCache_PutGetRoundTrip(t *testing.T) {
	c := newCache(t)
	audio := models.NewPCMAudio([]byte{1, 2, 3, 4})
	key := Key("prompt", nil)

	if err := c.Put(key, "prompt", audio); err != nil {
		t.Fatal(err)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got.Data) != string(audio.Data) {
		t.Errorf("payload mismatch: %v vs %v", got.Data, audio.Data)
	}
	if got.Format != models.FormatPCM || got.SampleRate != 24000 {
		t.Errorf("metadata not restored: %+v", got)
	}
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	c := newCache(t)
	if _, ok := c.Get("deadbeefdeadbeefdeadbeef"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCache_CorruptMetadataRemoved(t *testing.T) {
	c := newCache(t)
	key := Key("p", nil)
	if err := c.Put(key, "p", models.NewPCMAudio([]byte{1})); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(c.Dir(), key+metaExt), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get(key); ok {
		t.Fatal("corrupt entry should read as a miss")
	}
	if _, err := os.Stat(filepath.Join(c.Dir(), key+audioExt)); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed from disk")
	}
}

func TestCache_ClearAndSize(t *testing.T) {
	c := newCache(t)
	for _, p := range []string{"a", "b", "c"} {
		if err := c.Put(Key(p, nil), p, models.NewPCMAudio([]byte(p))); err != nil {
			t.Fatal(err)
		}
	}

	count, bytes, err := c.Size()
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 || bytes != 3 {
		t.Errorf("expected 3 entries / 3 bytes, got %d / %d", count, bytes)
	}

	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	count, _, err = c.Size()
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected empty cache after clear, got %d entries", count)
	}
}

func TestCachedSynthesizer_SecondCallHitsCache(t *testing.T) {
	c := newCache(t)
	inner := &pipeline.MockSynthesizer{Audio: models.NewPCMAudio([]byte{9, 9})}
	s := NewCachedSynthesizer(inner, c, map[string]string{"voice": "alloy"})

	ctx := context.Background()
	first, err := s.Synthesize(ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Synthesize(ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}

	if len(inner.Prompts()) != 1 {
		t.Errorf("expected one inner synthesis, got %d", len(inner.Prompts()))
	}
	if string(first.Data) != string(second.Data) {
		t.Error("cached audio differs from synthesized audio")
	}
}

func TestCachedSynthesizer_DisabledBypassesCache(t *testing.T) {
	c := newCache(t)
	inner := &pipeline.MockSynthesizer{}
	s := NewCachedSynthesizer(inner, c, nil)
	s.Enabled = false

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := s.Synthesize(ctx, "hello"); err != nil {
			t.Fatal(err)
		}
	}
	if len(inner.Prompts()) != 2 {
		t.Errorf("disabled cache should pass every call through, got %d", len(inner.Prompts()))
	}
	if count, _, _ := c.Size(); count != 0 {
		t.Errorf("disabled cache should stay empty, got %d entries", count)
	}
}

func TestArchiveRestore_RoundTrip(t *testing.T) {
	src := newCache(t)
	for _, p := range []string{"one", "two"} {
		if err := src.Put(Key(p, nil), p, models.NewPCMAudio([]byte(p))); err != nil {
			t.Fatal(err)
		}
	}

	archive := filepath.Join(t.TempDir(), "cache.tar.gz")
	if err := src.Archive(archive); err != nil {
		t.Fatal(err)
	}

	dst := newCache(t)
	if err := dst.Restore(archive); err != nil {
		t.Fatal(err)
	}

	count, _, err := dst.Size()
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 restored entries, got %d", count)
	}

	got, ok := dst.Get(Key("one", nil))
	if !ok || string(got.Data) != "one" {
		t.Errorf("restored entry mismatch: ok=%v data=%q", ok, got.Data)
	}
}

func TestRestore_RejectsPathTraversal(t *testing.T) {
	// Craft an archive whose entry name tries to escape the cache dir.
	evil := filepath.Join(t.TempDir(), "evil.tar.gz")
	f, err := os.Create(evil)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	payload := []byte("pwned")
	if err := tw.WriteHeader(&tar.Header{Name: "../escape.audio", Mode: 0o644, Size: int64(len(payload))}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	dst := newCache(t)
	if err := dst.Restore(evil); err == nil {
		t.Error("expected traversal entry to be rejected")
	}
}
