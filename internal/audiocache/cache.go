// Package audiocache stores synthesized audio on disk, keyed by the content
// of the request that produced it. Synthesizing the same prompt with the
// same voice settings twice hits the cache the second time.
package audiocache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/russolabs/russo/internal/models"
)

const (
	audioExt = ".audio"
	metaExt  = ".json"
	keyLen   = 24
)

// entryMeta is the sidecar metadata stored next to the raw audio bytes.
type entryMeta struct {
	Prompt      string `json:"prompt"`
	Format      string `json:"format"`
	SampleRate  int    `json:"sample_rate,omitempty"`
	Channels    int    `json:"channels,omitempty"`
	SampleWidth int    `json:"sample_width,omitempty"`
}

// Cache is a content-addressed audio store rooted at a single directory.
// Safe for concurrent use.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New opens (creating if needed) a cache rooted at dir.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Key derives the cache key for a prompt plus any extra settings that affect
// the synthesized audio (voice, speed, model). The extra map is serialized
// with sorted keys so equal settings always produce equal keys.
func Key(prompt string, extra map[string]string) string {
	type kv struct {
		K string `json:"k"`
		V string `json:"v"`
	}
	payload := struct {
		Prompt string `json:"prompt"`
		Extra  []kv   `json:"extra,omitempty"`
	}{Prompt: prompt}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		payload.Extra = append(payload.Extra, kv{K: k, V: extra[k]})
	}

	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:keyLen]
}

// Get looks up a cached entry. The second return value reports whether the
// entry was found. A corrupt entry (missing or unreadable sidecar) is
// removed and reported as a miss.
func (c *Cache) Get(key string) (models.Audio, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.audioPath(key))
	if err != nil {
		return models.Audio{}, false
	}

	metaRaw, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		c.removeLocked(key)
		return models.Audio{}, false
	}

	var meta entryMeta
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		slog.Debug("removing corrupt cache entry", "key", key, "error", err)
		c.removeLocked(key)
		return models.Audio{}, false
	}

	return models.Audio{
		Data:        data,
		Format:      models.AudioFormat(meta.Format),
		SampleRate:  meta.SampleRate,
		Channels:    meta.Channels,
		SampleWidth: meta.SampleWidth,
	}, true
}

// Put stores audio under the given key, overwriting any previous entry.
func (c *Cache) Put(key, prompt string, audio models.Audio) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	meta := entryMeta{
		Prompt:      prompt,
		Format:      string(audio.Format),
		SampleRate:  audio.SampleRate,
		Channels:    audio.Channels,
		SampleWidth: audio.SampleWidth,
	}
	metaRaw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache metadata: %w", err)
	}

	if err := os.WriteFile(c.audioPath(key), audio.Data, 0o644); err != nil {
		return fmt.Errorf("writing cache audio: %w", err)
	}
	if err := os.WriteFile(c.metaPath(key), metaRaw, 0o644); err != nil {
		// Keep the pair consistent: a payload without metadata reads as
		// corrupt, so drop it now.
		c.removeLocked(key)
		return fmt.Errorf("writing cache metadata: %w", err)
	}
	return nil
}

// Clear removes every entry. The directory itself is kept.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != audioExt && ext != metaExt) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return fmt.Errorf("removing cache entry %s: %w", e.Name(), err)
		}
	}
	return nil
}

// Size returns the number of complete entries and their total payload bytes.
func (c *Cache) Size() (count int, bytes int64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, 0, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != audioExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		count++
		bytes += info.Size()
	}
	return count, bytes, nil
}

func (c *Cache) audioPath(key string) string {
	return filepath.Join(c.dir, key+audioExt)
}

func (c *Cache) metaPath(key string) string {
	return filepath.Join(c.dir, key+metaExt)
}

func (c *Cache) removeLocked(key string) {
	os.Remove(c.audioPath(key))
	os.Remove(c.metaPath(key))
}
