package audiocache

import (
	"context"
	"log/slog"

	"github.com/russolabs/russo/internal/models"
	"github.com/russolabs/russo/internal/pipeline"
)

// CachedSynthesizer wraps a Synthesizer with the cache. A miss falls through
// to the inner synthesizer and stores the result. Two concurrent misses on
// the same prompt may both synthesize; the second write wins and the entries
// are identical, so no coordination is needed.
type CachedSynthesizer struct {
	Inner pipeline.Synthesizer
	Cache *Cache
	// Enabled short-circuits to the inner synthesizer when false, so a
	// --no-cache run can keep the same wiring.
	Enabled bool
	// KeyExtra folds voice settings into the cache key so changing them
	// invalidates prior entries.
	KeyExtra map[string]string
}

// NewCachedSynthesizer wraps inner with caching enabled.
func NewCachedSynthesizer(inner pipeline.Synthesizer, cache *Cache, keyExtra map[string]string) *CachedSynthesizer {
	return &CachedSynthesizer{Inner: inner, Cache: cache, Enabled: true, KeyExtra: keyExtra}
}

func (s *CachedSynthesizer) Synthesize(ctx context.Context, text string) (models.Audio, error) {
	if !s.Enabled || s.Cache == nil {
		return s.Inner.Synthesize(ctx, text)
	}

	key := Key(text, s.KeyExtra)
	if audio, ok := s.Cache.Get(key); ok {
		slog.Debug("audio cache hit", "key", key)
		return audio, nil
	}

	audio, err := s.Inner.Synthesize(ctx, text)
	if err != nil {
		return models.Audio{}, err
	}
	if err := s.Cache.Put(key, text, audio); err != nil {
		// A failed write degrades to uncached behavior.
		slog.Warn("audio cache write failed", "key", key, "error", err)
	}
	return audio, nil
}
