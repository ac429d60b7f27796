package synthesizers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/russolabs/russo/internal/models"
)

// StaticSynthesizer serves pre-recorded fixture files instead of calling a
// TTS backend, for offline runs and deterministic tests.
type StaticSynthesizer struct {
	// Fixtures maps prompt text to an audio file path. Relative paths are
	// resolved against Dir.
	Fixtures map[string]string
	// Dir is the fixture root.
	Dir string
	// Fallback, when set, serves prompts with no fixture entry.
	Fallback string

	Format      models.AudioFormat
	SampleRate  int
	Channels    int
	SampleWidth int
}

func (s *StaticSynthesizer) Synthesize(_ context.Context, text string) (models.Audio, error) {
	path, ok := s.Fixtures[text]
	if !ok {
		if s.Fallback == "" {
			return models.Audio{}, fmt.Errorf("no fixture audio for prompt %q", text)
		}
		path = s.Fallback
	}
	if !filepath.IsAbs(path) && s.Dir != "" {
		path = filepath.Join(s.Dir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.Audio{}, fmt.Errorf("reading fixture audio: %w", err)
	}

	return models.Audio{
		Data:        data,
		Format:      s.resolveFormat(path),
		SampleRate:  s.SampleRate,
		Channels:    s.Channels,
		SampleWidth: s.SampleWidth,
	}, nil
}

// resolveFormat prefers the configured format, then the file extension.
func (s *StaticSynthesizer) resolveFormat(path string) models.AudioFormat {
	if s.Format != "" {
		return s.Format
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return models.FormatMP3
	case ".ogg":
		return models.FormatOGG
	case ".pcm", ".raw":
		return models.FormatPCM
	default:
		return models.FormatWAV
	}
}
