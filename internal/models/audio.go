package models

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AudioFormat identifies the container/encoding of an audio payload.
type AudioFormat string

const (
	FormatWAV AudioFormat = "wav"
	FormatMP3 AudioFormat = "mp3"
	FormatPCM AudioFormat = "pcm"
	FormatOGG AudioFormat = "ogg"
)

// Audio is an opaque audio artifact: a byte payload plus format metadata.
// The core never inspects the samples; it only moves the payload between the
// synthesizer, the cache, and the agent.
type Audio struct {
	Data       []byte      `json:"-"`
	Format     AudioFormat `json:"format"`
	SampleRate int         `json:"sample_rate"`
	Channels   int         `json:"channels"`
	// SampleWidth is bytes per sample (16-bit PCM = 2).
	SampleWidth int `json:"sample_width"`
}

// NewPCMAudio returns raw PCM audio with the conventional defaults for
// synthesized speech (24 kHz, mono, 16-bit).
func NewPCMAudio(data []byte) Audio {
	return Audio{
		Data:        data,
		Format:      FormatPCM,
		SampleRate:  24000,
		Channels:    1,
		SampleWidth: 2,
	}
}

// Save writes the audio to disk, creating parent directories. Raw PCM
// written to a .wav path is wrapped in a WAV container; everything else is
// written verbatim.
func (a Audio) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating audio directory: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") && a.Format == FormatPCM {
		return os.WriteFile(path, a.wrapWAV(), 0644)
	}
	return os.WriteFile(path, a.Data, 0644)
}

// wrapWAV prepends a canonical 44-byte RIFF/WAVE header to the PCM payload.
func (a Audio) wrapWAV() []byte {
	channels := a.Channels
	if channels <= 0 {
		channels = 1
	}
	sampleWidth := a.SampleWidth
	if sampleWidth <= 0 {
		sampleWidth = 2
	}
	sampleRate := a.SampleRate
	if sampleRate <= 0 {
		sampleRate = 24000
	}

	dataLen := uint32(len(a.Data))
	byteRate := uint32(sampleRate * channels * sampleWidth)
	blockAlign := uint16(channels * sampleWidth)

	buf := make([]byte, 0, 44+len(a.Data))
	buf = append(buf, []byte("RIFF")...)
	buf = binary.LittleEndian.AppendUint32(buf, 36+dataLen)
	buf = append(buf, []byte("WAVE")...)
	buf = append(buf, []byte("fmt ")...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, uint16(channels))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate))
	buf = binary.LittleEndian.AppendUint32(buf, byteRate)
	buf = binary.LittleEndian.AppendUint16(buf, blockAlign)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(sampleWidth*8))
	buf = append(buf, []byte("data")...)
	buf = binary.LittleEndian.AppendUint32(buf, dataLen)
	buf = append(buf, a.Data...)
	return buf
}
