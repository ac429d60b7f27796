package models

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestAudioSave_WrapsPCMInWAV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "sample.wav")

	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	audio := NewPCMAudio(pcm)

	if err := audio.Save(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 44+len(pcm) {
		t.Fatalf("expected 44-byte header + payload, got %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Errorf("missing RIFF/WAVE magic: %q %q", data[0:4], data[8:12])
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 24000 {
		t.Errorf("expected sample rate 24000, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != uint32(len(pcm)) {
		t.Errorf("expected data length %d, got %d", len(pcm), got)
	}
}

func TestAudioSave_NonWAVWritesVerbatim(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.mp3")

	audio := Audio{Data: []byte("mp3-bytes"), Format: FormatMP3}
	if err := audio.Save(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "mp3-bytes" {
		t.Errorf("expected verbatim payload, got %q", data)
	}
}
