package testsupport

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path (and its parent directories) holding size bytes of
// a repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	writeBytes(t, path, bytes.Repeat([]byte{'B'}, int(max(size, 1))))
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// mp3Frame is one silent MPEG-1 Layer III frame (128 kbps, 44.1 kHz).
var mp3Frame = func() []byte {
	frame := make([]byte, 417)
	frame[0], frame[1], frame[2], frame[3] = 0xff, 0xfb, 0x90, 0x00
	return frame
}()

// WriteMP3 writes a tag-free MP3 consisting of frames silent frames.
func WriteMP3(t testing.TB, path string, frames int) {
	t.Helper()
	writeBytes(t, path, bytes.Repeat(mp3Frame, max(frames, 1)))
}

// WriteFLAC writes a tag-free mono 16-bit 44.1 kHz FLAC stream whose
// STREAMINFO declares one second of audio, followed by a single frame header.
func WriteFLAC(t testing.TB, path string) {
	t.Helper()

	const sampleRate, totalSamples = 44100, 44100
	info := make([]byte, 34)
	binary.BigEndian.PutUint16(info[0:], 4096)
	binary.BigEndian.PutUint16(info[2:], 4096)
	// sample rate (20 bits), channels-1 (3), bits per sample-1 (5), total samples (36)
	binary.BigEndian.PutUint64(info[10:], sampleRate<<44|15<<36|totalSamples)

	frame := []byte{0xff, 0xf8, 0xc9, 0x08, 0x00}
	frame = append(frame, crc8(frame))
	frame = append(frame, make([]byte, 16)...)

	data := []byte("fLaC")
	data = append(data, 0x80, 0, 0, byte(len(info)))
	data = append(data, info...)
	data = append(data, frame...)
	writeBytes(t, path, data)
}

// crc8 is the FLAC frame header checksum (polynomial x^8+x^2+x+1).
func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for range 8 {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// PNG is a minimal 1x1 PNG image suitable for artwork tests.
var PNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0b, 0x49, 0x44, 0x41,
	0x54, 0x78, 0xda, 0x63, 0x60, 0x00, 0x02, 0x00,
	0x00, 0x05, 0x00, 0x01, 0xe9, 0xfa, 0xdc, 0xd8,
	0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44,
	0xae, 0x42, 0x60, 0x82,
}
