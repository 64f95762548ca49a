package audio

import (
	"context"
	"encoding/binary"
)

// SampleRate is the rate whisper models are trained on.
const SampleRate = 16000

// Decoder turns an audio file of any container ffmpeg understands into
// mono float samples normalized to [-1, 1].
type Decoder interface {
	Decode(ctx context.Context, path string, sampleRate int) ([]float32, error)
}

// PCM16ToFloat32 reinterprets raw as little-endian signed 16-bit samples and
// scales them by 1/32768. A trailing odd byte is ignored.
func PCM16ToFloat32(raw []byte) []float32 {
	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		samples[i] = float32(v) / 32768.0
	}
	return samples
}

func float32ToPCM16(sample float32) int {
	v := int(sample * 32768.0)
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return v
	}
}
