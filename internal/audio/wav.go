package audio

import (
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrNoSamples = errors.New("no audio samples to encode")

// WriteWAV stores mono samples as a 16-bit PCM WAV file, replacing any file
// already at path.
func WriteWAV(path string, samples []float32, sampleRate int) error {
	if len(samples) == 0 {
		return ErrNoSamples
	}
	if sampleRate <= 0 {
		sampleRate = SampleRate
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = float32ToPCM16(s)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}

	return f.Close()
}
