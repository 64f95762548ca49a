package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ratul/banglastt/internal/audio"
	"go.uber.org/zap"
)

const defaultBinary = "ffmpeg"

// ExitError reports an ffmpeg run that finished with a non-zero status.
type ExitError struct {
	Executable string
	Stderr     string
	Err        error
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("failed to load audio: %v", e.Err)
	}
	return "failed to load audio: " + e.Stderr
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Decoder implements audio.Decoder by running ffmpeg with an explicit
// executable path. An empty Executable falls back to PATH lookup.
type Decoder struct {
	Executable string
	Logger     *zap.Logger
}

var _ audio.Decoder = (*Decoder)(nil)

func NewDecoder(executable string, logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{Executable: executable, Logger: logger}
}

// Args builds the command line that writes mono s16le PCM to stdout.
func Args(path string, sampleRate int) []string {
	return []string{
		"-nostdin",
		"-threads", "0",
		"-i", path,
		"-f", "s16le",
		"-ac", "1",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-",
	}
}

func (d *Decoder) binary() string {
	if exe := strings.TrimSpace(d.Executable); exe != "" {
		return exe
	}
	return defaultBinary
}

// Decode blocks until ffmpeg exits; only ctx cancellation interrupts it.
func (d *Decoder) Decode(ctx context.Context, path string, sampleRate int) ([]float32, error) {
	if sampleRate <= 0 {
		sampleRate = audio.SampleRate
	}

	exe := d.binary()
	args := Args(path, sampleRate)

	cmd := exec.CommandContext(ctx, exe, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	d.log().Debug("running ffmpeg", zap.String("ffmpeg", exe), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExitError{Executable: exe, Stderr: strings.TrimSpace(stderr.String()), Err: err}
		}
		return nil, fmt.Errorf("failed to load audio: run %s: %w", exe, err)
	}

	samples := audio.PCM16ToFloat32(stdout.Bytes())
	d.log().Debug("decoded audio", zap.Int("samples", len(samples)), zap.Int("sample_rate", sampleRate))
	return samples, nil
}

func (d *Decoder) log() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
