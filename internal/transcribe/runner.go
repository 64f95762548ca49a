// Package transcribe turns one audio file into one Bangla transcript.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ratul/banglastt/internal/audio"
	"github.com/ratul/banglastt/internal/whisper"
	"go.uber.org/zap"
)

// DefaultOutputPath is where transcripts are saved, relative to the working
// directory.
const DefaultOutputPath = "output.txt"

const (
	bannerWidth     = 60
	blankAudioToken = "[BLANK_AUDIO]"
)

type ModelLoader interface {
	Load(ctx context.Context, size string) (whisper.ResolvedModel, error)
}

// SpinnerFunc starts a progress indicator and returns the function that
// stops it.
type SpinnerFunc func(description string) func()

type Request struct {
	AudioPath  string
	Model      string
	Save       bool
	OutputPath string
}

type Runner struct {
	models      ModelLoader
	decoder     audio.Decoder
	engine      whisper.Engine
	out         io.Writer
	logger      *zap.Logger
	spinner     SpinnerFunc
	silenceDBFS float64
}

type Option func(*Runner)

func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

func WithSpinner(spinner SpinnerFunc) Option {
	return func(r *Runner) {
		r.spinner = spinner
	}
}

func WithSilenceThreshold(dbfs float64) Option {
	return func(r *Runner) {
		r.silenceDBFS = dbfs
	}
}

// New builds a Runner. The decoder is the only way audio reaches the engine,
// so swapping it changes how every file is read.
func New(models ModelLoader, decoder audio.Decoder, engine whisper.Engine, options ...Option) *Runner {
	r := &Runner{
		models:      models,
		decoder:     decoder,
		engine:      engine,
		out:         os.Stdout,
		logger:      zap.NewNop(),
		spinner:     func(string) func() { return func() {} },
		silenceDBFS: audio.DefaultSilenceDBFS,
	}

	for _, option := range options {
		option(r)
	}

	return r
}

// Run loads the model, decodes and transcribes req.AudioPath in Bangla,
// prints the transcript and optionally saves it. Failures are returned as
// *Error.
func (r *Runner) Run(ctx context.Context, req Request) (string, error) {
	size := strings.TrimSpace(req.Model)
	if size == "" {
		size = whisper.DefaultModel
	}

	fmt.Fprintf(r.out, "🔄 Loading Whisper model '%s'...\n", size)
	model, err := r.models.Load(ctx, size)
	if err != nil {
		return "", &Error{Kind: ModelLoadFailure, Path: req.AudioPath, Err: err}
	}
	r.logger.Debug("model ready", zap.String("model", model.Name), zap.String("path", model.Path))

	fmt.Fprintf(r.out, "🎤 Transcribing audio file: %s\n", filepath.Base(req.AudioPath))
	fmt.Fprintln(r.out, "⏱️  This may take a few minutes depending on file size...")

	if _, err := os.Stat(req.AudioPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &Error{Kind: FileNotFound, Path: req.AudioPath, Err: err}
		}
		return "", &Error{Kind: UnknownTranscriptionFailure, Path: req.AudioPath, Err: err}
	}

	stop := r.spinner("Decoding")
	samples, err := r.decoder.Decode(ctx, req.AudioPath, audio.SampleRate)
	stop()
	if err != nil {
		return "", &Error{Kind: SubprocessFailure, Path: req.AudioPath, Err: err}
	}

	if silent, metrics := audio.IsSilent(samples, r.silenceDBFS); silent {
		r.logger.Warn(
			"audio appears silent; transcript may be empty",
			zap.String("audio", req.AudioPath),
			zap.Float64("rms_dbfs", metrics.RMSdBFS),
			zap.Float64("peak_dbfs", metrics.PeakdBFS),
		)
	}

	stop = r.spinner("Transcribing")
	result, err := r.engine.Transcribe(ctx, whisper.TranscriptionRequest{
		Samples:    samples,
		SampleRate: audio.SampleRate,
		ModelPath:  model.Path,
		Language:   whisper.Language,
	})
	stop()
	if err != nil {
		return "", &Error{Kind: UnknownTranscriptionFailure, Path: req.AudioPath, Err: err}
	}
	r.logger.Info("transcription finished", zap.Duration("elapsed", result.Elapsed), zap.String("language", result.Language))

	transcript := strings.TrimSpace(result.Text)
	if isBlankTranscript(transcript) {
		r.logger.Warn("no speech detected in audio")
	}

	r.printBanner(transcript)

	if req.Save {
		outputPath := req.OutputPath
		if outputPath == "" {
			outputPath = DefaultOutputPath
		}
		if err := SaveTranscript(outputPath, transcript); err != nil {
			return "", &Error{Kind: UnknownTranscriptionFailure, Path: req.AudioPath, Err: err}
		}
		fmt.Fprintf(r.out, "\n💾 Transcription saved to: %s\n", outputPath)
	}

	return transcript, nil
}

func (r *Runner) printBanner(transcript string) {
	rule := strings.Repeat("=", bannerWidth)
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, "📝 BANGLA TRANSCRIPTION:")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, transcript)
	fmt.Fprintln(r.out, rule)
}

// SaveTranscript writes transcript as UTF-8 to path, replacing any existing
// file without warning.
func SaveTranscript(path, transcript string) error {
	if err := os.WriteFile(path, []byte(transcript), 0o644); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}

func isBlankTranscript(transcript string) bool {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		return true
	}
	return strings.EqualFold(trimmed, blankAudioToken)
}
