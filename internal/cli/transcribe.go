package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ratul/banglastt/internal/ffmpeg"
	"github.com/ratul/banglastt/internal/input"
	"github.com/ratul/banglastt/internal/transcribe"
	"github.com/ratul/banglastt/internal/whisper"
	"go.uber.org/zap"
)

func (a *appState) run(ctx context.Context, audioPath string) error {
	out := a.outWriter()

	engine, err := a.engineFn()
	if err != nil {
		a.log().Debug("whisper engine lookup failed", zap.Error(err))
		fmt.Fprintln(out, "❌ Error: whisper engine is not installed. Install whisper.cpp's whisper-cli")
		fmt.Fprintln(out, "   or set BANGLASTT_WHISPER_PATH to its location.")
		return ErrReported
	}

	ffmpegPath := a.prepareFFmpeg(out)

	if !validateAudioFile(out, audioPath) {
		return ErrReported
	}

	models, err := a.modelsFn()
	if err != nil {
		fmt.Fprintf(out, "❌ Error: Failed to load Whisper model. %v\n", err)
		return ErrReported
	}

	runner := transcribe.New(models, a.decoderFn(ffmpegPath), engine,
		transcribe.WithOutput(out),
		transcribe.WithLogger(a.log()),
		transcribe.WithSilenceThreshold(a.silenceDBFS),
		transcribe.WithSpinner(func(description string) func() {
			return startSpinner(a.progressEnabled(), description)
		}),
	)

	transcript, err := runner.Run(ctx, transcribe.Request{
		AudioPath:  audioPath,
		Model:      a.model.String(),
		Save:       a.save,
		OutputPath: a.outputPath,
	})
	if err != nil {
		reportTranscriptionError(out, audioPath, err)
		return ErrReported
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "✅ Transcription completed successfully!")
	fmt.Fprintf(out, "📁 Audio file: %s\n", audioPath)
	fmt.Fprintf(out, "🤖 Model used: %s\n", a.model.String())
	fmt.Fprintf(out, "📝 Text length: %d characters\n", utf8.RuneCountInString(transcript))

	if a.verbose {
		shown := ffmpegPath
		if shown == "" {
			shown = "System default"
		}
		fmt.Fprintf(out, "🔧 FFmpeg path: %s\n", shown)
		fmt.Fprintf(out, "🎯 Language: %s (%s)\n", whisper.LanguageName, whisper.Language)
	}

	return nil
}

// prepareFFmpeg returns the resolved ffmpeg path, or "" when decoding should
// fall back to a PATH lookup.
func (a *appState) prepareFFmpeg(out io.Writer) string {
	path, err := ffmpeg.Prepare(a.ffmpegLocator(), a.env)
	if err != nil {
		a.log().Warn("ffmpeg locator unavailable; falling back to PATH lookup", zap.Error(err))
		return ""
	}

	fmt.Fprintf(out, "✅ FFmpeg configured: %s\n", filepath.Base(path))
	a.log().Debug("ffmpeg resolved", zap.String("path", path))
	return path
}

func validateAudioFile(out io.Writer, audioPath string) bool {
	err := input.Validate(audioPath)
	if err == nil {
		return true
	}

	var formatErr *input.UnsupportedFormatError
	switch {
	case errors.Is(err, input.ErrNotExist):
		fmt.Fprintf(out, "❌ Error: File '%s' does not exist.\n", audioPath)
	case errors.As(err, &formatErr):
		fmt.Fprintf(out, "❌ Error: Unsupported audio format '%s'.\n", formatErr.Ext)
		fmt.Fprintf(out, "📋 Supported formats: %s\n", strings.Join(input.SupportedExtensions(), ", "))
	default:
		fmt.Fprintf(out, "❌ Error: %v\n", err)
	}
	return false
}

func reportTranscriptionError(out io.Writer, audioPath string, err error) {
	kind, ok := transcribe.KindOf(err)
	if !ok {
		kind = transcribe.UnknownTranscriptionFailure
	}

	switch kind {
	case transcribe.FileNotFound:
		fmt.Fprintf(out, "❌ Error: Audio file '%s' not found.\n", audioPath)
	case transcribe.ModelLoadFailure:
		fmt.Fprintf(out, "❌ Error: Failed to load Whisper model. %v\n", err)
	case transcribe.SubprocessFailure:
		fmt.Fprintf(out, "❌ Error: Failed to load audio: %s\n", subprocessDetail(err))
	default:
		fmt.Fprintf(out, "❌ Error during transcription: %v\n", err)
	}
}

func subprocessDetail(err error) string {
	var exitErr *ffmpeg.ExitError
	if errors.As(err, &exitErr) && exitErr.Stderr != "" {
		return exitErr.Stderr
	}
	return strings.TrimPrefix(err.Error(), "failed to load audio: ")
}
