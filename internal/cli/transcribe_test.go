package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ratul/banglastt/internal/ffmpeg"
	"github.com/ratul/banglastt/internal/whisper"
	"github.com/stretchr/testify/require"
)

func TestRunRejectsMissingFile(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	missing := filepath.Join(t.TempDir(), "missing.mp3")

	stdout, err := runWithApp(t, f.app, []string{missing})
	require.ErrorIs(t, err, ErrReported)
	require.Contains(t, stdout, "❌ Error: File '"+missing+"' does not exist.")
	require.Empty(t, f.models.sizes)
	require.Zero(t, f.decoder.calls)
}

func TestRunRejectsUnsupportedFormat(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	notes := writeAudio(t, "notes.txt")

	stdout, err := runWithApp(t, f.app, []string{notes})
	require.ErrorIs(t, err, ErrReported)
	require.Contains(t, stdout, "❌ Error: Unsupported audio format '.txt'.")
	require.Contains(t, stdout, "📋 Supported formats: .m4a, .mp3, .mp4, .mpeg, .mpga, .wav, .webm")
	require.Zero(t, f.decoder.calls)
}

func TestRunPrintsTranscriptWithoutSaving(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	audioPath := writeAudio(t, "interview.MP3")

	stdout, err := runWithApp(t, f.app, []string{audioPath})
	require.NoError(t, err)

	rule := strings.Repeat("=", 60)
	require.Contains(t, stdout, "🔄 Loading Whisper model 'base'...")
	require.Contains(t, stdout, "🎤 Transcribing audio file: interview.MP3")
	require.Contains(t, stdout, rule+"\n📝 BANGLA TRANSCRIPTION:\n"+rule+"\nআমি বাংলায় কথা বলি\n"+rule+"\n")
	require.Contains(t, stdout, "✅ Transcription completed successfully!")
	require.Contains(t, stdout, "📁 Audio file: "+audioPath)
	require.Contains(t, stdout, "🤖 Model used: base")

	length := utf8.RuneCountInString("আমি বাংলায় কথা বলি")
	require.Contains(t, stdout, "📝 Text length: "+strconv.Itoa(length)+" characters")
	require.NotContains(t, stdout, "💾")
	require.NotContains(t, stdout, "🔧 FFmpeg path")

	require.Equal(t, []string{"base"}, f.models.sizes)
	require.Equal(t, whisper.Language, f.engine.req.Language)
	require.Equal(t, "/models/ggml-base.bin", f.engine.req.ModelPath)
	require.Empty(t, *f.decoderPath)

	_, statErr := os.Stat(f.app.outputPath)
	require.True(t, os.IsNotExist(statErr))
}

func TestRunSavesTranscriptWithOutputFlag(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	audioPath := writeAudio(t, "lecture.wav")

	stdout, err := runWithApp(t, f.app, []string{"-m", "small", "-o", audioPath})
	require.NoError(t, err)
	require.Contains(t, stdout, "\n💾 Transcription saved to: "+f.app.outputPath)
	require.Contains(t, stdout, "🤖 Model used: small")
	require.Equal(t, []string{"small"}, f.models.sizes)

	saved, err := os.ReadFile(f.app.outputPath)
	require.NoError(t, err)
	require.Equal(t, "আমি বাংলায় কথা বলি", string(saved))
}

func TestRunOverwritesExistingOutput(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.app.outputPath, []byte("stale transcript that is longer"), 0o644))
	audioPath := writeAudio(t, "clip.webm")

	_, err := runWithApp(t, f.app, []string{"--output", audioPath})
	require.NoError(t, err)

	saved, err := os.ReadFile(f.app.outputPath)
	require.NoError(t, err)
	require.Equal(t, "আমি বাংলায় কথা বলি", string(saved))
}

func TestRunConfiguresFFmpegFromLocator(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	exe := filepath.Join("/opt", "banglastt", "libexec", "ffmpeg", "ffmpeg")
	f.app.locator = staticLocator{path: exe}
	audioPath := writeAudio(t, "voice.m4a")

	stdout, err := runWithApp(t, f.app, []string{"--verbose", audioPath})
	require.NoError(t, err)
	require.Contains(t, stdout, "✅ FFmpeg configured: ffmpeg")
	require.Contains(t, stdout, "🔧 FFmpeg path: "+exe)
	require.Contains(t, stdout, "🎯 Language: Bengali (bn)")

	require.Equal(t, exe, *f.decoderPath)
	require.Equal(t, exe, f.env[ffmpeg.ExeEnv])
	require.Equal(t, filepath.Dir(exe)+string(os.PathListSeparator)+"/usr/bin", f.env["PATH"])
}

func TestRunVerboseFallsBackToSystemDefault(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	audioPath := writeAudio(t, "voice.mpga")

	stdout, err := runWithApp(t, f.app, []string{"-v", audioPath})
	require.NoError(t, err)
	require.NotContains(t, stdout, "FFmpeg configured")
	require.Contains(t, stdout, "🔧 FFmpeg path: System default")
	require.Empty(t, f.env[ffmpeg.ExeEnv])
}

func TestRunFailsWhenEngineMissing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.app.engineFn = func() (whisper.Engine, error) { return nil, whisper.ErrEngineNotFound }

	stdout, err := runWithApp(t, f.app, []string{filepath.Join(t.TempDir(), "missing.mp3")})
	require.ErrorIs(t, err, ErrReported)
	require.Contains(t, stdout, "❌ Error: whisper engine is not installed.")
	require.Contains(t, stdout, "BANGLASTT_WHISPER_PATH")
	require.NotContains(t, stdout, "does not exist")
}

func TestRunReportsDecoderFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.decoder.err = &ffmpeg.ExitError{Executable: "ffmpeg", Stderr: "clip.mp3: Invalid data found when processing input", Err: errors.New("exit status 1")}
	audioPath := writeAudio(t, "clip.mp3")

	stdout, err := runWithApp(t, f.app, []string{audioPath})
	require.ErrorIs(t, err, ErrReported)
	require.Contains(t, stdout, "❌ Error: Failed to load audio: clip.mp3: Invalid data found when processing input")
	require.NotContains(t, stdout, "BANGLA TRANSCRIPTION")
	require.NotContains(t, stdout, "completed successfully")
}

func TestRunReportsMissingDecoderExecutable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.decoder.err = errors.New(`failed to load audio: run ffmpeg: exec: "ffmpeg": executable file not found in $PATH`)
	audioPath := writeAudio(t, "clip.mp4")

	stdout, err := runWithApp(t, f.app, []string{audioPath})
	require.ErrorIs(t, err, ErrReported)
	require.Contains(t, stdout, "❌ Error: Failed to load audio: run ffmpeg: exec:")
}

func TestRunReportsModelLoadFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.models.err = errors.New("download model \"base\": connection refused")
	audioPath := writeAudio(t, "clip.mpeg")

	stdout, err := runWithApp(t, f.app, []string{audioPath})
	require.ErrorIs(t, err, ErrReported)
	require.Contains(t, stdout, "❌ Error: Failed to load Whisper model. download model \"base\": connection refused")
	require.Zero(t, f.decoder.calls)
}

func TestRunReportsEngineFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.engine.err = errors.New("whisper-cli exited with status 3")
	audioPath := writeAudio(t, "clip.wav")

	stdout, err := runWithApp(t, f.app, []string{audioPath})
	require.ErrorIs(t, err, ErrReported)
	require.Contains(t, stdout, "❌ Error during transcription: whisper-cli exited with status 3")
}

func TestRunWithMissingModelAndAutoDownloadDisabled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.app.modelDir = t.TempDir()
	f.app.modelsFn = f.app.newModelStore
	audioPath := writeAudio(t, "clip.wav")

	stdout, err := runWithApp(t, f.app, []string{"--auto-download=false", "-m", "tiny", audioPath})
	require.ErrorIs(t, err, ErrReported)
	require.Contains(t, stdout, "❌ Error: Failed to load Whisper model.")
	require.Contains(t, stdout, "banglastt setup --model tiny")
	require.Zero(t, f.decoder.calls)
}
