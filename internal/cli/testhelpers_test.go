package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ratul/banglastt/internal/audio"
	"github.com/ratul/banglastt/internal/ffmpeg"
	"github.com/ratul/banglastt/internal/transcribe"
	"github.com/ratul/banglastt/internal/whisper"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args []string) (stdout string, stderr string, err error) {
	t.Helper()
	return execute(NewRootCmd(), args)
}

func runWithApp(t *testing.T, app *appState, args []string) (stdout string, err error) {
	t.Helper()
	stdout, _, err = execute(newRootCmd(app), args)
	return stdout, err
}

func execute(cmd *cobra.Command, args []string) (string, string, error) {
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

type fakeModels struct {
	sizes []string
	err   error
}

func (f *fakeModels) Load(_ context.Context, size string) (whisper.ResolvedModel, error) {
	f.sizes = append(f.sizes, size)
	if f.err != nil {
		return whisper.ResolvedModel{}, f.err
	}
	return whisper.ResolvedModel{Name: size, Path: "/models/ggml-" + size + ".bin"}, nil
}

type fakeDecoder struct {
	samples []float32
	err     error
	calls   int
}

func (f *fakeDecoder) Decode(_ context.Context, _ string, _ int) ([]float32, error) {
	f.calls++
	return f.samples, f.err
}

type fakeEngine struct {
	text string
	err  error
	req  whisper.TranscriptionRequest
}

func (f *fakeEngine) Transcribe(_ context.Context, req whisper.TranscriptionRequest) (whisper.Result, error) {
	f.req = req
	if f.err != nil {
		return whisper.Result{}, f.err
	}
	return whisper.Result{Text: f.text, Language: req.Language, ModelPath: req.ModelPath}, nil
}

type fakeEnv map[string]string

func (e fakeEnv) Getenv(key string) string { return e[key] }

func (e fakeEnv) Setenv(key, value string) error {
	e[key] = value
	return nil
}

type staticLocator struct {
	path string
	err  error
}

func (l staticLocator) Locate() (string, error) {
	return l.path, l.err
}

// fixture wires an appState to in-memory collaborators. The decoder path
// handed to decoderFn is recorded in decoderPath.
type fixture struct {
	app         *appState
	models      *fakeModels
	decoder     *fakeDecoder
	engine      *fakeEngine
	env         fakeEnv
	decoderPath *string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		models:      &fakeModels{},
		decoder:     &fakeDecoder{samples: []float32{0.25, -0.25, 0.5}},
		engine:      &fakeEngine{text: "  আমি বাংলায় কথা বলি  "},
		env:         fakeEnv{"PATH": "/usr/bin"},
		decoderPath: new(string),
	}

	f.app = &appState{
		model:        modelFlag(whisper.DefaultModel),
		autoDownload: true,
		silenceDBFS:  audio.DefaultSilenceDBFS,
		noProgress:   true,
		env:          f.env,
		locator:      staticLocator{err: ffmpeg.ErrLocatorUnavailable},
		outputPath:   filepath.Join(t.TempDir(), transcribe.DefaultOutputPath),
	}
	f.app.engineFn = func() (whisper.Engine, error) { return f.engine, nil }
	f.app.modelsFn = func() (transcribe.ModelLoader, error) { return f.models, nil }
	f.app.decoderFn = func(executable string) audio.Decoder {
		*f.decoderPath = executable
		return f.decoder
	}

	return f
}

func writeAudio(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("not really audio"), 0o644))
	return path
}
