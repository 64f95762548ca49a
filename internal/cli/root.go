package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ratul/banglastt/internal/audio"
	"github.com/ratul/banglastt/internal/config"
	"github.com/ratul/banglastt/internal/download"
	"github.com/ratul/banglastt/internal/ffmpeg"
	"github.com/ratul/banglastt/internal/logging"
	"github.com/ratul/banglastt/internal/platform"
	"github.com/ratul/banglastt/internal/transcribe"
	"github.com/ratul/banglastt/internal/version"
	"github.com/ratul/banglastt/internal/whisper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spf13/cobra"
)

// ErrReported marks a failure whose diagnostic has already been printed.
var ErrReported = errors.New("failure already reported")

type appState struct {
	verbose      bool
	jsonLogs     bool
	noProgress   bool
	save         bool
	model        modelFlag
	modelDir     string
	autoDownload bool
	silenceDBFS  float64
	whisperPath  string
	ffmpegPath   string
	configErr    error

	logger *zap.Logger
	out    io.Writer

	locator    ffmpeg.Locator
	env        ffmpeg.Env
	engineFn   func() (whisper.Engine, error)
	modelsFn   func() (transcribe.ModelLoader, error)
	decoderFn  func(executable string) audio.Decoder
	outputPath string
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(newAppState())
}

func newAppState() *appState {
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.Config{Model: whisper.DefaultModel, AutoDownload: true, SilenceDBFS: audio.DefaultSilenceDBFS}
	}

	app := &appState{
		jsonLogs:     cfg.JSONLogs,
		noProgress:   cfg.NoProgress,
		model:        modelFlag(cfg.Model),
		modelDir:     cfg.ModelDir,
		autoDownload: cfg.AutoDownload,
		silenceDBFS:  cfg.SilenceDBFS,
		whisperPath:  cfg.WhisperPath,
		ffmpegPath:   cfg.FFmpegPath,
		configErr:    cfgErr,
		out:          os.Stdout,
		env:          ffmpeg.ProcessEnv(),
		outputPath:   transcribe.DefaultOutputPath,
	}
	app.engineFn = app.newEngine
	app.modelsFn = app.newModelStore
	app.decoderFn = app.newDecoder
	return app
}

func newRootCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "banglastt [options] audio_file",
		Short: "BanglaSTT - Bangla speech-to-text using OpenAI Whisper",
		Example: "  banglastt interview.mp3\n" +
			"  banglastt -m small -o lecture.wav",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if app.configErr != nil {
				return app.configErr
			}
			app.logger = logging.New(logging.Options{Verbose: app.verbose, JSON: app.jsonLogs})
			app.out = cmd.OutOrStdout()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd.Context(), args[0])
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	bindLoggingFlags(cmd, app)
	bindModelFlags(cmd, app)
	cmd.Flags().BoolVarP(&app.save, "output", "o", false, "Save transcription to "+transcribe.DefaultOutputPath)

	cmd.AddCommand(newSetupCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindLoggingFlags(cmd *cobra.Command, app *appState) {
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&app.verbose, "verbose", "v", app.verbose, "Enable verbose output")
	flags.BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
	flags.BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
}

func bindModelFlags(cmd *cobra.Command, app *appState) {
	flags := cmd.PersistentFlags()
	flags.VarP(&app.model, "model", "m", "Whisper model size ("+strings.Join(whisper.ModelNames(), ", ")+")")
	flags.StringVar(&app.modelDir, "model-dir", app.modelDir, "Directory where models are stored")
	flags.BoolVar(&app.autoDownload, "auto-download", app.autoDownload, "Automatically download missing models")
	flags.Float64Var(&app.silenceDBFS, "silence-threshold-dbfs", app.silenceDBFS, "Warn when decoded audio RMS is below this level")
}

// modelFlag restricts --model to the known model sizes.
type modelFlag string

func (m *modelFlag) String() string {
	return string(*m)
}

func (m *modelFlag) Set(value string) error {
	if _, ok := whisper.LookupModel(value); !ok {
		return fmt.Errorf("must be one of %s", strings.Join(whisper.ModelNames(), ", "))
	}
	*m = modelFlag(value)
	return nil
}

func (m *modelFlag) Type() string {
	return "size"
}

func (a *appState) newEngine() (whisper.Engine, error) {
	return whisper.NewBundledEngine(a.whisperPath, a.log())
}

func (a *appState) newModelStore() (transcribe.ModelLoader, error) {
	return a.modelStore()
}

func (a *appState) newDecoder(executable string) audio.Decoder {
	return ffmpeg.NewDecoder(executable, a.log())
}

func (a *appState) modelStore() (*whisper.Store, error) {
	dir, err := platform.ResolveModelDir(a.modelDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model directory %s: %w", dir, err)
	}

	fetcher := download.NewClient(a.log())
	fetcher.NoProgress = a.noProgress

	return &whisper.Store{
		Dir:          dir,
		AutoDownload: a.autoDownload,
		Fetcher:      fetcher,
		Logger:       a.log(),
	}, nil
}

func (a *appState) ffmpegLocator() ffmpeg.Locator {
	if a.locator != nil {
		return a.locator
	}
	return ffmpeg.NewBundledLocator(a.ffmpegPath)
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func (a *appState) outWriter() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}
