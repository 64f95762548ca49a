package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ratul/banglastt/internal/audio"
	"github.com/ratul/banglastt/internal/platform"
	"go.uber.org/zap"
)

const engineTool = "whisper-cli"

var ErrEngineNotFound = errors.New("whisper engine not found")

// BundledEngine runs whisper.cpp's whisper-cli on decoded samples.
type BundledEngine struct {
	Executable string
	Logger     *zap.Logger
}

var _ Engine = (*BundledEngine)(nil)

// NewBundledEngine locates whisper-cli: override first, then next to the
// banglastt binary, then on PATH.
func NewBundledEngine(override string, logger *zap.Logger) (*BundledEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if override = strings.TrimSpace(override); override != "" {
		if err := platform.EnsureExecutable(override); err != nil {
			return nil, fmt.Errorf("whisper engine override is not executable: %w", err)
		}
		return &BundledEngine{Executable: override, Logger: logger}, nil
	}

	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve banglastt executable path: %w", err)
	}

	exe, err := ResolveEnginePath(self, exec.LookPath)
	if err != nil {
		return nil, err
	}

	return &BundledEngine{Executable: exe, Logger: logger}, nil
}

func ResolveEnginePath(selfExecutable string, lookPath func(string) (string, error)) (string, error) {
	for _, candidate := range platform.HelperCandidates(selfExecutable, engineTool) {
		if err := platform.EnsureExecutable(candidate); err == nil {
			return candidate, nil
		}
	}

	if lookPath != nil {
		if found, err := lookPath(engineTool); err == nil {
			return found, nil
		}
	}

	return "", fmt.Errorf("%w near %s or on PATH; install whisper.cpp's %s or set BANGLASTT_WHISPER_PATH", ErrEngineNotFound, selfExecutable, engineTool)
}

func (b *BundledEngine) Transcribe(ctx context.Context, req TranscriptionRequest) (Result, error) {
	if len(req.Samples) == 0 {
		return Result{}, errors.New("no audio samples to transcribe")
	}
	if strings.TrimSpace(req.ModelPath) == "" {
		return Result{}, errors.New("model path is required")
	}
	if err := platform.EnsureExecutable(b.Executable); err != nil {
		return Result{}, fmt.Errorf("whisper engine missing or not executable: %w", err)
	}

	lang := strings.TrimSpace(req.Language)
	if lang == "" {
		lang = Language
	}

	workDir, err := os.MkdirTemp("", "banglastt-")
	if err != nil {
		return Result{}, fmt.Errorf("create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	wavPath := filepath.Join(workDir, "input.wav")
	if err := audio.WriteWAV(wavPath, req.Samples, req.SampleRate); err != nil {
		return Result{}, err
	}

	outBase := filepath.Join(workDir, "transcript")
	args := []string{"-m", req.ModelPath, "-f", wavPath, "-nt", "-otxt", "-of", outBase, "-l", lang}

	cmd := exec.CommandContext(ctx, b.Executable, args...)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	b.log().Debug("running whisper engine", zap.String("engine", b.Executable), zap.Strings("args", args))
	started := time.Now()
	if err := cmd.Run(); err != nil {
		errText := strings.TrimSpace(stderr.String())
		if isMissingSharedLibraryError(errText) {
			return Result{}, fmt.Errorf("whisper engine at %s is missing required shared libraries (%s); rebuild whisper-cli with BUILD_SHARED_LIBS=OFF", b.Executable, errText)
		}
		if isIllegalInstructionError(errText) || isIllegalInstructionError(err.Error()) {
			return Result{}, errors.New("whisper engine crashed with an illegal CPU instruction; " +
				"set BANGLASTT_WHISPER_PATH to a whisper-cli binary built for your CPU")
		}
		return Result{}, fmt.Errorf("whisper transcribe failed: %w (%s)", err, errText)
	}

	content, err := os.ReadFile(outBase + ".txt")
	if err != nil {
		return Result{}, fmt.Errorf("read whisper output: %w", err)
	}

	return Result{
		Text:      strings.TrimSpace(string(content)),
		Language:  lang,
		ModelPath: req.ModelPath,
		Elapsed:   time.Since(started),
	}, nil
}

func (b *BundledEngine) log() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

func isMissingSharedLibraryError(stderr string) bool {
	value := strings.ToLower(strings.TrimSpace(stderr))
	if value == "" {
		return false
	}

	patterns := []string{
		"error while loading shared libraries",
		"cannot open shared object file",
		"dyld: library not loaded",
		"image not found",
	}

	for _, pattern := range patterns {
		if strings.Contains(value, pattern) {
			return true
		}
	}

	return false
}

func isIllegalInstructionError(stderr string) bool {
	return strings.Contains(strings.ToLower(stderr), "illegal instruction")
}
