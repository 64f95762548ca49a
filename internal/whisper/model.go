package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ratul/banglastt/internal/download"
	"go.uber.org/zap"
)

const DefaultModel = "base"

var ErrUnknownModel = errors.New("unknown model")

type Model struct {
	Name     string
	FileName string
	URL      string
	SHA256   string
}

type ResolvedModel struct {
	Name          string
	Path          string
	URL           string
	SHA256        string
	NeedsDownload bool
}

// modelNames keeps the selector order users see in help output.
var modelNames = []string{"tiny", "base", "small", "medium", "large"}

var registry = map[string]Model{
	"tiny": {
		Name:     "tiny",
		FileName: "ggml-tiny.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-tiny.bin",
		SHA256:   "be07e048e1e599ad46341c8d2a135645097a538221678b7acdd1b1919c6e1b21",
	},
	"base": {
		Name:     "base",
		FileName: "ggml-base.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.bin",
		SHA256:   "60ed5bc3dd14eea856493d334349b405782ddcaf0028d4b5df4088345fba2efe",
	},
	"small": {
		Name:     "small",
		FileName: "ggml-small.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small.bin",
		SHA256:   "1be3a9b2063867b937e64e2ec7483364a79917e157fa98c5d94b5c1fffea987b",
	},
	"medium": {
		Name:     "medium",
		FileName: "ggml-medium.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-medium.bin",
		SHA256:   "6c14d5adee5f86394037b4e4e8b59f1673b6cee10e3cf0b11bbdbee79c156208",
	},
	"large": {
		Name:     "large",
		FileName: "ggml-large-v3.bin",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3.bin",
		SHA256:   "64d182b440b98d5203c4f9bd541544d84c605196c4f7b845dfa11fb23594d1e2",
	},
}

// ModelNames returns the model size selectors from smallest to largest.
func ModelNames() []string {
	return append([]string(nil), modelNames...)
}

func LookupModel(name string) (Model, bool) {
	model, ok := registry[name]
	return model, ok
}

func ResolveModel(size, modelDir string) (ResolvedModel, error) {
	if strings.TrimSpace(size) == "" {
		size = DefaultModel
	}

	model, ok := LookupModel(size)
	if !ok {
		return ResolvedModel{}, fmt.Errorf("%w %q (known models: %s)", ErrUnknownModel, size, strings.Join(ModelNames(), ", "))
	}
	if strings.TrimSpace(modelDir) == "" {
		return ResolvedModel{}, errors.New("model directory must not be empty")
	}

	modelPath := filepath.Join(modelDir, model.FileName)
	_, statErr := os.Stat(modelPath)
	needsDownload := errors.Is(statErr, os.ErrNotExist)
	if statErr != nil && !needsDownload {
		return ResolvedModel{}, fmt.Errorf("stat model path: %w", statErr)
	}

	return ResolvedModel{
		Name:          model.Name,
		Path:          modelPath,
		URL:           model.URL,
		SHA256:        model.SHA256,
		NeedsDownload: needsDownload,
	}, nil
}

// Store resolves model sizes to files on disk, fetching missing ones.
type Store struct {
	Dir          string
	AutoDownload bool
	Fetcher      *download.Client
	Logger       *zap.Logger

	resolve func(size, dir string) (ResolvedModel, error)
}

// Load makes sure the model for size is present locally and matches its
// pinned checksum. A corrupt copy is replaced when AutoDownload is set.
func (s *Store) Load(ctx context.Context, size string) (ResolvedModel, error) {
	resolved, err := s.resolveModel(size)
	if err != nil {
		return ResolvedModel{}, err
	}

	if resolved.NeedsDownload {
		if !s.AutoDownload {
			return ResolvedModel{}, fmt.Errorf("model %q is missing at %s; run `banglastt setup --model %s` or use --auto-download=true", resolved.Name, resolved.Path, resolved.Name)
		}
		if err := s.fetch(ctx, resolved); err != nil {
			return ResolvedModel{}, err
		}
		resolved.NeedsDownload = false
		return resolved, nil
	}

	info, err := os.Stat(resolved.Path)
	if err != nil {
		return ResolvedModel{}, fmt.Errorf("stat model %q: %w", resolved.Name, err)
	}
	if info.Size() == 0 {
		return ResolvedModel{}, fmt.Errorf("model file %s is empty", resolved.Path)
	}

	if err := download.VerifyFileChecksum(resolved.Path, resolved.SHA256); err != nil {
		if !s.AutoDownload {
			return ResolvedModel{}, fmt.Errorf("model %q at %s is corrupt; run `banglastt setup --model %s`: %w", resolved.Name, resolved.Path, resolved.Name, err)
		}
		s.log().Warn("model checksum verification failed; downloading fresh copy", zap.String("model", resolved.Name), zap.Error(err))
		if err := s.fetch(ctx, resolved); err != nil {
			return ResolvedModel{}, err
		}
	}

	return resolved, nil
}

// Install downloads the model for size, replacing a copy whose checksum no
// longer matches. It reports whether anything was downloaded.
func (s *Store) Install(ctx context.Context, size string) (ResolvedModel, bool, error) {
	resolved, err := s.resolveModel(size)
	if err != nil {
		return ResolvedModel{}, false, err
	}

	if !resolved.NeedsDownload {
		err := download.VerifyFileChecksum(resolved.Path, resolved.SHA256)
		if err == nil {
			return resolved, false, nil
		}
		s.log().Warn("model checksum verification failed; downloading fresh copy", zap.String("model", resolved.Name), zap.Error(err))
	}

	if err := s.fetch(ctx, resolved); err != nil {
		return ResolvedModel{}, false, err
	}
	resolved.NeedsDownload = false
	return resolved, true, nil
}

func (s *Store) resolveModel(size string) (ResolvedModel, error) {
	if s.resolve != nil {
		return s.resolve(size, s.Dir)
	}
	return ResolveModel(size, s.Dir)
}

func (s *Store) fetch(ctx context.Context, resolved ResolvedModel) error {
	fetcher := s.Fetcher
	if fetcher == nil {
		fetcher = download.NewClient(s.log())
	}

	s.log().Info("model not found, downloading", zap.String("model", resolved.Name), zap.String("destination", resolved.Path))
	if err := fetcher.Fetch(ctx, resolved.URL, resolved.Path, resolved.SHA256); err != nil {
		return fmt.Errorf("download model %q: %w", resolved.Name, err)
	}
	return nil
}

func (s *Store) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
