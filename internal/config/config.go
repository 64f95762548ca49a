// Package config reads banglastt settings from BANGLASTT_* environment
// variables. Command-line flags take precedence over these values.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/ratul/banglastt/internal/whisper"
)

type Config struct {
	Model        string `env:"BANGLASTT_MODEL" envDefault:"base"`
	ModelDir     string `env:"BANGLASTT_MODEL_DIR"`
	AutoDownload bool   `env:"BANGLASTT_AUTO_DOWNLOAD" envDefault:"true"`
	WhisperPath  string `env:"BANGLASTT_WHISPER_PATH"`
	FFmpegPath   string `env:"BANGLASTT_FFMPEG_PATH"`
	NoProgress   bool   `env:"BANGLASTT_NO_PROGRESS" envDefault:"false"`
	JSONLogs     bool   `env:"BANGLASTT_LOG_JSON" envDefault:"false"`

	// SilenceDBFS is the RMS level below which decoded audio is reported
	// as silent.
	SilenceDBFS float64 `env:"BANGLASTT_SILENCE_THRESHOLD_DBFS" envDefault:"-65"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses environ instead of the process environment when it is
// non-nil.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}

	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("environment variables are invalid: %w", err)
	}

	cfg.Model = strings.TrimSpace(cfg.Model)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !slices.Contains(whisper.ModelNames(), c.Model) {
		return fmt.Errorf("BANGLASTT_MODEL must be one of %s, got %q", strings.Join(whisper.ModelNames(), ", "), c.Model)
	}
	if c.SilenceDBFS > 0 {
		return fmt.Errorf("BANGLASTT_SILENCE_THRESHOLD_DBFS must not be positive, got %g", c.SilenceDBFS)
	}
	return nil
}
