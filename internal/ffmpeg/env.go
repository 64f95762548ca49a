package ffmpeg

import (
	"fmt"
	"os"
	"path/filepath"
)

// Env is the slice of process environment Prepare writes to.
type Env interface {
	Getenv(key string) string
	Setenv(key, value string) error
}

type processEnv struct{}

func (processEnv) Getenv(key string) string       { return os.Getenv(key) }
func (processEnv) Setenv(key, value string) error { return os.Setenv(key, value) }

// ProcessEnv returns the real process environment.
func ProcessEnv() Env {
	return processEnv{}
}

// Prepare resolves ffmpeg through locator and, on success, exports its path
// in ExeEnv and prepends its directory to PATH so that any child process can
// find it too. Call it once at startup, before any subprocess is launched.
func Prepare(locator Locator, env Env) (string, error) {
	if locator == nil {
		return "", ErrLocatorUnavailable
	}
	if env == nil {
		env = ProcessEnv()
	}

	path, err := locator.Locate()
	if err != nil {
		return "", err
	}

	if err := env.Setenv(ExeEnv, path); err != nil {
		return "", fmt.Errorf("set %s: %w", ExeEnv, err)
	}

	dir := filepath.Dir(path)
	searchPath := dir
	if current := env.Getenv("PATH"); current != "" {
		searchPath = dir + string(os.PathListSeparator) + current
	}
	if err := env.Setenv("PATH", searchPath); err != nil {
		return "", fmt.Errorf("set PATH: %w", err)
	}

	return path, nil
}
