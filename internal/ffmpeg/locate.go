// Package ffmpeg finds the ffmpeg executable and uses it to decode audio
// files into PCM samples.
package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ratul/banglastt/internal/platform"
)

// ExeEnv is exported after a successful lookup for child processes.
const ExeEnv = "BANGLASTT_FFMPEG_EXE"

var ErrLocatorUnavailable = errors.New("ffmpeg locator unavailable")

// Locator returns the absolute path of an ffmpeg executable for this platform.
type Locator interface {
	Locate() (string, error)
}

// BundledLocator looks for an override, then for an ffmpeg shipped next to
// the banglastt binary. It never consults PATH; that is the fallback.
type BundledLocator struct {
	Self     string
	Override string
}

func NewBundledLocator(override string) BundledLocator {
	self, _ := os.Executable()
	return BundledLocator{Self: self, Override: override}
}

func (l BundledLocator) Locate() (string, error) {
	if override := strings.TrimSpace(l.Override); override != "" {
		if err := platform.EnsureExecutable(override); err != nil {
			return "", fmt.Errorf("ffmpeg override is not executable: %w", err)
		}
		return filepath.Abs(override)
	}

	if l.Self == "" {
		return "", ErrLocatorUnavailable
	}

	for _, candidate := range platform.HelperCandidates(l.Self, "ffmpeg") {
		if err := platform.EnsureExecutable(candidate); err == nil {
			return filepath.Abs(candidate)
		}
	}

	return "", ErrLocatorUnavailable
}
