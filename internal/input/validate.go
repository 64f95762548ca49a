// Package input checks audio paths before any model work starts.
package input

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrNotExist = errors.New("file does not exist")

var supportedFormats = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".m4a":  {},
	".mp4":  {},
	".webm": {},
	".mpeg": {},
	".mpga": {},
}

type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported audio format %q", e.Ext)
}

// SupportedExtensions returns the accepted extensions in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(supportedFormats))
	for ext := range supportedFormats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Validate checks that path exists and carries a supported extension. The
// file content is never inspected.
func Validate(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, ErrNotExist)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := supportedFormats[ext]; !ok {
		return &UnsupportedFormatError{Ext: ext}
	}

	return nil
}
