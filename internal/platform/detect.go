package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "banglastt"

type Runtime struct {
	OS   string
	Arch string
}

func CurrentRuntime() Runtime {
	return Runtime{
		OS:   runtime.GOOS,
		Arch: NormalizeArch(runtime.GOARCH),
	}
}

// Target is the os_arch directory name used by bundled helper binaries.
func (r Runtime) Target() string {
	return r.OS + "_" + r.Arch
}

// ExecutableName appends .exe on Windows.
func (r Runtime) ExecutableName(base string) string {
	if r.OS == "windows" {
		return base + ".exe"
	}
	return base
}

func NormalizeArch(arch string) string {
	switch arch {
	case "x86_64":
		return "amd64"
	case "aarch64":
		return "arm64"
	default:
		return arch
	}
}

// DataDirs carries the per-user locations the data directory is derived from.
type DataDirs struct {
	Home         string
	XDGDataHome  string
	LocalAppData string
}

func DefaultModelDirFor(goos string, dirs DataDirs) (string, error) {
	dataDir, err := defaultDataDirFor(goos, dirs)
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "models"), nil
}

func ResolveModelDir(override string) (string, error) {
	if override != "" {
		return filepath.Clean(override), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}

	return DefaultModelDirFor(runtime.GOOS, DataDirs{
		Home:         homeDir,
		XDGDataHome:  os.Getenv("XDG_DATA_HOME"),
		LocalAppData: os.Getenv("LOCALAPPDATA"),
	})
}

func defaultDataDirFor(goos string, dirs DataDirs) (string, error) {
	if dirs.Home == "" {
		return "", errors.New("home directory is empty")
	}

	switch goos {
	case "linux", "freebsd", "openbsd":
		if dirs.XDGDataHome != "" {
			return filepath.Join(dirs.XDGDataHome, appName), nil
		}
		return filepath.Join(dirs.Home, ".local", "share", appName), nil
	case "darwin":
		return filepath.Join(dirs.Home, "Library", "Application Support", appName), nil
	case "windows":
		if dirs.LocalAppData != "" {
			return filepath.Join(dirs.LocalAppData, appName), nil
		}
		return filepath.Join(dirs.Home, "AppData", "Local", appName), nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", goos)
	}
}
