package platform

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultModelDirForLinuxWithXDG(t *testing.T) {
	t.Parallel()

	dir, err := DefaultModelDirFor("linux", DataDirs{Home: "/home/dev", XDGDataHome: "/tmp/xdg-data"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/tmp/xdg-data", "banglastt", "models"), dir)
}

func TestDefaultModelDirForLinuxWithoutXDG(t *testing.T) {
	t.Parallel()

	dir, err := DefaultModelDirFor("linux", DataDirs{Home: "/home/dev"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/home/dev", ".local", "share", "banglastt", "models"), dir)
}

func TestDefaultModelDirForMacOS(t *testing.T) {
	t.Parallel()

	dir, err := DefaultModelDirFor("darwin", DataDirs{Home: "/Users/dev"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/Users/dev", "Library", "Application Support", "banglastt", "models"), dir)
}

func TestDefaultModelDirForWindowsPrefersLocalAppData(t *testing.T) {
	t.Parallel()

	dir, err := DefaultModelDirFor("windows", DataDirs{Home: "/home/dev", LocalAppData: "/appdata"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/appdata", "banglastt", "models"), dir)
}

func TestDefaultModelDirForUnsupportedOS(t *testing.T) {
	t.Parallel()

	_, err := DefaultModelDirFor("plan9", DataDirs{Home: "/usr/dev"})
	require.Error(t, err)
}

func TestDefaultModelDirRequiresHome(t *testing.T) {
	t.Parallel()

	_, err := DefaultModelDirFor("linux", DataDirs{})
	require.Error(t, err)
}

func TestResolveModelDirOverride(t *testing.T) {
	t.Parallel()

	dir, err := ResolveModelDir("/tmp/models/../models")
	require.NoError(t, err)
	require.Equal(t, filepath.Clean("/tmp/models"), dir)
}

func TestRuntimeExecutableName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "ffmpeg.exe", Runtime{OS: "windows", Arch: "amd64"}.ExecutableName("ffmpeg"))
	require.Equal(t, "ffmpeg", Runtime{OS: "linux", Arch: "amd64"}.ExecutableName("ffmpeg"))
	require.Equal(t, "darwin_arm64", Runtime{OS: "darwin", Arch: NormalizeArch("aarch64")}.Target())
}
