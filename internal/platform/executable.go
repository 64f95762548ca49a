package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// EnsureExecutable fails unless path names a regular file the current user
// could run. The mode bits are not checked on Windows.
func EnsureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}

// HelperCandidates lists where a bundled helper binary may live relative to
// the running executable, most specific first.
func HelperCandidates(selfExecutable, tool string) []string {
	rt := CurrentRuntime()
	binDir := filepath.Dir(selfExecutable)
	name := rt.ExecutableName(tool)

	return []string{
		filepath.Join(binDir, "..", "libexec", tool, name),
		filepath.Join(binDir, "libexec", tool, name),
		filepath.Join(binDir, "packaging", tool, rt.Target(), name),
		filepath.Join(binDir, name),
	}
}
