package tasks

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mhalverson/macmaint/internal/engine"
)

// expandHome replaces a leading ~ with the home directory.
func expandHome(home, path string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// absPath expands and absolutizes a path without any containment check, for
// task arguments that are only read.
func absPath(home, path string) string {
	p := expandHome(home, path)
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

// ValidateHomePath resolves path and returns it only when it lies inside the
// home directory. Directories a task writes to or deletes from go through
// this check; a violation aborts the task.
func ValidateHomePath(home, path, label string) (string, error) {
	homeAbs, err := filepath.Abs(home)
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	resolved, err := filepath.Abs(expandHome(homeAbs, path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", label, err)
	}

	if resolved != homeAbs && !strings.HasPrefix(resolved, homeAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("%s must be within %s", label, homeAbs)
	}
	return resolved, nil
}

// duKB returns the size of path in kilobytes via du -sk. ok is false when du
// fails, its output is unparsable, or the size comes back zero.
func duKB(r engine.Runner, path string) (int64, bool) {
	res := r.RunArgv(engine.Argv{Argv: []string{"/usr/bin/du", "-sk", path}})
	if res.Err != nil || res.ExitCode != 0 {
		return 0, false
	}
	fields := strings.Fields(res.Stdout)
	if len(fields) == 0 {
		return 0, false
	}
	kb, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || kb <= 0 {
		return 0, false
	}
	return kb, true
}

// humanSizeKB renders a kilobyte count the way task logs show folder sizes.
func humanSizeKB(kb int64) string {
	return fmt.Sprintf("%.2f GB", float64(kb)/1024/1024)
}
