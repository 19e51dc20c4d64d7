package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mhalverson/macmaint/internal/config"
	"github.com/mhalverson/macmaint/internal/engine"
)

// browserRunning checks for a live browser process by name.
func browserRunning(env *Env, process string) bool {
	res := env.Runner.RunArgv(engine.Argv{Argv: []string{"/usr/bin/pgrep", "-f", process}})
	return res.Err == nil && res.ExitCode == 0
}

// closeBrowser asks the browser to quit, escalating from AppleScript to
// SIGTERM to SIGKILL with a settle pause between attempts. It reports
// whether the process is gone.
func closeBrowser(env *Env, process string) bool {
	env.Runner.RunArgv(engine.Argv{Argv: []string{"/usr/bin/osascript", "-e", fmt.Sprintf("quit app %q", process)}})
	env.sleep(3 * time.Second)
	if !browserRunning(env, process) {
		return true
	}
	env.Runner.RunArgv(engine.Argv{Argv: []string{"/usr/bin/pkill", "-TERM", "-f", process}})
	env.sleep(5 * time.Second)
	if !browserRunning(env, process) {
		return true
	}
	env.Runner.RunArgv(engine.Argv{Argv: []string{"/usr/bin/pkill", "-KILL", "-f", process}})
	env.sleep(2 * time.Second)
	return !browserRunning(env, process)
}

// clearDir empties a directory, keeping the directory itself. Individual
// removal failures are ignored; whatever could not be removed stays.
func clearDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		os.RemoveAll(filepath.Join(dir, e.Name()))
	}
}

// ChromeCleanup clears the cache-purpose subdirectories under every browser
// profile. The browser must not be running; --chrome-kill authorizes closing
// it first.
func ChromeCleanup(env *Env, cfg config.ChromeConfig, killChrome bool) error {
	dir, err := ValidateHomePath(env.Home, cfg.Dir, "chrome-dir")
	if err != nil {
		return err
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		env.Log.Infof("chrome-cleanup: directory not found: %s", dir)
		return nil
	}

	if browserRunning(env, cfg.Process) {
		if !killChrome {
			env.Log.Infof("chrome-cleanup: %s is running. Use --chrome-kill to close it.", cfg.Process)
			return nil
		}
		if env.Mode != ModeApply {
			env.Log.Infof("chrome-cleanup: would close %s", cfg.Process)
			return nil
		}
		if !closeBrowser(env, cfg.Process) {
			env.Log.Infof("chrome-cleanup: failed to close %s", cfg.Process)
			return nil
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var profiles []string
	for _, e := range entries {
		if e.IsDir() && (e.Name() == "Default" || strings.HasPrefix(e.Name(), "Profile ")) {
			profiles = append(profiles, e.Name())
		}
	}

	if len(profiles) == 0 {
		env.Log.Infof("chrome-cleanup: no profiles found")
		return nil
	}

	env.Log.Infof("chrome-cleanup: found %d profile(s)", len(profiles))
	for _, profile := range profiles {
		size := "unknown"
		if kb, ok := duKB(env.Runner, filepath.Join(dir, profile)); ok {
			size = humanSizeKB(kb)
		}
		env.Log.Infof("  %s: %s", profile, size)
	}

	for _, profile := range profiles {
		for _, name := range cfg.CleanDirs {
			target := filepath.Join(dir, profile, name)
			if st, err := os.Stat(target); err != nil || !st.IsDir() {
				continue
			}
			if env.Mode == ModeApply {
				clearDir(target)
				env.Log.Infof("cleaned: %s/%s", profile, name)
			} else {
				env.Log.Infof("would clean: %s/%s", profile, name)
			}
		}
	}
	return nil
}
