package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mhalverson/macmaint/internal/config"
)

// FindOrphans lists Application Support folders that no installed app
// accounts for. Purely informational; it never deletes anything.
func FindOrphans(env *Env, cfg config.OrphansConfig) error {
	skipRe, err := cfg.SkipRegexp()
	if err != nil {
		return fmt.Errorf("invalid orphans skip pattern: %w", err)
	}

	appSupport := absPath(env.Home, cfg.AppSupportDir)
	applications := absPath(env.Home, cfg.ApplicationsDir)

	if st, err := os.Stat(appSupport); err != nil || !st.IsDir() {
		env.Log.Infof("find-orphans: Application Support not found: %s", appSupport)
		return nil
	}

	appEntries, err := os.ReadDir(applications)
	if err != nil {
		env.Log.Infof("find-orphans: failed to list %s: %v", applications, err)
		return nil
	}
	var installed []string
	for _, e := range appEntries {
		if stem, ok := strings.CutSuffix(e.Name(), ".app"); ok {
			installed = append(installed, strings.ToLower(stem))
		}
	}

	entries, err := os.ReadDir(appSupport)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", appSupport, err)
	}
	var supportDirs []string
	for _, e := range entries {
		if e.IsDir() {
			supportDirs = append(supportDirs, e.Name())
		}
	}
	sort.Strings(supportDirs)

	var orphans []string
	for _, name := range supportDirs {
		if skipRe != nil && skipRe.MatchString(name) {
			continue
		}
		if !matchesInstalled(name, installed) {
			orphans = append(orphans, name)
		}
	}

	env.Log.Infof("find-orphans: found %d potential orphaned folders", len(orphans))

	shown := orphans
	if len(shown) > cfg.Limit {
		shown = shown[:cfg.Limit]
	}
	for _, name := range shown {
		full := filepath.Join(appSupport, name)
		size := "unknown"
		if kb, ok := duKB(env.Runner, full); ok {
			size = humanSizeKB(kb)
		}
		modified := "unknown"
		if st, err := os.Stat(full); err == nil {
			modified = st.ModTime().Format("2006-01-02")
		}
		env.Log.Infof("  %s (%s, last modified: %s)", name, size, modified)
	}
	return nil
}

// matchesInstalled reports whether a support folder name corresponds to some
// installed app. The comparison is case-insensitive and runs both ways, so
// "Foo Helper" matches an installed "Foo.app" and "Foo" matches
// "Foo Browser.app".
func matchesInstalled(folder string, installed []string) bool {
	lower := strings.ToLower(folder)
	for _, app := range installed {
		if strings.Contains(app, lower) || strings.Contains(lower, app) {
			return true
		}
	}
	return false
}
