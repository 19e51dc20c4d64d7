package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mhalverson/macmaint/internal/config"
	"github.com/mhalverson/macmaint/internal/engine"
)

// archiveNameRe extracts the delete-by date an archive file carries in its
// name.
var archiveNameRe = regexp.MustCompile(`.*_delete_([0-9]{4}-[0-9]{2}-[0-9]{2})\.zip$`)

// ArchiveOrphans zips each configured Application Support folder into the
// archive directory under a name carrying its delete-by date, then removes
// the folder. A zip failure keeps the folder and moves on.
func ArchiveOrphans(env *Env, appSupportDir string, cfg config.ArchiveConfig) error {
	appSupport := absPath(env.Home, appSupportDir)

	dir, err := ValidateHomePath(env.Home, cfg.Dir, "archive-dir")
	if err != nil {
		return err
	}
	if env.Mode == ModeApply {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create archive directory %s: %w", dir, err)
		}
	}

	deleteDate := time.Now().AddDate(0, 0, cfg.Days).Format("2006-01-02")
	env.Log.Infof("archive-orphans: delete date set to %s", deleteDate)

	for _, folder := range cfg.Folders {
		folderPath := filepath.Join(appSupport, folder)
		if st, err := os.Stat(folderPath); err != nil || !st.IsDir() {
			env.Log.Infof("skip (not found): %s", folder)
			continue
		}

		archivePath := filepath.Join(dir, strings.ReplaceAll(folder, " ", "_")+"_delete_"+deleteDate+".zip")

		if env.Mode != ModeApply {
			env.Log.Infof("would archive: %s -> %s", folder, archivePath)
			continue
		}

		env.Log.Infof("archiving: %s", folder)
		res := env.Runner.RunArgv(engine.Argv{
			Argv: []string{"/usr/bin/zip", "-r", archivePath, folder},
			Dir:  appSupport,
		})
		if res.Err != nil {
			env.Log.Infof("archive failed for %s: %v", folder, res.Err)
			continue
		}
		if res.ExitCode != 0 {
			env.Log.Infof("zip failed for %s: %s", folder, strings.TrimSpace(res.Stderr))
			continue
		}
		if err := os.RemoveAll(folderPath); err != nil {
			env.Log.Infof("archive failed for %s: %v", folder, err)
			continue
		}
		env.Log.Infof("archived and removed: %s", folder)
	}
	return nil
}

// CleanupArchives deletes archives whose delete-by date has passed.
func CleanupArchives(env *Env, cfg config.ArchiveConfig) error {
	dir, err := ValidateHomePath(env.Home, cfg.Dir, "archive-dir")
	if err != nil {
		return err
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		env.Log.Infof("cleanup-archives: directory not found: %s", dir)
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}

	today := time.Now().Format("2006-01-02")
	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := archiveNameRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		// Dates in YYYY-MM-DD order compare correctly as strings.
		if m[1] <= today {
			candidates = append(candidates, e.Name())
		}
	}

	if len(candidates) == 0 {
		env.Log.Infof("cleanup-archives: no archives eligible for deletion")
		return nil
	}

	env.Log.Infof("cleanup-archives: %d archive(s) eligible for deletion", len(candidates))
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		size := "unknown"
		if st, err := os.Stat(path); err == nil {
			size = humanize.IBytes(uint64(st.Size()))
		}
		if env.Mode == ModeApply {
			if err := os.Remove(path); err != nil {
				env.Log.Infof("failed to delete %s: %v", name, err)
				continue
			}
			env.Log.Infof("deleted: %s (%s)", name, size)
		} else {
			env.Log.Infof("would delete: %s (%s)", name, size)
		}
	}
	return nil
}
