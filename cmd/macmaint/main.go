// Package main is the entry point for macmaint, a macOS maintenance helper.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/gofrs/flock"

	"github.com/mhalverson/macmaint/internal/config"
	"github.com/mhalverson/macmaint/internal/engine"
	"github.com/mhalverson/macmaint/internal/logging"
	"github.com/mhalverson/macmaint/internal/report"
	"github.com/mhalverson/macmaint/internal/tasks"
)

// version is set at build time via -ldflags. The default is a dev fallback
// for plain `go install` or `go run` usage.
var version = "0.3.0"

// multiFlag collects every occurrence of a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

// Config holds all parsed CLI flag values plus the runtime configuration
// they were merged into.
type Config struct {
	Mode        string
	Tasks       []string
	ConfigPath  string
	ChromeKill  bool
	NoColor     bool
	Verbose     bool
	ShowVersion bool

	// Brew holds the brew action toggles; which actions run is a CLI
	// decision, not a config-file one.
	Brew tasks.BrewActions

	// Runtime is the effective configuration: built-in defaults, then the
	// --config YAML overlay, then explicit flags.
	Runtime config.Config
}

// configPath scans raw arguments for --config ahead of flag parsing, so the
// YAML overlay can seed the flag defaults and explicit flags still win.
func configPath(args []string) string {
	for i, a := range args {
		switch {
		case a == "--config" || a == "-config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(a, "--config="):
			return strings.TrimPrefix(a, "--config=")
		case strings.HasPrefix(a, "-config="):
			return strings.TrimPrefix(a, "-config=")
		}
	}
	return ""
}

// parseFlags parses command-line arguments into a Config using a dedicated
// FlagSet, keeping the global flag.CommandLine clean for testability.
func parseFlags(args []string) (*Config, error) {
	runtime, err := config.Load(configPath(args))
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ✗ %v\n", err)
		return nil, err
	}

	cfg := &Config{Runtime: runtime}
	fs := flag.NewFlagSet("macmaint", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var taskNames, archiveFolders, fixCaskApps multiFlag

	fs.StringVar(&cfg.Mode, "mode", "report", "Run mode: report, dry-run, apply")
	fs.Var(&taskNames, "task", "Task to run (repeatable)")
	fs.StringVar(&cfg.ConfigPath, "config", "", "YAML config file layered under the flags")

	rep := &cfg.Runtime.Report
	fs.StringVar(&rep.OutDir, "out-dir", rep.OutDir, "Report output directory")
	fs.BoolVar(&rep.IncludeNetwork, "include-network", rep.IncludeNetwork, "Allow checks that reach the network")
	fs.BoolVar(&rep.IncludeHeavy, "include-heavy", rep.IncludeHeavy, "Allow slow whole-home disk scans")
	fs.BoolVar(&rep.IncludeProfiler, "include-profiler", rep.IncludeProfiler, "Allow detailed system_profiler dumps")
	fs.BoolVar(&rep.IncludeLogs, "include-logs", rep.IncludeLogs, "Allow unified log queries")
	fs.DurationVar(&rep.Timeout.Duration, "timeout", rep.Timeout.Duration, "Per-check time limit")
	fs.IntVar(&rep.MaxChars, "max-chars", rep.MaxChars, "Captured output cap in characters")
	fs.IntVar(&rep.MaxLines, "max-lines", rep.MaxLines, "Captured output cap in lines")
	fs.BoolVar(&rep.JSON, "report-json", rep.JSON, "Also write a JSON report next to the HTML")

	arch := &cfg.Runtime.Archive
	fs.StringVar(&arch.Dir, "archive-dir", arch.Dir, "Destination for dated orphan archives")
	fs.IntVar(&arch.Days, "archive-days", arch.Days, "Days until an archive's delete date")
	fs.Var(&archiveFolders, "archive-folder", "Folder to archive (repeatable, replaces configured list)")

	orp := &cfg.Runtime.Orphans
	fs.StringVar(&orp.ApplicationsDir, "apps-dir", orp.ApplicationsDir, "Installed applications directory")
	fs.StringVar(&orp.AppSupportDir, "app-support", orp.AppSupportDir, "Application Support directory to scan")
	fs.IntVar(&orp.Limit, "orphans-limit", orp.Limit, "Max orphan folders to list")
	fs.StringVar(&orp.SkipPattern, "orphans-skip", orp.SkipPattern, "Regex of folder names never reported as orphans")

	fs.StringVar(&cfg.Runtime.Brew.Bin, "brew-bin", cfg.Runtime.Brew.Bin, "Homebrew binary")
	fs.BoolVar(&cfg.Brew.Update, "brew-update", false, "Run brew update")
	fs.BoolVar(&cfg.Brew.Upgrade, "brew-upgrade", false, "Run brew upgrade")
	fs.BoolVar(&cfg.Brew.UpgradeCask, "brew-cask-upgrade", false, "Run brew upgrade --cask --greedy")
	fs.BoolVar(&cfg.Brew.Autoremove, "brew-autoremove", false, "Run brew autoremove")
	fs.BoolVar(&cfg.Brew.Cleanup, "brew-cleanup", false, "Run brew cleanup --prune=7")
	fs.BoolVar(&cfg.Brew.Doctor, "brew-doctor", false, "Run brew doctor")
	fs.BoolVar(&cfg.Brew.Missing, "brew-missing", false, "Run brew missing")
	fs.BoolVar(&cfg.Brew.List, "brew-list", false, "Write brew list to the configured file")
	fs.BoolVar(&cfg.Brew.CaskList, "brew-cask-list", false, "Write brew list --cask to the configured file")
	fs.BoolVar(&cfg.Brew.Untap, "brew-untap", false, "Remove the configured taps")
	fs.BoolVar(&cfg.Brew.FixCasks, "brew-fix-casks", false, "Reinstall casks whose app bundle is gone")
	fs.Var(&fixCaskApps, "brew-fix-cask-app", "App checked by --brew-fix-casks (repeatable, replaces configured list)")

	fs.StringVar(&cfg.Runtime.Chrome.Dir, "chrome-dir", cfg.Runtime.Chrome.Dir, "Browser profile root to clean")
	fs.BoolVar(&cfg.ChromeKill, "chrome-kill", false, "Allow closing the browser before cleanup")

	fs.StringVar(&cfg.Runtime.Copy.Src, "copy-src", cfg.Runtime.Copy.Src, "Copy test source path")
	fs.StringVar(&cfg.Runtime.Copy.Dst, "copy-dst", cfg.Runtime.Copy.Dst, "Copy test destination path")

	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable debug log lines")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "                                        _       _\n")
		fmt.Fprintf(os.Stderr, "   _ __ ___   __ _  ___ _ __ ___   __ _(_)_ __ | |_\n")
		fmt.Fprintf(os.Stderr, "  | '_ ` _ \\ / _` |/ __| '_ ` _ \\ / _` | | '_ \\| __|\n")
		fmt.Fprintf(os.Stderr, "  | | | | | | (_| | (__| | | | | | (_| | | | | | |_\n")
		fmt.Fprintf(os.Stderr, "  |_| |_| |_|\\__,_|\\___|_| |_| |_|\\__,_|_|_| |_|\\__|\n")
		fmt.Fprintf(os.Stderr, "  Check twice, clean once\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "  Usage: macmaint [options]\n\n")
		fmt.Fprintf(os.Stderr, "  Options:\n")
		fmt.Fprintf(os.Stderr, "    --mode <mode>               Run mode: report, dry-run, apply (default: report)\n")
		fmt.Fprintf(os.Stderr, "    --task <name>               Task to run, repeatable (default: report-html)\n")
		fmt.Fprintf(os.Stderr, "    --config <file>             YAML config layered under the flags\n")
		fmt.Fprintf(os.Stderr, "    --out-dir <dir>             Report output directory (default: .)\n")
		fmt.Fprintf(os.Stderr, "    --report-json               Also write a JSON report next to the HTML\n")
		fmt.Fprintf(os.Stderr, "    --include-network           Allow checks that reach the network\n")
		fmt.Fprintf(os.Stderr, "    --include-heavy             Allow slow whole-home disk scans\n")
		fmt.Fprintf(os.Stderr, "    --include-profiler          Allow detailed system_profiler dumps\n")
		fmt.Fprintf(os.Stderr, "    --include-logs              Allow unified log queries (needs Full Disk Access)\n")
		fmt.Fprintf(os.Stderr, "    --timeout <dur>             Per-check time limit (default: 20s)\n")
		fmt.Fprintf(os.Stderr, "    --max-chars <n>             Captured output cap in characters (default: 20000)\n")
		fmt.Fprintf(os.Stderr, "    --max-lines <n>             Captured output cap in lines (default: 500)\n")
		fmt.Fprintf(os.Stderr, "    --archive-dir <dir>         Destination for dated orphan archives\n")
		fmt.Fprintf(os.Stderr, "    --archive-days <n>          Days until an archive's delete date (default: 90)\n")
		fmt.Fprintf(os.Stderr, "    --archive-folder <name>     Folder to archive, repeatable (replaces configured list)\n")
		fmt.Fprintf(os.Stderr, "    --apps-dir <dir>            Installed applications directory (default: /Applications)\n")
		fmt.Fprintf(os.Stderr, "    --app-support <dir>         Application Support directory to scan\n")
		fmt.Fprintf(os.Stderr, "    --orphans-limit <n>         Max orphan folders to list (default: 30)\n")
		fmt.Fprintf(os.Stderr, "    --orphans-skip <regex>      Folder names never reported as orphans\n")
		fmt.Fprintf(os.Stderr, "    --brew-bin <path>           Homebrew binary (default: $BREW or /opt/homebrew/bin/brew)\n")
		fmt.Fprintf(os.Stderr, "    --brew-update               Run brew update\n")
		fmt.Fprintf(os.Stderr, "    --brew-upgrade              Run brew upgrade\n")
		fmt.Fprintf(os.Stderr, "    --brew-cask-upgrade         Run brew upgrade --cask --greedy\n")
		fmt.Fprintf(os.Stderr, "    --brew-autoremove           Run brew autoremove\n")
		fmt.Fprintf(os.Stderr, "    --brew-cleanup              Run brew cleanup --prune=7\n")
		fmt.Fprintf(os.Stderr, "    --brew-doctor               Run brew doctor\n")
		fmt.Fprintf(os.Stderr, "    --brew-missing              Run brew missing\n")
		fmt.Fprintf(os.Stderr, "    --brew-list                 Write brew list to the configured file\n")
		fmt.Fprintf(os.Stderr, "    --brew-cask-list            Write brew list --cask to the configured file\n")
		fmt.Fprintf(os.Stderr, "    --brew-untap                Remove the configured taps\n")
		fmt.Fprintf(os.Stderr, "    --brew-fix-casks            Reinstall casks whose app bundle is gone\n")
		fmt.Fprintf(os.Stderr, "    --brew-fix-cask-app <name>  App checked by --brew-fix-casks, repeatable\n")
		fmt.Fprintf(os.Stderr, "    --chrome-dir <dir>          Browser profile root to clean\n")
		fmt.Fprintf(os.Stderr, "    --chrome-kill               Allow closing the browser before cleanup\n")
		fmt.Fprintf(os.Stderr, "    --copy-src <path>           Copy test source\n")
		fmt.Fprintf(os.Stderr, "    --copy-dst <path>           Copy test destination\n")
		fmt.Fprintf(os.Stderr, "    --no-color                  Disable colored output\n")
		fmt.Fprintf(os.Stderr, "    --verbose                   Enable debug log lines\n")
		fmt.Fprintf(os.Stderr, "    --version                   Print version and exit\n")
		fmt.Fprintf(os.Stderr, "\n  Examples:\n")
		fmt.Fprintf(os.Stderr, "    macmaint                                       Diagnostic report (default)\n")
		fmt.Fprintf(os.Stderr, "    macmaint --include-network --include-logs      Report with network and log checks\n")
		fmt.Fprintf(os.Stderr, "    macmaint --task find-orphans                   List orphaned support folders\n")
		fmt.Fprintf(os.Stderr, "    macmaint --mode dry-run --task chrome-cleanup  Preview browser cache cleanup\n")
		fmt.Fprintf(os.Stderr, "    macmaint --mode apply --task brew-maintenance  Apply default brew housekeeping\n")
		fmt.Fprintf(os.Stderr, "    macmaint --mode apply --task cleanup-archives  Delete expired orphan archives\n")
		fmt.Fprintf(os.Stderr, "    macmaint --task copy-speed-test                Time a copy (set --copy-src/--copy-dst)\n")
		fmt.Fprintf(os.Stderr, "    macmaint --config ~/.macmaint.yaml             Layer a YAML config under the flags\n")
		fmt.Fprintf(os.Stderr, "    macmaint --report-json --out-dir ~/Desktop     Report plus JSON sibling on the Desktop\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Tasks = taskNames
	if len(archiveFolders) > 0 {
		cfg.Runtime.Archive.Folders = archiveFolders
	}
	if len(fixCaskApps) > 0 {
		cfg.Runtime.Brew.FixCaskApps = fixCaskApps
	}
	return cfg, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(1)
	}
	os.Exit(run(cfg))
}

// run executes the selected tasks and returns an exit code.
func run(cfg *Config) int {
	if cfg.ShowVersion {
		fmt.Fprintf(os.Stdout, "macmaint %s\n", version)
		return 0
	}

	if cfg.NoColor {
		color.NoColor = true
	}

	mode, err := tasks.ParseMode(cfg.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ✗ %v\n", err)
		return 1
	}
	if code := validateTasks(cfg.Tasks); code >= 0 {
		return code
	}
	if err := cfg.Runtime.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "  ✗ %v\n", err)
		return 1
	}

	log := logging.New(os.Stderr, cfg.Verbose)

	selected := selectTasks(cfg.Tasks, mode)
	if selected == nil {
		log.Warnf("No tasks selected. Use --task to choose what to run.")
		return 2
	}

	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ✗ Failed to resolve home directory: %v\n", err)
		return 1
	}

	if mode == tasks.ModeApply {
		unlock, code := acquireApplyLock(home, log)
		if code >= 0 {
			return code
		}
		defer unlock()
	}

	return dispatch(cfg, mode, home, log, selected)
}

// validateTasks rejects unknown --task values, suggesting close matches.
// Returns -1 if every name is a known task.
func validateTasks(names []string) int {
	known := tasks.Names()
	valid := make(map[string]bool, len(known))
	for _, n := range known {
		valid[n] = true
	}

	for _, name := range names {
		if valid[name] {
			continue
		}
		fmt.Fprintf(os.Stderr, "  ✗ No task named %q\n", name)
		if suggestions := suggestTasks(name, known); len(suggestions) > 0 {
			fmt.Fprintf(os.Stderr, "\n  Did you mean:\n")
			for _, s := range suggestions {
				fmt.Fprintf(os.Stderr, "    • %s\n", s)
			}
		}
		fmt.Fprintf(os.Stderr, "\n  Tasks: %s\n", strings.Join(known, ", "))
		return 1
	}
	return -1
}

// selectTasks resolves the --task list against the run mode: no tasks means
// report-html in report mode and nothing anywhere else. The returned set is
// nil when there is nothing to run.
func selectTasks(names []string, mode tasks.Mode) map[string]bool {
	selected := make(map[string]bool, len(names))
	for _, n := range names {
		selected[n] = true
	}
	if len(selected) == 0 && mode == tasks.ModeReport {
		selected[tasks.TaskReportHTML] = true
	}
	if len(selected) == 0 {
		return nil
	}
	return selected
}

// acquireApplyLock takes the cross-process lock that keeps two apply runs
// from interleaving mutations. It returns a release function and -1, or an
// exit code when the lock is unavailable.
func acquireApplyLock(home string, log *logging.Logger) (func(), int) {
	lockPath := filepath.Join(home, ".macmaint.lock")
	lock := flock.New(lockPath)

	acquired, err := lock.TryLock()
	if err != nil {
		log.Errorf("Failed to acquire %s: %v", lockPath, err)
		return nil, 1
	}
	if !acquired {
		log.Errorf("Another apply run is in progress (lock held on %s)", lockPath)
		return nil, 1
	}
	return func() { _ = lock.Unlock() }, -1
}

// dispatch runs the selected tasks in a fixed order. Task failures are
// logged and the remaining tasks still run; only a report that cannot be
// written aborts the run.
func dispatch(cfg *Config, mode tasks.Mode, home string, log *logging.Logger, selected map[string]bool) int {
	rep := cfg.Runtime.Report
	runner := &engine.ShellRunner{
		Timeout:  rep.Timeout.Duration,
		MaxChars: rep.MaxChars,
		MaxLines: rep.MaxLines,
	}
	env := &tasks.Env{Mode: mode, Home: home, Log: log, Runner: runner}

	for _, name := range tasks.Names() {
		if !selected[name] {
			continue
		}
		if name == tasks.TaskReportHTML {
			if code := writeReport(cfg, home, runner, log); code >= 0 {
				return code
			}
			continue
		}
		if err := runTask(cfg, env, name); err != nil {
			log.Errorf("%s: %v", name, err)
		}
	}
	return 0
}

// writeReport generates the HTML report bundle.
// Returns -1 on success, or an exit code when the report cannot be written.
func writeReport(cfg *Config, home string, runner engine.Runner, log *logging.Logger) int {
	rep := cfg.Runtime.Report
	_, err := report.Generate(report.Options{
		OutDir:          rep.OutDir,
		IncludeNetwork:  rep.IncludeNetwork,
		IncludeHeavy:    rep.IncludeHeavy,
		IncludeProfiler: rep.IncludeProfiler,
		IncludeLogs:     rep.IncludeLogs,
		Timeout:         rep.Timeout.Duration,
		MaxChars:        rep.MaxChars,
		MaxLines:        rep.MaxLines,
		JSON:            rep.JSON,
		Version:         version,
		Home:            home,
		Runner:          runner,
		Log:             log,
	})
	if err != nil {
		log.Errorf("Report failed: %v", err)
		return 1
	}
	return -1
}

// runTask invokes a single maintenance task by name.
func runTask(cfg *Config, env *tasks.Env, name string) error {
	switch name {
	case tasks.TaskBrewMaintenance:
		return tasks.BrewMaintenance(env, cfg.Runtime.Brew, cfg.Brew)
	case tasks.TaskFindOrphans:
		return tasks.FindOrphans(env, cfg.Runtime.Orphans)
	case tasks.TaskArchiveOrphans:
		return tasks.ArchiveOrphans(env, cfg.Runtime.Orphans.AppSupportDir, cfg.Runtime.Archive)
	case tasks.TaskCleanupArchives:
		return tasks.CleanupArchives(env, cfg.Runtime.Archive)
	case tasks.TaskChromeCleanup:
		return tasks.ChromeCleanup(env, cfg.Runtime.Chrome, cfg.ChromeKill)
	case tasks.TaskCopySpeedTest:
		return tasks.CopySpeedTest(env, cfg.Runtime.Copy)
	}
	return nil
}
