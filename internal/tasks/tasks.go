// Package tasks implements the maintenance procedures selectable with
// --task. Every task is gated by the run mode: report and dry-run only log
// what would happen, apply performs the mutations. Read-only inspection
// (directory listings, du, pgrep, brew list) is allowed in every mode.
package tasks

import (
	"fmt"
	"time"

	"github.com/mhalverson/macmaint/internal/engine"
	"github.com/mhalverson/macmaint/internal/logging"
)

// Mode is the global safety gate for maintenance work.
type Mode string

const (
	// ModeReport collects diagnostics and logs intended actions only.
	ModeReport Mode = "report"

	// ModeDryRun simulates every mutation with a "would ..." log line.
	ModeDryRun Mode = "dry-run"

	// ModeApply performs the mutations.
	ModeApply Mode = "apply"
)

// ParseMode validates a mode name from the command line.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeReport, ModeDryRun, ModeApply:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid mode %q (expected report, dry-run, or apply)", s)
}

// Task names accepted by --task, in dispatch order.
const (
	TaskReportHTML      = "report-html"
	TaskBrewMaintenance = "brew-maintenance"
	TaskFindOrphans     = "find-orphans"
	TaskArchiveOrphans  = "archive-orphans"
	TaskCleanupArchives = "cleanup-archives"
	TaskChromeCleanup   = "chrome-cleanup"
	TaskCopySpeedTest   = "copy-speed-test"
)

// Names lists every task name in dispatch order.
func Names() []string {
	return []string{
		TaskReportHTML,
		TaskBrewMaintenance,
		TaskFindOrphans,
		TaskArchiveOrphans,
		TaskCleanupArchives,
		TaskChromeCleanup,
		TaskCopySpeedTest,
	}
}

// Env carries the execution context shared by all tasks.
type Env struct {
	// Mode decides whether mutations happen.
	Mode Mode

	// Home is the user's home directory. Paths a task writes to or deletes
	// from must resolve under it.
	Home string

	// Log receives progress lines.
	Log *logging.Logger

	// Runner executes external commands.
	Runner engine.Runner

	// Sleep pauses between process-termination attempts. Nil means
	// time.Sleep; tests inject their own.
	Sleep func(time.Duration)
}

func (e *Env) sleep(d time.Duration) {
	if e.Sleep != nil {
		e.Sleep(d)
		return
	}
	time.Sleep(d)
}
