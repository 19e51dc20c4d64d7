package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/mhalverson/macmaint/internal/engine"
	"github.com/mhalverson/macmaint/internal/probe"
	"github.com/mhalverson/macmaint/internal/types"
)

// gateSkip returns the skip reason for a gated check, empty when the gate
// flag was given.
func gateSkip(enabled bool, flag string) string {
	if enabled {
		return ""
	}
	return "Skipped (requires " + flag + ")"
}

func atLeast(d, floor time.Duration) time.Duration {
	if d < floor {
		return floor
	}
	return d
}

// battery runs the fixed diagnostic check list, section by section, in order.
type battery struct {
	runner engine.Runner
	opts   Options
	home   string
}

// buildSections executes the whole battery and returns the populated
// sections. Checks run sequentially; nothing here mutates the system.
func buildSections(r engine.Runner, opts Options, home string, hasBrew bool) []types.Section {
	b := &battery{runner: r, opts: opts, home: home}
	return []types.Section{
		b.system(),
		b.disk(),
		b.homebrew(hasBrew),
		b.softwareUpdates(),
		b.startup(),
		b.security(),
		b.backups(),
		b.power(),
		b.logs(),
	}
}

func (b *battery) run(c engine.Check) types.CheckResult {
	return b.runner.Run(c)
}

func (b *battery) system() types.Section {
	t60 := atLeast(b.opts.Timeout, 60*time.Second)
	return types.NewSection("System", []types.CheckResult{
		b.run(engine.Check{Title: "Kernel and architecture", Command: "uname -a"}),
		b.run(engine.Check{Title: "macOS version", Command: "sw_vers"}),
		b.run(engine.Check{Title: "Uptime", Command: "uptime"}),
		probe.Hardware(b.runner, atLeast(b.opts.Timeout, 15*time.Second), b.opts.MaxChars, b.opts.MaxLines),
		b.run(engine.Check{
			Title:      "Hardware summary (detailed; system_profiler)",
			Command:    "system_profiler SPHardwareDataType -detailLevel mini",
			Timeout:    t60,
			SkipReason: gateSkip(b.opts.IncludeProfiler, "--include-profiler"),
		}),
		b.run(engine.Check{
			Title:      "Software summary (detailed; system_profiler)",
			Command:    "system_profiler SPSoftwareDataType -detailLevel mini",
			Timeout:    t60,
			SkipReason: gateSkip(b.opts.IncludeProfiler, "--include-profiler"),
		}),
	})
}

func (b *battery) disk() types.Section {
	t60 := atLeast(b.opts.Timeout, 60*time.Second)
	homeQ := engine.ShellQuote(b.home)
	trashQ := engine.ShellQuote(filepath.Join(b.home, ".Trash"))
	return types.NewSection("Disk & Storage", []types.CheckResult{
		b.run(engine.Check{Title: "Filesystem free space", Command: "df -h"}),
		b.run(engine.Check{
			Title:      "Largest directories in home (top 30)",
			Command:    fmt.Sprintf("du -hd 1 %s 2>/dev/null | sort -h | tail -n 30", homeQ),
			Timeout:    t60,
			SkipReason: gateSkip(b.opts.IncludeHeavy, "--include-heavy"),
		}),
		b.run(engine.Check{
			Title:      "Large files in home (>1GiB, first 40)",
			Command:    fmt.Sprintf("find %s -xdev -type f -size +1G -exec ls -lh {} + 2>/dev/null | head -n 40", homeQ),
			Timeout:    t60,
			SkipReason: gateSkip(b.opts.IncludeHeavy, "--include-heavy"),
		}),
		b.run(engine.Check{
			Title:   "Trash size",
			Command: fmt.Sprintf(`du -sh %s 2>/dev/null || echo "(no Trash or no access)"`, trashQ),
		}),
	})
}

func (b *battery) homebrew(hasBrew bool) types.Section {
	if !hasBrew {
		return types.NewSection("Homebrew", []types.CheckResult{
			b.run(engine.Check{
				Title:      "Homebrew not found",
				Command:    "command -v brew",
				SkipReason: "Not installed",
			}),
		})
	}
	return types.NewSection("Homebrew", []types.CheckResult{
		b.run(engine.Check{Title: "Brew path", Command: "command -v brew"}),
		b.run(engine.Check{Title: "Brew version", Command: "brew --version"}),
		b.run(engine.Check{Title: "Brew config", Command: "brew config"}),
		b.run(engine.Check{
			Title:   "Outdated formulae/casks (may be inaccurate without brew update)",
			Command: "brew outdated --verbose",
			Timeout: atLeast(b.opts.Timeout, 60*time.Second),
		}),
		b.run(engine.Check{
			Title:      "brew update (network)",
			Command:    "brew update",
			Timeout:    atLeast(b.opts.Timeout, 120*time.Second),
			SkipReason: gateSkip(b.opts.IncludeNetwork, "--include-network"),
		}),
	})
}

func (b *battery) softwareUpdates() types.Section {
	return types.NewSection("Software Updates", []types.CheckResult{
		b.run(engine.Check{
			Title:      "Available macOS updates (network)",
			Command:    "softwareupdate -l",
			Timeout:    atLeast(b.opts.Timeout, 120*time.Second),
			SkipReason: gateSkip(b.opts.IncludeNetwork, "--include-network"),
		}),
	})
}

func (b *battery) startup() types.Section {
	agentsQ := engine.ShellQuote(filepath.Join(b.home, "Library", "LaunchAgents"))
	return types.NewSection("Startup & Background Items", []types.CheckResult{
		probe.LoginItems(b.runner, atLeast(b.opts.Timeout, 15*time.Second), b.opts.MaxChars, b.opts.MaxLines),
		b.run(engine.Check{
			Title:   "LaunchAgents (user and system)",
			Command: fmt.Sprintf("ls -la %s 2>/dev/null; ls -la /Library/LaunchAgents 2>/dev/null", agentsQ),
		}),
		b.run(engine.Check{Title: "System LaunchDaemons", Command: "ls -la /Library/LaunchDaemons 2>/dev/null"}),
		b.run(engine.Check{Title: "Loaded launchd jobs (first 60)", Command: "launchctl list | head -n 60"}),
	})
}

func (b *battery) security() types.Section {
	return types.NewSection("Security", []types.CheckResult{
		b.run(engine.Check{Title: "FileVault status", Command: "fdesetup status"}),
		b.run(engine.Check{Title: "Gatekeeper status", Command: "spctl --status"}),
		b.run(engine.Check{
			Title:   "Firewall status (0=off,1=on,2=on+stealth)",
			Command: "defaults read /Library/Preferences/com.apple.alf globalstate",
		}),
		b.run(engine.Check{
			Title:      "Security assessment events (last 24h)",
			Command:    `log show --last 24h --style syslog --predicate 'subsystem == "com.apple.security.assessment"' 2>/dev/null | tail -n 40`,
			Timeout:    atLeast(b.opts.Timeout, 60*time.Second),
			SkipReason: gateSkip(b.opts.IncludeLogs, "--include-logs"),
		}),
	})
}

func (b *battery) backups() types.Section {
	t60 := atLeast(b.opts.Timeout, 60*time.Second)
	return types.NewSection("Backups (Time Machine)", []types.CheckResult{
		b.run(engine.Check{Title: "Time Machine status", Command: "tmutil status"}),
		b.run(engine.Check{Title: "Time Machine destinations", Command: "tmutil destinationinfo", Timeout: t60}),
		b.run(engine.Check{
			Title:   "Most recent backups (last 10)",
			Command: "tmutil listbackups 2>/dev/null | tail -n 10",
			Timeout: t60,
		}),
	})
}

func (b *battery) power() types.Section {
	return types.NewSection("Battery & Power", []types.CheckResult{
		b.run(engine.Check{Title: "Battery summary", Command: "pmset -g batt"}),
		b.run(engine.Check{
			Title:      "Power details (system_profiler)",
			Command:    "system_profiler SPPowerDataType",
			Timeout:    atLeast(b.opts.Timeout, 60*time.Second),
			SkipReason: gateSkip(b.opts.IncludeProfiler, "--include-profiler"),
		}),
	})
}

func (b *battery) logs() types.Section {
	return types.NewSection("Logs (Quick Checks)", []types.CheckResult{
		b.run(engine.Check{
			Title:      "Recent system errors (last 1h)",
			Command:    `log show --last 1h --predicate 'eventMessage CONTAINS[c] "error"' --style syslog 2>/dev/null | tail -n 50`,
			Timeout:    atLeast(b.opts.Timeout, 60*time.Second),
			SkipReason: gateSkip(b.opts.IncludeLogs, "--include-logs"),
		}),
	})
}
