package probe

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mhalverson/macmaint/internal/engine"
	"github.com/mhalverson/macmaint/internal/types"
)

// loginItemRe matches ServiceManagement login item labels in launchctl output.
var loginItemRe = regexp.MustCompile(`\b[A-Za-z0-9_.-]+\.loginitem\b`)

// loginItemDetailPrefixes are the per-item launchctl print lines worth keeping.
var loginItemDetailPrefixes = []string{
	"state = ",
	"path = ",
	"program identifier = ",
	"parent bundle identifier = ",
	"parent bundle version = ",
	"BTM uuid = ",
	"last exit code = ",
}

// maxLoginItems caps how many items get a per-item detail call.
const maxLoginItems = 50

// LoginItems produces the "Login items (ServiceManagement)" check: it lists
// the user's launchd GUI domain, extracts third-party login item labels, and
// fetches a few structured detail lines per item.
func LoginItems(r engine.Runner, timeout time.Duration, maxChars, maxLines int) types.CheckResult {
	const title = "Login items (ServiceManagement)"
	const command = "launchctl print gui/$UID + per-item launchctl print"

	domain := fmt.Sprintf("gui/%d", os.Getuid())

	var (
		stderrParts []string
		total       time.Duration
	)

	list := r.RunArgv(engine.Argv{
		Argv:    []string{"launchctl", "print", domain},
		Timeout: atLeast(timeout, 10*time.Second),
	})
	total += list.Duration
	if list.Err != nil {
		return failed(title, command, total, list.Err)
	}
	if s := strings.TrimSpace(list.Stderr); s != "" {
		stderrParts = append(stderrParts, s)
	}

	labels := loginItemLabels(list.Stdout)
	if len(labels) == 0 {
		out, outCut := engine.Truncate("No ServiceManagement login items found via launchctl.", maxChars, maxLines)
		errOut, errCut := engine.Truncate(strings.TrimSpace(strings.Join(stderrParts, "\n")), maxChars, maxLines)
		if outCut {
			out += "\n\n[output truncated]"
		}
		if errCut {
			errOut += "\n\n[stderr truncated]"
		}
		rc := list.ExitCode
		return types.CheckResult{
			Title:      title,
			Command:    command,
			Duration:   total,
			DurationMS: total.Milliseconds(),
			ExitCode:   &rc,
			Stdout:     out,
			Stderr:     errOut,
		}
	}

	if len(labels) > maxLoginItems {
		labels = labels[:maxLoginItems]
	}

	var blocks []string
	for _, label := range labels {
		item := r.RunArgv(engine.Argv{
			Argv:    []string{"launchctl", "print", domain + "/" + label},
			Timeout: atLeast(timeout, 5*time.Second),
		})
		total += item.Duration
		if item.Err != nil {
			return failed(title, command, total, item.Err)
		}
		if s := strings.TrimSpace(item.Stderr); s != "" {
			stderrParts = append(stderrParts, "["+label+" stderr]\n"+s)
		}

		var lines []string
		seen := make(map[string]struct{})
		for _, line := range strings.Split(item.Stdout, "\n") {
			stripped := strings.TrimSpace(line)
			if !hasAnyPrefix(stripped, loginItemDetailPrefixes) {
				continue
			}
			if _, dup := seen[stripped]; dup {
				continue
			}
			seen[stripped] = struct{}{}
			lines = append(lines, stripped)
		}
		if len(lines) == 0 {
			lines = []string{"(no details)"}
		}

		block := label
		for _, ln := range lines {
			block += "\n  " + ln
		}
		blocks = append(blocks, block)
	}

	out, outCut := engine.Truncate(strings.Join(blocks, "\n\n"), maxChars, maxLines)
	errOut, errCut := engine.Truncate(strings.TrimSpace(strings.Join(stderrParts, "\n\n")), maxChars, maxLines)
	if outCut {
		out += "\n\n[output truncated]"
	}
	if errCut {
		errOut += "\n\n[stderr truncated]"
	}

	zero := 0
	return types.CheckResult{
		Title:      title,
		Command:    command,
		Duration:   total,
		DurationMS: total.Milliseconds(),
		ExitCode:   &zero,
		Stdout:     out,
		Stderr:     errOut,
	}
}

// loginItemLabels returns the sorted, deduplicated third-party login item
// labels found in a launchctl domain dump. Apple's own items are dropped.
func loginItemLabels(out string) []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, l := range loginItemRe.FindAllString(out, -1) {
		if strings.HasPrefix(l, "com.apple.") {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}
