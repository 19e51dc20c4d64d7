package output

import (
	"time"

	"github.com/mhalverson/macmaint/internal/types"
)

// testTimestamp is a fixed time for deterministic test output.
var testTimestamp = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

func intPtr(n int) *int { return &n }

// newTestReport builds a small report with an ok, a bad, a warn, and a
// skipped check spread over two sections.
func newTestReport() *types.Report {
	sections := []types.Section{
		types.NewSection("System", []types.CheckResult{
			{
				Title:      "Kernel and architecture",
				Command:    "uname -a",
				Duration:   120 * time.Millisecond,
				DurationMS: 120,
				ExitCode:   intPtr(0),
				Stdout:     "Darwin mac.local 24.1.0 Darwin Kernel Version 24.1.0",
			},
			{
				Title:      "Software summary (detailed; system_profiler)",
				Command:    "system_profiler SPSoftwareDataType -detailLevel mini",
				SkipReason: "Use --include-profiler",
			},
		}),
		types.NewSection("Disk & Storage", []types.CheckResult{
			{
				Title:      "Filesystem free space",
				Command:    "df -h",
				Duration:   80 * time.Millisecond,
				DurationMS: 80,
				ExitCode:   intPtr(2),
				Stderr:     "df: illegal option -- <shown>",
			},
			{
				Title:      "Trash size",
				Command:    `du -sh ~/.Trash 2>/dev/null || echo "No ~/.Trash"`,
				Duration:   400 * time.Millisecond,
				DurationMS: 400,
				ExitCode:   intPtr(1),
				Stdout:     "No ~/.Trash",
			},
		}),
	}

	r := &types.Report{
		Version:   "0.3.0",
		RunID:     "6e1f3c1e-8b30-4a8e-9a7c-2f4ab1fa9e11",
		Timestamp: testTimestamp,
		Host: types.ReportHost{
			Hostname:  "mac.local",
			Username:  "jpaul",
			OS:        "darwin",
			OSVersion: "15.1",
			Arch:      "arm64",
		},
		Sections: sections,
	}
	r.Summary = types.Summarize(sections)
	return r
}
