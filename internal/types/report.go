package types

import "time"

// Report is the top-level structure for one maintenance report run.
// It is serialized directly to JSON for the --report-json sibling file.
type Report struct {
	// Version is the macmaint version that produced this report.
	Version string `json:"version"`

	// RunID uniquely identifies this generation run.
	RunID string `json:"run_id"`

	// Timestamp is when report generation started.
	Timestamp time.Time `json:"timestamp"`

	// Host describes the machine the report was generated on.
	Host ReportHost `json:"host"`

	// Summary provides aggregate statistics across all sections.
	Summary Summary `json:"summary"`

	// Sections is the ordered list of report sections.
	Sections []Section `json:"sections"`
}

// ReportHost describes the machine a report was generated on.
// It is populated by the hostinfo package.
type ReportHost struct {
	// Hostname is the machine hostname.
	Hostname string `json:"hostname"`

	// Username is the user the tool ran as.
	Username string `json:"username"`

	// OS is the operating system name (e.g., "darwin").
	OS string `json:"os"`

	// OSVersion is the platform version string.
	OSVersion string `json:"os_version,omitempty"`

	// Arch is the CPU architecture.
	Arch string `json:"arch"`
}

// Summary provides aggregate statistics for a report.
type Summary struct {
	// TotalChecks is the number of checks across all sections.
	TotalChecks int `json:"total_checks"`

	// OK is the number of checks classified ok.
	OK int `json:"ok"`

	// Warn is the number of checks classified warn, skipped ones included.
	Warn int `json:"warn"`

	// Bad is the number of checks classified bad.
	Bad int `json:"bad"`

	// Skipped is the number of checks that carried a skip reason.
	Skipped int `json:"skipped"`

	// DurationMS is the summed check duration in milliseconds.
	DurationMS int64 `json:"duration_ms"`
}

// Summarize reduces sections to whole-report counts.
func Summarize(sections []Section) Summary {
	var sum Summary
	for _, sec := range sections {
		for _, r := range sec.Results {
			sum.TotalChecks++
			switch st, _ := Classify(r); st {
			case StatusOK:
				sum.OK++
			case StatusWarn:
				sum.Warn++
			case StatusBad:
				sum.Bad++
			}
			if r.SkipReason != "" {
				sum.Skipped++
			}
			sum.DurationMS += r.Duration.Milliseconds()
		}
	}
	return sum
}
