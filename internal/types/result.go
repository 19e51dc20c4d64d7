package types

import (
	"fmt"
	"strings"
	"time"
)

// Status is the three-level outcome of a check.
type Status string

const (
	// StatusOK means the command completed successfully.
	StatusOK Status = "ok"
	// StatusWarn means the command was skipped, timed out, or failed in a way
	// that is routine on a locked-down machine.
	StatusWarn Status = "warn"
	// StatusBad means the command failed in a way worth investigating.
	StatusBad Status = "bad"
)

// CheckResult holds the captured outcome of a single diagnostic check.
// It is immutable once produced by the runner.
type CheckResult struct {
	// Title is the human-readable check name.
	Title string `json:"title"`

	// Command is the shell command line that was (or would have been) run.
	Command string `json:"command"`

	// Duration is how long the command took (not serialized to JSON).
	Duration time.Duration `json:"-"`

	// DurationMS is the duration in milliseconds for JSON serialization.
	DurationMS int64 `json:"duration_ms"`

	// ExitCode is the process exit code. It is nil when the process was not
	// observed to completion: timeout, launch failure, or a skipped check.
	ExitCode *int `json:"exit_code"`

	// Stdout is the sanitized, truncated standard output.
	Stdout string `json:"stdout"`

	// Stderr is the sanitized, truncated standard error.
	Stderr string `json:"stderr"`

	// SkipReason explains why the check was not executed, when it was not.
	SkipReason string `json:"skip_reason,omitempty"`
}

// permissionPhrases are stderr fragments indicating a command was blocked by
// privacy or privilege restrictions rather than genuinely broken.
var permissionPhrases = []string{
	"operation not permitted",
	"not authorized",
	"permission denied",
	"requires full disk access",
}

// Classify maps a result to its display status and short badge label.
// Diagnostic commands routinely exit 1 or hit privacy walls on a locked-down
// machine, so those rank warn rather than bad and the report foregrounds
// genuine anomalies.
func Classify(r CheckResult) (Status, string) {
	if r.SkipReason != "" {
		return StatusWarn, "SKIPPED"
	}
	if r.ExitCode != nil && *r.ExitCode == 0 {
		return StatusOK, "OK"
	}
	if r.ExitCode == nil {
		if strings.HasPrefix(r.Stderr, "[exception]") {
			return StatusBad, "EXC"
		}
		return StatusWarn, "TIMEOUT"
	}

	rc := *r.ExitCode
	if rc == 126 || rc == 127 {
		return StatusWarn, "MISSING"
	}
	lower := strings.ToLower(r.Stderr)
	for _, phrase := range permissionPhrases {
		if strings.Contains(lower, phrase) {
			return StatusWarn, fmt.Sprintf("RC=%d", rc)
		}
	}
	if rc == 1 {
		return StatusWarn, "RC=1"
	}
	return StatusBad, fmt.Sprintf("RC=%d", rc)
}
