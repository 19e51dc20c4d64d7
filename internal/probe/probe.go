// Package probe implements the built-in report checks that need more than a
// single shell line: short argv sequences whose output is parsed and
// reassembled into readable result lines. Both probes degrade to an
// explanatory stdout line when no data comes back and always return a normal
// CheckResult subject to the usual classification rules.
package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mhalverson/macmaint/internal/types"
)

// atLeast raises d to floor. Probes bump short report timeouts because their
// underlying tools are slow to warm up.
func atLeast(d, floor time.Duration) time.Duration {
	if d < floor {
		return floor
	}
	return d
}

// failed maps a runner error onto the classifier's timeout or exception
// shape: exit code stays nil either way.
func failed(title, command string, d time.Duration, err error) types.CheckResult {
	res := types.CheckResult{
		Title:      title,
		Command:    command,
		Duration:   d,
		DurationMS: d.Milliseconds(),
	}
	if errors.Is(err, context.DeadlineExceeded) {
		res.Stdout = "[command timed out]"
		return res
	}
	res.Stderr = fmt.Sprintf("[exception] %T: %v", err, err)
	return res
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
