package types

import (
	"strings"
	"testing"
)

// FuzzClassify exercises the two rules that hold for arbitrary stderr
// content: exit code 0 always classifies ok, and a skip reason always wins.
func FuzzClassify(f *testing.F) {
	f.Add("", 0)
	f.Add("Operation not permitted", 1)
	f.Add("[exception] boom", 127)
	f.Add(strings.Repeat("x", 4096), 2)
	f.Add("permission denied", -9)

	f.Fuzz(func(t *testing.T, stderr string, code int) {
		rc := code
		st, badge := Classify(CheckResult{ExitCode: &rc, Stderr: stderr})
		if code == 0 && (st != StatusOK || badge != "OK") {
			t.Errorf("exit 0 with stderr %q = (%q, %q), want (ok, OK)", stderr, st, badge)
		}

		st, badge = Classify(CheckResult{ExitCode: &rc, Stderr: stderr, SkipReason: "gated"})
		if st != StatusWarn || badge != "SKIPPED" {
			t.Errorf("skipped check = (%q, %q), want (warn, SKIPPED)", st, badge)
		}
	})
}

// FuzzSlugify checks slug shape for arbitrary titles: non-empty, no uppercase,
// no doubled or edge hyphens, and stable under re-slugging.
func FuzzSlugify(f *testing.F) {
	f.Add("Disk & Storage")
	f.Add("")
	f.Add("---")
	f.Add("Backups (Time Machine)")
	f.Add("ümlaut Ünicode")

	f.Fuzz(func(t *testing.T, title string) {
		s := Slugify(title)
		if s == "" {
			t.Errorf("Slugify(%q) produced an empty slug", title)
		}
		if s != strings.ToLower(s) {
			t.Errorf("Slugify(%q) = %q contains uppercase", title, s)
		}
		if strings.Contains(s, "--") || strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") {
			t.Errorf("Slugify(%q) = %q has malformed hyphens", title, s)
		}
		if again := Slugify(s); again != s {
			t.Errorf("Slugify not stable: %q -> %q -> %q", title, s, again)
		}
	})
}
