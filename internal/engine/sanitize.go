package engine

import (
	"regexp"
	"strings"
)

// ansiEscape matches CSI sequences, OSC sequences (BEL or ST terminated), and
// two-byte escapes. Several diagnostic tools color their output even when not
// attached to a terminal.
var ansiEscape = regexp.MustCompile("\x1b\\[[0-?]*[ -/]*[@-~]|\x1b\\][^\x07]*(?:\x07|\x1b\\\\)|\x1b[@-_]")

// StripANSI removes terminal control sequences so captured output renders
// cleanly in the report.
func StripANSI(s string) string {
	if !strings.ContainsRune(s, 0x1b) {
		return s
	}
	return ansiEscape.ReplaceAllString(s, "")
}

// shellSafe matches strings that need no quoting on a shell command line.
var shellSafe = regexp.MustCompile(`^[A-Za-z0-9@%+=:,./_-]+$`)

// ShellQuote wraps s in single quotes for safe interpolation into a
// /bin/sh command line.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if shellSafe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Truncate caps text to a line budget first, then a byte budget, normalizing
// line endings on the way. The bool reports whether anything was cut.
// Re-truncating already-truncated text with the same limits changes nothing.
func Truncate(text string, maxChars, maxLines int) (string, bool) {
	truncated := false

	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	normalized = strings.TrimSuffix(normalized, "\n")

	lines := strings.Split(normalized, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		truncated = true
	}

	out := strings.Join(lines, "\n")
	if len(out) > maxChars {
		out = strings.TrimRight(out[:maxChars], "\n")
		truncated = true
	}
	return out, truncated
}
