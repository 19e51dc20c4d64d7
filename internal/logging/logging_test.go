package logging

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_LineFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)

	log.Infof("wrote report to %s", "/tmp/report.html")

	line := buf.String()
	assert.Regexp(t, regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[INFO\] wrote report to /tmp/report\.html\n$`), line)
}

func TestLogger_DebugHiddenByDefault(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)

	log.Debugf("noisy detail")

	assert.Empty(t, buf.String())
}

func TestLogger_DebugShownWhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, true)

	log.Debugf("noisy detail")

	assert.Contains(t, buf.String(), "[DEBUG] noisy detail")
}

func TestLogger_WarnAndErrorLabels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)

	log.Warnf("would delete: %s", "x.zip")
	log.Errorf("task failed: %v", "boom")

	out := buf.String()
	assert.Contains(t, out, "[WARN] would delete: x.zip")
	assert.Contains(t, out, "[ERROR] task failed: boom")
}

func TestLogger_NoColorForNonTerminalWriter(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)

	log.Infof("plain")

	assert.False(t, strings.ContainsRune(buf.String(), 0x1b))
}

func TestLogger_NilSafe(t *testing.T) {
	var log *Logger
	log.Infof("must not panic")

	log = New(nil, false)
	log.Infof("must not panic either")
}
