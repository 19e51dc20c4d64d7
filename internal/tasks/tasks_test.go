package tasks

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mhalverson/macmaint/internal/engine"
	"github.com/mhalverson/macmaint/internal/logging"
	"github.com/mhalverson/macmaint/internal/types"
)

// scriptRunner answers RunArgv calls from a queue of canned results keyed by
// the exact argv. The last queued result for a key sticks, so a single
// response can serve repeated calls. Unknown argvs get a zero result.
type scriptRunner struct {
	calls [][]string
	queue map[string][]engine.ArgvResult
}

func newScriptRunner() *scriptRunner {
	return &scriptRunner{queue: map[string][]engine.ArgvResult{}}
}

func (s *scriptRunner) on(res engine.ArgvResult, argv ...string) {
	key := strings.Join(argv, "\x00")
	s.queue[key] = append(s.queue[key], res)
}

func (s *scriptRunner) Run(c engine.Check) types.CheckResult {
	return types.CheckResult{Title: c.Title, Command: c.Command}
}

func (s *scriptRunner) RunArgv(a engine.Argv) engine.ArgvResult {
	s.calls = append(s.calls, a.Argv)
	key := strings.Join(a.Argv, "\x00")
	q := s.queue[key]
	if len(q) == 0 {
		return engine.ArgvResult{}
	}
	res := q[0]
	if len(q) > 1 {
		s.queue[key] = q[1:]
	}
	return res
}

// invoked counts recorded calls whose argv starts with the given prefix.
func (s *scriptRunner) invoked(prefix ...string) int {
	n := 0
	for _, call := range s.calls {
		if len(call) < len(prefix) {
			continue
		}
		match := true
		for i, p := range prefix {
			if call[i] != p {
				match = false
				break
			}
		}
		if match {
			n++
		}
	}
	return n
}

func testEnv(t *testing.T, mode Mode, r engine.Runner) (*Env, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return &Env{
		Mode:   mode,
		Home:   t.TempDir(),
		Log:    logging.New(&buf, false),
		Runner: r,
		Sleep:  func(time.Duration) {},
	}, &buf
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"report", "dry-run", "apply"} {
		m, err := ParseMode(valid)
		assert.NoError(t, err)
		assert.Equal(t, Mode(valid), m)
	}

	_, err := ParseMode("yolo")
	assert.ErrorContains(t, err, `invalid mode "yolo"`)
}

func TestNames_DispatchOrder(t *testing.T) {
	assert.Equal(t, []string{
		"report-html",
		"brew-maintenance",
		"find-orphans",
		"archive-orphans",
		"cleanup-archives",
		"chrome-cleanup",
		"copy-speed-test",
	}, Names())
}
