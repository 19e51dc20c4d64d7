package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mhalverson/macmaint/internal/types"
)

// sbinPathDirs are guaranteed onto PATH before spawning; several diagnostic
// binaries (fdesetup, spctl, tmutil) live only in the sbin directories.
const sbinPathDirs = "/usr/sbin:/sbin"

// waitDelay bounds how long we wait on pipe drain after a kill, so a
// descendant process holding the output pipes cannot hang the runner.
const waitDelay = 5 * time.Second

// Check describes one shell command for the runner.
type Check struct {
	// Title is the human-readable check name.
	Title string

	// Command is the shell command line, run via /bin/sh -c.
	Command string

	// Timeout overrides the runner default when non-zero.
	Timeout time.Duration

	// SkipReason, when set, short-circuits execution entirely.
	SkipReason string
}

// Argv describes one direct invocation without shell interpretation.
type Argv struct {
	// Argv is the command and its arguments.
	Argv []string

	// Dir is the working directory; empty inherits the process directory.
	Dir string

	// Timeout bounds the run when non-zero.
	Timeout time.Duration

	// Stream sends output to the terminal instead of capturing it
	// (long-running copies show their own progress).
	Stream bool
}

// ArgvResult is the captured outcome of a direct invocation.
type ArgvResult struct {
	// Duration is the wall time.
	Duration time.Duration

	// ExitCode is the process exit code; zero unless the process ran to a
	// non-zero exit.
	ExitCode int

	// Stdout and Stderr hold the captured streams, control sequences
	// stripped. Both are empty when Stream was set.
	Stdout string
	Stderr string

	// Err is set on launch failure or timeout.
	Err error
}

// Runner is the single execution seam shared by the check battery, the
// built-in probes, and the maintenance tasks. Implementations never panic;
// failure detail lands in the returned records.
type Runner interface {
	Run(c Check) types.CheckResult
	RunArgv(a Argv) ArgvResult
}

// ShellRunner executes commands with a per-command deadline and caps each
// captured stream to the configured limits.
type ShellRunner struct {
	// Timeout is the default per-command deadline.
	Timeout time.Duration

	// MaxChars caps each captured stream's byte length.
	MaxChars int

	// MaxLines caps each captured stream's line count.
	MaxLines int

	// Shell overrides the shell binary; empty means /bin/sh.
	Shell string
}

// Run executes one check and always returns a fully formed result; no error
// crosses this boundary.
func (r *ShellRunner) Run(c Check) types.CheckResult {
	if c.SkipReason != "" {
		return types.CheckResult{
			Title:      c.Title,
			Command:    c.Command,
			SkipReason: c.SkipReason,
		}
	}

	timeout := r.Timeout
	if c.Timeout > 0 {
		timeout = c.Timeout
	}

	shell := r.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, shell, "-c", c.Command)
	cmd.Env = withSbinPath(os.Environ())
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	res := types.CheckResult{
		Title:      c.Title,
		Command:    c.Command,
		Duration:   elapsed,
		DurationMS: elapsed.Milliseconds(),
	}

	out, outCut := Truncate(StripANSI(stdout.String()), r.MaxChars, r.MaxLines)
	errOut, errCut := Truncate(StripANSI(stderr.String()), r.MaxChars, r.MaxLines)

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		// Exit code stays nil; partial output survives with a marker.
		if out != "" {
			out += "\n\n[command timed out]"
		} else {
			out = "[command timed out]"
		}
		if errOut != "" {
			errOut += "\n\n[command timed out]"
		}
	case err != nil && !isExitError(err):
		// The shell itself could not be started; nothing ran.
		out = ""
		errOut = fmt.Sprintf("[exception] %T: %v", err, err)
	default:
		code := 0
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		res.ExitCode = &code
		if outCut {
			out += "\n\n[output truncated]"
		}
		if errCut {
			errOut += "\n\n[stderr truncated]"
		}
	}

	res.Stdout = out
	res.Stderr = errOut
	return res
}

// RunArgv executes an argv vector directly, with ANSI stripping but no
// truncation. Probes and maintenance tasks use it for structured calls whose
// output they parse.
func (r *ShellRunner) RunArgv(a Argv) ArgvResult {
	if len(a.Argv) == 0 {
		return ArgvResult{Err: fmt.Errorf("empty argv")}
	}

	ctx := context.Background()
	cancel := func() {}
	if a.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(ctx, a.Argv[0], a.Argv[1:]...)
	cmd.Dir = a.Dir
	cmd.Env = withSbinPath(os.Environ())
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	if a.Stream {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	start := time.Now()
	err := cmd.Run()

	res := ArgvResult{
		Duration: time.Since(start),
		Stdout:   StripANSI(stdout.String()),
		Stderr:   StripANSI(stderr.String()),
	}

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		res.Err = fmt.Errorf("%s timed out after %v: %w", a.Argv[0], a.Timeout, context.DeadlineExceeded)
	case err != nil && !isExitError(err):
		res.Err = err
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
	}
	return res
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// withSbinPath returns env with /usr/sbin:/sbin guaranteed on PATH.
func withSbinPath(env []string) []string {
	for i, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			if !strings.Contains(kv, sbinPathDirs) {
				env[i] = "PATH=" + sbinPathDirs + ":" + kv[len("PATH="):]
			}
			return env
		}
	}
	return append(env, "PATH="+sbinPathDirs)
}
