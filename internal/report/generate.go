// Package report orchestrates the diagnostic check battery and writes the
// resulting HTML report with its sibling stylesheet.
package report

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mhalverson/macmaint/internal/engine"
	"github.com/mhalverson/macmaint/internal/hostinfo"
	"github.com/mhalverson/macmaint/internal/logging"
	"github.com/mhalverson/macmaint/internal/output"
	"github.com/mhalverson/macmaint/internal/types"
)

// baseName is the shared stem of the report files; the run timestamp is
// appended to it.
const baseName = "mac_maintenance_report_"

// Options configures a report run.
type Options struct {
	// OutDir is the directory the report files are written to. It is
	// created if missing.
	OutDir string

	// IncludeNetwork enables checks that reach the network.
	IncludeNetwork bool

	// IncludeHeavy enables long-running disk scans.
	IncludeHeavy bool

	// IncludeProfiler enables the slower system_profiler checks.
	IncludeProfiler bool

	// IncludeLogs enables unified log queries.
	IncludeLogs bool

	// Timeout is the per-check ceiling; slow checks raise it to their own
	// floor.
	Timeout time.Duration

	// MaxChars and MaxLines cap captured output per stream.
	MaxChars int
	MaxLines int

	// JSON also writes a machine-readable sibling next to the HTML file.
	JSON bool

	// Version is stamped into the report header.
	Version string

	// Home overrides the home directory used by home-relative checks.
	// Empty means the current user's home.
	Home string

	// Runner executes the checks. Nil means a real shell runner built from
	// Timeout, MaxChars and MaxLines.
	Runner engine.Runner

	// Log receives progress lines. Nil is allowed and silences them.
	Log *logging.Logger
}

// Generate runs the full battery and writes the HTML report, its stylesheet
// and, when requested, the JSON sibling. It returns the HTML file path.
func Generate(opts Options) (string, error) {
	home := opts.Home
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		home = h
	}

	runner := opts.Runner
	if runner == nil {
		runner = &engine.ShellRunner{
			Timeout:  opts.Timeout,
			MaxChars: opts.MaxChars,
			MaxLines: opts.MaxLines,
		}
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %q: %w", opts.OutDir, err)
	}

	now := time.Now()
	base := filepath.Join(opts.OutDir, baseName+now.Format("20060102_150405"))
	htmlPath := base + ".html"
	cssPath := base + ".css"

	opts.Log.Infof("Collecting system diagnostics...")

	_, lookErr := exec.LookPath("brew")
	sections := buildSections(runner, opts, home, lookErr == nil)

	rep := &types.Report{
		Version:   opts.Version,
		RunID:     uuid.NewString(),
		Timestamp: now,
		Host:      hostinfo.Detect(),
		Summary:   types.Summarize(sections),
		Sections:  sections,
	}

	var buf bytes.Buffer
	form := &output.HTMLFormatter{CSSName: filepath.Base(cssPath)}
	if err := form.Write(&buf, rep); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	if err := os.WriteFile(cssPath, output.Stylesheet(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write stylesheet: %w", err)
	}
	if err := os.WriteFile(htmlPath, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	if opts.JSON {
		jsonPath := base + ".json"
		var jbuf bytes.Buffer
		if err := (&output.JSONFormatter{}).Write(&jbuf, rep); err != nil {
			return "", fmt.Errorf("failed to render JSON report: %w", err)
		}
		if err := os.WriteFile(jsonPath, jbuf.Bytes(), 0o644); err != nil {
			return "", fmt.Errorf("failed to write JSON report: %w", err)
		}
		opts.Log.Infof("JSON report: %s", jsonPath)
	}

	opts.Log.Infof("Report written: %s", htmlPath)
	opts.Log.Infof("Stylesheet: %s", cssPath)

	return htmlPath, nil
}
