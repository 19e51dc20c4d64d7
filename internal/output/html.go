package output

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/mhalverson/macmaint/internal/types"
)

//go:embed assets
var assets embed.FS

// actionsNotRun closes the report with the maintenance actions it
// deliberately never performs.
const actionsNotRun = `These are common maintenance actions that this report does NOT run automatically:

- Install macOS updates:  sudo softwareupdate -ia --verbose
- Install + reboot:       sudo softwareupdate -iaR --verbose
- Upgrade Homebrew:       brew upgrade
- Cleanup Homebrew:       brew cleanup -s
- Empty Trash:            rm -rf ~/.Trash/*
- Reboot:                 sudo shutdown -r now

Run them manually if/when you want to perform changes.`

// Stylesheet returns the report stylesheet, written verbatim as the .css
// sibling of every generated report.
func Stylesheet() []byte {
	b, err := assets.ReadFile("assets/style.css")
	if err != nil {
		// Unreachable: the asset is embedded at build time.
		panic(err)
	}
	return b
}

// script returns the inline page JavaScript.
func script() string {
	b, err := assets.ReadFile("assets/app.js")
	if err != nil {
		// Unreachable: the asset is embedded at build time.
		panic(err)
	}
	return string(b)
}

// renderHelp converts the embedded help Markdown into the dialog body HTML.
func renderHelp() (string, error) {
	src, err := assets.ReadFile("assets/help.md")
	if err != nil {
		// Unreachable: the asset is embedded at build time.
		panic(err)
	}
	var buf bytes.Buffer
	if err := goldmark.New().Convert(src, &buf); err != nil {
		return "", fmt.Errorf("failed to render help text: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// HTMLFormatter writes the interactive report page. All behavior is inline
// and the stylesheet is referenced by bare file name, so the page works from
// any directory with no network access.
type HTMLFormatter struct {
	// CSSName is the stylesheet file name referenced from <head>.
	CSSName string
}

// Write renders the full report page.
func (f *HTMLFormatter) Write(w io.Writer, report *types.Report) error {
	esc := html.EscapeString

	helpBody, err := renderHelp()
	if err != nil {
		return err
	}

	var tocItems []string
	for _, s := range report.Sections {
		tocItems = append(tocItems, fmt.Sprintf(
			`<div class="tocitem %s"><a href="#%s">%s</a><span class="badge">%s</span></div>`,
			s.Status(), esc(s.ID), esc(s.Title), esc(s.Meta()),
		))
	}

	var sections []string
	for _, s := range report.Sections {
		sections = append(sections, renderSection(s))
	}

	osLine := report.Host.OS
	if report.Host.OSVersion != "" {
		osLine += " " + report.Host.OSVersion
	}
	if report.Host.Arch != "" {
		osLine += " (" + report.Host.Arch + ")"
	}

	page := []string{
		"<!doctype html>",
		`<html lang="en">`,
		"<head>",
		`  <meta charset="utf-8" />`,
		`  <meta name="viewport" content="width=device-width, initial-scale=1" />`,
		"  <title>macOS Maintenance Report</title>",
		fmt.Sprintf(`  <link rel="stylesheet" href="%s" />`, esc(f.CSSName)),
		"</head>",
		"<body>",
		`  <div class="wrap">`,
		"    <header>",
		"      <h1>macOS Maintenance Report</h1>",
		`      <div class="meta">`,
		fmt.Sprintf("        <div><b>Host:</b> %s</div>", esc(report.Host.Hostname)),
		fmt.Sprintf("        <div><b>Generated:</b> %s</div>", esc(report.Timestamp.Format(time.RFC3339))),
		fmt.Sprintf("        <div><b>User:</b> %s</div>", esc(report.Host.Username)),
		fmt.Sprintf("        <div><b>OS:</b> %s</div>", esc(osLine)),
		fmt.Sprintf("        <div><b>macmaint:</b> %s</div>", esc(report.Version)),
		fmt.Sprintf("        <div><b>Run ID:</b> %s</div>", esc(report.RunID)),
		"      </div>",
		`      <div class="toolbar">`,
		`        <div class="left">`,
		`          <input id="search" type="search" placeholder="Filter by check name or command…" autocomplete="off" />`,
		`          <div class="pillbar">`,
		`            <label class="toggle"><input id="toggle-ok" type="checkbox" checked /> OK</label>`,
		`            <label class="toggle"><input id="toggle-warn" type="checkbox" checked /> WARN</label>`,
		`            <label class="toggle"><input id="toggle-bad" type="checkbox" checked /> BAD</label>`,
		`            <label class="toggle"><input id="toggle-skipped" type="checkbox" checked /> SKIPPED</label>`,
		"          </div>",
		"        </div>",
		`        <div class="actions">`,
		`          <button id="help-btn" class="btn" type="button">Help</button>`,
		`          <button id="expand-all" class="btn" type="button">Expand all</button>`,
		`          <button id="collapse-all" class="btn" type="button">Collapse all</button>`,
		"        </div>",
		"      </div>",
		`      <div class="summary">`,
		fmt.Sprintf(`        <div class="card"><div class="k">Total checks</div><div class="v">%d</div></div>`, report.Summary.TotalChecks),
		fmt.Sprintf(`        <div class="card ok"><div class="k">OK</div><div class="v">%d</div></div>`, report.Summary.OK),
		fmt.Sprintf(`        <div class="card warn"><div class="k">WARN</div><div class="v">%d</div></div>`, report.Summary.Warn),
		fmt.Sprintf(`        <div class="card bad"><div class="k">BAD</div><div class="v">%d</div></div>`, report.Summary.Bad),
		fmt.Sprintf(`        <div class="card"><div class="k">Skipped</div><div class="v">%d</div></div>`, report.Summary.Skipped),
		fmt.Sprintf(`        <div class="card"><div class="k">Runtime (sum)</div><div class="v">%.1fs</div></div>`, float64(report.Summary.DurationMS)/1000),
		"      </div>",
		"    </header>",
		`    <div class="toc"><h2>Sections</h2><div class="tocgrid">` + strings.Join(tocItems, "\n") + "</div></div>",
		strings.Join(sections, "\n"),
		`    <section><h2>Actions (Not Run)</h2><div class="block"><pre>` + esc(actionsNotRun) + "</pre></div></section>",
		"    <footer>Tip: re-run with <code>--include-heavy</code>, <code>--include-network</code>, <code>--include-profiler</code>, and/or <code>--include-logs</code> for deeper checks.</footer>",
		`    <div id="help-modal" class="modal" role="dialog" aria-modal="true" aria-label="Report help">`,
		`      <div class="dialog">`,
		`        <div class="dialoghead">`,
		"          <h3>How to run this report</h3>",
		`          <button id="help-close" class="btn" type="button">Close <span class="kbd">(Esc)</span></button>`,
		"        </div>",
		`        <div class="dialogbody">`,
		helpBody,
		"        </div>",
		"      </div>",
		"    </div>",
		"    <script>" + script() + "</script>",
		"  </div>",
		"</body>",
		"</html>",
	}

	_, err = io.WriteString(w, strings.Join(page, "\n"))
	return err
}

// renderSection renders one section: anchor, heading with counts, and one
// collapsible block per check.
func renderSection(s types.Section) string {
	esc := html.EscapeString

	var blocks []string
	for _, r := range s.Results {
		blocks = append(blocks, renderResult(r))
	}

	return strings.Join([]string{
		fmt.Sprintf(`<section id="%s" data-status="%s">`, esc(s.ID), s.Status()),
		"  <h2>",
		fmt.Sprintf("    <span>%s</span>", esc(s.Title)),
		fmt.Sprintf(`    <span class="sectionmeta">%s</span>`, esc(s.Meta())),
		"  </h2>",
		strings.Join(blocks, "\n"),
		"</section>",
	}, "\n")
}

// renderResult renders one check as a <details> block. Non-ok checks start
// expanded so problems are visible without clicking.
func renderResult(r types.CheckResult) string {
	esc := html.EscapeString
	status, badgeText := types.Classify(r)

	badges := []string{
		fmt.Sprintf(`<span class="badge %s">%s</span>`, status, esc(badgeText)),
		fmt.Sprintf(`<span class="badge">%s</span>`, esc(fmt.Sprintf("%.2fs", r.Duration.Seconds()))),
	}
	if r.SkipReason != "" {
		badges = append(badges, fmt.Sprintf(`<span class="badge warn">%s</span>`, esc(r.SkipReason)))
	}

	tags := []string{string(status)}
	if r.SkipReason != "" {
		tags = append(tags, "skipped")
	}
	switch badgeText {
	case "TIMEOUT":
		tags = append(tags, "timeout")
	case "EXC":
		tags = append(tags, "exc")
	case "MISSING":
		tags = append(tags, "missing")
	}

	open := ""
	if status != types.StatusOK {
		open = "open"
	}

	stdout := "(no output)"
	if r.Stdout != "" {
		stdout = esc(r.Stdout)
	}

	stderrBlock := ""
	if r.Stderr != "" {
		stderrBlock = fmt.Sprintf("    <div class=\"subhead\">stderr</div>\n    <pre>%s</pre>", esc(r.Stderr))
	}

	return strings.Join([]string{
		`<div class="block">`,
		fmt.Sprintf(`  <details class="cmdblock" data-status="%s" data-tags="%s" %s>`, status, esc(strings.Join(tags, " ")), open),
		"    <summary>",
		`      <div class="sumleft">`,
		fmt.Sprintf(`        <div class="titleline">%s</div>`, esc(r.Title)),
		`        <div class="cmdinline">`,
		fmt.Sprintf(`          <code class="cmd cmd--summary">%s</code>`, esc(r.Command)),
		fmt.Sprintf(`          <button class="copy" type="button" data-copy="%s">Copy</button>`, esc(r.Command)),
		"        </div>",
		"      </div>",
		`      <div class="sumright">`,
		fmt.Sprintf(`        <div class="badges">%s</div>`, strings.Join(badges, "")),
		"      </div>",
		"    </summary>",
		fmt.Sprintf("    <pre>%s</pre>", stdout),
		stderrBlock,
		"  </details>",
		"</div>",
	}, "\n")
}
