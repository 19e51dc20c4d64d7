package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhalverson/macmaint/internal/types"
)

func renderPage(t *testing.T, report *types.Report) string {
	t.Helper()
	var buf bytes.Buffer
	f := &HTMLFormatter{CSSName: "mac_maintenance_report_20260115_103000.css"}
	require.NoError(t, f.Write(&buf, report))
	return buf.String()
}

func TestHTMLFormatter_Write_PageStructure(t *testing.T) {
	page := renderPage(t, newTestReport())

	assert.True(t, strings.HasPrefix(page, "<!doctype html>"))
	assert.Contains(t, page, `<link rel="stylesheet" href="mac_maintenance_report_20260115_103000.css" />`)
	assert.Contains(t, page, "<h1>macOS Maintenance Report</h1>")
	assert.Contains(t, page, "<div><b>Host:</b> mac.local</div>")
	assert.Contains(t, page, "<div><b>User:</b> jpaul</div>")
	assert.Contains(t, page, "<div><b>OS:</b> darwin 15.1 (arm64)</div>")
	assert.Contains(t, page, "<div><b>Run ID:</b> 6e1f3c1e-8b30-4a8e-9a7c-2f4ab1fa9e11</div>")
	assert.True(t, strings.HasSuffix(page, "</html>"))
}

func TestHTMLFormatter_Write_SummaryCards(t *testing.T) {
	page := renderPage(t, newTestReport())

	assert.Contains(t, page, `<div class="k">Total checks</div><div class="v">4</div>`)
	assert.Contains(t, page, `<div class="card ok"><div class="k">OK</div><div class="v">1</div>`)
	assert.Contains(t, page, `<div class="card warn"><div class="k">WARN</div><div class="v">2</div>`)
	assert.Contains(t, page, `<div class="card bad"><div class="k">BAD</div><div class="v">1</div>`)
	assert.Contains(t, page, `<div class="k">Skipped</div><div class="v">1</div>`)
	assert.Contains(t, page, `<div class="k">Runtime (sum)</div><div class="v">0.6s</div>`)
}

func TestHTMLFormatter_Write_TOCLinksSections(t *testing.T) {
	page := renderPage(t, newTestReport())

	assert.Contains(t, page, `<a href="#system">System</a>`)
	assert.Contains(t, page, `<a href="#disk-storage">Disk &amp; Storage</a>`)
	assert.Contains(t, page, `<section id="system" data-status="warn">`)
	assert.Contains(t, page, `<section id="disk-storage" data-status="bad">`)
	assert.Contains(t, page, "2 checks • 1 ok • 1 warn • 0 bad")
	assert.Contains(t, page, "2 checks • 0 ok • 1 warn • 1 bad")
}

func TestHTMLFormatter_Write_DetailsCloseTheirBlock(t *testing.T) {
	page := renderPage(t, newTestReport())

	// Every check block ends with </details> directly before its wrapping div.
	assert.Equal(t, 4, strings.Count(page, "  </details>\n</div>"))
}

func TestHTMLFormatter_Write_OpenStateFollowsStatus(t *testing.T) {
	page := renderPage(t, newTestReport())

	// ok checks start collapsed, everything else starts open
	assert.Contains(t, page, `data-status="ok" data-tags="ok" >`)
	assert.Contains(t, page, `data-tags="warn skipped" open>`)
	assert.Contains(t, page, `data-status="bad" data-tags="bad" open>`)
}

func TestHTMLFormatter_Write_BadgesAndSkipReason(t *testing.T) {
	page := renderPage(t, newTestReport())

	assert.Contains(t, page, `<span class="badge ok">OK</span>`)
	assert.Contains(t, page, `<span class="badge warn">SKIPPED</span>`)
	assert.Contains(t, page, `<span class="badge warn">Use --include-profiler</span>`)
	assert.Contains(t, page, `<span class="badge bad">RC=2</span>`)
	assert.Contains(t, page, `<span class="badge">0.12s</span>`)
}

func TestHTMLFormatter_Write_NoOutputPlaceholder(t *testing.T) {
	page := renderPage(t, newTestReport())

	assert.Contains(t, page, "<pre>(no output)</pre>")
	assert.Contains(t, page, `<div class="subhead">stderr</div>`)
}

func TestHTMLFormatter_Write_EscapesUntrustedText(t *testing.T) {
	report := newTestReport()
	report.Sections[0].Results[0].Command = `echo "<script>alert(1)</script>"`
	report.Sections[0].Results[0].Stdout = `<img src=x onerror=alert(1)>`

	page := renderPage(t, report)

	assert.NotContains(t, page, `echo "<script>`)
	assert.NotContains(t, page, "<img src=x")
	assert.Contains(t, page, "echo &#34;&lt;script&gt;")
	assert.Contains(t, page, "&lt;img src=x onerror=alert(1)&gt;")
}

func TestHTMLFormatter_Write_InlinesScriptAndHelp(t *testing.T) {
	page := renderPage(t, newTestReport())

	assert.Contains(t, page, "addHaystacks();")
	assert.Contains(t, page, "<h3>How to run this report</h3>")
	assert.Contains(t, page, "macmaint --mode report --task report-html")
	assert.Contains(t, page, "Actions (Not Run)")
	assert.Contains(t, page, "sudo softwareupdate -ia --verbose")
}

func TestStylesheet_CarriesReportStyles(t *testing.T) {
	css := string(Stylesheet())

	assert.Contains(t, css, ".cmdblock")
	assert.Contains(t, css, ".tocitem")
	assert.Contains(t, css, "--warn: #fbbf24;")
}
