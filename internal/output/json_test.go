package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhalverson/macmaint/internal/types"
)

func TestJSONFormatter_RoundTrip(t *testing.T) {
	report := newTestReport()
	var buf bytes.Buffer
	f := &JSONFormatter{}

	require.NoError(t, f.Write(&buf, report))

	var decoded types.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, report.Version, decoded.Version)
	assert.Equal(t, report.RunID, decoded.RunID)
	assert.Equal(t, report.Host.Hostname, decoded.Host.Hostname)
	assert.Equal(t, report.Summary.TotalChecks, decoded.Summary.TotalChecks)
	assert.Equal(t, report.Summary.Bad, decoded.Summary.Bad)
	assert.Len(t, decoded.Sections, len(report.Sections))
	assert.Equal(t, report.Sections[0].Results[0].Stdout, decoded.Sections[0].Results[0].Stdout)
}

func TestJSONFormatter_FieldShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Write(&buf, newTestReport()))
	out := buf.String()

	// Durations serialize as integer milliseconds only.
	assert.Contains(t, out, `"duration_ms"`)
	assert.NotContains(t, out, `"Duration"`)

	// A skipped check has no observable exit code.
	assert.Contains(t, out, `"exit_code": null`)

	// Escaping is off so command lines stay readable.
	assert.Contains(t, out, `du -sh ~/.Trash 2>/dev/null`)
}
