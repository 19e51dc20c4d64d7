package output

import (
	"encoding/json"
	"io"

	"github.com/mhalverson/macmaint/internal/types"
)

// JSONFormatter writes a report as a single JSON object.
type JSONFormatter struct{}

// Write renders the full report as pretty-printed JSON. HTML escaping is off
// so shell commands stay readable.
func (f *JSONFormatter) Write(w io.Writer, report *types.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(report)
}
