// Package output renders a completed maintenance report: an interactive,
// self-contained HTML page with its stylesheet sibling, plus a JSON form for
// machine consumption.
package output

import (
	"io"

	"github.com/mhalverson/macmaint/internal/types"
)

// Formatter writes a report to the given writer.
type Formatter interface {
	Write(w io.Writer, report *types.Report) error
}
