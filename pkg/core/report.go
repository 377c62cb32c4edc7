package core

import (
	"fmt"
	"io"
	"strings"
)

const reportSeparator = "-----------------------"

// WriteReport prints the end-of-run summary: the converted count and, when
// present, the outputs that failed validation.
func WriteReport(w io.Writer, r *RunResult) error {
	var b strings.Builder
	b.WriteString(reportSeparator + "\n")
	fmt.Fprintf(&b, "# %d images have been converted successfully to JP2\n", r.Total)
	if len(r.Invalid) > 0 {
		b.WriteString("# These images are not valid JP2:\n")
		b.WriteString(strings.Join(r.Invalid, "\n"))
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
