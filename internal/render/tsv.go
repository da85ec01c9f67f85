// Package render formats trial records as tab-delimited text.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Writer emits a header row, data rows and a blank terminator line. A
// Writer over a nil io.Writer discards everything. The first write error is
// kept and every later call becomes a no-op.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter wraps out. out may be nil.
func NewWriter(out io.Writer) *Writer {
	if out == nil {
		return &Writer{}
	}
	return &Writer{w: bufio.NewWriter(out)}
}

// Enabled reports whether records go anywhere.
func (w *Writer) Enabled() bool { return w.w != nil }

// Header writes the column names prefixed with "# " so plotting tools skip it.
func (w *Writer) Header(cols []string) {
	w.line("# " + strings.Join(cols, "\t"))
}

// Record writes one tab-delimited row.
func (w *Writer) Record(vals ...any) {
	if !w.Enabled() || w.err != nil {
		return
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = FormatValue(v)
	}
	w.line(strings.Join(parts, "\t"))
}

// End writes the blank line that terminates a batch and flushes.
func (w *Writer) End() {
	w.line("")
	w.Flush()
}

// Flush pushes buffered rows to the underlying writer.
func (w *Writer) Flush() {
	if !w.Enabled() || w.err != nil {
		return
	}
	w.err = w.w.Flush()
}

// Err returns the first write error, if any.
func (w *Writer) Err() error { return w.err }

func (w *Writer) line(s string) {
	if !w.Enabled() || w.err != nil {
		return
	}
	if _, err := w.w.WriteString(s); err != nil {
		w.err = err
		return
	}
	w.err = w.w.WriteByte('\n')
}

// FormatValue renders integers verbatim and floats with six significant
// digits in the shortest of fixed or exponent notation.
func FormatValue(v any) string {
	switch x := v.(type) {
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'g', 6, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', 6, 32)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
