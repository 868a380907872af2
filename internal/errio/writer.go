// Package errio wraps an io.Writer with a sticky first error, so repeated
// writes to a program's output sink after a failure don't need to be
// checked individually.
package errio

import (
	"io"

	"github.com/pkg/errors"
)

// Writer tracks the first error encountered by Write and short-circuits
// every subsequent call, returning it again.
type Writer struct {
	w   io.Writer
	Err error
}

func (w *Writer) Write(p []byte) (n int, err error) {
	if w.Err != nil {
		return 0, w.Err
	}
	n, err = w.w.Write(p)
	if err != nil {
		w.Err = errors.Wrap(err, "write failed")
	}
	return n, w.Err
}

// New wraps w in a Writer.
func New(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Unwrap returns the wrapped io.Writer, for callers that need to probe it
// for optional interfaces (e.g. Flush).
func (w *Writer) Unwrap() io.Writer { return w.w }
