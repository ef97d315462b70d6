package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// TeeWriter copies every log line to all of its outputs. A line counts as
// written if at least one output took it, so a full disk does not silence
// stdout. Errors of the failing outputs are still returned.
type TeeWriter struct {
	outputs []io.Writer
}

// NewTeeWriter skips nil outputs. Without outputs lines are discarded.
func NewTeeWriter(outputs ...io.Writer) *TeeWriter {
	tw := &TeeWriter{}
	for _, w := range outputs {
		if w != nil {
			tw.outputs = append(tw.outputs, w)
		}
	}
	return tw
}

func (tw *TeeWriter) Outputs() int {
	return len(tw.outputs)
}

func (tw *TeeWriter) Write(p []byte) (int, error) {
	var err error
	written := len(tw.outputs) == 0
	for _, w := range tw.outputs {
		n, werr := w.Write(p)
		if werr == nil && n < len(p) {
			werr = io.ErrShortWrite
		}
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		written = true
	}
	if !written {
		return 0, err
	}
	return len(p), err
}
