package stats

import (
	"bufio"
	"context"
	"io"
)

// WriterSink writes carbon lines to an io.Writer, one per line.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink creates a WriterSink.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Write implements Sink.
func (s *WriterSink) Write(_ context.Context, lines []string) error {
	bw := bufio.NewWriter(s.w)
	for _, l := range lines {
		if _, err := bw.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
