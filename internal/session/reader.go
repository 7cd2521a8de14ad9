package session

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

const readBufferSize = 64 * 1024

// Reader decodes events from a line-delimited JSON stream one line at a time.
//
// Blank lines are skipped. A line that is not valid JSON is reported as a
// *ParseError; the next call continues with the following line, so the
// caller decides whether to skip or abort.
type Reader struct {
	br    *bufio.Reader
	line  int
	seq   int
	queue []Event
	eof   bool
}

// NewReader returns a Reader over r. Lines may be of any length.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, readBufferSize)}
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// Next returns the next event, io.EOF at end of stream, a *ParseError for
// a malformed line, or the context error if ctx is done. Cancellation is
// checked between lines.
func (r *Reader) Next(ctx context.Context) (Event, error) {
	for len(r.queue) == 0 {
		if r.eof {
			return Event{}, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}

		raw, err := r.br.ReadBytes('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Event{}, fmt.Errorf("read line %d: %w", r.line+1, err)
			}
			r.eof = true
			if len(raw) == 0 {
				continue
			}
		}
		r.line++

		raw = bytes.TrimRight(raw, "\r\n")
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}

		events, err := DecodeLine(raw)
		if err != nil {
			return Event{}, &ParseError{Line: r.line, Raw: string(raw), Err: err}
		}
		for i := range events {
			r.seq++
			events[i].Line = r.line
			events[i].Seq = r.seq
		}
		r.queue = events
	}

	ev := r.queue[0]
	r.queue = r.queue[1:]
	return ev, nil
}

// ReadAll drains r, collecting malformed lines instead of stopping on them.
// The returned error is only set for read failures and cancellation.
func ReadAll(ctx context.Context, r io.Reader) ([]Event, []*ParseError, error) {
	rd := NewReader(r)
	var events []Event
	var parseErrs []*ParseError
	for {
		ev, err := rd.Next(ctx)
		if err == nil {
			events = append(events, ev)
			continue
		}
		if errors.Is(err, io.EOF) {
			return events, parseErrs, nil
		}
		var pe *ParseError
		if errors.As(err, &pe) {
			parseErrs = append(parseErrs, pe)
			continue
		}
		return events, parseErrs, err
	}
}
