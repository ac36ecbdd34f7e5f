// Package device reads decoded text lines from the Pico's serial port.
package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

const defaultMaxLine = 4096

var (
	// ErrDecode is matched by every *DecodeError.
	ErrDecode = errors.New("line is not valid UTF-8")
	// ErrLineTooLong is returned once for a line exceeding the limit; the rest
	// of that line is discarded.
	ErrLineTooLong = errors.New("line exceeds maximum length")
)

// DecodeError carries the raw bytes of a line that failed strict decoding.
type DecodeError struct {
	Raw []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %d byte line: %v", len(e.Raw), ErrDecode)
}

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// LineSource yields one decoded, trimmed line per call.
type LineSource interface {
	ReadLine(ctx context.Context) (string, error)
	Close() error
}

// LineReader splits a byte stream into lines. The underlying reader may
// return (0, nil) when its read timeout elapses; ReadLine uses that to observe
// ctx while waiting.
type LineReader struct {
	r       io.Reader
	chunk   []byte
	pending []byte
	maxLine int
	discard bool
	err     error
}

func NewLineReader(r io.Reader, maxLine int) *LineReader {
	if maxLine <= 0 {
		maxLine = defaultMaxLine
	}
	return &LineReader{
		r:       r,
		chunk:   make([]byte, 256),
		maxLine: maxLine,
	}
}

// ReadLine blocks until a full line is available, ctx is done, or the stream
// fails. A trailing line without a newline is returned before the stream
// error.
func (lr *LineReader) ReadLine(ctx context.Context) (string, error) {
	for {
		if i := bytes.IndexByte(lr.pending, '\n'); i >= 0 {
			raw := make([]byte, i)
			copy(raw, lr.pending[:i])
			lr.pending = append(lr.pending[:0], lr.pending[i+1:]...)
			if lr.discard {
				lr.discard = false
				continue
			}
			if len(raw) > lr.maxLine {
				return "", ErrLineTooLong
			}
			return decode(raw)
		}

		if lr.discard {
			lr.pending = lr.pending[:0]
		} else if len(lr.pending) > lr.maxLine {
			lr.pending = lr.pending[:0]
			lr.discard = true
			return "", ErrLineTooLong
		}

		if lr.err != nil {
			if len(lr.pending) > 0 {
				raw := lr.pending
				lr.pending = nil
				return decode(raw)
			}
			return "", lr.err
		}

		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := lr.r.Read(lr.chunk)
		lr.pending = append(lr.pending, lr.chunk[:n]...)
		if err != nil {
			lr.err = err
		}
	}
}

func decode(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", &DecodeError{Raw: raw}
	}
	return string(bytes.TrimSpace(raw)), nil
}
