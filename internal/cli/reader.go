package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when a read is abandoned because its
// context ended.
var ErrInputCancelled = errors.New("input canceled")

// LineReader reads lines from an input stream without blocking past the
// caller's context. A single goroutine pulls lines from the stream and hands
// them over one at a time, so a line that arrives after a canceled read is
// kept for the next ReadLine instead of being lost.
//
// The goroutine starts on the first ReadLine and runs until the stream ends.
// If the caller stops reading first, it stays parked holding at most one
// line. LineReader is meant for streams that live as long as the process,
// such as the stdin of a CLI command.
type LineReader struct {
	src   *bufio.Reader
	lines chan string
	err   error // set before lines is closed
	once  sync.Once
}

// NewLineReader creates a line reader over r.
func NewLineReader(r io.Reader) *LineReader {
	if r == nil {
		panic("reader cannot be nil")
	}

	return &LineReader{
		src:   bufio.NewReader(r),
		lines: make(chan string),
	}
}

func (r *LineReader) pump() {
	for {
		line, err := r.src.ReadString('\n')
		if line != "" {
			r.lines <- line
		}
		if err != nil {
			r.err = err
			close(r.lines)
			return
		}
	}
}

// ReadLine returns the next line with surrounding whitespace trimmed. A
// final line without a trailing newline is still returned; after that the
// stream error (usually io.EOF) is returned on every call.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInputCancelled, err)
	}
	r.once.Do(func() { go r.pump() })

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrInputCancelled, ctx.Err())
	case line, ok := <-r.lines:
		if !ok {
			return "", r.err
		}
		return strings.TrimSpace(line), nil
	}
}
