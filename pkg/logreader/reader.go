// Package logreader reads the bytes appended to a growing log file since the
// previous read.
package logreader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrSourceUnavailable is returned when the log file cannot be opened.
	// The caller is expected to retry on its next tick.
	ErrSourceUnavailable = errors.New("log source unavailable")

	// ErrTruncated is returned when the file shrank below the read offset,
	// which happens when the client rewrites the log in place.
	ErrTruncated = errors.New("log file truncated")
)

const readChunk = 64 << 10

// Reader is a lazily opened, forward-only view of one log file.
// It is not safe for concurrent use.
type Reader struct {
	path   string
	tail   bool
	file   *os.File
	offset int64
	buf    []byte
}

// Option configures a Reader.
type Option func(*Reader)

// WithTail makes the first open seek to the end of the file so that only
// bytes written afterwards are returned.
func WithTail(tail bool) Option {
	return func(r *Reader) {
		r.tail = tail
	}
}

// New returns a Reader for path. The file is not opened until the first read.
func New(path string, opts ...Option) *Reader {
	r := &Reader{
		path: path,
		buf:  make([]byte, readChunk),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the file path this reader follows.
func (r *Reader) Path() string {
	return r.path
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Open opens the underlying file if it is not open yet.
func (r *Reader) Open() error {
	if r.file != nil {
		return nil
	}

	file, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	if r.tail {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			_ = file.Close()
			return fmt.Errorf("%w: seek log file: %w", ErrSourceUnavailable, err)
		}
		r.offset = end
	}

	r.file = file
	return nil
}

// ReadAvailable returns everything appended since the previous call, bounded
// by the current end of file. An empty string with a nil error means nothing new.
func (r *Reader) ReadAvailable() (string, error) {
	if err := r.Open(); err != nil {
		return "", err
	}

	stat, err := r.file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat log file: %w", err)
	}
	if stat.Size() < r.offset {
		return "", ErrTruncated
	}

	var out strings.Builder
	for {
		n, err := r.file.Read(r.buf)
		if n > 0 {
			out.Write(r.buf[:n])
			r.offset += int64(n)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out.String(), nil
			}
			return out.String(), fmt.Errorf("reading log file: %w", err)
		}
	}
}

// Close releases the file handle. The reader may be reopened by a later read,
// in which case it starts over from the beginning (or the end with WithTail).
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	r.offset = 0
	return err
}
