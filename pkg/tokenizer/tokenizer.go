// Package tokenizer extracts balanced-brace JSON object candidates from an
// unframed stream of text fragments.
//
// Fragments arrive in log order with no relationship between fragment
// boundaries and object boundaries:
//
//	"[Client] ==> {"a":"    "1"}garbage{"b":{}"    "}\n"
//	          │                  │
//	          ▼                  ▼
//	      {"a":"1"}          {"b":{}}
//
// Text outside an open object is discarded and whitespace (space, CR, LF) is
// stripped inside objects. The scan is a single forward pass that only ever
// buffers the one object in flight.
package tokenizer

import (
	"iter"
	"strings"
)

// defaultMaxObjectBytes bounds the in-flight buffer for a runaway unbalanced region.
const defaultMaxObjectBytes = 64 << 20

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithMaxObjectBytes caps the size of a single in-flight object. A buffer that
// grows past the cap is dropped. Zero disables the cap.
func WithMaxObjectBytes(n int) Option {
	return func(t *Tokenizer) {
		t.maxObjectBytes = n
	}
}

// Tokenizer turns text fragments into complete JSON object strings.
// It is not safe for concurrent use; one pipeline task owns it.
type Tokenizer struct {
	// pending holds fed fragments not yet fully scanned; pos indexes into pending[0].
	pending []string
	pos     int

	// buf accumulates the object in flight while open is true. skipping marks
	// an oversized object whose bytes are discarded until its depth closes.
	buf      strings.Builder
	open     bool
	skipping bool
	depth    int

	maxObjectBytes int
	dropped        int
}

// New returns an empty Tokenizer.
func New(opts ...Option) *Tokenizer {
	t := &Tokenizer{
		maxObjectBytes: defaultMaxObjectBytes,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Feed appends a fragment to the stream. Scanning is deferred to Next.
func (t *Tokenizer) Feed(fragment string) {
	if fragment == "" {
		return
	}
	t.pending = append(t.pending, fragment)
}

// Next scans forward until one object closes and returns it. It returns
// false once the fed text is exhausted; a partially filled object stays
// buffered and continues with the next Feed.
func (t *Tokenizer) Next() (string, bool) {
	for len(t.pending) > 0 {
		frag := t.pending[0]

		for t.pos < len(frag) {
			c := frag[t.pos]
			t.pos++

			if t.skipping {
				t.skip(c)
				continue
			}

			switch c {
			case '{':
				if !t.open {
					t.open = true
					t.buf.Reset()
				}
				t.buf.WriteByte(c)
				t.depth++

			case '}':
				if !t.open {
					continue
				}
				t.buf.WriteByte(c)
				t.depth--
				if t.depth == 0 {
					obj := t.buf.String()
					t.clearBuffer()
					return obj, true
				}

			case ' ', '\r', '\n':
				continue

			default:
				if t.open {
					t.buf.WriteByte(c)
				}
			}

			if t.maxObjectBytes > 0 && t.buf.Len() > t.maxObjectBytes {
				depth := t.depth
				t.clearBuffer()
				t.skipping = true
				t.depth = depth
				t.dropped++
			}
		}

		t.pending[0] = ""
		t.pending = t.pending[1:]
		t.pos = 0
	}

	return "", false
}

// All drains every object currently completable from the fed text.
func (t *Tokenizer) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			obj, ok := t.Next()
			if !ok || !yield(obj) {
				return
			}
		}
	}
}

// skip tracks brace depth through a dropped object without buffering it.
func (t *Tokenizer) skip(c byte) {
	switch c {
	case '{':
		t.depth++
	case '}':
		t.depth--
		if t.depth == 0 {
			t.skipping = false
		}
	}
}

// InFlight reports whether an object is partially buffered or being skipped.
func (t *Tokenizer) InFlight() bool {
	return t.open || t.skipping
}

// Depth is the brace depth of the object in flight, zero when none is open.
func (t *Tokenizer) Depth() int {
	return t.depth
}

// Dropped counts in-flight buffers discarded for exceeding the size cap.
func (t *Tokenizer) Dropped() int {
	return t.dropped
}

// Reset discards pending text and any partial object.
func (t *Tokenizer) Reset() {
	t.pending = nil
	t.pos = 0
	t.clearBuffer()
}

func (t *Tokenizer) clearBuffer() {
	t.buf.Reset()
	t.open = false
	t.skipping = false
	t.depth = 0
}
