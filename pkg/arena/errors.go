package arena

import "errors"

var (
	// ErrInsufficientData is returned by a builder asked to finalize an object
	// before the fields it requires were ever observed.
	ErrInsufficientData = errors.New("insufficient data to build")

	// ErrNilReplay indicates a nil match replay was handed to a sink.
	ErrNilReplay = errors.New("nil match replay")

	// ErrNilDraft indicates a nil draft was handed to a sink.
	ErrNilDraft = errors.New("nil draft")
)
