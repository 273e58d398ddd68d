package arena

import (
	"fmt"
	"time"

	"github.com/papercomputeco/arenatapes/pkg/utils"
)

// maxFailureExcerpt bounds how much raw text a ParseFailure keeps.
const maxFailureExcerpt = 512

// ParseFailure records text that looked like a known event but did not decode.
type ParseFailure struct {
	Raw    string    `json:"raw"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// NewParseFailure builds a failure for raw, keeping a bounded excerpt of the text.
func NewParseFailure(raw string, err error) *ParseFailure {
	return &ParseFailure{
		Raw:    utils.Truncate(raw, maxFailureExcerpt),
		Reason: err.Error(),
		At:     time.Now().UTC(),
	}
}

// String renders the failure as human readable text.
func (f ParseFailure) String() string {
	return fmt.Sprintf("%s: %s", f.Reason, f.Raw)
}
