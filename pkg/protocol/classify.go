package protocol

import (
	"fmt"
	"strings"
)

// Route binds a marker substring to the decoder for the shape it identifies.
type Route struct {
	Marker string
	Kind   Kind
	Decode func(raw []byte) (Event, error)
}

// routes are evaluated in order and the first marker found wins. Client
// envelopes may embed game-engine fragments, so they are checked first.
var routes = []Route{
	{Marker: MarkerClient, Kind: KindClient, Decode: decodeClient},
	{Marker: MarkerRoomState, Kind: KindRoomState, Decode: decodeRoomState},
	{Marker: MarkerGre, Kind: KindGre, Decode: decodeGre},
}

// Routes returns a copy of the marker dispatch table in priority order.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// DecodeError reports an object whose marker matched but whose structure did not.
type DecodeError struct {
	Kind Kind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s message: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Classify decodes one candidate object. A *DecodeError is returned only when a
// marker matched and the structural decode failed; objects matching no marker
// and no known business record come back as NotAnEvent with a nil error.
func Classify(raw string) (Event, error) {
	for _, r := range routes {
		if !strings.Contains(raw, r.Marker) {
			continue
		}
		ev, err := r.Decode([]byte(raw))
		if err != nil {
			return NotAnEvent, &DecodeError{Kind: r.Kind, Err: err}
		}
		return ev, nil
	}

	return decodeBusiness([]byte(raw)), nil
}
