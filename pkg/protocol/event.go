// Package protocol decodes the JSON objects found in the MTG Arena client log
// into one of four wire shapes: client-to-match-service messages, game room
// state changes, game-engine-to-client messages, and business events.
//
// The shapes are not a tagged union on the wire. Classify recognizes them by
// marker substrings evaluated in a fixed priority order before any structural
// decode is attempted; see Routes.
package protocol

// Kind identifies which wire shape an Event carries.
type Kind int

const (
	KindNotAnEvent Kind = iota
	KindClient
	KindRoomState
	KindGre
	KindBusiness
)

func (k Kind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindRoomState:
		return "room_state"
	case KindGre:
		return "gre"
	case KindBusiness:
		return "business"
	default:
		return "not_an_event"
	}
}

// Event is the decoded form of one candidate JSON object. Exactly one payload
// pointer matching Kind is non-nil; all are nil for KindNotAnEvent.
type Event struct {
	Kind      Kind
	Client    *ClientMessage
	RoomState *RoomStateMessage
	Gre       *GreMessage
	Business  *BusinessMessage
}

// NotAnEvent is the zero Event returned for unrelated log noise.
var NotAnEvent = Event{Kind: KindNotAnEvent}
