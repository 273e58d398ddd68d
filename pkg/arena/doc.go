// Package arena holds the domain objects reconstructed from the MTG Arena client
// log: completed match replays, completed drafts, and the parse failures collected
// along the way.
package arena
