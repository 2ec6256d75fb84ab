package models

// Card is an immutable (suit, rank) pair. Suits are stored as their
// display glyphs so the wire representation is just Rank+Suit.
type Card struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

// String renders the card the way clients display it, e.g. "A♠" or "10♥".
func (c Card) String() string {
	return c.Rank + c.Suit
}
