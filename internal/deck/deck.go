// Package deck builds, shuffles and deals the standard 52-card deck used
// by the ba cây tables. Hands are three cards; a full five-seat table
// consumes 15 cards, so the deck never runs out mid-deal.
package deck

import (
	"math/rand"

	"github.com/google/uuid"

	"bacay-service/internal/models"
)

// HandSize is the number of cards dealt to every seated player.
const HandSize = 3

var (
	suits = []string{"♠", "♣", "♦", "♥"}
	ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

// New returns a fresh deck of 52 unique cards, one per (suit, rank) pair,
// in a fixed order. Callers shuffle before dealing.
func New() []models.Card {
	cards := make([]models.Card, 0, len(suits)*len(ranks))
	for _, s := range suits {
		for _, r := range ranks {
			cards = append(cards, models.Card{Suit: s, Rank: r})
		}
	}
	return cards
}

// Shuffle permutes the deck in place with a uniform Fisher-Yates shuffle.
// The package-global source is randomly seeded and safe for the concurrent
// shuffles of independent rooms, and never hands two of them the same
// permutation.
func Shuffle(cards []models.Card) {
	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// Deal consumes HandSize cards from the head of the deck for each player,
// in seat order. Cards are taken without replacement so no card is ever
// issued twice.
func Deal(cards []models.Card, players []*models.Player) map[uuid.UUID][]models.Card {
	hands := make(map[uuid.UUID][]models.Card, len(players))
	for _, p := range players {
		hand := make([]models.Card, HandSize)
		copy(hand, cards[:HandSize])
		cards = cards[HandSize:]
		hands[p.ID] = hand
	}
	return hands
}
