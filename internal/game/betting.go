// internal/game/betting.go
package game

import "github.com/google/uuid"

// ActionKind is the closed set of betting actions.
type ActionKind string

const (
	ActionFold  ActionKind = "fold"
	ActionMatch ActionKind = "match"
	ActionRaise ActionKind = "raise"
	ActionAllIn ActionKind = "allin"
)

const (
	// raiseIncrement is the fixed amount a raise adds to the player's bet.
	raiseIncrement = 10
	// allInStake is the fixed bet an all-in sets, regardless of prior bet.
	// This is literal fixed-stake semantics, not "commit everything".
	allInStake = 100
)

// ParseActionKind maps a wire string onto the action set. Unknown strings
// report false and the request is dropped.
func ParseActionKind(s string) (ActionKind, bool) {
	switch k := ActionKind(s); k {
	case ActionFold, ActionMatch, ActionRaise, ActionAllIn:
		return k, true
	}
	return "", false
}

// applyActionUnsafe records the action, updates the acting player's bet per
// the action kind and recomputes the pot as the sum of all bets.
func (r *Room) applyActionUnsafe(playerID uuid.UUID, kind ActionKind) {
	switch kind {
	case ActionFold:
		// bet unchanged
	case ActionMatch:
		r.Bets[playerID] = r.maxBetUnsafe()
	case ActionRaise:
		r.Bets[playerID] += raiseIncrement
	case ActionAllIn:
		r.Bets[playerID] = allInStake
	}
	r.Actions[playerID] = kind
	r.recomputePotUnsafe()
}

// maxBetUnsafe returns the highest bet currently held by any player,
// folded players included, or 0 if nobody has bet.
func (r *Room) maxBetUnsafe() int {
	max := 0
	for _, bet := range r.Bets {
		if bet > max {
			max = bet
		}
	}
	return max
}

func (r *Room) recomputePotUnsafe() {
	pot := 0
	for _, bet := range r.Bets {
		pot += bet
	}
	r.Pot = pot
}
