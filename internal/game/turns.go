// internal/game/turns.go
package game

import "bacay-service/internal/models"

// nextActiveUnsafe scans forward circularly from the seat after the current
// one, at most one full lap, and moves the turn pointer to the first player
// whose last action is not a fold. It reports false when every seated
// player has folded; the pointer is left where it was in that case.
func (r *Room) nextActiveUnsafe() (*models.Player, bool) {
	n := len(r.Players)
	if n == 0 {
		return nil, false
	}
	for step := 1; step <= n; step++ {
		idx := (r.CurrentTurnIndex + step) % n
		p := r.Players[idx]
		if r.Actions[p.ID] != ActionFold {
			r.CurrentTurnIndex = idx
			return p, true
		}
	}
	return nil, false
}

// advanceTurnUnsafe passes the turn and announces it. When no active player
// is found the turn-changed event carries no player, which clients treat as
// "no turn".
func (r *Room) advanceTurnUnsafe() {
	next, ok := r.nextActiveUnsafe()
	if !ok {
		r.broadcastUnsafe(Event{Type: EventTurnChanged})
		return
	}
	r.broadcastUnsafe(Event{Type: EventTurnChanged, Turn: &TurnInfo{PlayerID: next.ID, PlayerName: next.Name}})
}
