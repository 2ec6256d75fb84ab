// internal/game/lifecycle.go
package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"bacay-service/internal/cache"
	"bacay-service/internal/deck"
)

// StartHand deals a fresh hand to everyone currently seated.
func (r *Room) StartHand() {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.startHandUnsafe()
}

// startHandUnsafe resets the hand-scoped state, shuffles, deals three cards
// per seat, reveals each hand privately, then announces the new hand and
// the first turn to the whole room. Bumping the generation here invalidates
// any restart timer still pending from the previous round.
func (r *Room) startHandUnsafe() {
	r.generation++
	r.Status = StatusPlaying
	r.Actions = make(map[uuid.UUID]ActionKind)
	r.Bets = make(map[uuid.UUID]int)
	r.Pot = 0
	r.CurrentTurnIndex = 0

	cards := deck.New()
	deck.Shuffle(cards)
	r.Hands = deck.Deal(cards, r.Players)

	handStrings := make(map[string][]string, len(r.Hands))
	for _, p := range r.Players {
		hand := r.Hands[p.ID]
		r.sendToUnsafe(p, Event{Type: EventYourHand, Cards: cardStrings(hand)})
		handStrings[p.ID.String()] = cardStrings(hand)
	}

	pot := r.Pot
	cur := r.currentPlayerUnsafe()
	started := Event{Type: EventGameStarted, Pot: &pot, Hands: handStrings}
	if cur != nil {
		started.CurrentTurnID = cur.ID.String()
	}
	r.broadcastUnsafe(started)

	if cur != nil {
		r.broadcastUnsafe(Event{Type: EventTurnChanged, Turn: &TurnInfo{PlayerID: cur.ID, PlayerName: cur.Name}})
	}
}

// scheduleRestartUnsafe arms the delayed auto-restart for the next hand.
// The timer captures the room generation at scheduling time; if the room
// was destroyed or another hand started before it fires, the generation no
// longer matches and the timer is a no-op instead of reviving stale state.
func (r *Room) scheduleRestartUnsafe() {
	gen := r.generation
	time.AfterFunc(r.restartDelay, func() {
		r.Mu.Lock()
		defer r.Mu.Unlock()
		if r.generation != gen || r.Status != StatusWaiting || len(r.Players) == 0 {
			return
		}
		r.startHandUnsafe()
	})
}

// publishResultUnsafe hands the finished round off to the historian queue.
// Recording is best-effort: a missing or unreachable Redis only costs the
// history entry, never the game.
func (r *Room) publishResultUnsafe(result *ResultInfo) {
	if !cache.Enabled() {
		return
	}
	rec := cache.HandResultRecord{
		RoomID:    r.ID,
		Pot:       result.Pot,
		Timestamp: time.Now().UnixMilli(),
	}
	if result.WinnerID != nil {
		rec.WinnerID = result.WinnerID.String()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := cache.PublishHandResult(ctx, rec); err != nil {
			log.Warnf("failed to publish hand result for room %s: %v", rec.RoomID, err)
		}
	}()
}
