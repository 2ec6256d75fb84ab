// internal/game/room.go
package game

import (
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"bacay-service/internal/models"
)

// Status is the room's lifecycle phase.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
)

// MaxPlayers is the fixed seat count. The fifth join starts a hand.
const MaxPlayers = 5

// RestartDelay is how long after a round result the next hand is dealt.
const RestartDelay = 7 * time.Second

// Room holds the entire state for one table in memory. Every public method
// acquires Mu for the full read-modify-write sequence; helpers suffixed
// Unsafe assume the caller holds it.
type Room struct {
	ID string

	Players []*models.Player
	Hands   map[uuid.UUID][]models.Card
	Actions map[uuid.UUID]ActionKind
	Bets    map[uuid.UUID]int
	Pot     int

	Status           Status
	CurrentTurnIndex int

	// generation invalidates pending restart timers once a new hand starts
	// or the room is destroyed.
	generation uint64

	// restartDelay is overridable in tests.
	restartDelay time.Duration

	// SendFn delivers one event to one player. The gateway wires an
	// asynchronous writer here; it must not block and must not touch room
	// state, because it is invoked with Mu held.
	SendFn func(p *models.Player, ev Event)

	Mu sync.Mutex
}

// NewRoom returns an empty waiting room that knows its own registry key.
func NewRoom(id string) *Room {
	return &Room{
		ID:           id,
		Hands:        make(map[uuid.UUID][]models.Card),
		Actions:      make(map[uuid.UUID]ActionKind),
		Bets:         make(map[uuid.UUID]int),
		Status:       StatusWaiting,
		restartDelay: RestartDelay,
	}
}

// Join seats the player if a seat is free. It reports false when the room is
// already full; the gateway turns that into a join-error. On success the
// joiner gets room-joined, everyone gets the new roster, and a mid-hand
// joiner additionally receives their existing hand (if any) and the current
// turn without the game state being altered. Seating the fifth player starts
// a hand.
func (r *Room) Join(p *models.Player) bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	// A reconnecting player keeps their seat: swap the socket, resend the
	// private state, leave turn order alone.
	for _, seated := range r.Players {
		if seated.ID == p.ID {
			seated.Conn = p.Conn
			seated.Name = p.Name
			r.sendToUnsafe(seated, Event{Type: EventRoomJoined, RoomID: r.ID})
			r.sendToUnsafe(seated, Event{Type: EventPlayersUpdate, Players: r.rosterUnsafe()})
			if r.Status == StatusPlaying {
				if hand, ok := r.Hands[p.ID]; ok {
					r.sendToUnsafe(seated, Event{Type: EventYourHand, Cards: cardStrings(hand)})
				}
				if cur := r.currentPlayerUnsafe(); cur != nil {
					r.sendToUnsafe(seated, Event{Type: EventTurnChanged, Turn: &TurnInfo{PlayerID: cur.ID, PlayerName: cur.Name}})
				}
			}
			return true
		}
	}

	if len(r.Players) >= MaxPlayers {
		return false
	}

	r.Players = append(r.Players, p)

	r.sendToUnsafe(p, Event{Type: EventRoomJoined, RoomID: r.ID})
	r.broadcastUnsafe(Event{Type: EventPlayersUpdate, Players: r.rosterUnsafe()})

	if r.Status == StatusPlaying {
		if hand, ok := r.Hands[p.ID]; ok {
			r.sendToUnsafe(p, Event{Type: EventYourHand, Cards: cardStrings(hand)})
		}
		if cur := r.currentPlayerUnsafe(); cur != nil {
			r.sendToUnsafe(p, Event{Type: EventTurnChanged, Turn: &TurnInfo{PlayerID: cur.ID, PlayerName: cur.Name}})
		}
	}

	if len(r.Players) == MaxPlayers {
		r.startHandUnsafe()
	}
	return true
}

// HandleAction applies one betting action for playerID. Requests that are
// out of turn or arrive while the room is not playing are dropped without
// any reply; clients rely on that silence.
func (r *Room) HandleAction(playerID uuid.UUID, kind ActionKind) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Status != StatusPlaying || !r.isCurrentPlayerUnsafe(playerID) {
		return
	}

	r.applyActionUnsafe(playerID, kind)

	pot := r.Pot
	r.broadcastUnsafe(Event{Type: EventPotUpdated, Pot: &pot})
	r.broadcastUnsafe(Event{Type: EventActionUpdate, Action: &ActionInfo{
		Player: playerID,
		Action: kind,
		Bet:    r.Bets[playerID],
		Pot:    r.Pot,
	}})

	// The round ends the moment a single non-folded player remains,
	// before any turn advance.
	if active := r.activePlayersUnsafe(); len(active) == 1 {
		r.finishRoundUnsafe(active[0], true)
		return
	}

	r.advanceTurnUnsafe()
}

// HandleFlip broadcasts a cosmetic reveal of one of the acting player's
// cards and passes the turn. Betting state is untouched.
func (r *Room) HandleFlip(playerID uuid.UUID, cardIndex int) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Status != StatusPlaying || !r.isCurrentPlayerUnsafe(playerID) {
		return
	}

	r.broadcastUnsafe(Event{Type: EventCardFlipped, Flip: &FlipInfo{PlayerID: playerID, CardIndex: cardIndex}})
	r.advanceTurnUnsafe()
}

// HandleDisconnect removes the player and repairs room state. It reports
// whether the room is now empty and should be destroyed by the registry.
//
// conn identifies the socket whose read loop is cleaning up. When the seat
// is already bound to a different socket the player reconnected while the
// old connection was still draining, and the stale cleanup must not unseat
// them. A nil conn removes unconditionally.
func (r *Room) HandleDisconnect(playerID uuid.UUID, conn *websocket.Conn) (empty bool) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	idx := -1
	for i, p := range r.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	if conn != nil && r.Players[idx].Conn != conn {
		return false
	}

	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	delete(r.Hands, playerID)
	delete(r.Actions, playerID)
	delete(r.Bets, playerID)
	if r.CurrentTurnIndex >= len(r.Players) {
		r.CurrentTurnIndex = 0
	}

	r.broadcastUnsafe(Event{Type: EventPlayersUpdate, Players: r.rosterUnsafe()})

	if r.Status == StatusPlaying && len(r.Players) <= 1 {
		var winner *models.Player
		if len(r.Players) > 0 {
			winner = r.Players[0]
		}
		r.finishRoundUnsafe(winner, false)
	}

	if len(r.Players) == 0 {
		r.generation++ // kill any pending restart
		return true
	}
	return false
}

// finishRoundUnsafe declares the winner (nil if everyone left), reverts the
// room to waiting and, for rounds ended by play, schedules the next hand.
func (r *Room) finishRoundUnsafe(winner *models.Player, restart bool) {
	result := &ResultInfo{Pot: r.Pot, Scores: map[string]int{}}
	if winner != nil {
		result.WinnerID = &winner.ID
		result.Scores[winner.ID.String()] = 0 // no hand ranking: placeholder score
	}
	r.broadcastUnsafe(Event{Type: EventGameResult, Result: result})
	r.Status = StatusWaiting

	r.publishResultUnsafe(result)

	if restart {
		r.scheduleRestartUnsafe()
	}
}

func (r *Room) isCurrentPlayerUnsafe(playerID uuid.UUID) bool {
	cur := r.currentPlayerUnsafe()
	return cur != nil && cur.ID == playerID
}

func (r *Room) currentPlayerUnsafe() *models.Player {
	if r.CurrentTurnIndex < 0 || r.CurrentTurnIndex >= len(r.Players) {
		return nil
	}
	return r.Players[r.CurrentTurnIndex]
}

// activePlayersUnsafe returns the seated players who have not folded.
func (r *Room) activePlayersUnsafe() []*models.Player {
	active := make([]*models.Player, 0, len(r.Players))
	for _, p := range r.Players {
		if r.Actions[p.ID] != ActionFold {
			active = append(active, p)
		}
	}
	return active
}

func (r *Room) rosterUnsafe() []PlayerInfo {
	roster := make([]PlayerInfo, 0, len(r.Players))
	for _, p := range r.Players {
		roster = append(roster, PlayerInfo{ID: p.ID, Name: p.Name})
	}
	return roster
}

func (r *Room) broadcastUnsafe(ev Event) {
	if r.SendFn == nil {
		return
	}
	for _, p := range r.Players {
		r.SendFn(p, ev)
	}
}

func (r *Room) sendToUnsafe(p *models.Player, ev Event) {
	if r.SendFn == nil {
		return
	}
	r.SendFn(p, ev)
}

func cardStrings(hand []models.Card) []string {
	out := make([]string, len(hand))
	for i, c := range hand {
		out[i] = c.String()
	}
	return out
}
