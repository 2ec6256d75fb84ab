// internal/game/events.go
package game

import (
	"github.com/google/uuid"
)

// EventType names an outbound message. Clients switch on this field.
type EventType string

const (
	EventSession       EventType = "session"        // private: guest identity + resume token
	EventJoinError     EventType = "join-error"     // private: validation or capacity failure
	EventRoomJoined    EventType = "room-joined"    // private: join accepted
	EventPlayersUpdate EventType = "players-update" // roster changed
	EventYourHand      EventType = "your-hand"      // private: the player's own 3 cards
	EventGameStarted   EventType = "game-started"   // hand begins
	EventTurnChanged   EventType = "turn-changed"   // turn advanced; Turn is omitted when no active player remains
	EventPotUpdated    EventType = "pot-updated"    // pot recomputed
	EventActionUpdate  EventType = "action-update"  // an action was applied
	EventCardFlipped   EventType = "card-flipped"   // cosmetic reveal
	EventGameResult    EventType = "game-result"    // round ended
)

// PlayerInfo is one roster entry in players-update.
type PlayerInfo struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// TurnInfo identifies whose action is expected next.
type TurnInfo struct {
	PlayerID   uuid.UUID `json:"playerId"`
	PlayerName string    `json:"playerName"`
}

// ActionInfo describes an applied betting action.
type ActionInfo struct {
	Player uuid.UUID  `json:"player"`
	Action ActionKind `json:"action"`
	Bet    int        `json:"bet"`
	Pot    int        `json:"pot"`
}

// FlipInfo describes a cosmetic card reveal.
type FlipInfo struct {
	PlayerID  uuid.UUID `json:"playerId"`
	CardIndex int       `json:"cardIndex"`
}

// ResultInfo carries the outcome of a finished round. WinnerID is null when
// every player left mid-hand. Scores is a placeholder: the game never ranks
// hands, the winner is whoever did not fold.
type ResultInfo struct {
	WinnerID *uuid.UUID     `json:"winnerId"`
	Pot      int            `json:"pot"`
	Scores   map[string]int `json:"scores"`
}

// Event is the single envelope for every outbound message. Only the fields
// relevant to Type are populated; the rest are omitted from the JSON.
type Event struct {
	Type          EventType           `json:"type"`
	Message       string              `json:"message,omitempty"`
	RoomID        string              `json:"roomId,omitempty"`
	PlayerID      string              `json:"playerId,omitempty"`
	Token         string              `json:"token,omitempty"`
	Players       []PlayerInfo        `json:"players,omitempty"`
	Cards         []string            `json:"cards,omitempty"`
	Pot           *int                `json:"pot,omitempty"`
	Hands         map[string][]string `json:"hands,omitempty"`
	CurrentTurnID string              `json:"currentTurnId,omitempty"`
	Turn          *TurnInfo           `json:"turn,omitempty"`
	Action        *ActionInfo         `json:"action,omitempty"`
	Flip          *FlipInfo           `json:"flip,omitempty"`
	Result        *ResultInfo         `json:"result,omitempty"`
}
