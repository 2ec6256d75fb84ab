package models

import (
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Player is one seated connection in a room. ID is the guest session
// identity, so a reconnecting client keeps the same ID across sockets.
type Player struct {
	ID   uuid.UUID       `json:"id"`
	Name string          `json:"name"`
	Conn *websocket.Conn `json:"-"`
}
