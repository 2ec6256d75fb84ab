// internal/handlers/server.go
package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bacay-service/internal/game"
	"bacay-service/internal/models"
)

// Server owns the room registry and the event write plumbing shared by all
// websocket connections.
type Server struct {
	Rooms  *game.RoomStore
	Logger *logrus.Logger
}

// NewServer builds a Server with an empty registry.
func NewServer(logger *logrus.Logger) *Server {
	return &Server{
		Rooms:  game.NewRoomStore(),
		Logger: logger,
	}
}

// writeEvent marshals ev and writes it to one connection asynchronously.
// Game logic reaches this with the room lock held, so the write itself must
// happen off-thread and never block the caller.
func (s *Server) writeEvent(conn *websocket.Conn, ev game.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.Logger.Errorf("failed to marshal %s event: %v", ev.Type, err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			s.Logger.Warnf("failed to write %s event: %v", ev.Type, err)
		}
	}()
}

// sendToPlayer is the Room.SendFn implementation.
func (s *Server) sendToPlayer(p *models.Player, ev game.Event) {
	if p.Conn == nil {
		return
	}
	s.writeEvent(p.Conn, ev)
}

// attachRoom returns the room for id with the write plumbing installed,
// creating the room on first join.
func (s *Server) attachRoom(id string) *game.Room {
	room := s.Rooms.GetOrCreate(id)
	room.Mu.Lock()
	if room.SendFn == nil {
		room.SendFn = s.sendToPlayer
	}
	room.Mu.Unlock()
	return room
}

// DisconnectPlayer removes the player from every room they occupy and
// destroys rooms that empty out. conn is the connection that just closed;
// rooms where the player has already rebound to a newer socket are left
// alone.
func (s *Server) DisconnectPlayer(playerID uuid.UUID, conn *websocket.Conn) {
	for _, room := range s.Rooms.Rooms() {
		if room.HandleDisconnect(playerID, conn) {
			s.Rooms.Delete(room.ID)
		}
	}
}
