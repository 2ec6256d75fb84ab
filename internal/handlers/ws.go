// internal/handlers/ws.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bacay-service/internal/auth"
	"bacay-service/internal/game"
	"bacay-service/internal/middleware"
	"bacay-service/internal/models"
)

// ClientMessage is the envelope for every inbound websocket message.
// Unused fields are simply absent for a given Type.
type ClientMessage struct {
	Type       string `json:"type"`
	PlayerName string `json:"playerName,omitempty"`
	RoomID     string `json:"roomId,omitempty"`
	Action     string `json:"action,omitempty"`
	CardIndex  int    `json:"cardIndex,omitempty"`
}

// WSHandler upgrades the HTTP connection to a websocket, establishes the
// guest identity (resuming it from a ?token= query parameter if present),
// and then blocks in the read loop until the client goes away. Disconnect
// cleanup runs after the loop exits, whatever the cause.
func WSHandler(logger *logrus.Logger, srv *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// Origin policy is a deployment concern; the reference deployment
			// fronts this with a proxy that enforces it.
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("WebSocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "internal error during handler exit")

		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		playerID := resolveIdentity(logger, srv, c, r.URL.Query().Get("token"))

		readMessages(r, c, srv, playerID, logger)

		srv.DisconnectPlayer(playerID, c)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, nil)
	}
}

// resolveIdentity maps a connection onto a player UUID. A valid session
// token resumes the identity it carries; otherwise a fresh identity is
// minted and handed back to the client in a session event so it can
// reconnect as the same player later.
func resolveIdentity(logger *logrus.Logger, srv *Server, c *websocket.Conn, token string) uuid.UUID {
	if token != "" {
		if sub, err := auth.AuthenticateSessionToken(token); err != nil {
			logger.Debugf("ignoring invalid session token: %v", err)
		} else if id, perr := uuid.Parse(sub); perr != nil {
			logger.Debugf("ignoring session token with bad subject: %v", perr)
		} else {
			logger.Debugf("resumed session for player %s", id)
			srv.writeEvent(c, game.Event{Type: game.EventSession, PlayerID: id.String(), Token: token})
			return id
		}
	}

	id := uuid.New()
	fresh, err := auth.CreateSessionToken(id.String())
	if err != nil {
		logger.Warnf("failed to create session token for player %s: %v", id, err)
	}
	srv.writeEvent(c, game.Event{Type: game.EventSession, PlayerID: id.String(), Token: fresh})
	return id
}

// readMessages reads and dispatches inbound messages until the connection
// closes or the request context is canceled.
func readMessages(r *http.Request, c *websocket.Conn, srv *Server, playerID uuid.UUID, logger *logrus.Logger) {
	ctx := r.Context()
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for player %s", playerID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for player %s", playerID)
			} else {
				logger.Warnf("error reading from WebSocket for player %s: %v", playerID, err)
			}
			return
		}
		if msgType != websocket.MessageText {
			logger.Warnf("ignoring non-text message from player %s", playerID)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Debugf("invalid JSON from player %s: %v", playerID, err)
			continue
		}

		dispatch(srv, c, playerID, msg, logger)
	}
}

// dispatch routes one inbound message. Only join failures are answered with
// an error event; every other malformed or out-of-turn request is dropped
// silently, which clients depend on.
func dispatch(srv *Server, c *websocket.Conn, playerID uuid.UUID, msg ClientMessage, logger *logrus.Logger) {
	switch msg.Type {
	case "join":
		if msg.PlayerName == "" || msg.RoomID == "" {
			srv.writeEvent(c, game.Event{Type: game.EventJoinError, Message: "player name and room id are required"})
			return
		}
		room := srv.attachRoom(msg.RoomID)
		p := &models.Player{ID: playerID, Name: msg.PlayerName, Conn: c}
		if !room.Join(p) {
			srv.writeEvent(c, game.Event{Type: game.EventJoinError, Message: "room is full, please pick another room"})
		}

	case "action":
		kind, ok := game.ParseActionKind(msg.Action)
		if !ok {
			logger.Debugf("dropping unknown action %q from player %s", msg.Action, playerID)
			return
		}
		if room, ok := srv.Rooms.Get(msg.RoomID); ok {
			room.HandleAction(playerID, kind)
		}

	case "flip":
		if room, ok := srv.Rooms.Get(msg.RoomID); ok {
			room.HandleFlip(playerID, msg.CardIndex)
		}

	default:
		logger.Debugf("dropping unknown message type %q from player %s", msg.Type, playerID)
	}
}
