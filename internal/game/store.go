// internal/game/store.go
package game

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// RoomStore is the process-wide room registry. Rooms are created on the
// first join to an unseen id and deleted once their last player leaves.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRoomStore initializes an empty registry.
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*Room),
	}
}

// GetOrCreate returns the room for id, creating it if absent.
func (s *RoomStore) GetOrCreate(id string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		return r
	}
	r := NewRoom(id)
	s.rooms[id] = r
	log.Debugf("RoomStore: created room %s", id)
	return r
}

// Get retrieves a room by id, reporting whether it exists.
func (s *RoomStore) Get(id string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Delete removes a room from the registry. Called when a room empties out.
func (s *RoomStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; ok {
		delete(s.rooms, id)
		log.Debugf("RoomStore: deleted room %s", id)
	}
}

// Rooms returns a snapshot of all live rooms so callers can iterate without
// racing concurrent joins.
func (s *RoomStore) Rooms() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out
}
