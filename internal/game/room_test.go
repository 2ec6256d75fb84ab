// internal/game/room_test.go
package game

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bacay-service/internal/models"
)

// mockSender collects events per player instead of writing to sockets.
type mockSender struct {
	mu     sync.Mutex
	events map[uuid.UUID][]Event
}

func newMockSender() *mockSender {
	return &mockSender{events: make(map[uuid.UUID][]Event)}
}

func (ms *mockSender) send(p *models.Player, ev Event) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.events[p.ID] = append(ms.events[p.ID], ev)
}

func (ms *mockSender) ofType(playerID uuid.UUID, t EventType) []Event {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var out []Event
	for _, ev := range ms.events[playerID] {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (ms *mockSender) lastOfType(playerID uuid.UUID, t EventType) *Event {
	evs := ms.ofType(playerID, t)
	if len(evs) == 0 {
		return nil
	}
	return &evs[len(evs)-1]
}

// setupRoom seats numPlayers named A, B, C... and returns the room, the
// players in seat order and the event recorder.
func setupRoom(t *testing.T, numPlayers int) (*Room, []*models.Player, *mockSender) {
	t.Helper()
	r := NewRoom("room-1")
	r.restartDelay = 50 * time.Millisecond
	ms := newMockSender()
	r.SendFn = ms.send

	players := make([]*models.Player, numPlayers)
	for i := 0; i < numPlayers; i++ {
		players[i] = &models.Player{
			ID:   uuid.New(),
			Name: fmt.Sprintf("%c", 'A'+i),
		}
		require.True(t, r.Join(players[i]))
	}
	return r, players, ms
}

func assertPotInvariant(t *testing.T, r *Room) {
	t.Helper()
	sum := 0
	for _, bet := range r.Bets {
		sum += bet
	}
	assert.Equal(t, sum, r.Pot, "pot must equal the sum of all bets")
}

func TestRoomCapacityNeverExceedsFive(t *testing.T) {
	r, _, _ := setupRoom(t, 5)

	for i := 0; i < 2; i++ {
		extra := &models.Player{ID: uuid.New(), Name: "late"}
		assert.False(t, r.Join(extra), "join into a full room must fail")
	}
	assert.Len(t, r.Players, MaxPlayers)
}

func TestFifthJoinStartsHand(t *testing.T) {
	r, players, ms := setupRoom(t, 5)

	assert.Equal(t, StatusPlaying, r.Status)
	assert.Equal(t, 0, r.CurrentTurnIndex)
	assert.Equal(t, 0, r.Pot)

	// Started exactly once, announcing the first seat's turn.
	started := ms.ofType(players[0].ID, EventGameStarted)
	require.Len(t, started, 1)
	assert.Equal(t, players[0].ID.String(), started[0].CurrentTurnID)
	require.NotNil(t, started[0].Pot)
	assert.Equal(t, 0, *started[0].Pot)
	require.Len(t, started[0].Hands, 5)

	// 5 hands of 3, pairwise distinct across the table.
	seen := make(map[string]bool)
	for _, p := range players {
		hand := ms.lastOfType(p.ID, EventYourHand)
		require.NotNil(t, hand, "every player must privately receive a hand")
		require.Len(t, hand.Cards, 3)
		for _, c := range hand.Cards {
			assert.False(t, seen[c], "card %s dealt twice", c)
			seen[c] = true
		}
	}
	assert.Len(t, seen, 15)

	turn := ms.lastOfType(players[4].ID, EventTurnChanged)
	require.NotNil(t, turn)
	require.NotNil(t, turn.Turn)
	assert.Equal(t, players[0].ID, turn.Turn.PlayerID)
}

func TestFourPlayersStayWaiting(t *testing.T) {
	r, players, ms := setupRoom(t, 4)

	assert.Equal(t, StatusWaiting, r.Status)
	assert.Nil(t, ms.lastOfType(players[0].ID, EventGameStarted))

	// Actions before the hand starts are silently dropped.
	r.HandleAction(players[0].ID, ActionRaise)
	assert.Equal(t, 0, r.Pot)
	assert.Nil(t, ms.lastOfType(players[0].ID, EventActionUpdate))
}

func TestRaiseThenMatch(t *testing.T) {
	r, players, ms := setupRoom(t, 5)
	a, b, c := players[0], players[1], players[2]

	r.HandleAction(a.ID, ActionRaise)
	assert.Equal(t, 10, r.Bets[a.ID])
	assert.Equal(t, 10, r.Pot)
	assertPotInvariant(t, r)

	update := ms.lastOfType(c.ID, EventActionUpdate)
	require.NotNil(t, update)
	require.NotNil(t, update.Action)
	assert.Equal(t, a.ID, update.Action.Player)
	assert.Equal(t, ActionRaise, update.Action.Action)
	assert.Equal(t, 10, update.Action.Bet)
	assert.Equal(t, 10, update.Action.Pot)

	r.HandleAction(b.ID, ActionMatch)
	assert.Equal(t, 10, r.Bets[b.ID])
	assert.Equal(t, 20, r.Pot)
	assertPotInvariant(t, r)

	// Turn advanced to C.
	turn := ms.lastOfType(a.ID, EventTurnChanged)
	require.NotNil(t, turn)
	require.NotNil(t, turn.Turn)
	assert.Equal(t, c.ID, turn.Turn.PlayerID)
}

func TestAllInIsFixedStake(t *testing.T) {
	r, players, _ := setupRoom(t, 5)
	a, b := players[0], players[1]

	r.HandleAction(a.ID, ActionRaise)
	r.HandleAction(b.ID, ActionAllIn)

	// All-in overwrites the bet with the fixed stake, it does not add.
	assert.Equal(t, 100, r.Bets[b.ID])
	assert.Equal(t, 110, r.Pot)
	assertPotInvariant(t, r)
}

func TestOutOfTurnActionDropped(t *testing.T) {
	r, players, ms := setupRoom(t, 5)
	b := players[1]

	r.HandleAction(b.ID, ActionRaise)

	assert.Equal(t, 0, r.Pot)
	assert.Empty(t, r.Bets)
	assert.Nil(t, ms.lastOfType(b.ID, EventActionUpdate), "no error and no event for an out-of-turn action")
}

func TestFoldSkipsPlayerOnLaterTurns(t *testing.T) {
	r, players, ms := setupRoom(t, 5)
	a, b, c := players[0], players[1], players[2]

	r.HandleAction(a.ID, ActionFold)
	turn := ms.lastOfType(a.ID, EventTurnChanged)
	require.NotNil(t, turn.Turn)
	assert.Equal(t, b.ID, turn.Turn.PlayerID)

	r.HandleAction(b.ID, ActionFold)
	turn = ms.lastOfType(a.ID, EventTurnChanged)
	require.NotNil(t, turn.Turn)
	assert.Equal(t, c.ID, turn.Turn.PlayerID)

	// C raises; the scan must skip folded A and B and land on D.
	r.HandleAction(c.ID, ActionRaise)
	turn = ms.lastOfType(a.ID, EventTurnChanged)
	require.NotNil(t, turn.Turn)
	assert.Equal(t, players[3].ID, turn.Turn.PlayerID)
	assert.NotEqual(t, ActionFold, r.Actions[turn.Turn.PlayerID])
}

func TestFoldOutEndsRoundAndRestarts(t *testing.T) {
	r, players, ms := setupRoom(t, 5)
	a := players[0]

	r.HandleAction(a.ID, ActionRaise)
	for _, p := range players[1:] {
		r.HandleAction(p.ID, ActionFold)
	}

	result := ms.lastOfType(a.ID, EventGameResult)
	require.NotNil(t, result)
	require.NotNil(t, result.Result)
	require.NotNil(t, result.Result.WinnerID)
	assert.Equal(t, a.ID, *result.Result.WinnerID)
	assert.Equal(t, 10, result.Result.Pot)
	assert.Equal(t, map[string]int{a.ID.String(): 0}, result.Result.Scores)

	r.Mu.Lock()
	assert.Equal(t, StatusWaiting, r.Status)
	r.Mu.Unlock()

	// The next hand deals itself after the restart delay.
	time.Sleep(150 * time.Millisecond)

	r.Mu.Lock()
	assert.Equal(t, StatusPlaying, r.Status)
	assert.Equal(t, 0, r.Pot)
	assert.Empty(t, r.Actions)
	assert.Equal(t, 0, r.CurrentTurnIndex)
	r.Mu.Unlock()

	assert.Len(t, ms.ofType(a.ID, EventGameStarted), 2)
}

func TestStaleRestartTimerIsIgnored(t *testing.T) {
	r, players, ms := setupRoom(t, 5)
	a := players[0]

	r.HandleAction(a.ID, ActionRaise)
	for _, p := range players[1:] {
		r.HandleAction(p.ID, ActionFold)
	}

	// A new hand starts before the scheduled restart fires; the pending
	// timer's generation is stale and must not deal a third hand.
	r.StartHand()
	time.Sleep(150 * time.Millisecond)

	assert.Len(t, ms.ofType(a.ID, EventGameStarted), 2)
}

func TestDisconnectsCollapseRound(t *testing.T) {
	r, players, ms := setupRoom(t, 5)
	a := players[0]

	r.HandleAction(a.ID, ActionRaise)
	for _, p := range players[1:] {
		assert.False(t, r.HandleDisconnect(p.ID, nil))
	}

	// With only A seated the round ends immediately in A's favor, for the
	// pot as it stood when the table collapsed.
	result := ms.lastOfType(a.ID, EventGameResult)
	require.NotNil(t, result)
	require.NotNil(t, result.Result.WinnerID)
	assert.Equal(t, a.ID, *result.Result.WinnerID)
	assert.Equal(t, 10, result.Result.Pot)
	assert.Equal(t, StatusWaiting, r.Status)

	// The departed players' per-hand state is gone.
	assert.Len(t, r.Players, 1)
	assert.Len(t, r.Hands, 1)
	assert.Len(t, r.Bets, 1)

	// A's own disconnect empties the room without a crash.
	assert.True(t, r.HandleDisconnect(a.ID, nil))
	assert.Empty(t, r.Players)
}

func TestLastPlayerDisconnectMidHandEmptiesRoom(t *testing.T) {
	r, players, _ := setupRoom(t, 5)
	a := players[0]

	for _, p := range players[1:] {
		r.HandleDisconnect(p.ID, nil)
	}
	// Force a fresh hand for the lone remaining player, then drop them.
	// The round collapses with no winner left to name and the room reports
	// itself empty for destruction.
	r.StartHand()
	require.True(t, r.HandleDisconnect(a.ID, nil))

	r.Mu.Lock()
	defer r.Mu.Unlock()
	assert.Equal(t, StatusWaiting, r.Status)
	assert.Empty(t, r.Players)
	assert.Empty(t, r.Hands)
}

func TestDisconnectOfUnknownPlayerIsNoOp(t *testing.T) {
	r, _, _ := setupRoom(t, 3)
	assert.False(t, r.HandleDisconnect(uuid.New(), nil))
	assert.Len(t, r.Players, 3)
}

func TestFlipBroadcastsAndPassesTurn(t *testing.T) {
	r, players, ms := setupRoom(t, 5)
	a, b := players[0], players[1]

	r.HandleFlip(a.ID, 2)

	flip := ms.lastOfType(b.ID, EventCardFlipped)
	require.NotNil(t, flip)
	require.NotNil(t, flip.Flip)
	assert.Equal(t, a.ID, flip.Flip.PlayerID)
	assert.Equal(t, 2, flip.Flip.CardIndex)

	// Flipping has no betting effect but passes the turn.
	assert.Equal(t, 0, r.Pot)
	turn := ms.lastOfType(a.ID, EventTurnChanged)
	require.NotNil(t, turn.Turn)
	assert.Equal(t, b.ID, turn.Turn.PlayerID)

	// Out-of-turn flips are dropped like out-of-turn actions.
	r.HandleFlip(a.ID, 0)
	assert.Equal(t, b.ID, ms.lastOfType(a.ID, EventTurnChanged).Turn.PlayerID)
}

func TestRejoinKeepsSeatAndResendsHand(t *testing.T) {
	r, players, ms := setupRoom(t, 5)
	b := players[1]

	handsBefore := len(ms.ofType(b.ID, EventYourHand))
	require.True(t, r.Join(&models.Player{ID: b.ID, Name: b.Name}))

	assert.Len(t, r.Players, 5, "rejoin must not add a seat")
	assert.Len(t, ms.ofType(b.ID, EventYourHand), handsBefore+1, "rejoin resends the existing hand")
	turn := ms.lastOfType(b.ID, EventTurnChanged)
	require.NotNil(t, turn.Turn)
	assert.Equal(t, players[0].ID, turn.Turn.PlayerID, "rejoin must not alter the turn")
}

func TestStaleSocketDisconnectAfterRejoin(t *testing.T) {
	r, players, _ := setupRoom(t, 5)
	b := players[1]

	oldConn := &websocket.Conn{}
	newConn := &websocket.Conn{}
	b.Conn = oldConn

	// B reconnects on a new socket; the old one is still draining and its
	// cleanup fires afterwards. It must not unseat the reconnected player.
	require.True(t, r.Join(&models.Player{ID: b.ID, Name: b.Name, Conn: newConn}))
	assert.False(t, r.HandleDisconnect(b.ID, oldConn))
	assert.Len(t, r.Players, 5, "stale socket cleanup must not remove a rebound seat")
	assert.Equal(t, StatusPlaying, r.Status)

	// The live socket closing still removes the seat.
	assert.False(t, r.HandleDisconnect(b.ID, newConn))
	assert.Len(t, r.Players, 4)
}

func TestPotInvariantAcrossActionSequence(t *testing.T) {
	r, players, _ := setupRoom(t, 5)

	kinds := []ActionKind{ActionRaise, ActionAllIn, ActionMatch, ActionRaise, ActionMatch}
	for i, kind := range kinds {
		r.HandleAction(players[i].ID, kind)
		assertPotInvariant(t, r)
	}
	// raise 10 + allin 100 + match 100 + raise 10 + match 100
	assert.Equal(t, 320, r.Pot)
}
