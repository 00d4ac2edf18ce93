package room

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nonfamousd/copperhead-server/internal/game"
	chlog "github.com/nonfamousd/copperhead-server/internal/log"
	"github.com/nonfamousd/copperhead-server/internal/metrics"
	"github.com/nonfamousd/copperhead-server/internal/protocol"
)

const queryTimeout = time.Second

// SpawnFunc launches one CopperBot pointed at this server.
type SpawnFunc func(difficulty int) (BotHandle, error)

// Manager holds the rooms, numbered 1..maxRooms. Rooms are created on
// demand by matchmaking and removed when the last player leaves.
type Manager struct {
	mu             sync.Mutex
	rooms          map[int]*Room
	lobbyObservers map[string]Conn

	maxRooms   int
	tick       time.Duration
	gridWidth  int
	gridHeight int
	spawn      SpawnFunc
	log        zerolog.Logger
}

func NewManager(maxRooms int, tick time.Duration, spawn SpawnFunc) *Manager {
	return NewManagerSized(maxRooms, tick, spawn, game.GridWidth, game.GridHeight)
}

// NewManagerSized builds a manager whose rooms play on a custom grid.
func NewManagerSized(maxRooms int, tick time.Duration, spawn SpawnFunc, gridWidth, gridHeight int) *Manager {
	return &Manager{
		rooms:          make(map[int]*Room),
		lobbyObservers: make(map[string]Conn),
		maxRooms:       maxRooms,
		tick:           tick,
		gridWidth:      gridWidth,
		gridHeight:     gridHeight,
		spawn:          spawn,
		log:            chlog.WithComponent("manager"),
	}
}

// FindOrCreateRoom runs matchmaking for one connection: fill the first
// room waiting on a second player, otherwise open the lowest free room.
// Returns the room and assigned player id, or an error when every room
// slot is taken.
func (m *Manager) FindOrCreateRoom(conn Conn) (*Room, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id := 1; id <= m.maxRooms; id++ {
		r, ok := m.rooms[id]
		if !ok {
			continue
		}
		if reply, ok := m.tryJoin(r, conn, true); ok {
			return r, reply.PlayerID, nil
		}
	}

	for id := 1; id <= m.maxRooms; id++ {
		if _, taken := m.rooms[id]; taken {
			continue
		}
		r := m.newRoomLocked(id)
		if reply, ok := m.tryJoin(r, conn, false); ok {
			return r, reply.PlayerID, nil
		}
		break
	}
	return nil, 0, fmt.Errorf("server full, no room available")
}

// JoinLegacy serves the old /ws/{player_id} endpoint: player 2 joins a
// waiting room when one exists, everything else opens a fresh room as
// player 1.
func (m *Manager) JoinLegacy(conn Conn, requestedID int) (*Room, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if requestedID == 2 {
		for id := 1; id <= m.maxRooms; id++ {
			r, ok := m.rooms[id]
			if !ok {
				continue
			}
			if reply, ok := m.tryJoin(r, conn, true); ok {
				return r, reply.PlayerID, nil
			}
		}
	}
	for id := 1; id <= m.maxRooms; id++ {
		if _, taken := m.rooms[id]; taken {
			continue
		}
		r := m.newRoomLocked(id)
		if reply, ok := m.tryJoin(r, conn, false); ok {
			return r, reply.PlayerID, nil
		}
		break
	}
	return nil, 0, fmt.Errorf("server full, no room available")
}

func (m *Manager) tryJoin(r *Room, conn Conn, requireWaiting bool) (JoinReply, bool) {
	reply := make(chan JoinReply, 1)
	select {
	case r.Inbox <- Join{Conn: conn, RequireWaiting: requireWaiting, Reply: reply}:
	case <-time.After(queryTimeout):
		return JoinReply{}, false
	}
	select {
	case res := <-reply:
		return res, res.OK
	case <-time.After(queryTimeout):
		return JoinReply{}, false
	}
}

func (m *Manager) newRoomLocked(id int) *Room {
	r := NewSized(id, m.tick, m.gridWidth, m.gridHeight)
	r.OnEmpty = m.removeRoom
	r.OnGameEvent = m.BroadcastRoomList
	if m.spawn != nil {
		r.SpawnBot = m.spawn
	}
	m.rooms[id] = r
	go r.Run()
	metrics.ActiveRooms.Set(float64(len(m.rooms)))
	m.log.Info().
		Str("event", "room.created").
		Int("room_id", id).
		Int("active_rooms", len(m.rooms)).
		Msg("room created")
	return r
}

func (m *Manager) removeRoom(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[id]; ok {
		r.Stop()
		delete(m.rooms, id)
		metrics.ActiveRooms.Set(float64(len(m.rooms)))
		m.log.Info().Str("event", "room.removed").Int("room_id", id).Msg("room cleaned up")
	}
}

// Room returns the room with the given id, if it exists.
func (m *Manager) Room(id int) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	return r, ok
}

func (m *Manager) roomsSnapshot() []*Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Room, 0, len(m.rooms))
	for id := 1; id <= m.maxRooms; id++ {
		if r, ok := m.rooms[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Statuses returns a snapshot of every live room, ordered by room id.
func (m *Manager) Statuses() []Status {
	var out []Status
	for _, r := range m.roomsSnapshot() {
		if s, ok := queryRoom(r); ok {
			out = append(out, s)
		}
	}
	return out
}

// ActiveStatuses returns the rooms with a running game.
func (m *Manager) ActiveStatuses() []Status {
	var out []Status
	for _, s := range m.Statuses() {
		if s.GameRunning {
			out = append(out, s)
		}
	}
	return out
}

func queryRoom(r *Room) (Status, bool) {
	reply := make(chan Status, 1)
	select {
	case r.Inbox <- Query{Reply: reply}:
	case <-time.After(queryTimeout):
		return Status{}, false
	}
	select {
	case s := <-reply:
		return s, true
	case <-time.After(queryTimeout):
		return Status{}, false
	}
}

// AttachObserver places an observer. With an active game running the
// observer lands in that room; otherwise a bot-vs-bot match is launched
// and the observer parks in the lobby until it starts.
func (m *Manager) AttachObserver(observerID string, conn Conn) (*Room, bool) {
	for _, s := range m.ActiveStatuses() {
		if r, ok := m.Room(s.RoomID); ok {
			r.Inbox <- ObserverJoin{ID: observerID, Conn: conn}
			return r, false
		}
	}

	if b, err := protocol.Encode(protocol.ObserverLobby{
		Type:    protocol.TypeObserverLobby,
		Message: "No active games. Launching bot-vs-bot match...",
	}); err == nil {
		_ = conn.Send(b)
	}
	m.log.Info().Str("event", "observer.lobby").Msg("observer waiting, spawning bot-vs-bot match")
	m.SpawnBotVsBot(3+rand.IntN(6), 3+rand.IntN(6))

	m.mu.Lock()
	m.lobbyObservers[observerID] = conn
	m.mu.Unlock()
	return nil, true
}

// DetachObserver removes an observer from its room or from the lobby.
func (m *Manager) DetachObserver(observerID string, r *Room) {
	if r != nil {
		select {
		case r.Inbox <- ObserverLeave{ID: observerID}:
		default:
		}
		return
	}
	m.mu.Lock()
	delete(m.lobbyObservers, observerID)
	m.mu.Unlock()
}

// SwitchObserver moves an observer to another room with a running game.
// Lobby observers cannot switch; they are promoted into the first active
// game by BroadcastRoomList instead.
func (m *Manager) SwitchObserver(observerID string, conn Conn, from *Room, targetID int) (*Room, error) {
	if from == nil {
		return nil, fmt.Errorf("room %d not available", targetID)
	}
	target, ok := m.Room(targetID)
	if !ok {
		return nil, fmt.Errorf("room %d not available", targetID)
	}
	s, ok := queryRoom(target)
	if !ok || !s.GameRunning {
		return nil, fmt.Errorf("room %d not available", targetID)
	}
	if from != nil {
		from.Inbox <- ObserverLeave{ID: observerID}
	}
	target.Inbox <- ObserverJoin{ID: observerID, Conn: conn}
	m.log.Info().
		Str("event", "observer.switch").
		Int("room_id", targetID).
		Msg("observer switched room")
	return target, nil
}

// SpawnBotVsBot launches two bots against each other so observers have
// something to watch.
func (m *Manager) SpawnBotVsBot(d1, d2 int) {
	if m.spawn == nil {
		return
	}
	for _, d := range []int{d1, d2} {
		if _, err := m.spawn(d); err != nil {
			m.log.Error().Err(err).Str("event", "bot.spawn_failed").Msg("failed to spawn bot-vs-bot match")
			return
		}
	}
	m.log.Info().
		Str("event", "bot.vs_bot").
		Int("difficulty_1", d1).
		Int("difficulty_2", d2).
		Msg("spawned bot-vs-bot match")
}

// RoomListEntries converts active room statuses to their wire form.
func RoomListEntries(statuses []Status) []protocol.RoomListEntry {
	entries := make([]protocol.RoomListEntry, 0, len(statuses))
	for _, s := range statuses {
		entries = append(entries, protocol.RoomListEntry{
			RoomID: s.RoomID,
			Names:  s.Names,
			Wins:   s.Wins,
		})
	}
	return entries
}

// BroadcastRoomList refreshes every observer's view of the active rooms
// and promotes lobby observers into the first active game.
func (m *Manager) BroadcastRoomList() {
	active := m.ActiveStatuses()
	entries := RoomListEntries(active)

	for _, r := range m.roomsSnapshot() {
		current := r.ID
		frame, err := protocol.Encode(protocol.RoomList{
			Type:        protocol.TypeRoomList,
			Rooms:       entries,
			CurrentRoom: &current,
		})
		if err != nil {
			continue
		}
		select {
		case r.Inbox <- pushRoomList{frame: frame}:
		default:
		}
	}

	m.mu.Lock()
	lobby := make(map[string]Conn, len(m.lobbyObservers))
	for id, c := range m.lobbyObservers {
		lobby[id] = c
	}
	m.mu.Unlock()
	if len(lobby) == 0 {
		return
	}

	if len(active) == 0 {
		frame, err := protocol.Encode(protocol.RoomList{Type: protocol.TypeRoomList, Rooms: []protocol.RoomListEntry{}})
		if err != nil {
			return
		}
		for _, c := range lobby {
			_ = c.Send(frame)
		}
		return
	}

	first, ok := m.Room(active[0].RoomID)
	if !ok {
		return
	}
	current := first.ID
	frame, err := protocol.Encode(protocol.RoomList{
		Type:        protocol.TypeRoomList,
		Rooms:       entries,
		CurrentRoom: &current,
	})
	for id, c := range lobby {
		// Both go through the room inbox so the observer sees
		// observer_joined before the room list.
		first.Inbox <- ObserverJoin{ID: id, Conn: c}
		if err == nil {
			first.Inbox <- pushRoomList{frame: frame}
		}
		m.log.Info().
			Str("event", "observer.promoted").
			Int("room_id", first.ID).
			Msg("lobby observer joined room")
	}
	m.mu.Lock()
	for id := range lobby {
		delete(m.lobbyObservers, id)
	}
	m.mu.Unlock()
}

// Shutdown stops every room goroutine.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rooms {
		r.Stop()
		delete(m.rooms, id)
	}
	metrics.ActiveRooms.Set(0)
}
