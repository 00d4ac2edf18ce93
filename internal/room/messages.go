package room

import "github.com/nonfamousd/copperhead-server/internal/game"

// Conn is the piece of a client connection a room needs. The network
// layer implements it with a buffered write pump, so Send never blocks
// the room loop for long.
type Conn interface {
	Send([]byte) error
	Close() error
}

// Commands posted to a room's Inbox. The room goroutine owns all state;
// nothing outside it touches the game.

// Join asks for a player slot. RequireWaiting restricts the join to a
// room that already has exactly one player and no running game, which is
// what matchmaking and the legacy player-2 endpoint need.
type Join struct {
	Conn           Conn
	RequireWaiting bool
	Reply          chan<- JoinReply
}

type JoinReply struct {
	OK       bool
	PlayerID int
}

// Ready marks a player ready to start. The first ready player fixes the
// mode and, for vs_ai, triggers the bot spawn.
type Ready struct {
	PlayerID   int
	Mode       string
	Name       string
	Difficulty int
}

// Move queues a direction change for a player's snake.
type Move struct {
	PlayerID  int
	Direction game.Direction
}

// Leave is issued on player disconnect.
type Leave struct {
	PlayerID int
}

// ObserverJoin attaches a spectator connection.
type ObserverJoin struct {
	ID   string
	Conn Conn
}

// ObserverLeave detaches a spectator.
type ObserverLeave struct {
	ID string
}

// Query asks for a status snapshot.
type Query struct {
	Reply chan<- Status
}

// Status is a point-in-time view of a room, safe to use outside the
// room goroutine.
type Status struct {
	RoomID           int
	Players          []int
	Observers        int
	GameRunning      bool
	WaitingForPlayer bool
	Names            map[int]string
	Wins             map[int]int
}

// pushRoomList fans a room-list frame out to this room's observers.
type pushRoomList struct {
	frame []byte
}
