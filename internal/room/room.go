package room

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/nonfamousd/copperhead-server/internal/game"
	chlog "github.com/nonfamousd/copperhead-server/internal/log"
	"github.com/nonfamousd/copperhead-server/internal/metrics"
	"github.com/nonfamousd/copperhead-server/internal/protocol"
)

// BotHandle is a running CopperBot process.
type BotHandle interface {
	Stop()
}

// Room hosts one match: two player slots, any number of observers, and
// the authoritative game. A single goroutine (Run) owns everything and
// drains Inbox; the ticker drives the simulation while a game runs.
type Room struct {
	ID    int
	Inbox chan any

	// OnEmpty is called when the last player leaves.
	OnEmpty func(id int)
	// OnGameEvent is called after a game starts or ends, so the manager
	// can refresh observer room lists. Invoked on its own goroutine.
	OnGameEvent func()
	// SpawnBot launches a CopperBot opponent for vs_ai games.
	SpawnBot func(difficulty int) (BotHandle, error)

	gridWidth  int
	gridHeight int

	tick        time.Duration
	g           *game.Game
	conns       map[int]Conn
	observers   map[string]Conn
	ready       map[int]bool
	pendingMode string
	names       map[int]string
	wins        map[int]int
	bot         BotHandle
	startedAt   time.Time
	quit        chan struct{}
	log         zerolog.Logger
}

func New(id int, tick time.Duration) *Room {
	return NewSized(id, tick, game.GridWidth, game.GridHeight)
}

// NewSized builds a room whose games run on a custom grid.
func NewSized(id int, tick time.Duration, gridWidth, gridHeight int) *Room {
	r := &Room{
		ID:         id,
		Inbox:      make(chan any, 256),
		gridWidth:  gridWidth,
		gridHeight: gridHeight,
		tick:       tick,
		quit:       make(chan struct{}),
		log:        chlog.WithRoom("room", id),
	}
	r.resetSession()
	return r
}

func (r *Room) resetSession() {
	r.conns = map[int]Conn{}
	r.observers = map[string]Conn{}
	r.resetMatchState()
}

// resetMatchState clears everything a departing player invalidates while
// keeping connections intact.
func (r *Room) resetMatchState() {
	r.g = game.NewGameSized(game.ModeTwoPlayer, r.gridWidth, r.gridHeight)
	r.ready = map[int]bool{}
	r.pendingMode = game.ModeTwoPlayer
	r.names = map[int]string{
		game.PlayerOne: "Player 1",
		game.PlayerTwo: "Player 2",
	}
	r.wins = map[int]int{game.PlayerOne: 0, game.PlayerTwo: 0}
	r.stopBot()
}

func (r *Room) Stop() {
	close(r.quit)
}

func (r *Room) Run() {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			r.stopBot()
			return
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		case <-ticker.C:
			r.step()
		}
	}
}

func (r *Room) step() {
	if !r.g.Running {
		return
	}
	r.g.Update()
	r.broadcastState()
	if r.g.Running {
		return
	}

	// Game just ended.
	outcome := "draw"
	if r.g.Winner != nil {
		outcome = "win"
		r.wins[*r.g.Winner]++
		r.log.Info().
			Str("event", "game.over").
			Str("winner", r.names[*r.g.Winner]).
			Msg("game over")
	} else {
		r.log.Info().Str("event", "game.over").Msg("game over, draw")
	}
	metrics.ObserveGameCompleted(outcome, time.Since(r.startedAt))

	r.broadcast(protocol.GameOver{
		Type:   protocol.TypeGameOver,
		Winner: r.g.Winner,
		Wins:   copyWins(r.wins),
		Names:  copyNames(r.names),
		RoomID: r.ID,
	})
	r.ready = map[int]bool{}
	r.notifyGameEvent()
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		r.handleJoin(c)
	case Ready:
		r.handleReady(c)
	case Move:
		if r.g.Running && c.Direction.Valid() {
			r.g.QueueDirection(c.PlayerID, c.Direction)
		}
	case Leave:
		r.handleLeave(c.PlayerID)
	case ObserverJoin:
		r.observers[c.ID] = c.Conn
		r.sendTo(c.Conn, protocol.ObserverJoined{
			Type:   protocol.TypeObserverJoined,
			RoomID: r.ID,
			Game:   protocol.Snapshot(r.g),
			Wins:   copyWins(r.wins),
			Names:  copyNames(r.names),
		})
		r.log.Info().
			Str("event", "observer.join").
			Int("observers", len(r.observers)).
			Msg("observer connected")
	case ObserverLeave:
		if _, ok := r.observers[c.ID]; ok {
			delete(r.observers, c.ID)
			r.log.Info().
				Str("event", "observer.leave").
				Int("observers", len(r.observers)).
				Msg("observer disconnected")
		}
	case Query:
		c.Reply <- r.status()
	case pushRoomList:
		for id, conn := range r.observers {
			if err := conn.Send(c.frame); err != nil {
				delete(r.observers, id)
			}
		}
	}
}

func (r *Room) handleJoin(c Join) {
	if c.RequireWaiting && !r.waitingForPlayer() {
		c.Reply <- JoinReply{}
		return
	}
	pid := r.availableSlot()
	if pid == 0 {
		c.Reply <- JoinReply{}
		return
	}
	r.conns[pid] = c.Conn
	c.Reply <- JoinReply{OK: true, PlayerID: pid}
	// The snapshot goes out first, then the assignment, through the same
	// send channel. Clients key on the joined frame to learn their slot,
	// so they see a board before they know which snake is theirs.
	r.broadcastState()
	r.sendTo(c.Conn, protocol.Joined{Type: protocol.TypeJoined, RoomID: r.ID, PlayerID: pid})
	r.log.Info().
		Str("event", "player.join").
		Int("player_id", pid).
		Int("players", len(r.conns)).
		Msg("player connected")
}

func (r *Room) handleReady(c Ready) {
	if _, ok := r.conns[c.PlayerID]; !ok {
		return
	}
	// Only the first ready player picks the mode; the bot joining later
	// must not flip it back.
	if len(r.ready) == 0 && (c.Mode == game.ModeTwoPlayer || c.Mode == game.ModeVsAI) {
		r.pendingMode = c.Mode
	}

	name := c.Name
	if name == "" {
		name = r.names[c.PlayerID]
	}
	r.names[c.PlayerID] = name

	if c.Mode == game.ModeVsAI && r.bot == nil && r.SpawnBot != nil {
		bot, err := r.SpawnBot(c.Difficulty)
		if err != nil {
			r.log.Error().Err(err).Str("event", "bot.spawn_failed").Msg("failed to spawn CopperBot")
		} else {
			r.bot = bot
			r.log.Info().
				Str("event", "bot.spawned").
				Int("difficulty", c.Difficulty).
				Msg("CopperBot spawned")
		}
	}

	r.ready[c.PlayerID] = true
	r.log.Info().
		Str("event", "player.ready").
		Str("name", name).
		Str("mode", r.pendingMode).
		Int("ready", len(r.ready)).
		Msg("player ready")

	if len(r.ready) >= 2 && !r.g.Running {
		r.startGame()
		return
	}
	if len(r.ready) < 2 {
		msg := "Waiting for Player 2..."
		if r.pendingMode == game.ModeVsAI {
			msg = "Launching CopperBot..."
		}
		r.sendTo(r.conns[c.PlayerID], protocol.Waiting{Type: protocol.TypeWaiting, Message: msg})
	}
}

func (r *Room) startGame() {
	r.g = game.NewGameSized(r.pendingMode, r.gridWidth, r.gridHeight)
	r.g.Running = true
	r.startedAt = time.Now()
	metrics.GamesStartedTotal.WithLabelValues(r.pendingMode).Inc()
	r.log.Info().
		Str("event", "game.start").
		Str("mode", r.pendingMode).
		Msg("game started")

	r.broadcast(protocol.Start{Type: protocol.TypeStart, Mode: r.pendingMode, RoomID: r.ID})
	r.notifyGameEvent()
}

func (r *Room) handleLeave(playerID int) {
	if _, ok := r.conns[playerID]; !ok {
		return
	}
	delete(r.conns, playerID)
	if r.g.Running {
		r.log.Info().Str("event", "game.stop").Msg("game stopped, player disconnected")
	}
	// A departing player invalidates the whole session: names, tallies,
	// the running game and any spawned bot.
	r.resetMatchState()
	r.log.Info().
		Str("event", "player.leave").
		Int("player_id", playerID).
		Int("players", len(r.conns)).
		Msg("player disconnected")

	if len(r.conns) == 0 && r.OnEmpty != nil {
		r.OnEmpty(r.ID)
	}
}

func (r *Room) waitingForPlayer() bool {
	return len(r.conns) == 1 && !r.g.Running
}

func (r *Room) availableSlot() int {
	if _, ok := r.conns[game.PlayerOne]; !ok {
		return game.PlayerOne
	}
	if _, ok := r.conns[game.PlayerTwo]; !ok {
		return game.PlayerTwo
	}
	return 0
}

func (r *Room) status() Status {
	players := make([]int, 0, len(r.conns))
	for pid := range r.conns {
		players = append(players, pid)
	}
	sort.Ints(players)
	return Status{
		RoomID:           r.ID,
		Players:          players,
		Observers:        len(r.observers),
		GameRunning:      r.g.Running,
		WaitingForPlayer: r.waitingForPlayer(),
		Names:            copyNames(r.names),
		Wins:             copyWins(r.wins),
	}
}

func (r *Room) broadcastState() {
	r.broadcast(protocol.State{
		Type:   protocol.TypeState,
		Game:   protocol.Snapshot(r.g),
		Wins:   copyWins(r.wins),
		Names:  copyNames(r.names),
		RoomID: r.ID,
	})
}

func (r *Room) broadcast(msg any) {
	b, err := protocol.Encode(msg)
	if err != nil {
		return
	}
	var failed []int
	for pid, c := range r.conns {
		if err := c.Send(b); err != nil {
			failed = append(failed, pid)
		}
	}
	for id, c := range r.observers {
		if err := c.Send(b); err != nil {
			delete(r.observers, id)
		}
	}
	for _, pid := range failed {
		r.handleLeave(pid)
	}
}

func (r *Room) sendTo(c Conn, msg any) {
	if c == nil {
		return
	}
	b, err := protocol.Encode(msg)
	if err != nil {
		return
	}
	_ = c.Send(b)
}

func (r *Room) stopBot() {
	if r.bot != nil {
		r.bot.Stop()
		r.bot = nil
		r.log.Info().Str("event", "bot.stopped").Msg("CopperBot process stopped")
	}
}

func (r *Room) notifyGameEvent() {
	if r.OnGameEvent != nil {
		go r.OnGameEvent()
	}
}

func copyWins(w map[int]int) map[int]int {
	out := make(map[int]int, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

func copyNames(n map[int]string) map[int]string {
	out := make(map[int]string, len(n))
	for k, v := range n {
		out[k] = v
	}
	return out
}
