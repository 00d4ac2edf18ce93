package room

import (
	"testing"
	"time"

	"github.com/nonfamousd/copperhead-server/internal/game"
	"github.com/nonfamousd/copperhead-server/internal/protocol"
)

// Fast enough to keep tests short, slow enough that "active game" checks
// run well before an unsteered game ends at the walls (~25 ticks).
const testTick = 20 * time.Millisecond

type fakeConn struct {
	sendCh chan []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{sendCh: make(chan []byte, 256)}
}

func (f *fakeConn) Send(b []byte) error {
	cp := make([]byte, len(b))
	copy(cp, b)
	select {
	case f.sendCh <- cp:
	default: // drop when the test isn't draining
	}
	return nil
}

func (f *fakeConn) Close() error { return nil }

func join(t *testing.T, r *Room, fc *fakeConn) int {
	t.Helper()
	reply := make(chan JoinReply, 1)
	r.Inbox <- Join{Conn: fc, Reply: reply}
	select {
	case res := <-reply:
		if !res.OK {
			t.Fatalf("join rejected")
		}
		return res.PlayerID
	case <-time.After(time.Second):
		t.Fatalf("timed out joining room")
		return 0
	}
}

// waitForFrame drains fc until a frame of the wanted type arrives.
func waitForFrame(t *testing.T, fc *fakeConn, want string) []byte {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case b := <-fc.sendCh:
			typ, err := protocol.PeekType(b)
			if err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			if typ == want {
				return b
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q frame", want)
		}
	}
}

func TestJoinBroadcastsState(t *testing.T) {
	r := New(1, testTick)
	go r.Run()
	defer r.Stop()

	fc := newFakeConn()
	pid := join(t, r, fc)
	if pid != game.PlayerOne {
		t.Fatalf("first join got player id %d, want 1", pid)
	}

	b := waitForFrame(t, fc, protocol.TypeState)
	st, err := protocol.DecodeServer[protocol.State](b)
	if err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if st.RoomID != 1 {
		t.Fatalf("room_id = %d, want 1", st.RoomID)
	}
	if len(st.Game.Snakes) != 2 {
		t.Fatalf("snapshot has %d snakes, want 2", len(st.Game.Snakes))
	}
	if st.Game.Running {
		t.Fatalf("game running before anyone is ready")
	}
}

func TestJoinSendsStateThenAssignment(t *testing.T) {
	r := New(1, testTick)
	go r.Run()
	defer r.Stop()

	fc := newFakeConn()
	join(t, r, fc)

	// The joining client gets the board snapshot first, then its slot.
	for _, want := range []string{protocol.TypeState, protocol.TypeJoined} {
		select {
		case b := <-fc.sendCh:
			typ, err := protocol.PeekType(b)
			if err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			if typ != want {
				t.Fatalf("frame type = %q, want %q", typ, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %q frame", want)
		}
	}
}

func TestRoomPlaysOnConfiguredGrid(t *testing.T) {
	r := NewSized(1, testTick, 16, 8)
	go r.Run()
	defer r.Stop()

	fc := newFakeConn()
	join(t, r, fc)

	b := waitForFrame(t, fc, protocol.TypeState)
	st, err := protocol.DecodeServer[protocol.State](b)
	if err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if st.Game.Grid.Width != 16 || st.Game.Grid.Height != 8 {
		t.Fatalf("grid = %dx%d, want 16x8", st.Game.Grid.Width, st.Game.Grid.Height)
	}
}

func TestSecondSlotAndFullRoom(t *testing.T) {
	r := New(1, testTick)
	go r.Run()
	defer r.Stop()

	if pid := join(t, r, newFakeConn()); pid != game.PlayerOne {
		t.Fatalf("pid = %d, want 1", pid)
	}
	if pid := join(t, r, newFakeConn()); pid != game.PlayerTwo {
		t.Fatalf("pid = %d, want 2", pid)
	}

	reply := make(chan JoinReply, 1)
	r.Inbox <- Join{Conn: newFakeConn(), Reply: reply}
	if res := <-reply; res.OK {
		t.Fatalf("third join accepted into a full room")
	}
}

func TestLoneReadyGetsWaitingMessage(t *testing.T) {
	r := New(1, testTick)
	go r.Run()
	defer r.Stop()

	fc := newFakeConn()
	pid := join(t, r, fc)
	r.Inbox <- Ready{PlayerID: pid, Mode: game.ModeTwoPlayer, Name: "alice"}

	b := waitForFrame(t, fc, protocol.TypeWaiting)
	w, err := protocol.DecodeServer[protocol.Waiting](b)
	if err != nil {
		t.Fatalf("decode waiting: %v", err)
	}
	if w.Message != "Waiting for Player 2..." {
		t.Fatalf("waiting message = %q", w.Message)
	}
}

type fakeBot struct {
	stopped chan struct{}
}

func (f *fakeBot) Stop() { close(f.stopped) }

func TestVsAIReadySpawnsBot(t *testing.T) {
	r := New(1, testTick)
	spawned := make(chan int, 1)
	bot := &fakeBot{stopped: make(chan struct{})}
	r.SpawnBot = func(difficulty int) (BotHandle, error) {
		spawned <- difficulty
		return bot, nil
	}
	go r.Run()
	defer r.Stop()

	fc := newFakeConn()
	pid := join(t, r, fc)
	r.Inbox <- Ready{PlayerID: pid, Mode: game.ModeVsAI, Name: "alice", Difficulty: 7}

	select {
	case d := <-spawned:
		if d != 7 {
			t.Fatalf("spawned difficulty = %d, want 7", d)
		}
	case <-time.After(time.Second):
		t.Fatalf("bot never spawned")
	}

	b := waitForFrame(t, fc, protocol.TypeWaiting)
	w, _ := protocol.DecodeServer[protocol.Waiting](b)
	if w.Message != "Launching CopperBot..." {
		t.Fatalf("waiting message = %q", w.Message)
	}

	// Player disconnect stops the bot.
	r.Inbox <- Leave{PlayerID: pid}
	select {
	case <-bot.stopped:
	case <-time.After(time.Second):
		t.Fatalf("bot not stopped after player left")
	}
}

func TestTwoReadyPlayersStartGame(t *testing.T) {
	r := New(1, testTick)
	go r.Run()
	defer r.Stop()

	fc1, fc2 := newFakeConn(), newFakeConn()
	p1 := join(t, r, fc1)
	p2 := join(t, r, fc2)

	r.Inbox <- Ready{PlayerID: p1, Mode: game.ModeTwoPlayer, Name: "alice"}
	r.Inbox <- Ready{PlayerID: p2, Mode: game.ModeTwoPlayer, Name: "bob"}

	b := waitForFrame(t, fc1, protocol.TypeStart)
	start, err := protocol.DecodeServer[protocol.Start](b)
	if err != nil {
		t.Fatalf("decode start: %v", err)
	}
	if start.Mode != game.ModeTwoPlayer {
		t.Fatalf("start mode = %q", start.Mode)
	}

	b = waitForFrame(t, fc2, protocol.TypeState)
	st, _ := protocol.DecodeServer[protocol.State](b)
	for !st.Game.Running {
		b = waitForFrame(t, fc2, protocol.TypeState)
		st, _ = protocol.DecodeServer[protocol.State](b)
	}
	if st.Names[p1] != "alice" || st.Names[p2] != "bob" {
		t.Fatalf("names = %v", st.Names)
	}
}

func TestMoveShowsUpInState(t *testing.T) {
	r := New(1, testTick)
	go r.Run()
	defer r.Stop()

	fc1, fc2 := newFakeConn(), newFakeConn()
	p1 := join(t, r, fc1)
	p2 := join(t, r, fc2)
	r.Inbox <- Ready{PlayerID: p1}
	r.Inbox <- Ready{PlayerID: p2}
	waitForFrame(t, fc1, protocol.TypeStart)

	r.Inbox <- Move{PlayerID: p1, Direction: game.Up}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case b := <-fc1.sendCh:
			typ, _ := protocol.PeekType(b)
			if typ != protocol.TypeState {
				continue
			}
			st, err := protocol.DecodeServer[protocol.State](b)
			if err != nil {
				t.Fatalf("decode state: %v", err)
			}
			if st.Game.Snakes[p1].Direction == string(game.Up) {
				return
			}
		case <-timeout:
			t.Fatalf("direction change never reached a snapshot")
		}
	}
}

func TestGameOverTalliesWinAndClearsReady(t *testing.T) {
	r := New(1, testTick)
	go r.Run()
	defer r.Stop()

	fc1, fc2 := newFakeConn(), newFakeConn()
	p1 := join(t, r, fc1)
	p2 := join(t, r, fc2)
	r.Inbox <- Ready{PlayerID: p1}
	r.Inbox <- Ready{PlayerID: p2}
	waitForFrame(t, fc1, protocol.TypeStart)

	// Drive player 1 straight into the top wall; player 2 survives.
	r.Inbox <- Move{PlayerID: p1, Direction: game.Up}

	b := waitForFrame(t, fc2, protocol.TypeGameOver)
	over, err := protocol.DecodeServer[protocol.GameOver](b)
	if err != nil {
		t.Fatalf("decode gameover: %v", err)
	}
	if over.Winner == nil || *over.Winner != p2 {
		t.Fatalf("winner = %v, want player %d", over.Winner, p2)
	}
	if over.Wins[p2] != 1 || over.Wins[p1] != 0 {
		t.Fatalf("wins = %v", over.Wins)
	}
}

func TestLeaveResetsRoomAndFiresOnEmpty(t *testing.T) {
	r := New(1, testTick)
	empty := make(chan int, 1)
	r.OnEmpty = func(id int) { empty <- id }
	go r.Run()
	defer r.Stop()

	fc := newFakeConn()
	pid := join(t, r, fc)
	r.Inbox <- Leave{PlayerID: pid}

	select {
	case id := <-empty:
		if id != 1 {
			t.Fatalf("OnEmpty id = %d, want 1", id)
		}
	case <-time.After(time.Second):
		t.Fatalf("OnEmpty never fired")
	}
}

func TestObserverJoinGetsSnapshot(t *testing.T) {
	r := New(3, testTick)
	go r.Run()
	defer r.Stop()

	fc := newFakeConn()
	r.Inbox <- ObserverJoin{ID: "obs-1", Conn: fc}

	b := waitForFrame(t, fc, protocol.TypeObserverJoined)
	oj, err := protocol.DecodeServer[protocol.ObserverJoined](b)
	if err != nil {
		t.Fatalf("decode observer_joined: %v", err)
	}
	if oj.RoomID != 3 {
		t.Fatalf("room_id = %d, want 3", oj.RoomID)
	}
	if len(oj.Game.Snakes) != 2 {
		t.Fatalf("snapshot has %d snakes", len(oj.Game.Snakes))
	}
}

func TestQueryReportsWaitingRoom(t *testing.T) {
	r := New(1, testTick)
	go r.Run()
	defer r.Stop()

	join(t, r, newFakeConn())

	reply := make(chan Status, 1)
	r.Inbox <- Query{Reply: reply}
	select {
	case s := <-reply:
		if !s.WaitingForPlayer {
			t.Fatalf("room with one idle player should be waiting")
		}
		if s.GameRunning {
			t.Fatalf("no game should be running")
		}
		if len(s.Players) != 1 || s.Players[0] != game.PlayerOne {
			t.Fatalf("players = %v", s.Players)
		}
	case <-time.After(time.Second):
		t.Fatalf("status query timed out")
	}
}
