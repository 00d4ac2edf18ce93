package protocol

import (
	"encoding/json"
	"testing"

	"github.com/nonfamousd/copperhead-server/internal/game"
)

func TestDecodeClientMove(t *testing.T) {
	m, err := Decode([]byte(`{"action":"move","direction":"up"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Action != ActionMove || m.Direction != "up" {
		t.Fatalf("got %+v", m)
	}
}

func TestDecodeClientReadyDefaults(t *testing.T) {
	m, err := Decode([]byte(`{"action":"ready","mode":"vs_ai","name":"alice"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Difficulty() != DefaultDifficulty {
		t.Fatalf("difficulty = %d, want default %d", m.Difficulty(), DefaultDifficulty)
	}

	m, err = Decode([]byte(`{"action":"ready","ai_difficulty":42}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Difficulty() != MaxDifficulty {
		t.Fatalf("difficulty = %d, want clamped %d", m.Difficulty(), MaxDifficulty)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode(nil); err == nil {
		t.Fatalf("expected error for empty frame")
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for invalid json")
	}
	if _, err := Decode([]byte(`{"direction":"up"}`)); err == nil {
		t.Fatalf("expected error for missing action")
	}
}

func TestSnapshotWireShape(t *testing.T) {
	g := game.NewGame(game.ModeTwoPlayer)
	g.Running = true

	b, err := Encode(State{
		Type:   TypeState,
		Game:   Snapshot(g),
		Wins:   map[int]int{1: 0, 2: 0},
		Names:  map[int]string{1: "Player 1", 2: "Player 2"},
		RoomID: 3,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Decode generically to check the shapes clients depend on: snake map
	// keyed by string ids, bodies as arrays of [x,y] pairs.
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["type"] != TypeState {
		t.Fatalf("type = %v", raw["type"])
	}
	gm := raw["game"].(map[string]any)
	snakes := gm["snakes"].(map[string]any)
	if _, ok := snakes["1"]; !ok {
		t.Fatalf("snakes not keyed by string player id: %v", snakes)
	}
	s1 := snakes["1"].(map[string]any)
	body := s1["body"].([]any)
	cell := body[0].([]any)
	if len(cell) != 2 {
		t.Fatalf("body cell = %v, want [x,y]", cell)
	}
	grid := gm["grid"].(map[string]any)
	if grid["width"].(float64) != game.GridWidth {
		t.Fatalf("grid width = %v", grid["width"])
	}

	typ, err := PeekType(b)
	if err != nil || typ != TypeState {
		t.Fatalf("PeekType = %q, %v", typ, err)
	}
}
