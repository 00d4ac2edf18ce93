package protocol

import "github.com/nonfamousd/copperhead-server/internal/game"

// Messages the server sends. Field layouts match the browser client and
// existing bots, so snake ids appear as JSON object keys ("1"/"2") and
// grid cells as [x,y] arrays.

type GridSnapshot struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type SnakeSnapshot struct {
	PlayerID  int          `json:"player_id"`
	Body      []game.Point `json:"body"`
	Direction string       `json:"direction"`
	Alive     bool         `json:"alive"`
}

type GameSnapshot struct {
	Mode    string                `json:"mode"`
	Grid    GridSnapshot          `json:"grid"`
	Snakes  map[int]SnakeSnapshot `json:"snakes"`
	Food    *game.Point           `json:"food"`
	Running bool                  `json:"running"`
	Winner  *int                  `json:"winner"`
}

// Snapshot converts authoritative game state into its wire form.
func Snapshot(g *game.Game) GameSnapshot {
	snakes := make(map[int]SnakeSnapshot, len(g.Snakes))
	for id, s := range g.Snakes {
		body := make([]game.Point, len(s.Body))
		copy(body, s.Body)
		snakes[id] = SnakeSnapshot{
			PlayerID:  s.PlayerID,
			Body:      body,
			Direction: string(s.Direction),
			Alive:     s.Alive,
		}
	}
	var food *game.Point
	if g.Food != nil {
		f := *g.Food
		food = &f
	}
	return GameSnapshot{
		Mode:    g.Mode,
		Grid:    GridSnapshot{Width: g.Width, Height: g.Height},
		Snakes:  snakes,
		Food:    food,
		Running: g.Running,
		Winner:  g.Winner,
	}
}

type Joined struct {
	Type     string `json:"type"`
	RoomID   int    `json:"room_id"`
	PlayerID int    `json:"player_id"`
}

type Waiting struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Start struct {
	Type   string `json:"type"`
	Mode   string `json:"mode"`
	RoomID int    `json:"room_id"`
}

type State struct {
	Type   string         `json:"type"`
	Game   GameSnapshot   `json:"game"`
	Wins   map[int]int    `json:"wins"`
	Names  map[int]string `json:"names"`
	RoomID int            `json:"room_id"`
}

type GameOver struct {
	Type   string         `json:"type"`
	Winner *int           `json:"winner"`
	Wins   map[int]int    `json:"wins"`
	Names  map[int]string `json:"names"`
	RoomID int            `json:"room_id"`
}

type ObserverJoined struct {
	Type   string         `json:"type"`
	RoomID int            `json:"room_id"`
	Game   GameSnapshot   `json:"game"`
	Wins   map[int]int    `json:"wins"`
	Names  map[int]string `json:"names"`
}

type ObserverLobby struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type RoomListEntry struct {
	RoomID int            `json:"room_id"`
	Names  map[int]string `json:"names"`
	Wins   map[int]int    `json:"wins"`
}

type RoomList struct {
	Type        string          `json:"type"`
	Rooms       []RoomListEntry `json:"rooms"`
	CurrentRoom *int            `json:"current_room"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
