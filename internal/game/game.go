package game

import "math/rand/v2"

// Game is the authoritative state of one match. It is pure simulation:
// no I/O, no clocks. The owning room drives it by calling Update once
// per tick.
type Game struct {
	Mode    string
	Width   int
	Height  int
	Snakes  map[int]*Snake
	Food    *Point
	Running bool
	Winner  *int // nil while running, and on a draw
}

func NewGame(mode string) *Game {
	return NewGameSized(mode, GridWidth, GridHeight)
}

// NewGameSized builds a game on a custom grid. Width must leave room for
// the two spawn cells at x=5 and x=width-6.
func NewGameSized(mode string, width, height int) *Game {
	g := &Game{Mode: mode, Width: width, Height: height}
	g.Reset()
	return g
}

// Reset puts both snakes at their spawn cells facing each other and
// drops the first food.
func (g *Game) Reset() {
	g.Snakes = map[int]*Snake{
		PlayerOne: NewSnake(PlayerOne, Point{5, g.Height / 2}, Right),
		PlayerTwo: NewSnake(PlayerTwo, Point{g.Width - 6, g.Height / 2}, Left),
	}
	g.Food = nil
	g.Running = false
	g.Winner = nil
	g.SpawnFood()
}

// SpawnFood places food on a uniformly random free cell. On a full board
// the food stays nil.
func (g *Game) SpawnFood() {
	var free []Point
	for x := 0; x < g.Width; x++ {
		for y := 0; y < g.Height; y++ {
			p := Point{x, y}
			occupied := false
			for _, s := range g.Snakes {
				if s.Occupies(p) {
					occupied = true
					break
				}
			}
			if !occupied {
				free = append(free, p)
			}
		}
	}
	if len(free) == 0 {
		g.Food = nil
		return
	}
	p := free[rand.IntN(len(free))]
	g.Food = &p
}

// QueueDirection queues a direction change for one player's snake.
func (g *Game) QueueDirection(playerID int, d Direction) {
	if s, ok := g.Snakes[playerID]; ok {
		s.QueueDirection(d)
	}
}

// Update advances the match by one tick: move every live snake (growing
// through food), then resolve collisions, then check for the end of the
// match. Collisions are resolved after all moves, so a head-on collision
// kills both snakes and the match is a draw.
func (g *Game) Update() {
	if !g.Running {
		return
	}

	// Snakes move in player order, so when both heads target the food on
	// the same tick player 1 eats and food respawns before player 2 moves.
	for _, id := range [...]int{PlayerOne, PlayerTwo} {
		s, ok := g.Snakes[id]
		if !ok || !s.Alive {
			continue
		}
		grow := g.Food != nil && s.NextHead() == *g.Food
		s.Move(grow)
		if grow {
			g.SpawnFood()
		}
	}

	for _, s := range g.Snakes {
		if !s.Alive {
			continue
		}
		head := s.Head()
		if head.X < 0 || head.X >= g.Width || head.Y < 0 || head.Y >= g.Height {
			s.Alive = false
		}
		if s.hitSelf() {
			s.Alive = false
		}
		for _, other := range g.Snakes {
			if other.PlayerID != s.PlayerID && other.Occupies(head) {
				s.Alive = false
			}
		}
	}

	var alive []*Snake
	for _, s := range g.Snakes {
		if s.Alive {
			alive = append(alive, s)
		}
	}
	if len(alive) <= 1 {
		g.Running = false
		if len(alive) == 1 {
			id := alive[0].PlayerID
			g.Winner = &id
		}
	}
}
