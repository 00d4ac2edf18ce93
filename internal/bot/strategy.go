package bot

import (
	"math/rand/v2"

	"github.com/nonfamousd/copperhead-server/internal/game"
	"github.com/nonfamousd/copperhead-server/internal/protocol"
)

// Strategy picks directions from state snapshots. Difficulty sets how
// far ahead it looks and how often it blunders.
type Strategy struct {
	Difficulty int
	rng        *rand.Rand
}

func NewStrategy(difficulty int, rng *rand.Rand) *Strategy {
	if difficulty < protocol.MinDifficulty {
		difficulty = protocol.MinDifficulty
	}
	if difficulty > protocol.MaxDifficulty {
		difficulty = protocol.MaxDifficulty
	}
	return &Strategy{Difficulty: difficulty, rng: rng}
}

// blunderChance is the probability of ignoring the scores and picking
// any safe direction. Zero at max difficulty.
func (s *Strategy) blunderChance() float64 {
	return float64(protocol.MaxDifficulty-s.Difficulty) * 0.04
}

// searchBudget caps the flood fill, so low difficulties barely look
// ahead while high ones survey most of the board.
func (s *Strategy) searchBudget() int {
	return 30 * s.Difficulty
}

// Choose returns the direction to steer toward, or false when the
// current heading is already the pick (no move message needed).
func (s *Strategy) Choose(snap protocol.GameSnapshot, playerID int) (game.Direction, bool) {
	me, ok := snap.Snakes[playerID]
	if !ok || !me.Alive || len(me.Body) == 0 {
		return "", false
	}
	current := game.Direction(me.Direction)
	head := me.Body[0]

	blocked := occupancy(snap)
	// Tails vacate their cell this tick unless the snake eats, so they
	// are not treated as blocked. Good enough for a bot.
	for _, sn := range snap.Snakes {
		if sn.Alive && len(sn.Body) > 1 {
			delete(blocked, sn.Body[len(sn.Body)-1])
		}
	}

	type candidate struct {
		dir   game.Direction
		score float64
	}
	var safe []candidate
	for _, dir := range []game.Direction{game.Up, game.Down, game.Left, game.Right} {
		if dir.Opposite() == current {
			continue
		}
		next := dir.Step(head)
		if !inBounds(next, snap.Grid) || blocked[next] {
			continue
		}
		score := float64(floodFill(next, blocked, snap.Grid, s.searchBudget()))
		if snap.Food != nil {
			dist := abs(next.X-snap.Food.X) + abs(next.Y-snap.Food.Y)
			score += float64(snap.Grid.Width+snap.Grid.Height-dist) * 0.5
		}
		safe = append(safe, candidate{dir: dir, score: score})
	}
	if len(safe) == 0 {
		return "", false
	}

	if s.rng.Float64() < s.blunderChance() {
		pick := safe[s.rng.IntN(len(safe))]
		return report(pick.dir, current)
	}

	best := safe[0]
	for _, c := range safe[1:] {
		if c.score > best.score {
			best = c
		}
	}
	return report(best.dir, current)
}

func report(pick, current game.Direction) (game.Direction, bool) {
	if pick == current {
		return "", false
	}
	return pick, true
}

func occupancy(snap protocol.GameSnapshot) map[game.Point]bool {
	blocked := make(map[game.Point]bool)
	for _, sn := range snap.Snakes {
		if !sn.Alive {
			continue
		}
		for _, p := range sn.Body {
			blocked[p] = true
		}
	}
	return blocked
}

func inBounds(p game.Point, grid protocol.GridSnapshot) bool {
	return p.X >= 0 && p.X < grid.Width && p.Y >= 0 && p.Y < grid.Height
}

// floodFill counts reachable free cells from start, up to budget.
func floodFill(start game.Point, blocked map[game.Point]bool, grid protocol.GridSnapshot, budget int) int {
	seen := map[game.Point]bool{start: true}
	queue := []game.Point{start}
	count := 0
	for len(queue) > 0 && count < budget {
		p := queue[0]
		queue = queue[1:]
		count++
		for _, dir := range []game.Direction{game.Up, game.Down, game.Left, game.Right} {
			n := dir.Step(p)
			if seen[n] || !inBounds(n, grid) || blocked[n] {
				continue
			}
			seen[n] = true
			queue = append(queue, n)
		}
	}
	return count
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
