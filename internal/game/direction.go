package game

// Direction is one of the four wire direction strings.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

var opposites = map[Direction]Direction{
	Up:    Down,
	Down:  Up,
	Left:  Right,
	Right: Left,
}

var deltas = map[Direction]Point{
	Up:    {0, -1},
	Down:  {0, 1},
	Left:  {-1, 0},
	Right: {1, 0},
}

// Valid reports whether d is one of the four direction strings.
func (d Direction) Valid() bool {
	_, ok := deltas[d]
	return ok
}

// Opposite returns the 180-degree reverse of d.
func (d Direction) Opposite() Direction {
	return opposites[d]
}

// Step returns p moved one cell in direction d.
func (d Direction) Step(p Point) Point {
	delta := deltas[d]
	return Point{p.X + delta.X, p.Y + delta.Y}
}
