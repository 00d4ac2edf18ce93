package game

// Snake is one player's snake. Body is head-first.
type Snake struct {
	PlayerID   int
	Body       []Point
	Direction  Direction
	nextDir    Direction
	inputQueue []Direction
	Alive      bool
}

func NewSnake(playerID int, start Point, dir Direction) *Snake {
	return &Snake{
		PlayerID:  playerID,
		Body:      []Point{start},
		Direction: dir,
		nextDir:   dir,
		Alive:     true,
	}
}

// Head returns the snake's head cell.
func (s *Snake) Head() Point {
	return s.Body[0]
}

// QueueDirection queues a direction change. The change is dropped when it
// repeats or reverses the last queued direction (or the pending direction
// when the queue is empty), so a snake can never double back in one tick.
func (s *Snake) QueueDirection(d Direction) {
	if !d.Valid() {
		return
	}
	last := s.nextDir
	if n := len(s.inputQueue); n > 0 {
		last = s.inputQueue[n-1]
	}
	if d == last || d.Opposite() == last {
		return
	}
	s.inputQueue = append(s.inputQueue, d)
	if len(s.inputQueue) > InputQueueCap {
		s.inputQueue = s.inputQueue[1:]
	}
}

// processInput pops one queued direction and applies it unless it would
// reverse the direction the snake is currently travelling.
func (s *Snake) processInput() {
	if len(s.inputQueue) == 0 {
		return
	}
	d := s.inputQueue[0]
	s.inputQueue = s.inputQueue[1:]
	if d.Opposite() != s.Direction {
		s.nextDir = d
	}
}

// NextHead peeks at where the head will be after the next Move, honoring
// the front of the input queue without consuming it. The simulation uses
// this to decide growth before the move happens.
func (s *Snake) NextHead() Point {
	d := s.nextDir
	if len(s.inputQueue) > 0 {
		if c := s.inputQueue[0]; c.Opposite() != s.Direction {
			d = c
		}
	}
	return d.Step(s.Head())
}

// Move advances the snake one cell, growing by one segment when grow is set.
func (s *Snake) Move(grow bool) {
	s.processInput()
	s.Direction = s.nextDir
	head := s.Direction.Step(s.Head())
	s.Body = append([]Point{head}, s.Body...)
	if !grow {
		s.Body = s.Body[:len(s.Body)-1]
	}
}

// Occupies reports whether any body segment is at p.
func (s *Snake) Occupies(p Point) bool {
	for _, b := range s.Body {
		if b == p {
			return true
		}
	}
	return false
}

// hitSelf reports whether the head overlaps the rest of the body.
func (s *Snake) hitSelf() bool {
	head := s.Head()
	for _, b := range s.Body[1:] {
		if b == head {
			return true
		}
	}
	return false
}
