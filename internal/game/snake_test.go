package game

import "testing"

func TestQueueDirectionRejectsReversal(t *testing.T) {
	s := NewSnake(PlayerOne, Point{5, 5}, Right)

	s.QueueDirection(Left) // 180-degree reversal, dropped
	if len(s.inputQueue) != 0 {
		t.Fatalf("reversal queued: %v", s.inputQueue)
	}

	s.QueueDirection(Right) // same as current, dropped
	if len(s.inputQueue) != 0 {
		t.Fatalf("duplicate queued: %v", s.inputQueue)
	}

	s.QueueDirection(Up)
	s.QueueDirection(Down) // reverses last queued, dropped
	if len(s.inputQueue) != 1 || s.inputQueue[0] != Up {
		t.Fatalf("queue = %v, want [up]", s.inputQueue)
	}
}

func TestQueueDirectionCapDropsOldest(t *testing.T) {
	s := NewSnake(PlayerOne, Point{5, 5}, Right)
	s.QueueDirection(Up)
	s.QueueDirection(Right)
	s.QueueDirection(Down)
	s.QueueDirection(Right) // 4th entry pushes out Up
	if len(s.inputQueue) != InputQueueCap {
		t.Fatalf("queue length = %d, want %d", len(s.inputQueue), InputQueueCap)
	}
	if s.inputQueue[0] != Right {
		t.Fatalf("oldest entry = %q, want %q", s.inputQueue[0], Right)
	}
}

func TestMoveKeepsLengthUnlessGrowing(t *testing.T) {
	s := NewSnake(PlayerOne, Point{5, 5}, Right)

	s.Move(false)
	if len(s.Body) != 1 {
		t.Fatalf("length after move = %d, want 1", len(s.Body))
	}
	if s.Head() != (Point{6, 5}) {
		t.Fatalf("head = %v, want (6,5)", s.Head())
	}

	s.Move(true)
	if len(s.Body) != 2 {
		t.Fatalf("length after growing move = %d, want 2", len(s.Body))
	}
	if s.Head() != (Point{7, 5}) {
		t.Fatalf("head = %v, want (7,5)", s.Head())
	}
}

func TestNextHeadHonorsQueuedTurn(t *testing.T) {
	s := NewSnake(PlayerOne, Point{5, 5}, Right)
	s.QueueDirection(Up)

	if got := s.NextHead(); got != (Point{5, 4}) {
		t.Fatalf("NextHead = %v, want (5,4)", got)
	}
	// Peeking must not consume the queued turn.
	if len(s.inputQueue) != 1 {
		t.Fatalf("queue consumed by NextHead: %v", s.inputQueue)
	}

	s.Move(false)
	if s.Head() != (Point{5, 4}) {
		t.Fatalf("head after move = %v, want (5,4)", s.Head())
	}
	if s.Direction != Up {
		t.Fatalf("direction after move = %q, want up", s.Direction)
	}
}

func TestProcessInputSkipsLateReversal(t *testing.T) {
	// A reversal can become queued legally (relative to a queued turn) but
	// must still be ignored if it would reverse the actual travel direction
	// when it reaches the front of the queue.
	s := NewSnake(PlayerOne, Point{5, 5}, Right)
	s.QueueDirection(Up)
	s.QueueDirection(Left)

	s.Move(false) // applies Up
	if s.Direction != Up {
		t.Fatalf("direction = %q, want up", s.Direction)
	}
	s.Move(false) // applies Left, valid relative to Up
	if s.Direction != Left {
		t.Fatalf("direction = %q, want left", s.Direction)
	}
}
