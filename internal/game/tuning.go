package game

import "time"

const (
	GridWidth  = 30
	GridHeight = 20

	TickRate = 150 * time.Millisecond // time between simulation steps

	InputQueueCap = 3 // queued direction changes per snake; oldest dropped beyond this

	PlayerOne = 1
	PlayerTwo = 2
)

const (
	ModeTwoPlayer = "two_player"
	ModeVsAI      = "vs_ai"
)
