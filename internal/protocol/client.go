package protocol

// Messages coming in from clients.

type ClientMessage struct {
	Action string `json:"action"`

	// move
	Direction string `json:"direction,omitempty"`

	// ready
	Mode         string `json:"mode,omitempty"`
	Name         string `json:"name,omitempty"`
	AIDifficulty *int   `json:"ai_difficulty,omitempty"`

	// switch_room
	RoomID int `json:"room_id,omitempty"`
}

// Difficulty returns the requested bot difficulty clamped to the valid
// range, defaulting when absent.
func (m ClientMessage) Difficulty() int {
	d := DefaultDifficulty
	if m.AIDifficulty != nil {
		d = *m.AIDifficulty
	}
	if d < MinDifficulty {
		d = MinDifficulty
	}
	if d > MaxDifficulty {
		d = MaxDifficulty
	}
	return d
}
