package protocol

// Message type strings sent by the server. Every server frame is a flat
// JSON object with a "type" discriminator.
const (
	TypeJoined         = "joined"
	TypeWaiting        = "waiting"
	TypeStart          = "start"
	TypeState          = "state"
	TypeGameOver       = "gameover"
	TypeObserverJoined = "observer_joined"
	TypeObserverLobby  = "observer_lobby"
	TypeRoomList       = "room_list"
	TypeError          = "error"
)

// Action strings sent by clients. Every client frame is a flat JSON
// object with an "action" discriminator.
const (
	ActionMove       = "move"
	ActionReady      = "ready"
	ActionSwitchRoom = "switch_room"
	ActionGetRooms   = "get_rooms"
)

// WebSocket close codes, matching what clients already handle.
const (
	CloseInvalidPlayer = 4000
	CloseServerFull    = 4002
)

const (
	DefaultDifficulty = 5
	MinDifficulty     = 1
	MaxDifficulty     = 10
)
