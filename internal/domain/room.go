package domain

const MaxRoomIDLen = 64

type RoomID string

type Room struct {
	ID RoomID
}

// Snapshot is the shared document state of a room at one instant.
// Language and Text always travel together.
type Snapshot struct {
	Language Language `json:"language"`
	Text     string   `json:"text"`
}
