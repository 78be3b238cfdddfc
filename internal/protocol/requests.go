package protocol

// Client to server requests. Pointer fields are required-but-may-be-zero:
// an empty document or a closed panel is valid, a missing field is not.

type JoinRequest struct {
	RoomID   string `json:"roomId" validate:"roomid"`
	Username string `json:"username" validate:"required,username"`
}

type CodeChangeRequest struct {
	RoomID string  `json:"roomId" validate:"roomid"`
	Text   *string `json:"text" validate:"required"`
}

type LanguageChangeRequest struct {
	RoomID   string  `json:"roomId" validate:"roomid"`
	Language string  `json:"language" validate:"langid"`
	Text     *string `json:"text" validate:"required"`
}

// SyncRequest asks the server to resend the room text to one member.
// Text is accepted for compatibility but the room's own copy is what gets sent.
type SyncRequest struct {
	TargetSessionID string  `json:"targetSessionId" validate:"required,max=64"`
	Text            *string `json:"text,omitempty"`
}

type TogglePanelRequest struct {
	RoomID string `json:"roomId" validate:"roomid"`
	IsOpen *bool  `json:"isOpen" validate:"required"`
}

type texter interface{ text() string }

func (r *CodeChangeRequest) text() string     { return *r.Text }
func (r *LanguageChangeRequest) text() string { return *r.Text }
