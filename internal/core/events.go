package core

import "github.com/dkeye/CodeSync/internal/domain"

type EventKind string

const (
	EventJoined         EventKind = "joined"
	EventCodeChange     EventKind = "code_change"
	EventLanguageChange EventKind = "language_change"
	EventSync           EventKind = "sync"
	EventTogglePanel    EventKind = "toggle_panel"
	EventDisconnected   EventKind = "disconnected"
)

// Event is a room-scoped change on its way to members.
// Payload is one of the *Payload types below, matching Kind.
type Event struct {
	Kind    EventKind
	Room    domain.RoomID
	Origin  SessionID
	Payload any
}

type JoinedPayload struct {
	Members   []MemberDTO
	SessionID SessionID
	Username  string
	Snapshot  domain.Snapshot
}

type TextPayload struct {
	Text string
}

type LanguagePayload struct {
	Snapshot domain.Snapshot
}

type PanelPayload struct {
	IsOpen bool
}

type DepartedPayload struct {
	SessionID SessionID
	Username  string
}
