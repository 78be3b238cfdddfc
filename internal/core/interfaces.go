package core

import (
	"errors"
	"time"

	"github.com/dkeye/CodeSync/internal/domain"
)

var (
	ErrRoomClosed    = errors.New("room closed")
	ErrNotMember     = errors.New("session is not a member of the room")
	ErrUnknownTarget = errors.New("target session is not in the room")

	// ErrConnClosed is returned by a SignalConnection whose channel is gone.
	// Sending to it is a silent no-op, not a delivery failure.
	ErrConnClosed = errors.New("connection closed")
)

// Frame is an encoded message ready for the wire.
type Frame []byte

type SessionID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds domain.Member and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	Meta() *domain.Member
	Signal() SignalConnection
}

// Recipient is one addressable member handed to the Dispatcher.
type Recipient struct {
	SID     SessionID
	Session MemberSession
}

// PublishResult counts what one Dispatch delivered. Backpressure policy is
// applied inside the dispatcher; rooms only log the totals.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// Dispatcher turns a room event into frames for the right audience.
// Rooms call it while holding their lock, so it must never block.
type Dispatcher interface {
	Dispatch(ev Event, members []Recipient) PublishResult
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	SessionID SessionID `json:"sessionId"`
	Username  string    `json:"username"`
}

// RoomState is a consistent copy of everything a room holds.
type RoomState struct {
	ID       domain.RoomID   `json:"roomId"`
	Members  []MemberDTO     `json:"members"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

// RoomService is the core-facing API of a room.
// It owns the membership set and the document, but never touches transport resources.
// Every mutating call is serialized with the fan-out it causes.
type RoomService interface {
	MemberCount() int
	MembersSnapshot() []MemberDTO
	State() RoomState

	Join(sid SessionID, ms MemberSession, username string) (RoomState, error)
	Leave(sid SessionID) (MemberDTO, bool)
	UpdateText(from SessionID, text string) error
	UpdateLanguage(from SessionID, snap domain.Snapshot) error
	TogglePanel(from SessionID, isOpen bool) error
	Sync(from, to SessionID) error

	// Expire closes the room if it has been empty since before cutoff.
	Expire(cutoff time.Time) (domain.Snapshot, bool)
}

type RoomInfo struct {
	ID          domain.RoomID   `json:"roomId"`
	MemberCount int             `json:"memberCount"`
	Language    domain.Language `json:"language"`
}

type RoomFactory interface {
	GetOrCreate(id domain.RoomID) RoomService
	GetRoom(id domain.RoomID) (RoomService, bool)
	List() []RoomInfo
}
