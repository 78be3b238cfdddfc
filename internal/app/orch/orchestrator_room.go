package orch

import (
	"errors"

	"github.com/dkeye/CodeSync/internal/core"
	"github.com/dkeye/CodeSync/internal/domain"
	"github.com/rs/zerolog/log"
)

// A join can only lose to the janitor once per eviction; a few attempts is plenty.
const maxJoinAttempts = 3

func (o *Orchestrator) Join(sid core.SessionID, roomID domain.RoomID, username string) (core.RoomState, error) {
	session, ok := o.Registry.GetSession(sid)
	if !ok {
		return core.RoomState{}, ErrUnknownSession
	}
	// A join the new room would refuse must not cost the session its old room.
	if err := domain.ValidateUsername(username); err != nil {
		return core.RoomState{}, err
	}
	if current, _, ok := o.Registry.RoomOf(sid); ok && current != roomID {
		o.leaveRoom(sid)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(current)).Str("room", string(roomID)).Msg("switching rooms")
	}

	var err error
	for attempt := 0; attempt < maxJoinAttempts; attempt++ {
		room := o.Rooms.GetOrCreate(roomID)
		var state core.RoomState
		state, err = room.Join(sid, session, username)
		if errors.Is(err, core.ErrRoomClosed) {
			continue
		}
		if err != nil {
			return core.RoomState{}, err
		}
		o.Registry.UpdateRoom(sid, roomID)
		return state, nil
	}
	return core.RoomState{}, err
}

func (o *Orchestrator) UpdateText(sid core.SessionID, roomID domain.RoomID, text string) error {
	room, err := o.roomFor(sid, roomID)
	if err != nil {
		return err
	}
	return room.UpdateText(sid, text)
}

func (o *Orchestrator) UpdateLanguage(sid core.SessionID, roomID domain.RoomID, lang domain.Language, text string) error {
	room, err := o.roomFor(sid, roomID)
	if err != nil {
		return err
	}
	return room.UpdateLanguage(sid, domain.Snapshot{Language: lang, Text: text})
}

func (o *Orchestrator) TogglePanel(sid core.SessionID, roomID domain.RoomID, isOpen bool) error {
	room, err := o.roomFor(sid, roomID)
	if err != nil {
		return err
	}
	return room.TogglePanel(sid, isOpen)
}

// Sync resends the current text of the caller's room to target.
func (o *Orchestrator) Sync(sid, target core.SessionID) error {
	roomID, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return ErrNotInRoom
	}
	room, err := o.roomFor(sid, roomID)
	if err != nil {
		return err
	}
	return room.Sync(sid, target)
}

func (o *Orchestrator) roomFor(sid core.SessionID, roomID domain.RoomID) (core.RoomService, error) {
	current, _, ok := o.Registry.RoomOf(sid)
	if !ok || current != roomID {
		return nil, ErrNotInRoom
	}
	room, ok := o.Rooms.GetRoom(roomID)
	if !ok {
		return nil, ErrNotInRoom
	}
	return room, nil
}

func (o *Orchestrator) leaveRoom(sid core.SessionID) {
	roomID, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	if room, ok := o.Rooms.GetRoom(roomID); ok {
		room.Leave(sid)
	}
	o.Registry.RemoveRoom(sid)
}
