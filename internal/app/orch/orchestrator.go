// Package orch drives session lifecycle: it is the only place that touches
// both the session registry and the rooms.
package orch

import (
	"context"
	"errors"

	"github.com/dkeye/CodeSync/internal/app"
	"github.com/dkeye/CodeSync/internal/core"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrNotInRoom      = errors.New("session is not in that room")
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomFactory
}

// Connect registers a freshly accepted channel. The session starts with no room.
func (o *Orchestrator) Connect(sid core.SessionID, sess core.MemberSession, cancel context.CancelFunc) {
	o.Registry.BindSignal(sid, sess, cancel)
}

// OnDisconnect is the terminal transition: membership is dropped, the room
// hears about it once, and the identity is forgotten.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	if _, ok := o.Registry.GetSession(sid); !ok {
		return
	}
	o.leaveRoom(sid)
	o.Registry.Cancel(sid)
	o.Registry.Unbind(sid)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("session disconnected")
}
