package signal

import (
	"github.com/dkeye/CodeSync/internal/core"
	"github.com/dkeye/CodeSync/internal/domain"
	"github.com/dkeye/CodeSync/internal/protocol"
	"github.com/rs/zerolog/log"
)

// handleJoin attaches the session to a room. The joiner learns the snapshot
// from the same "joined" broadcast every other member gets.
func (ctl *SignalWSController) handleJoin(sid core.SessionID, _ *WsSignalConn, data []byte) {
	var p protocol.JoinRequest
	if !ctl.decode(sid, data, &p) {
		return
	}
	state, err := ctl.Orch.Join(sid, domain.RoomID(p.RoomID), p.Username)
	if err != nil {
		ctl.reject(sid, "join_failed", err)
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Int("members", len(state.Members)).Msg("join")
}
