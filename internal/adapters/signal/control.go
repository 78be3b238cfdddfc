package signal

import (
	"github.com/dkeye/CodeSync/internal/core"
	"github.com/dkeye/CodeSync/internal/protocol"
)

func (ctl *SignalWSController) handlePing(_ core.SessionID, conn *WsSignalConn, _ []byte) {
	ctl.sendJSON(conn, protocol.Pong{Type: protocol.TypePong})
}
