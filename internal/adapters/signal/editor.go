package signal

import (
	"github.com/dkeye/CodeSync/internal/core"
	"github.com/dkeye/CodeSync/internal/domain"
	"github.com/dkeye/CodeSync/internal/protocol"
)

func (ctl *SignalWSController) handleCodeChange(sid core.SessionID, _ *WsSignalConn, data []byte) {
	var p protocol.CodeChangeRequest
	if !ctl.decode(sid, data, &p) {
		return
	}
	if err := ctl.Orch.UpdateText(sid, domain.RoomID(p.RoomID), *p.Text); err != nil {
		ctl.reject(sid, "code_change_failed", err)
	}
}

func (ctl *SignalWSController) handleLanguageChange(sid core.SessionID, _ *WsSignalConn, data []byte) {
	var p protocol.LanguageChangeRequest
	if !ctl.decode(sid, data, &p) {
		return
	}
	if err := ctl.Orch.UpdateLanguage(sid, domain.RoomID(p.RoomID), domain.Language(p.Language), *p.Text); err != nil {
		ctl.reject(sid, "language_change_failed", err)
	}
}

func (ctl *SignalWSController) handleSync(sid core.SessionID, _ *WsSignalConn, data []byte) {
	var p protocol.SyncRequest
	if !ctl.decode(sid, data, &p) {
		return
	}
	if err := ctl.Orch.Sync(sid, core.SessionID(p.TargetSessionID)); err != nil {
		ctl.reject(sid, "sync_failed", err)
	}
}

func (ctl *SignalWSController) handleTogglePanel(sid core.SessionID, _ *WsSignalConn, data []byte) {
	var p protocol.TogglePanelRequest
	if !ctl.decode(sid, data, &p) {
		return
	}
	if err := ctl.Orch.TogglePanel(sid, domain.RoomID(p.RoomID), *p.IsOpen); err != nil {
		ctl.reject(sid, "toggle_panel_failed", err)
	}
}
