package protocol

import (
	"fmt"

	"github.com/dkeye/CodeSync/internal/core"
	"github.com/samber/lo"
)

// Server to client messages.

type Member struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
}

type Joined struct {
	Type      Type     `json:"type"`
	Members   []Member `json:"members"`
	Username  string   `json:"username"`
	SessionID string   `json:"sessionId"`
	Language  string   `json:"language"`
	Text      string   `json:"text"`
}

type CodeChange struct {
	Type Type   `json:"type"`
	Text string `json:"text"`
}

type LanguageChange struct {
	Type     Type   `json:"type"`
	Language string `json:"language"`
	Text     string `json:"text"`
}

type Sync struct {
	Type Type   `json:"type"`
	Text string `json:"text"`
}

type TogglePanel struct {
	Type   Type `json:"type"`
	IsOpen bool `json:"isOpen"`
}

type Disconnected struct {
	Type      Type   `json:"type"`
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
}

type Welcome struct {
	Type      Type   `json:"type"`
	SessionID string `json:"sessionId"`
}

type Pong struct {
	Type Type `json:"type"`
}

// EncodeEvent renders a room event as the frame members receive.
func EncodeEvent(ev core.Event) (core.Frame, error) {
	var msg any
	switch p := ev.Payload.(type) {
	case core.JoinedPayload:
		msg = Joined{
			Type: TypeJoined,
			Members: lo.Map(p.Members, func(m core.MemberDTO, _ int) Member {
				return Member{SessionID: string(m.SessionID), Username: m.Username}
			}),
			Username:  p.Username,
			SessionID: string(p.SessionID),
			Language:  string(p.Snapshot.Language),
			Text:      p.Snapshot.Text,
		}
	case core.TextPayload:
		if ev.Kind == core.EventSync {
			msg = Sync{Type: TypeSync, Text: p.Text}
		} else {
			msg = CodeChange{Type: TypeCodeChange, Text: p.Text}
		}
	case core.LanguagePayload:
		msg = LanguageChange{Type: TypeLanguageChange, Language: string(p.Snapshot.Language), Text: p.Snapshot.Text}
	case core.PanelPayload:
		msg = TogglePanel{Type: TypeTogglePanel, IsOpen: p.IsOpen}
	case core.DepartedPayload:
		msg = Disconnected{Type: TypeDisconnected, SessionID: string(p.SessionID), Username: p.Username}
	default:
		return nil, fmt.Errorf("encode %s: unexpected payload %T", ev.Kind, ev.Payload)
	}
	b, err := Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Kind, err)
	}
	return core.Frame(b), nil
}
