package orch

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/dkeye/CodeSync/internal/app"
	"github.com/dkeye/CodeSync/internal/core"
	"github.com/dkeye/CodeSync/internal/domain"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnClosed
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// drain returns and forgets everything received so far.
func (c *fakeConn) drain(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	c.frames = nil
	return out
}

func newOrchestrator() *Orchestrator {
	return &Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(app.NewDispatcher(app.SimplePolicy{Action: app.KickMember}), nil),
	}
}

func connect(o *Orchestrator, sid core.SessionID) *fakeConn {
	conn := &fakeConn{}
	sess := core.NewMemberSession(domain.NewMember(domain.NewGuest(domain.UserID(sid))), conn)
	o.Connect(sid, sess, func() {})
	return conn
}

func members(sids ...string) []any {
	out := make([]any, 0, len(sids))
	for _, s := range sids {
		out = append(out, s)
	}
	return out
}

func memberIDs(msg map[string]any) []any {
	raw := msg["members"].([]any)
	out := make([]any, 0, len(raw))
	for _, m := range raw {
		out = append(out, m.(map[string]any)["sessionId"])
	}
	return out
}

func TestScenario_FullRoomLifecycle(t *testing.T) {
	o := newOrchestrator()
	pyDefault := domain.Template(domain.LangPython3)
	jsDefault := domain.Template(domain.LangJavaScript)

	// U1 joins unseen room r1
	u1 := connect(o, "U1")
	_, err := o.Join("U1", "r1", "alice")
	require.NoError(t, err)
	msgs := u1.drain(t)
	require.Len(t, msgs, 1)
	require.Equal(t, "joined", msgs[0]["type"])
	require.Equal(t, members("U1"), memberIDs(msgs[0]))
	require.Equal(t, "python3", msgs[0]["language"])
	require.Equal(t, pyDefault, msgs[0]["text"])

	// U2 joins; both see the full membership and the same snapshot
	u2 := connect(o, "U2")
	_, err = o.Join("U2", "r1", "bob")
	require.NoError(t, err)
	for _, c := range []*fakeConn{u1, u2} {
		msgs := c.drain(t)
		require.Len(t, msgs, 1)
		require.Equal(t, members("U1", "U2"), memberIDs(msgs[0]))
		require.Equal(t, "bob", msgs[0]["username"])
		require.Equal(t, "U2", msgs[0]["sessionId"])
		require.Equal(t, pyDefault, msgs[0]["text"])
	}

	// U1 edits: only U2 hears it
	require.NoError(t, o.UpdateText("U1", "r1", "print(1)"))
	require.Empty(t, u1.drain(t))
	require.Equal(t, []map[string]any{{"type": "code_change", "text": "print(1)"}}, u2.drain(t))

	// U1 switches language
	require.NoError(t, o.UpdateLanguage("U1", "r1", domain.LangJavaScript, jsDefault))
	require.Empty(t, u1.drain(t))
	require.Equal(t, []map[string]any{{"type": "language_change", "language": "javascript", "text": jsDefault}}, u2.drain(t))

	// U2 disconnects: U1 hears exactly one departure
	o.OnDisconnect("U2")
	require.Equal(t, []map[string]any{{"type": "disconnected", "sessionId": "U2", "username": "bob"}}, u1.drain(t))
	o.OnDisconnect("U2")
	require.Empty(t, u1.drain(t))

	// U3 joins afterwards and sees the current state
	u3 := connect(o, "U3")
	state, err := o.Join("U3", "r1", "carol")
	require.NoError(t, err)
	require.Equal(t, domain.LangJavaScript, state.Snapshot.Language)
	msgs = u3.drain(t)
	require.Len(t, msgs, 1)
	require.Equal(t, members("U1", "U3"), memberIDs(msgs[0]))
	require.Equal(t, "javascript", msgs[0]["language"])
	require.Equal(t, jsDefault, msgs[0]["text"])
}

func TestJoin_SwitchingRoomsLeavesOldRoom(t *testing.T) {
	o := newOrchestrator()
	a := connect(o, "A")
	_ = connect(o, "B")
	_, _ = o.Join("A", "r1", "alice")
	_, _ = o.Join("B", "r1", "bob")
	a.drain(t)

	_, err := o.Join("B", "r2", "bob")
	require.NoError(t, err)

	require.Equal(t, []map[string]any{{"type": "disconnected", "sessionId": "B", "username": "bob"}}, a.drain(t))
	r1, _ := o.Rooms.GetRoom("r1")
	require.Equal(t, 1, r1.MemberCount())
	room, _, _ := o.Registry.RoomOf("B")
	require.Equal(t, domain.RoomID("r2"), room)
}

func TestJoin_FailedSwitchKeepsOldRoom(t *testing.T) {
	o := newOrchestrator()
	a := connect(o, "A")
	_ = connect(o, "B")
	_, _ = o.Join("A", "r1", "alice")
	_, _ = o.Join("B", "r1", "bob")
	a.drain(t)

	_, err := o.Join("B", "r2", strings.Repeat("b", domain.MaxUsernameLen+1))
	require.ErrorIs(t, err, domain.ErrUsernameTooLong)

	require.Empty(t, a.drain(t))
	room, _, ok := o.Registry.RoomOf("B")
	require.True(t, ok)
	require.Equal(t, domain.RoomID("r1"), room)
	r1, _ := o.Rooms.GetRoom("r1")
	require.Equal(t, 2, r1.MemberCount())
	_, exists := o.Rooms.GetRoom("r2")
	require.False(t, exists)
}

func TestJoin_NonASCIIUsername(t *testing.T) {
	o := newOrchestrator()
	a := connect(o, "A")

	name := "Александра Константиновна"
	state, err := o.Join("A", "r1", name)
	require.NoError(t, err)
	require.Equal(t, []core.MemberDTO{{SessionID: "A", Username: name}}, state.Members)

	msgs := a.drain(t)
	require.Len(t, msgs, 1)
	require.Equal(t, "joined", msgs[0]["type"])
	require.Equal(t, name, msgs[0]["username"])
}

func TestJoin_RejoinSameRoomRenames(t *testing.T) {
	o := newOrchestrator()
	_ = connect(o, "A")
	_, _ = o.Join("A", "r1", "alice")
	state, err := o.Join("A", "r1", "alicia")
	require.NoError(t, err)
	require.Equal(t, []core.MemberDTO{{SessionID: "A", Username: "alicia"}}, state.Members)
}

func TestJoin_UnknownSession(t *testing.T) {
	o := newOrchestrator()
	_, err := o.Join("ghost", "r1", "x")
	require.ErrorIs(t, err, ErrUnknownSession)
}

func TestEdits_RequireMembershipOfThatRoom(t *testing.T) {
	o := newOrchestrator()
	_ = connect(o, "A")
	_ = connect(o, "B")
	_, _ = o.Join("A", "r1", "alice")

	require.ErrorIs(t, o.UpdateText("B", "r1", "hijack"), ErrNotInRoom)
	require.ErrorIs(t, o.UpdateText("A", "r2", "wrong room"), ErrNotInRoom)
	require.ErrorIs(t, o.TogglePanel("B", "r1", true), ErrNotInRoom)
	require.ErrorIs(t, o.Sync("B", "A"), ErrNotInRoom)

	r1, _ := o.Rooms.GetRoom("r1")
	require.Equal(t, domain.DefaultSnapshot(), r1.State().Snapshot)
}

func TestSyncAndPanel(t *testing.T) {
	o := newOrchestrator()
	a := connect(o, "A")
	b := connect(o, "B")
	_, _ = o.Join("A", "r1", "alice")
	_, _ = o.Join("B", "r1", "bob")
	require.NoError(t, o.UpdateText("A", "r1", "latest"))
	a.drain(t)
	b.drain(t)

	require.NoError(t, o.Sync("A", "B"))
	require.Empty(t, a.drain(t))
	require.Equal(t, []map[string]any{{"type": "sync", "text": "latest"}}, b.drain(t))

	require.NoError(t, o.TogglePanel("B", "r1", true))
	require.Empty(t, b.drain(t))
	require.Equal(t, []map[string]any{{"type": "toggle_panel", "isOpen": true}}, a.drain(t))
}

func TestDisconnectWithoutRoomIsQuiet(t *testing.T) {
	o := newOrchestrator()
	_ = connect(o, "A")
	o.OnDisconnect("A")
	require.Equal(t, 0, o.Registry.Count())
}

func TestConcurrentSessions_MembershipMatchesJoined(t *testing.T) {
	o := newOrchestrator()
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		sid := core.SessionID(string(rune('a'+i%26)) + string(rune('0'+i/26)))
		_ = connect(o, sid)
		wg.Add(1)
		go func(i int, sid core.SessionID) {
			defer wg.Done()
			_, _ = o.Join(sid, "r1", "user")
			_ = o.UpdateText(sid, "r1", string(sid))
			if i%4 == 0 {
				o.OnDisconnect(sid)
			}
		}(i, sid)
	}
	wg.Wait()

	r1, _ := o.Rooms.GetRoom("r1")
	require.Equal(t, 30, r1.MemberCount())
	require.Equal(t, 40-10, o.Registry.Count())
}
