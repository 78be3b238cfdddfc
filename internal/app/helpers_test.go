package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/dkeye/CodeSync/internal/core"
	"github.com/dkeye/CodeSync/internal/domain"
)

var errFull = errors.New("full")

// fakeConn records frames; it can pretend to be closed or saturated.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnClosed
	}
	if c.full {
		return errFull
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) messages() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		_ = json.Unmarshal(f, &m)
		out = append(out, m)
	}
	return out
}

func newMember(sid core.SessionID) (core.MemberSession, *fakeConn) {
	conn := &fakeConn{}
	return core.NewMemberSession(domain.NewMember(domain.NewGuest(domain.UserID(sid))), conn), conn
}

type memStore struct {
	mu    sync.Mutex
	snaps map[domain.RoomID]domain.Snapshot
}

func newMemStore() *memStore {
	return &memStore{snaps: make(map[domain.RoomID]domain.Snapshot)}
}

func (s *memStore) Load(_ context.Context, id domain.RoomID) (domain.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[id]
	return snap, ok, nil
}

func (s *memStore) Save(_ context.Context, id domain.RoomID, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[id] = snap
	return nil
}
