package core

import (
	"sync"
	"time"

	"github.com/dkeye/CodeSync/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// One mutex guards members, document and the fan-out of every change,
// so all members observe events in the order the room applied them.
// It never closes adapter-owned resources.
type roomImpl struct {
	room     *domain.Room
	dispatch Dispatcher
	now      func() time.Time

	mu         sync.Mutex
	order      []SessionID
	bySID      map[SessionID]MemberSession
	snap       domain.Snapshot
	emptySince time.Time
	closed     bool
}

func NewRoomService(room *domain.Room, snap domain.Snapshot, d Dispatcher) RoomService {
	return newRoom(room, snap, d, time.Now)
}

func newRoom(room *domain.Room, snap domain.Snapshot, d Dispatcher, now func() time.Time) *roomImpl {
	return &roomImpl{
		room:       room,
		dispatch:   d,
		now:        now,
		bySID:      make(map[SessionID]MemberSession),
		snap:       snap,
		emptySince: now(),
	}
}

func (r *roomImpl) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.membersLocked()
}

func (r *roomImpl) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

func (r *roomImpl) Join(sid SessionID, ms MemberSession, username string) (RoomState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return RoomState{}, ErrRoomClosed
	}

	if existing, ok := r.bySID[sid]; ok {
		ms = existing
	}
	if err := ms.Meta().User.SetUsername(username); err != nil {
		return RoomState{}, err
	}
	if _, ok := r.bySID[sid]; !ok {
		r.bySID[sid] = ms
		r.order = append(r.order, sid)
	}
	r.emptySince = time.Time{}

	state := r.stateLocked()
	r.publishLocked(Event{
		Kind:   EventJoined,
		Room:   r.room.ID,
		Origin: sid,
		Payload: JoinedPayload{
			Members:   state.Members,
			SessionID: sid,
			Username:  username,
			Snapshot:  state.Snapshot,
		},
	}, r.recipientsLocked())

	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(sid)).Int("members", len(r.order)).Msg("member joined")
	return state, nil
}

func (r *roomImpl) Leave(sid SessionID) (MemberDTO, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms, ok := r.bySID[sid]
	if !ok {
		return MemberDTO{}, false
	}
	delete(r.bySID, sid)
	for i, s := range r.order {
		if s == sid {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if len(r.order) == 0 {
		r.emptySince = r.now()
	}

	gone := MemberDTO{SessionID: sid, Username: ms.Meta().User.Username}
	r.publishLocked(Event{
		Kind:    EventDisconnected,
		Room:    r.room.ID,
		Origin:  sid,
		Payload: DepartedPayload{SessionID: gone.SessionID, Username: gone.Username},
	}, r.recipientsLocked())

	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(sid)).Int("members", len(r.order)).Msg("member left")
	return gone, true
}

func (r *roomImpl) UpdateText(from SessionID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkMemberLocked(from); err != nil {
		return err
	}
	r.snap.Text = text
	r.publishLocked(Event{
		Kind:    EventCodeChange,
		Room:    r.room.ID,
		Origin:  from,
		Payload: TextPayload{Text: text},
	}, r.recipientsLocked())
	return nil
}

func (r *roomImpl) UpdateLanguage(from SessionID, snap domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkMemberLocked(from); err != nil {
		return err
	}
	r.snap = snap
	r.publishLocked(Event{
		Kind:    EventLanguageChange,
		Room:    r.room.ID,
		Origin:  from,
		Payload: LanguagePayload{Snapshot: snap},
	}, r.recipientsLocked())
	log.Debug().Str("module", "core.room").Str("room", string(r.room.ID)).Str("language", string(snap.Language)).Msg("language changed")
	return nil
}

func (r *roomImpl) TogglePanel(from SessionID, isOpen bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkMemberLocked(from); err != nil {
		return err
	}
	r.publishLocked(Event{
		Kind:    EventTogglePanel,
		Room:    r.room.ID,
		Origin:  from,
		Payload: PanelPayload{IsOpen: isOpen},
	}, r.recipientsLocked())
	return nil
}

// Sync resends the room's current text to a single member.
func (r *roomImpl) Sync(from, to SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkMemberLocked(from); err != nil {
		return err
	}
	target, ok := r.bySID[to]
	if !ok {
		return ErrUnknownTarget
	}
	r.publishLocked(Event{
		Kind:    EventSync,
		Room:    r.room.ID,
		Origin:  from,
		Payload: TextPayload{Text: r.snap.Text},
	}, []Recipient{{SID: to, Session: target}})
	return nil
}

func (r *roomImpl) Expire(cutoff time.Time) (domain.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || len(r.order) > 0 || !r.emptySince.Before(cutoff) {
		return domain.Snapshot{}, false
	}
	r.closed = true
	return r.snap, true
}

func (r *roomImpl) checkMemberLocked(sid SessionID) error {
	if r.closed {
		return ErrRoomClosed
	}
	if _, ok := r.bySID[sid]; !ok {
		return ErrNotMember
	}
	return nil
}

func (r *roomImpl) membersLocked() []MemberDTO {
	out := make([]MemberDTO, 0, len(r.order))
	for _, sid := range r.order {
		out = append(out, MemberDTO{SessionID: sid, Username: r.bySID[sid].Meta().User.Username})
	}
	return out
}

func (r *roomImpl) publishLocked(ev Event, to []Recipient) {
	res := r.dispatch.Dispatch(ev, to)
	if len(res.Dropped) > 0 {
		log.Warn().Str("module", "core.room").Str("room", string(r.room.ID)).Str("kind", string(ev.Kind)).
			Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("slow members missed an event")
	}
}

func (r *roomImpl) recipientsLocked() []Recipient {
	out := make([]Recipient, 0, len(r.order))
	for _, sid := range r.order {
		out = append(out, Recipient{SID: sid, Session: r.bySID[sid]})
	}
	return out
}

func (r *roomImpl) stateLocked() RoomState {
	return RoomState{ID: r.room.ID, Members: r.membersLocked(), Snapshot: r.snap}
}
