package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dkeye/CodeSync/internal/core"
	"github.com/dkeye/CodeSync/internal/domain"
	"github.com/dkeye/CodeSync/internal/metrics"
	"github.com/rs/zerolog/log"
)

const storeTimeout = 2 * time.Second

// SnapshotStore keeps the document of evicted rooms.
type SnapshotStore interface {
	Load(ctx context.Context, id domain.RoomID) (domain.Snapshot, bool, error)
	Save(ctx context.Context, id domain.RoomID, snap domain.Snapshot) error
}

// RoomManagerImpl owns the room id -> room map. Creation is a single
// check-and-create under the write lock, so racing first joiners always
// end up in the same room.
type RoomManagerImpl struct {
	mu       sync.RWMutex
	rooms    map[domain.RoomID]core.RoomService
	dispatch core.Dispatcher
	store    SnapshotStore
	now      func() time.Time
}

// NewRoomManager wires rooms to d. store may be nil.
func NewRoomManager(d core.Dispatcher, store SnapshotStore) *RoomManagerImpl {
	return &RoomManagerImpl{
		rooms:    make(map[domain.RoomID]core.RoomService),
		dispatch: d,
		store:    store,
		now:      time.Now,
	}
}

func (f *RoomManagerImpl) GetOrCreate(id domain.RoomID) core.RoomService {
	f.mu.RLock()
	room, ok := f.rooms[id]
	f.mu.RUnlock()
	if ok {
		return room
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok = f.rooms[id]; ok {
		return room
	}
	room = core.NewRoomService(&domain.Room{ID: id}, f.initialSnapshot(id), f.dispatch)
	f.rooms[id] = room
	metrics.RoomsActive.Set(float64(len(f.rooms)))
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	return room
}

func (f *RoomManagerImpl) initialSnapshot(id domain.RoomID) domain.Snapshot {
	if f.store == nil {
		return domain.DefaultSnapshot()
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	snap, ok, err := f.store.Load(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("module", "app.rooms").Str("room", string(id)).Msg("load snapshot, using default")
		return domain.DefaultSnapshot()
	}
	if !ok {
		return domain.DefaultSnapshot()
	}
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room restored from store")
	return snap
}

func (f *RoomManagerImpl) GetRoom(id domain.RoomID) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[id]
	return room, ok
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for id, r := range f.rooms {
		st := r.State()
		out = append(out, core.RoomInfo{ID: id, MemberCount: len(st.Members), Language: st.Snapshot.Language})
	}
	f.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Sweep evicts rooms that have been empty for longer than ttl and returns
// how many went. Snapshots are saved before the manager lock is released so
// a join that races the eviction restores the saved document.
func (f *RoomManagerImpl) Sweep(ctx context.Context, ttl time.Duration) int {
	cutoff := f.now().Add(-ttl)

	f.mu.Lock()
	defer f.mu.Unlock()
	evicted := 0
	for id, room := range f.rooms {
		snap, ok := room.Expire(cutoff)
		if !ok {
			continue
		}
		delete(f.rooms, id)
		evicted++
		if f.store != nil {
			if err := f.store.Save(ctx, id, snap); err != nil {
				log.Error().Err(err).Str("module", "app.rooms").Str("room", string(id)).Msg("save evicted room")
			}
		}
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room evicted")
	}
	metrics.RoomsActive.Set(float64(len(f.rooms)))
	metrics.RoomsEvictedTotal.Add(float64(evicted))
	return evicted
}
