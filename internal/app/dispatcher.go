package app

import (
	"errors"

	"github.com/dkeye/CodeSync/internal/core"
	"github.com/dkeye/CodeSync/internal/metrics"
	"github.com/dkeye/CodeSync/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Dispatcher routes room events to their audience.
// It is called under the room lock and never blocks: every send is a
// non-blocking enqueue onto the member's buffer.
type Dispatcher struct {
	Policy Policy
}

func NewDispatcher(policy Policy) *Dispatcher {
	return &Dispatcher{Policy: policy}
}

// Audience picks who receives ev. Membership announcements and directed
// syncs go to everyone passed in; edits and UI signals skip the originator.
func Audience(ev core.Event, members []core.Recipient) []core.Recipient {
	switch ev.Kind {
	case core.EventJoined, core.EventSync:
		return members
	}
	out := make([]core.Recipient, 0, len(members))
	for _, m := range members {
		if m.SID != ev.Origin {
			out = append(out, m)
		}
	}
	return out
}

func (d *Dispatcher) Dispatch(ev core.Event, members []core.Recipient) core.PublishResult {
	res := core.PublishResult{}
	audience := Audience(ev, members)
	if len(audience) == 0 {
		return res
	}

	frame, err := protocol.EncodeEvent(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatcher").Str("room", string(ev.Room)).Msg("encode event")
		return res
	}

	for _, m := range audience {
		err := m.Session.Signal().TrySend(frame)
		switch {
		case err == nil:
			res.SendTo++
		case errors.Is(err, core.ErrConnClosed):
		default:
			res.Dropped = append(res.Dropped, m.Session)
			d.onDropped(ev, m)
		}
	}
	metrics.FramesSentTotal.WithLabelValues(string(ev.Kind)).Add(float64(res.SendTo))
	log.Debug().Str("module", "app.dispatcher").Str("room", string(ev.Room)).Str("kind", string(ev.Kind)).
		Str("from", string(ev.Origin)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (d *Dispatcher) onDropped(ev core.Event, m core.Recipient) {
	metrics.FramesDroppedTotal.Inc()
	if d.Policy == nil {
		return
	}
	switch d.Policy.OnBackPressure(ev.Room, m.Session) {
	case KickMember:
		// Closing the transport ends its read loop, which runs the normal
		// disconnect path outside this room's lock.
		log.Warn().Str("module", "app.dispatcher").Str("room", string(ev.Room)).Str("sid", string(m.SID)).Msg("kicking slow member")
		m.Session.Signal().Close()
	case DropFrame, NoAction:
		log.Warn().Str("module", "app.dispatcher").Str("room", string(ev.Room)).Str("sid", string(m.SID)).Msg("frame dropped")
	}
}
