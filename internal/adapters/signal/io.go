package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/CodeSync/internal/core"
	"github.com/dkeye/CodeSync/internal/metrics"
	"github.com/dkeye/CodeSync/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(ctl.Opts.WriteWait))
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Opts.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump owns the session: when it returns, the session is gone.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid core.SessionID, client string, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Orch.OnDisconnect(sid)
		c.Close()
		cancel()
	}()

	c.conn.SetReadLimit(ctl.Opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.PongWait))
	})

	throttled := 0
	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.PongWait))

		if ctl.Limiter != nil && !ctl.Limiter.Allow(client) {
			throttled++
			metrics.EventsRejectedTotal.WithLabelValues("rate_limited").Inc()
			if throttled%100 == 1 {
				log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("client", client).Int("throttled", throttled).Msg("rate limit exceeded")
			}
			continue
		}
		ctl.handleSignal(sid, c, data)
	}
}

func (ctl *SignalWSController) handleSignal(sid core.SessionID, c *WsSignalConn, data []byte) {
	typ, err := protocol.ParseType(data)
	if err != nil {
		ctl.reject(sid, "malformed", err)
		return
	}
	h, ok := ctl.handlers[typ]
	if !ok {
		ctl.reject(sid, "unknown_type", errors.New(string(typ)))
		return
	}
	metrics.EventsTotal.WithLabelValues(string(typ)).Inc()
	h(ctl, sid, c, data)
}

// decode fills v or logs why the event is being dropped.
func (ctl *SignalWSController) decode(sid core.SessionID, data []byte, v any) bool {
	if err := ctl.Decoder.Decode(data, v); err != nil {
		ctl.reject(sid, "invalid_payload", err)
		return false
	}
	return true
}

func (ctl *SignalWSController) reject(sid core.SessionID, reason string, err error) {
	metrics.EventsRejectedTotal.WithLabelValues(reason).Inc()
	log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("reason", reason).Msg("event dropped")
}

func (ctl *SignalWSController) sendJSON(c core.SignalConnection, v any) {
	b, err := protocol.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
