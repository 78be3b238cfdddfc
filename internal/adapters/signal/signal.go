package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/CodeSync/internal/app/orch"
	"github.com/dkeye/CodeSync/internal/core"
	"github.com/dkeye/CodeSync/internal/domain"
	"github.com/dkeye/CodeSync/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrBackpressure = errors.New("backpressure")

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	PongWait   time.Duration
	WriteWait  time.Duration
	SendBuffer int
}

type handlerFunc func(ctl *SignalWSController, sid core.SessionID, conn *WsSignalConn, data []byte)

type SignalWSController struct {
	Orch     *orch.Orchestrator
	Decoder  *protocol.Decoder
	Limiter  *RoomRateLimiter
	Opts     Options
	upgrader websocket.Upgrader
	handlers map[protocol.Type]handlerFunc
}

func NewSignalWSController(
	o *orch.Orchestrator,
	dec *protocol.Decoder,
	limiter *RoomRateLimiter,
	opts Options,
	checkOrigin func(r *http.Request) bool,
) *SignalWSController {
	return &SignalWSController{
		Orch:    o,
		Decoder: dec,
		Limiter: limiter,
		Opts:    opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		handlers: map[protocol.Type]handlerFunc{
			protocol.TypeJoin:           (*SignalWSController).handleJoin,
			protocol.TypeCodeChange:     (*SignalWSController).handleCodeChange,
			protocol.TypeLanguageChange: (*SignalWSController).handleLanguageChange,
			protocol.TypeSync:           (*SignalWSController).handleSync,
			protocol.TypeTogglePanel:    (*SignalWSController).handleTogglePanel,
			protocol.TypePing:           (*SignalWSController).handlePing,
		},
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleSignal upgrades the request and gives the channel a brand new
// session id. Identities are never reused, even for the same browser.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())
	client := c.GetString("client_token")
	if client == "" {
		client = string(sid)
	}

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("client", client).Msg("new WS connection")

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Opts.SendBuffer),
	}

	sess := core.NewMemberSession(domain.NewMember(domain.NewGuest(domain.UserID(sid))), conn)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Connect(sid, sess, cancel)
	ctl.sendJSON(conn, protocol.Welcome{Type: protocol.TypeWelcome, SessionID: string(sid)})

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, client, conn)
}
