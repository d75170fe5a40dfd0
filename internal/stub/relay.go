package stub

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gosync "sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/prakoso/tvcast/internal/core"
	"github.com/prakoso/tvcast/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// RelayController owns the websocket side of the stand-in: upgrades,
// session pumps, and room membership announcements.
type RelayController struct {
	Hub *Hub
}

type relayConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     gosync.RWMutex
	closed bool
}

func (c *relayConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *relayConn) Close() {
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

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleRelay upgrades one client connection and runs its pumps. Every
// connection is a collection subscriber from the moment it registers.
func (ctl *RelayController) HandleRelay(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	if sid == "" {
		sid = core.SessionID(uuid.NewString())
	}
	log.Info().Str("module", "stub.relay").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "stub.relay").Msg("ws upgrade")
		return
	}

	conn := &relayConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	ctl.Hub.Register(sid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ctl.writePump(ctx, conn)
		cancel()
	}()
	go func() {
		ctl.readPump(ctx, sid, conn)
		cancel()
	}()
}

func (ctl *RelayController) writePump(ctx context.Context, c *relayConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "stub.relay").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "stub.relay").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "stub.relay").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "stub.relay").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *RelayController) readPump(ctx context.Context, sid core.SessionID, c *relayConn) {
	defer func() {
		log.Info().Str("module", "stub.relay").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Hub.Unregister(sid)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "stub.relay").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "stub.relay").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			ctl.handleAnnouncement(sid, c, data)
		}
	}
}

func (ctl *RelayController) handleAnnouncement(sid core.SessionID, c *relayConn, data []byte) {
	a, err := core.DecodeAnnouncement(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "stub.relay").Str("sid", string(sid)).Msg("bad announcement")
		return
	}

	switch a.Type {
	case core.TypeJoinTVDisplay:
		ctl.Hub.Join(sid, a.TVID)
		ack, err := core.EncodeEvent(core.RoomJoined{TVID: a.TVID, RoomName: roomName(a.TVID)})
		if err == nil {
			_ = c.TrySend(ack)
		}
	case core.TypeLeaveTVDisplay:
		ctl.Hub.Leave(sid)
	}
}

func roomName(id domain.TVID) string { return fmt.Sprintf("tv-%d", id) }
