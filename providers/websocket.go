package providers

import (
	"strings"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/orchestra-mcp/relay/src/hub"
	"github.com/valyala/fasthttp"
)

func (s *Server) newUpgrader() websocket.FastHTTPUpgrader {
	return websocket.FastHTTPUpgrader{
		ReadBufferSize:  s.cfg.ReadBufferSize,
		WriteBufferSize: s.cfg.WriteBufferSize,
		CheckOrigin:     func(*fasthttp.RequestCtx) bool { return true },
	}
}

// handleUpgrade upgrades /ws requests and runs the client pumps on the
// hijacked connection.
func (s *Server) handleUpgrade(ctx *fasthttp.RequestCtx) {
	upgrade := string(ctx.Request.Header.Peek("Upgrade"))
	if !strings.EqualFold(upgrade, "websocket") {
		ctx.SetStatusCode(fasthttp.StatusUpgradeRequired)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"error":"upgrade_required","message":"WebSocket upgrade required"}`)
		return
	}

	clientID := uuid.New().String()
	remote := ctx.RemoteAddr().String()
	h := s.service.Hub()

	err := s.upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
		client := hub.NewClient(clientID, s.wrapConn(conn), h)
		client.RemoteAddr = remote
		h.Register(client)
		go client.WritePump()
		client.ReadPump()
	})
	if err != nil {
		s.logger.Error().Err(err).Str("remote_addr", remote).Msg("websocket upgrade failed")
	}
}

func (s *Server) wrapConn(conn *websocket.Conn) *fasthttpConn {
	fc := &fasthttpConn{
		conn:         conn,
		pongWait:     s.cfg.PongTimeout(),
		writeTimeout: s.cfg.WriteDeadline(),
	}
	conn.SetReadLimit(s.cfg.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(fc.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(fc.pongWait))
	})
	return fc
}

// fasthttpConn wraps fasthttp/websocket.Conn to satisfy types.Conn and
// types.Pinger. Every inbound frame extends the idle deadline.
type fasthttpConn struct {
	conn         *websocket.Conn
	pongWait     time.Duration
	writeTimeout time.Duration
}

func (f *fasthttpConn) WriteJSON(v any) error {
	_ = f.conn.SetWriteDeadline(time.Now().Add(f.writeTimeout))
	return f.conn.WriteJSON(v)
}

func (f *fasthttpConn) ReadJSON(v any) error {
	err := f.conn.ReadJSON(v)
	_ = f.conn.SetReadDeadline(time.Now().Add(f.pongWait))
	return err
}

func (f *fasthttpConn) Ping() error {
	return f.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(f.writeTimeout))
}

func (f *fasthttpConn) Close() error { return f.conn.Close() }
