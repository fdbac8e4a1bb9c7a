package providers

import (
	"context"
	"net"
	"sync"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v3"
	"github.com/orchestra-mcp/relay/config"
	"github.com/orchestra-mcp/relay/src/bridge"
	"github.com/orchestra-mcp/relay/src/hub"
	"github.com/orchestra-mcp/relay/src/metrics"
	"github.com/orchestra-mcp/relay/src/registry"
	"github.com/orchestra-mcp/relay/src/service"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Server hosts the relay: the WebSocket endpoint, the HTTP routes and the
// metrics endpoint all share one fasthttp listener.
type Server struct {
	cfg      *config.RelayConfig
	redisCfg *bridge.RedisConfig
	base     zerolog.Logger
	logger   zerolog.Logger

	service *service.Service
	metrics *metrics.Metrics
	bridge  bridge.Bridge

	app      *fiber.App
	upgrader websocket.FastHTTPUpgrader
	srv      *fasthttp.Server

	appHandler     fasthttp.RequestHandler
	metricsHandler fasthttp.RequestHandler

	mu     sync.Mutex
	active bool
}

// NewServer wires the hub, relay service, metrics and routes. A nil
// redisCfg, or one that is not enabled, runs the relay without a bridge.
func NewServer(cfg *config.RelayConfig, redisCfg *bridge.RedisConfig, logger zerolog.Logger) *Server {
	m := metrics.New()
	h := hub.New(logger,
		hub.WithSendBuffer(cfg.SendBuffer),
		hub.WithPingInterval(cfg.PingEvery()),
		hub.WithMetrics(m),
	)
	svc := service.New(h, registry.New(), logger)
	svc.Engine().SetMetrics(m)

	s := &Server{
		cfg:      cfg,
		redisCfg: redisCfg,
		base:     logger,
		logger:   logger.With().Str("component", "server").Logger(),
		service:  svc,
		metrics:  m,
		app: fiber.New(fiber.Config{
			AppName:   "relay",
			BodyLimit: int(cfg.MaxMessageSize),
		}),
	}
	s.upgrader = s.newUpgrader()
	s.RegisterRoutes(s.app)
	s.appHandler = s.app.Handler()
	s.metricsHandler = fasthttpadaptor.NewFastHTTPHandler(m.Handler())
	s.srv = &fasthttp.Server{
		Handler:            s.dispatch,
		Name:               "relay",
		ReadBufferSize:     4096,
		MaxRequestBodySize: int(cfg.MaxMessageSize),
	}
	return s
}

// Service exposes the relay service.
func (s *Server) Service() *service.Service { return s.service }

// Metrics exposes the server's collectors.
func (s *Server) Metrics() *metrics.Metrics { return s.metrics }

// IsActive reports whether Activate has run without a matching Shutdown.
func (s *Server) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Activate starts the hub event loop and, when configured, the Redis bridge.
func (s *Server) Activate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return nil
	}

	go s.service.Hub().Run()
	s.initBridge()

	s.active = true
	s.logger.Info().Str("addr", s.cfg.Addr()).Msg("relay activated")
	return nil
}

// initBridge tries to start the Redis activity bridge.
// If Redis is not reachable, the relay runs standalone.
func (s *Server) initBridge() {
	if s.redisCfg == nil || !s.redisCfg.Enabled {
		return
	}
	rb := bridge.NewRedisBridge(s.redisCfg, s.base)
	if err := rb.Start(); err != nil {
		s.logger.Warn().Err(err).Msg("redis bridge unavailable, running standalone")
		_ = rb.Stop()
		return
	}

	s.bridge = rb
	s.service.Engine().SetBridge(rb)
	s.logger.Info().Str("redis_addr", s.redisCfg.Addr).Msg("redis bridge connected")
}

// dispatch routes WebSocket upgrades and metrics scrapes ahead of fiber,
// which does not expose the raw *fasthttp.RequestCtx to handlers.
func (s *Server) dispatch(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/ws":
		s.handleUpgrade(ctx)
	case "/metrics":
		s.metricsHandler(ctx)
	default:
		s.appHandler(ctx)
	}
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

// ListenAndServe listens on the configured address.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("listening")
	return s.Serve(ln)
}

// Shutdown stops accepting requests, then stops the bridge and the hub,
// which closes every WebSocket connection.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.ShutdownWithContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bridge != nil {
		if berr := s.bridge.Stop(); berr != nil {
			s.logger.Error().Err(berr).Msg("bridge stop error")
		}
		s.bridge = nil
	}
	if s.active {
		s.service.Hub().Stop()
		s.active = false
	}
	return err
}
