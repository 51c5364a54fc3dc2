// Package api serves the concierge dashboard's HTTP API.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thefitz/companion/pkg/auth"
	"github.com/thefitz/companion/pkg/config"
	"github.com/thefitz/companion/pkg/events"
	"github.com/thefitz/companion/pkg/metrics"
	"github.com/thefitz/companion/pkg/services"
)

// Server is the HTTP API server.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	cfg        *config.Config
	logger     *slog.Logger

	db         HealthChecker
	tickets    TicketStore
	lifecycle  TicketLifecycle
	timers     AutoCloseStates
	guests     GuestStore
	timeline   TimelineAggregator
	notes      NoteStore
	messages   Messenger
	transport  TransportReader
	refresher  TransportRefresher
	storage    StorageStore
	auth       Authenticator
	tokens     *auth.TokenIssuer
	broker     *events.Broker
	publisher  events.Publisher
	warnings   *services.SystemWarningsService
	httpMetric *metrics.HTTPMetrics
	now        func() time.Time

	stopping chan struct{}
	stopOnce sync.Once
}

// Dependencies are the components the server routes to. Nil components
// leave their routes unregistered, except the ones every deployment needs
// (database health, tickets and auth).
type Dependencies struct {
	DB          HealthChecker
	Tickets     TicketStore
	Lifecycle   TicketLifecycle
	Timers      AutoCloseStates
	Guests      GuestStore
	Timeline    TimelineAggregator
	Notes       NoteStore
	Messages    Messenger
	Transport   TransportReader
	Refresher   TransportRefresher
	Storage     StorageStore
	Auth        Authenticator
	Tokens      *auth.TokenIssuer
	Broker      *events.Broker
	Publisher   events.Publisher
	Warnings    *services.SystemWarningsService
	HTTPMetrics *metrics.HTTPMetrics
}

// NewServer creates the server and registers its routes.
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		engine:     engine,
		cfg:        cfg,
		logger:     slog.Default().With("component", "api"),
		db:         deps.DB,
		tickets:    deps.Tickets,
		lifecycle:  deps.Lifecycle,
		timers:     deps.Timers,
		guests:     deps.Guests,
		timeline:   deps.Timeline,
		notes:      deps.Notes,
		messages:   deps.Messages,
		transport:  deps.Transport,
		refresher:  deps.Refresher,
		storage:    deps.Storage,
		auth:       deps.Auth,
		tokens:     deps.Tokens,
		broker:     deps.Broker,
		publisher:  deps.Publisher,
		warnings:   deps.Warnings,
		httpMetric: deps.HTTPMetrics,
		now:        time.Now,
		stopping:   make(chan struct{}),
	}
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(securityHeaders())
	s.engine.Use(corsHeaders(s.cfg.AllowedOrigins))
	s.engine.Use(requestMetrics(s.httpMetric))

	s.engine.GET("/health", handle(s.healthHandler))
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.GET("/health", handle(s.healthHandler))
	api.POST("/auth/login", handle(s.loginHandler))

	cron := api.Group("/cron", cronAuth(s.cfg.CronSecret()))
	if s.refresher != nil {
		cron.GET("/flights", handle(s.cronFlightsHandler))
		cron.GET("/traffic", handle(s.cronTrafficHandler))
		cron.GET("/transport", handle(s.cronTransportHandler))
	}

	protected := api.Group("", auth.Middleware(s.tokens))
	protected.GET("/auth/me", handle(s.meHandler))

	protected.GET("/tickets", handle(s.listTicketsHandler))
	protected.POST("/tickets", handle(s.createTicketHandler))
	protected.GET("/tickets/:id", handle(s.getTicketHandler))
	protected.PUT("/tickets/:id", handle(s.updateTicketHandler))
	protected.PUT("/tickets/:id/status", handle(s.setTicketStatusHandler))
	protected.PUT("/tickets/:id/close", handle(s.closeTicketHandler))
	protected.GET("/tickets/:id/autoclose", handle(s.autoCloseStateHandler))
	protected.POST("/tickets/:id/notes", handle(s.addTicketNoteHandler))

	if s.guests != nil {
		protected.GET("/guests", handle(s.listGuestsHandler))
		protected.POST("/guests", handle(s.createGuestHandler))
		protected.GET("/guests/:id", handle(s.getGuestHandler))
		protected.PUT("/guests/:id", handle(s.updateGuestHandler))
		protected.DELETE("/guests/:id", handle(s.deleteGuestHandler))
	}

	if s.timeline != nil {
		protected.GET("/timeline", handle(s.timelineHandler))
	}
	if s.notes != nil {
		protected.GET("/timeline/notes", handle(s.listInternalNotesHandler))
		protected.POST("/timeline/notes", handle(s.createInternalNoteHandler))
		protected.PUT("/timeline/notes/:id", handle(s.updateInternalNoteHandler))
	}

	if s.messages != nil {
		protected.POST("/messages/send", handle(s.sendMessageHandler))
		protected.GET("/messages/guest/:guestId", handle(s.messageHistoryHandler))
	}

	if s.transport != nil {
		protected.GET("/transport/flights", handle(s.flightsHandler))
		protected.GET("/transport/traffic", handle(s.trafficHandler))
		protected.GET("/transport/rail", handle(s.railHandler))
		protected.GET("/transport/bus", handle(s.busHandler))
		protected.GET("/transport/eta/:guestId", handle(s.etaHandler))
	}

	if s.storage != nil {
		protected.GET("/storage", handle(s.listStorageHandler))
		protected.POST("/storage", handle(s.createStorageHandler))
		protected.PUT("/storage/:id", handle(s.updateStorageHandler))
		protected.GET("/storage/counts", handle(s.storageCountsHandler))
	}

	if s.broker != nil {
		protected.GET("/events", s.eventsHandler)
	}

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start starts the HTTP server on the given address. It blocks until the
// server stops and returns http.ErrServerClosed after Shutdown.
func (s *Server) Start(addr string) error {
	s.httpServer.Addr = addr
	return s.httpServer.ListenAndServe()
}

// Shutdown ends open event streams and gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopping) })
	if err := s.httpServer.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// publish announces a change made directly through a store. Failures are
// logged, never returned.
func (s *Server) publish(c *gin.Context, change events.Change) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(c.Request.Context(), change); err != nil {
		s.logger.Warn("Failed to publish change", "resource", change.Resource, "action", change.Action, "error", err)
	}
}
