package http

import (
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"innkeeper/config"
	"innkeeper/shared/constant"
	"innkeeper/transport/http/middleware"
	"innkeeper/transport/http/response"
	"innkeeper/transport/http/router"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

type ServerState int

const (
	ServerStateReady ServerState = iota + 1
	ServerStateInGracePeriod
	ServerStateInCleanupPeriod
)

type HTTP struct {
	Config     *config.Config
	Router     router.Router
	Middleware middleware.AppMiddleware
	State      ServerState
	mux        *chi.Mux
	cleanups   []func()
}

func New(cfg *config.Config, r router.Router, m middleware.AppMiddleware) *HTTP {
	return &HTTP{
		Config:     cfg,
		Router:     r,
		Middleware: m,
	}
}

func (h *HTTP) Serve() {
	h.setup()

	address := net.JoinHostPort(h.Config.Server.Host, h.Config.Server.Port)

	log.Info().Str("address", address).Msg("Starting up HTTP server.")

	if err := http.ListenAndServe(address, h.mux); err != nil {
		log.Fatal().Err(err).Msg("Failed to start HTTP server")
	}
}

func (h *HTTP) setup() {
	h.setupRoutes()
	h.setupGracefulShutdown()
	h.State = ServerStateReady
}

func (h *HTTP) setupRoutes() {
	h.mux = chi.NewRouter()

	if h.Config.App.CORS.Enable {
		h.mux.Use(cors.Handler(cors.Options{
			AllowCredentials: h.Config.App.CORS.AllowCredentials,
			AllowedHeaders:   h.Config.App.CORS.AllowedHeaders,
			AllowedMethods:   h.Config.App.CORS.AllowedMethods,
			AllowedOrigins:   h.Config.App.CORS.AllowedOrigins,
			MaxAge:           h.Config.App.CORS.MaxAgeSeconds,
		}))
	}

	h.mux.Use(h.Middleware.Tracing)
	h.mux.Use(h.Middleware.RateLimit())

	h.mux.Get("/health", h.HealthCheck)

	h.Router.SetupRoutes(h.mux)
}

// HealthCheck reports server readiness so the load balancer can drain
// traffic during the shutdown sequence.
func (h *HTTP) HealthCheck(writer http.ResponseWriter, _ *http.Request) {
	switch h.State {
	case ServerStateReady:
		response.WithMessage(writer, http.StatusOK, "OK")
	case ServerStateInGracePeriod:
		response.WithPreparingShutdown(writer)
	default:
		response.WithUnhealthy(writer)
	}
}

// RegisterCleanup queues fn to run during the shutdown sequence, before the
// process exits. Register anything that buffers work, such as the event
// dispatcher, so it gets a chance to drain.
func (h *HTTP) RegisterCleanup(fn func()) {
	h.cleanups = append(h.cleanups, fn)
}

func (h *HTTP) runCleanups() {
	for _, fn := range h.cleanups {
		fn()
	}
}

func (h *HTTP) setupGracefulShutdown() {
	serverStateCh := make(chan os.Signal, 1)

	signal.Notify(serverStateCh, os.Interrupt, syscall.SIGTERM)

	go h.respondToSigterm(serverStateCh)
}

func (h *HTTP) respondToSigterm(done chan os.Signal) {
	<-done

	defer os.Exit(0)

	if h.Config.Server.Env == constant.ServerEnvDevelopment {
		log.Warn().Msg("Received SIGTERM. Shutting down now.")
		h.runCleanups()

		return
	}

	shutdownConfig := h.Config.Server.Shutdown

	log.Info().Msg("Received SIGTERM.")
	log.Info().Int64("seconds", shutdownConfig.GracePeriodSeconds).Msg("Entering grace period.")

	h.State = ServerStateInGracePeriod

	time.Sleep(time.Duration(shutdownConfig.GracePeriodSeconds) * time.Second)

	log.Info().Int64("seconds", shutdownConfig.CleanupPeriodSeconds).Msg("Entering cleanup period.")

	h.State = ServerStateInCleanupPeriod

	h.runCleanups()

	time.Sleep(time.Duration(shutdownConfig.CleanupPeriodSeconds) * time.Second)

	log.Info().Msg("Cleaning up completed. Shutting down now.")
}
