package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/leadpilot/internal/config"
	"github.com/ignite/leadpilot/internal/sequencer"
	"github.com/ignite/leadpilot/internal/service/campaign"
	"github.com/ignite/leadpilot/internal/service/lead"
	"github.com/ignite/leadpilot/internal/service/suppression"
)

// Server is the HTTP API for campaign, lead, and suppression management,
// plus the inbound callback endpoints the webhook counterparty calls back.
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// Handlers bundles the services the routes need.
type Handlers struct {
	Campaigns    *campaign.Service
	Leads        *lead.Service
	Suppressions *suppression.Service
	History      sequencer.HistorySink
}

// NewServer wires the routes and returns a server ready to listen.
func NewServer(cfg config.ServerConfig, h *Handlers) *Server {
	return &Server{
		config:  cfg,
		handler: SetupRoutes(h),
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
