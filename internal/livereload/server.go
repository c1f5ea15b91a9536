package livereload

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	domainerrors "github.com/listenupapp/coffeeguard/internal/errors"
	"github.com/listenupapp/coffeeguard/internal/http/response"
)

// StreamPath is where browsers subscribe to events.
const StreamPath = "/livereload"

// Server exposes the live-reload stream over HTTP.
type Server struct {
	manager *Manager
	handler *Handler
	router  *chi.Mux
	logger  *slog.Logger
	addr    string
}

// NewServer creates a server listening on addr with routes configured.
func NewServer(addr string, manager *Manager, handler *Handler, logger *slog.Logger) *Server {
	s := &Server{
		manager: manager,
		handler: handler,
		router:  chi.NewRouter(),
		logger:  logger,
		addr:    addr,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	// Pages served from any dev server origin subscribe to the stream.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Cache-Control", "Last-Event-ID"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/clients", s.handleListClients)
	s.router.Get("/clients/{id}", s.handleGetClient)
	s.router.Method(http.MethodGet, StreamPath, s.handler)
}

type healthResponse struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, healthResponse{
		Status:  "ok",
		Clients: s.manager.ClientCount(),
	}, s.logger)
}

type clientResponse struct {
	ConnectedAt time.Time `json:"connected_at"`
	ID          string    `json:"id"`
	RemoteAddr  string    `json:"remote_addr"`
}

func newClientResponse(c *Client) clientResponse {
	return clientResponse{ID: c.ID, RemoteAddr: c.RemoteAddr, ConnectedAt: c.ConnectedAt}
}

func (s *Server) handleListClients(w http.ResponseWriter, _ *http.Request) {
	clients := make([]clientResponse, 0, s.manager.ClientCount())
	for c := range s.manager.Clients() {
		clients = append(clients, newClientResponse(c))
	}
	slices.SortFunc(clients, func(a, b clientResponse) int {
		return a.ConnectedAt.Compare(b.ConnectedAt)
	})
	response.Success(w, clients, s.logger)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "id")
	c, ok := s.manager.Client(clientID)
	if !ok {
		response.HandleError(w, domainerrors.NotFoundf("live reload client %s not found", clientID), s.logger)
		return
	}
	response.Success(w, newClientResponse(c), s.logger)
}

// ListenAndServe runs the broadcast loop and the HTTP server until ctx is
// canceled, then shuts both down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go s.manager.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("live reload listening", "addr", s.addr, "path", StreamPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.manager.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("live reload manager shutdown", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
