package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roach88/listsync/internal/live"
	"github.com/roach88/listsync/internal/model"
	"github.com/roach88/listsync/internal/wsconn"
)

// DefaultRequestTimeout bounds each REST request.
const DefaultRequestTimeout = 4 * time.Second

// shutdownTimeout bounds the graceful drain of in-flight REST requests.
const shutdownTimeout = 5 * time.Second

// Lists is the mutation service as seen by the HTTP layer.
// *service.Service satisfies it.
type Lists interface {
	ListAll(ctx context.Context) ([]model.List, error)
	GetList(ctx context.Context, id int64) (model.List, error)
	ItemsAll(ctx context.Context) ([]model.Item, error)
	GetItem(ctx context.Context, id int64) (model.Item, error)
	ItemsOfList(ctx context.Context, listID int64) ([]model.Item, error)

	CreateList(ctx context.Context, name string) (model.List, error)
	RenameList(ctx context.Context, id int64, newName string) (model.List, error)
	RemoveList(ctx context.Context, id int64) (model.List, error)
	CreateItem(ctx context.Context, listID int64, content string) (model.Item, error)
	EditItem(ctx context.Context, id int64, newContent string) (model.Item, error)
	RemoveItem(ctx context.Context, id int64) (model.Item, error)
}

// Sessions runs live sessions. *live.Manager satisfies it.
type Sessions interface {
	Serve(ctx context.Context, t live.Transport) error
	Active() int
}

// Pinger checks the backing store. *store.Store satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP front of the service.
type Server struct {
	lists          Lists
	sessions       Sessions
	pinger         Pinger
	logger         *slog.Logger
	auth           *BasicAuth
	requestTimeout time.Duration
	writeWait      time.Duration
	upgrader       *websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBasicAuth guards the REST routes with a.
func WithBasicAuth(a *BasicAuth) Option {
	return func(s *Server) {
		s.auth = a
	}
}

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithWriteWait sets the websocket frame write deadline.
func WithWriteWait(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.writeWait = d
		}
	}
}

// WithPinger enables the store check in /healthz.
func WithPinger(p Pinger) Option {
	return func(s *Server) {
		s.pinger = p
	}
}

// NewServer creates a Server.
func NewServer(lists Lists, sessions Sessions, opts ...Option) *Server {
	s := &Server{
		lists:          lists,
		sessions:       sessions,
		logger:         slog.Default(),
		requestTimeout: DefaultRequestTimeout,
		upgrader:       wsconn.NewUpgrader(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the complete routing tree with middleware applied.
func (s *Server) Handler() http.Handler {
	rest := http.NewServeMux()
	rest.HandleFunc("GET /lists", s.handleListAll)
	rest.HandleFunc("POST /lists", s.handleCreateList)
	rest.HandleFunc("GET /lists/{id}", s.handleGetList)
	rest.HandleFunc("PATCH /lists/{id}", s.handleRenameList)
	rest.HandleFunc("DELETE /lists/{id}", s.handleRemoveList)
	rest.HandleFunc("GET /lists/{id}/items", s.handleItemsOfList)
	rest.HandleFunc("GET /items", s.handleItemsAll)
	rest.HandleFunc("POST /items", s.handleCreateItem)
	rest.HandleFunc("GET /items/{id}", s.handleGetItem)
	rest.HandleFunc("PATCH /items/{id}", s.handleEditItem)
	rest.HandleFunc("DELETE /items/{id}", s.handleRemoveItem)

	var guarded http.Handler = rest
	if s.auth != nil {
		guarded = s.auth.Middleware(guarded)
	}
	guarded = http.TimeoutHandler(guarded, s.requestTimeout, `{"error":"request timed out","kind":"infrastructure"}`)

	root := http.NewServeMux()
	root.Handle("/", guarded)
	root.HandleFunc("GET /ws", s.handleLive)
	root.HandleFunc("GET /healthz", s.handleHealth)

	return logRequests(s.logger, cors(root))
}

// ListenAndServe serves on addr until ctx is canceled, then drains REST
// requests and closes every live session.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// live sessions run on request contexts derived from this one, so
	// canceling it ends them even though Shutdown ignores hijacked conns
	baseCtx, cancelBase := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelBase()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	cancelBase()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
