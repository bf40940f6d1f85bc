package httpserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/muhammadchandra19/datafeed/internal/metrics"
	"github.com/muhammadchandra19/datafeed/internal/usecase/query"
	"github.com/muhammadchandra19/datafeed/pkg/httplib/healthcheck"
	"github.com/muhammadchandra19/datafeed/pkg/logger"
	"github.com/muhammadchandra19/datafeed/pkg/util"
)

const requestIDHeader = "X-Request-Id"

// Options holds the optional parts of the server.
type Options struct {
	Metrics *metrics.Recorder
	Probes  map[string]healthcheck.Probe
	Logger  *logger.Logger
	// StreamEvery is how often /ws/query polls the book for changes.
	StreamEvery time.Duration
}

// Server serves top of book queries over HTTP and WebSocket.
type Server struct {
	*httprouter.Router

	query       *query.Service
	health      healthcheck.HealthCheck
	logger      *logger.Logger
	upgrader    websocket.Upgrader
	streamEvery time.Duration

	srv       *http.Server
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a server listening on addr.
func New(addr string, q *query.Service, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	streamEvery := opts.StreamEvery
	if streamEvery <= 0 {
		streamEvery = 500 * time.Millisecond
	}

	s := &Server{
		Router:      httprouter.New(),
		query:       q,
		health:      healthcheck.HealthCheck{Probes: opts.Probes},
		logger:      log,
		upgrader:    websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		streamEvery: streamEvery,
		done:        make(chan struct{}),
	}

	s.HandleMethodNotAllowed = false
	s.NotFound = http.HandlerFunc(notFound)

	s.GET("/query", s.handleQuery)
	s.GET("/ws/query", s.handleQueryStream)
	if opts.Metrics != nil {
		s.Handler(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// HTTPHandler returns the router wrapped in the health check and request id middlewares.
func (s *Server) HTTPHandler() http.Handler {
	return s.withRequestContext(s.health.Handler(s.Router))
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting http server", logger.Field{Key: "address", Value: s.srv.Addr})
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, ends open streams and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.done) })
	return s.srv.Shutdown(ctx)
}

func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := util.WithRequestID(r.Context(), r.Header.Get(requestIDHeader))
		ctx = util.WithClientIP(ctx, clientIP(r))
		w.Header().Set(requestIDHeader, util.GetRequestID(ctx))

		s.logger.DebugContext(ctx, "http request",
			logger.Field{Key: "method", Value: r.Method},
			logger.Field{Key: "path", Value: r.URL.Path},
			logger.Field{Key: "client_ip", Value: util.GetClientIP(ctx)},
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotFound)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := s.query.TopOfBook(r.URL.Query().Get("stock"))
	s.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	buf, err := json.Marshal(body)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{Key: "action", Value: "marshal_response"})
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// handleQueryStream pushes the query response for ?stock= every time it changes.
func (s *Server) handleQueryStream(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()
	symbol := r.URL.Query().Get("stock")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WarnContext(ctx, "websocket upgrade failed", logger.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	// the client only ever closes; reading surfaces that
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	last := s.query.TopOfBook(symbol)
	if err := conn.WriteJSON(last); err != nil {
		return
	}

	ticker := time.NewTicker(s.streamEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		case <-closed:
			return
		case <-ticker.C:
			resp := s.query.TopOfBook(symbol)
			if resp.Equal(last) {
				continue
			}
			if err := conn.WriteJSON(resp); err != nil {
				s.logger.DebugContext(ctx, "websocket write failed", logger.Field{Key: "error", Value: err.Error()})
				return
			}
			last = resp
		}
	}
}
