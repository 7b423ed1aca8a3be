package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/core"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/stream"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodySize bounds action payloads.
const maxBodySize = 1 << 20

// Store is the state container the server exposes.
type Store interface {
	Namespace() string
	Actions() *tree.Tree
	State() *core.Machine[domain.State]
}

// Server serves state, actions and their event streams over HTTP.
type Server struct {
	Store   Store
	Streams *StreamManager

	logger  *slog.Logger
	metrics http.Handler
	cancels []stream.CancelFunc
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer builds the router and starts relaying state diffs and action
// events to SSE clients. Call Close to stop relaying.
func NewServer(store Store, opts ...Option) *Server {
	s := &Server{Store: store}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger)
	s.Streams = NewStreamManager(s.logger)

	s.relay()
	s.routes()
	return s
}

// NewHandler creates a new HTTP handler for the store.
func NewHandler(store Store, opts ...Option) http.Handler {
	return NewServer(store, opts...).Handler()
}

// Handler returns the routed handler with CORS enabled.
func (s *Server) Handler() http.Handler {
	return enableCORS(s.router)
}

// Close stops relaying events. Connected SSE clients stay open until they leave.
func (s *Server) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/state", s.GetState)
	r.Get("/state/{path}", s.GetState)
	r.Get("/actions", s.ListActions)
	r.Post("/actions/{path}", s.CallAction)
	r.Get("/graph", s.GetGraph)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/ws", s.SubscribeWebSocket)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	s.router = r
}

// relay turns state changes into diff events and actions into action events.
func (s *Server) relay() {
	ns := s.Store.Namespace()

	var prev domain.State
	s.cancels = append(s.cancels, s.Store.State().Subscribe(func(next domain.State) {
		diff := domain.Diff(ns, prev, next)
		prev = next
		if diff.IsEmpty() {
			return
		}
		data, err := json.Marshal(diff)
		if err != nil {
			s.logger.Warn("Failed to encode state diff", "err", err)
			return
		}
		keys := make([]string, 0, len(diff.Changes))
		for k := range diff.Changes {
			keys = append(keys, k)
		}
		s.Streams.Broadcast(Event{Name: "diff", Data: string(data), Keys: keys})
	}))

	s.cancels = append(s.cancels, s.Store.Actions().Stream().Subscribe(func(ev domain.ActionEvent) {
		data, err := json.Marshal(ev)
		if err != nil {
			s.logger.Warn("Failed to encode action event", "action", tree.JoinPath(ev.Path), "err", err)
			return
		}
		var keys []string
		if len(ev.Path) > 0 {
			keys = []string{ev.Path[0]}
		}
		s.Streams.Broadcast(Event{Name: "action", Data: string(data), Keys: keys})
	}))
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":       "arbor-http",
		"version":   strings.TrimSpace(arbor.Version),
		"namespace": s.Store.Namespace(),
	}, s.logger)
}

// GetState handles GET /state and GET /state/{path}.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	state := s.Store.State().Get()

	path := chi.URLParam(r, "path")
	if path == "" {
		writeJSON(w, http.StatusOK, state, s.logger)
		return
	}

	v, ok := state.Lookup(tree.ParsePath(path)...)
	if !ok {
		http.Error(w, fmt.Sprintf("No state at %q", path), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, v, s.logger)
}

// ListActions handles the GET /actions request.
func (s *Server) ListActions(w http.ResponseWriter, r *http.Request) {
	actions := []string{}
	s.Store.Actions().Walk(func(path []string, _ tree.Action) {
		actions = append(actions, tree.JoinPath(path))
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"namespace": s.Store.Namespace(),
		"actions":   actions,
	}, s.logger)
}

// CallAction handles POST /actions/{path}. The body is a JSON array of
// arguments, a single JSON value, or empty.
func (s *Server) CallAction(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "path")

	args, err := decodeArgs(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("CallAction: Invalid request body", "action", path, "err", err)
		return
	}

	if err := s.Store.Actions().Call(path, args...); err != nil {
		if errors.Is(err, domain.ErrActionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Action error: %v", err), http.StatusInternalServerError)
		s.logger.Error("CallAction failed", "action", path, "err", err)
		return
	}

	s.logger.Debug("CallAction: accepted", "action", path, "args", len(args))
	writeJSON(w, http.StatusAccepted, map[string]any{"accepted": true, "action": path}, s.logger)
}

// GetGraph handles GET /graph, rendering the action tree as Mermaid.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(s.Store.Actions(), nil))
}

// SubscribeEvents handles the GET /events request (SSE).
// The optional watch parameter lists top-level keys to filter on.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	watchList := parseWatch(r)

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	s.logger.Info("SSE: Client connected", "namespace", s.Store.Namespace(), "watch", watchList)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !matches(ev.Keys, watchList) {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			flusher.Flush()
		}
	}
}

// parseWatch reads the comma-separated watch query parameter.
func parseWatch(r *http.Request) []string {
	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		for _, field := range strings.Split(watch, ",") {
			if field = strings.TrimSpace(field); field != "" {
				watchList = append(watchList, field)
			}
		}
	}
	return watchList
}

func matches(keys, watchList []string) bool {
	for _, k := range keys {
		for _, w := range watchList {
			if k == w {
				return true
			}
		}
	}
	return false
}

func decodeArgs(body io.Reader) ([]any, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var args []any
		if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
			return nil, err
		}
		return args, nil
	}

	var single any
	if err := json.Unmarshal([]byte(trimmed), &single); err != nil {
		return nil, err
	}
	return []any{single}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}
