// Package server exposes the card dataset over HTTP.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/pefman/cardstats/internal/dataset"
	"github.com/pefman/cardstats/internal/stats"
)

const welcome = "REST API running! Visit /api/unidades to see the data."

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStats sets the tracker reported by /api/stats. Handlers count reads;
// mutations reach the tracker only when it observes the store.
func WithStats(t *stats.Tracker) Option {
	return func(s *Server) {
		if t != nil {
			s.stats = t
		}
	}
}

// WithFeed mounts the websocket change feed at /api/unidades/eventos.
func WithFeed(f *Feed) Option {
	return func(s *Server) { s.feed = f }
}

// Server routes requests to a dataset.Store.
type Server struct {
	store   *dataset.Store
	stats   *stats.Tracker
	feed    *Feed
	log     *slog.Logger
	handler http.Handler
}

// New builds the route table for store.
func New(store *dataset.Store, opts ...Option) *Server {
	s := &Server{store: store, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.stats == nil {
		s.stats = stats.NewTracker()
	}
	s.handler = withRequestLog(s.log, withCORS(s.routes()))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "unsupported path")
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("%s not allowed on %s", r.Method, r.URL.Path))
	})

	r := mux.NewRouter()
	r.NotFoundHandler, r.MethodNotAllowedHandler = notFound, notAllowed
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler, api.MethodNotAllowedHandler = notFound, notAllowed
	api.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)

	api.HandleFunc("/unidades", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/unidades", s.handleInsert).Methods(http.MethodPost)
	api.HandleFunc("/unidades/top/{n:[0-9]+}", s.handleTop).Methods(http.MethodGet)
	api.HandleFunc("/unidades/busca/{value}", s.handleSearch).Methods(http.MethodGet)
	api.HandleFunc("/unidades/filtro", s.handleFilter).Methods(http.MethodPost)
	if s.feed != nil {
		api.Handle("/unidades/eventos", s.feed).Methods(http.MethodGet)
	}
	api.HandleFunc("/unidades/{id:[0-9]+}", s.handleUpdate).Methods(http.MethodPut)
	api.HandleFunc("/unidades/{id:[0-9]+}", s.handleDelete).Methods(http.MethodDelete)
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(welcome))
}

// GET /api/healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "records": s.store.Len()})
}

// GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"records": s.store.Len(),
		"total":   s.stats.Totals(),
		"today":   s.stats.Today(),
	})
}

// GET /api/unidades
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.stats.Record("list")
	writeJSON(w, http.StatusOK, s.store.All())
}

// GET /api/unidades/top/{n}
func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(mux.Vars(r)["n"])
	if err != nil {
		// only digits reach here, so the value overflowed
		n = math.MaxInt
	}
	s.stats.Record("top")
	writeJSON(w, http.StatusOK, s.store.Top(n))
}

// GET /api/unidades/busca/{value}
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	value := mux.Vars(r)["value"]
	s.stats.Record("search")
	found, err := s.store.FindByName(value)
	if err != nil {
		s.fail(w, r, err, fmt.Sprintf("No unit found for '%s' in field '%s'.", value, s.store.Config().NameField))
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// POST /api/unidades/filtro
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	s.stats.Record("filter")
	filters, err := decodeFields(w, r)
	if errors.Is(err, errNoBody) || (err == nil && len(filters) == 0) {
		writeError(w, http.StatusBadRequest, "No JSON filter provided in the request body.")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	found, err := s.store.FindByFilters(filters)
	if err != nil {
		s.fail(w, r, err, "No unit found matching the given filters.")
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// POST /api/unidades
func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(w, r)
	if err != nil && !errors.Is(err, errNoBody) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.store.Insert(fields)
	if err != nil {
		s.fail(w, r, err, "Invalid or missing data.")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// PUT /api/unidades/{id}
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	fields, err := decodeFields(w, r)
	if errors.Is(err, errNoBody) {
		writeError(w, http.StatusBadRequest, "Invalid or missing data.")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.store.Update(id, fields)
	if err != nil {
		s.fail(w, r, err, fmt.Sprintf("Unit with id %d not found.", id))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DELETE /api/unidades/{id}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	rec, err := s.store.Delete(id)
	if err != nil {
		s.fail(w, r, err, fmt.Sprintf("Unit with id %d not found.", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  fmt.Sprintf("Unit with id %d removed successfully.", id),
		"deletado": s.store.Label(rec),
	})
}

// pathID parses {id}. Digit strings too large for int cannot name a record.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unit with id %s not found.", raw))
		return 0, false
	}
	return id, true
}

// fail maps store errors to a status; msg is used for not-found and invalid input.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, dataset.ErrNotFound):
		writeError(w, http.StatusNotFound, msg)
	case errors.Is(err, dataset.ErrInvalidInput), errors.Is(err, dataset.ErrUnsupportedValue):
		writeError(w, http.StatusBadRequest, msg)
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
