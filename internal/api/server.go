// Package api exposes the catalog, stateless scoring and practice sessions
// over HTTP, plus a WebSocket endpoint for live practice.
//
// All routes live under /v1 and speak JSON. Errors are returned as
// {"error": "...", "correlation_id": "..."} with 400 for malformed requests
// and rejected attempts, 404 for unknown items, sessions and recordings, and
// 500 otherwise.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/MrWong99/enunciate/internal/catalog"
	"github.com/MrWong99/enunciate/internal/observe"
	"github.com/MrWong99/enunciate/internal/practice"
	"github.com/MrWong99/enunciate/pkg/provider/stt"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 64 << 10

// Config holds the dependencies of a [Server].
type Config struct {
	Catalog catalog.Store
	Scorer  practice.Scorer
	Manager *practice.Manager
	Coach   *practice.Coach

	// Transcriber, when set, transcribes uploaded audio. Without it audio
	// uploads are scored without a transcript.
	Transcriber stt.Provider

	// Language is passed to the transcriber.
	Language string

	// Prompt is a fixed decoding hint sent with every upload. It never
	// carries the practice text, so the recognizer is not steered toward
	// the expected answer.
	Prompt string

	// Metrics is optional.
	Metrics *observe.Metrics

	// Rand picks random catalog items. Defaults to a time-seeded source.
	Rand *rand.Rand
}

// Server implements the HTTP API. It is safe for concurrent use.
type Server struct {
	catalog     catalog.Store
	scorer      practice.Scorer
	manager     *practice.Manager
	coach       *practice.Coach
	transcriber stt.Provider
	language    string
	prompt      string
	metrics     *observe.Metrics

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a Server from cfg.
func New(cfg Config) *Server {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x6974656d))
	}
	return &Server{
		catalog:     cfg.Catalog,
		scorer:      cfg.Scorer,
		manager:     cfg.Manager,
		coach:       cfg.Coach,
		transcriber: cfg.Transcriber,
		language:    cfg.Language,
		prompt:      cfg.Prompt,
		metrics:     cfg.Metrics,
		rng:         rng,
	}
}

// Register adds all API routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/items", s.listItems)
	mux.HandleFunc("GET /v1/items/random", s.randomItem)
	mux.HandleFunc("GET /v1/items/{id}", s.getItem)
	mux.HandleFunc("GET /v1/categories", s.categories)

	mux.HandleFunc("POST /v1/score", s.score)

	mux.HandleFunc("POST /v1/sessions", s.createSession)
	mux.HandleFunc("GET /v1/sessions/{id}", s.getSession)
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.deleteSession)
	mux.HandleFunc("POST /v1/sessions/{id}/recordings", s.submitRecording)
	mux.HandleFunc("POST /v1/sessions/{id}/recordings/audio", s.submitAudio)
	mux.HandleFunc("GET /v1/sessions/{id}/recordings", s.listRecordings)
	mux.HandleFunc("DELETE /v1/sessions/{id}/recordings", s.clearRecordings)
	mux.HandleFunc("GET /v1/sessions/{id}/recordings/{rid}", s.getRecording)
	mux.HandleFunc("DELETE /v1/sessions/{id}/recordings/{rid}", s.deleteRecording)
	mux.HandleFunc("GET /v1/sessions/{id}/live", s.live)
}

// requestError marks a client mistake; it maps to 400.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// statusFor maps an error to its HTTP status code.
func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr), errors.Is(err, practice.ErrInvalidAttempt):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, catalog.ErrEmpty),
		errors.Is(err, practice.ErrSessionNotFound),
		errors.Is(err, practice.ErrRecordingNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// writeError logs server faults and writes the JSON error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		observe.Logger(r.Context()).Error("api: request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), CorrelationID: observe.CorrelationID(r.Context())})
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("api: encode response", "err", err)
	}
}

// decodeJSON reads a single JSON object from the request body into v,
// rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

func (s *Server) session(r *http.Request) (*practice.Session, error) {
	return s.manager.Get(r.PathValue("id"))
}
