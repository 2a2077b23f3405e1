// Package webapi exposes the negotiation service over HTTP.
package webapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/parley-dev/parley/internal/chat"
	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/negotiation"
	"github.com/parley-dev/parley/internal/persona"
	"github.com/parley-dev/parley/internal/summary"
)

// Handlers holds the HTTP handler methods for the negotiation API.
type Handlers struct {
	creds      config.Config
	provider   chat.Provider
	engine     *negotiation.Engine
	summarizer *summary.Summarizer
	logger     *slog.Logger
}

// NewHandlers creates a Handlers with the given collaborators.
func NewHandlers(creds config.Config, provider chat.Provider, engine *negotiation.Engine, summarizer *summary.Summarizer, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		creds:      creds,
		provider:   provider,
		engine:     engine,
		summarizer: summarizer,
		logger:     logger,
	}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandleNegotiate runs one full negotiation and returns the transcript plus
// outcome summary. Requests fail fast (before any model work) on malformed
// bodies, invalid profiles, missing credentials, or session construction
// failures; once turns begin, remote failures surface inside the payload
// rather than as an HTTP error.
func (h *Handlers) HandleNegotiate(w http.ResponseWriter, r *http.Request) {
	var req NegotiationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}
	if req.DurationSeconds == 0 {
		req.DurationSeconds = DefaultDurationSeconds
	}
	if err := req.Character1.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("character1: %v", err))
		return
	}
	if err := req.Character2.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("character2: %v", err))
		return
	}

	if !h.creds.HasCredentials() {
		writeError(w, http.StatusInternalServerError,
			"API keys are not configured on the server; check environment variables")
		return
	}

	ctx := r.Context()
	start := time.Now()

	session1, err := h.provider.NewSession(ctx, chat.SessionConfig{
		Model:             req.Character1.Model(),
		APIKey:            h.creds.PrimaryKey,
		SystemInstruction: persona.BuildInstruction(req.Character1),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to initialize model session: %v", err))
		return
	}

	session2, err := h.provider.NewSession(ctx, chat.SessionConfig{
		Model:             req.Character2.Model(),
		APIKey:            h.creds.SecondaryKey,
		SystemInstruction: persona.BuildInstruction(req.Character2),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to initialize model session: %v", err))
		return
	}

	h.logger.Info("negotiation starting", "topic", req.Topic, "duration_seconds", req.DurationSeconds)

	transcript := h.engine.Run(ctx,
		session1, session2,
		req.Character1.SpeakerLabel(), req.Character2.SpeakerLabel(),
		persona.OpeningPrompt(req.Character1, req.Character2.Name, req.Topic),
		time.Duration(req.DurationSeconds)*time.Second)

	outcome := h.summarizer.Summarize(ctx, transcript, req.Topic)

	elapsed := int(math.Round(time.Since(start).Seconds()))
	h.logger.Info("negotiation finished",
		"topic", req.Topic, "turns", transcript.Turns(), "failed", transcript.Failed(), "elapsed_seconds", elapsed)

	writeJSON(w, http.StatusOK, NegotiationResponse{
		NegotiationSummary: NegotiationSummary{
			Topic:           req.Topic,
			DurationSeconds: elapsed,
			OutcomeAnalysis: outcome,
		},
		Participants: []persona.Profile{req.Character1, req.Character2},
		Transcript:   transcript,
	})
}

// RegisterRoutes registers all API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("POST /negotiate", h.HandleNegotiate)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: status})
}
