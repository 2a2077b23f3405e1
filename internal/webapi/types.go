package webapi

import (
	"github.com/parley-dev/parley/internal/negotiation"
	"github.com/parley-dev/parley/internal/persona"
)

// Version is set at build time or defaults to dev.
var Version = "0.2.0"

// DefaultDurationSeconds is used when a request omits duration_seconds.
const DefaultDurationSeconds = 60

// NegotiationRequest is the request body for POST /negotiate.
type NegotiationRequest struct {
	Topic           string          `json:"topic"`
	DurationSeconds int             `json:"duration_seconds"`
	Character1      persona.Profile `json:"character1"`
	Character2      persona.Profile `json:"character2"`
}

// NegotiationSummary describes the run: the topic, the measured wall-clock
// duration in whole seconds, and the generated outcome analysis.
type NegotiationSummary struct {
	Topic           string `json:"topic"`
	DurationSeconds int    `json:"duration_seconds"`
	OutcomeAnalysis string `json:"outcome_analysis"`
}

// NegotiationResponse is the full payload returned to the caller. A
// transcript ending in an error record is still a complete, successful
// response: it means the negotiation ended early, not that the request failed.
type NegotiationResponse struct {
	NegotiationSummary NegotiationSummary     `json:"negotiation_summary"`
	Participants       []persona.Profile      `json:"participants"`
	Transcript         negotiation.Transcript `json:"transcript"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
