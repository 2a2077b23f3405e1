// Package summary reduces a finished negotiation transcript to a short
// neutral outcome analysis via one model call, with failures isolated so
// they never abort the surrounding request.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/parley-dev/parley/internal/negotiation"
)

// Model is the fixed summarization model. The summarizer always runs on the
// primary credential regardless of the characters' models.
const Model = "gemini-1.5-flash"

// NotStarted is returned when there is nothing to summarize.
const NotStarted = "The negotiation did not start or an error occurred."

// Completer issues a single one-shot completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithLogger sets the summarizer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Summarizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Summarizer generates outcome analyses. Summarize is total: remote failures
// become a descriptive fallback string, never an error.
type Summarizer struct {
	completer Completer
	logger    *slog.Logger
}

func New(completer Completer, opts ...Option) *Summarizer {
	s := &Summarizer{
		completer: completer,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Summarize answers three fixed questions about the transcript: each party's
// final position, whether agreement was reached and its terms, and the main
// points of contention otherwise. An empty digest short-circuits without any
// remote call.
func (s *Summarizer) Summarize(ctx context.Context, transcript negotiation.Transcript, topic string) string {
	digest := Digest(transcript)
	if digest == "" {
		return NotStarted
	}

	out, err := s.completer.Complete(ctx, buildPrompt(topic, digest))
	if err != nil {
		s.logger.Warn("summary generation failed", "error", err)
		return fmt.Sprintf("Could not generate summary: %v", err)
	}
	return out
}

// Digest renders the spoken records as "speaker: message" lines. Error
// records are excluded; they describe the run, not the conversation.
func Digest(transcript negotiation.Transcript) string {
	var b strings.Builder
	for _, record := range transcript {
		if record.IsError() {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", record.Speaker, record.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildPrompt(topic, digest string) string {
	return fmt.Sprintf(`Based on the following negotiation transcript about '%s', please provide a brief, neutral summary of the outcome.

Answer these questions:
1. What was the final position of each party?
2. Was a clear agreement reached? If so, what were the terms?
3. If no agreement was reached, what were the main points of contention?

Transcript:
---
%s
---`, topic, digest)
}
