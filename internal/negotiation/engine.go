package negotiation

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/parley-dev/parley/internal/chat"
)

// Engine drives a bounded-duration, alternating-turn dialogue between two
// sessions. Run never returns an error: remote failures become a terminal
// error record so the caller can always assemble a response.
type Engine struct {
	logger *slog.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration)

	// Pacing pause before each send, emulating deliberation. Zero maxPause
	// disables pacing; it changes timing only, never transcript content.
	minPause time.Duration
	maxPause time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithPacing sets the bounds of the random pause inserted before each send.
// WithPacing(0, 0) disables pacing.
func WithPacing(min, max time.Duration) Option {
	return func(e *Engine) {
		e.minPause = min
		e.maxPause = max
	}
}

// WithClock overrides the engine's time source. Deadline checks use this
// clock; tests advance it from their session fakes.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Engine with default 2-5s pacing.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:   slog.Default(),
		now:      time.Now,
		sleep:    sleepContext,
		minPause: 2 * time.Second,
		maxPause: 5 * time.Second,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run orchestrates the negotiation: speaker 1 opens with initialPrompt, then
// the two sessions alternate, each turn's input being the other's previous
// reply, until the duration budget is spent or a send fails.
//
// The deadline is checked between turns, not mid-call: an in-flight send runs
// to completion, and it is re-checked immediately after speaker 2's turn so
// speaker 1 gets no closing turn once the budget is spent. A non-positive
// duration still attempts the opening turn.
func (e *Engine) Run(ctx context.Context, session1, session2 chat.Session, label1, label2, initialPrompt string, duration time.Duration) Transcript {
	start := e.now()
	deadline := start.Add(duration)
	var transcript Transcript

	e.logger.Debug("negotiation starting", "speaker1", label1, "speaker2", label2, "duration", duration)

	e.pause(ctx, label1)
	reply, err := session1.Send(ctx, initialPrompt)
	if err != nil {
		return e.abort(transcript, label1, err)
	}
	transcript = append(transcript, TurnRecord{Turn: 0, Speaker: label1, Message: reply})
	e.logTurn(0, label1, reply)
	current := reply
	turn := 1

	for e.now().Before(deadline) {
		e.pause(ctx, label2)
		reply, err = session2.Send(ctx, current)
		if err != nil {
			return e.abort(transcript, label2, err)
		}
		transcript = append(transcript, TurnRecord{Turn: turn, Speaker: label2, Message: reply})
		e.logTurn(turn, label2, reply)
		current = reply

		// Budget spent right after speaker 2's turn: speaker 1 does not get
		// a closing turn this cycle.
		if !e.now().Before(deadline) {
			break
		}

		e.pause(ctx, label1)
		reply, err = session1.Send(ctx, current)
		if err != nil {
			return e.abort(transcript, label1, err)
		}
		transcript = append(transcript, TurnRecord{Turn: turn + 1, Speaker: label1, Message: reply})
		e.logTurn(turn+1, label1, reply)
		current = reply
		turn += 2
	}

	e.logger.Debug("negotiation finished", "turns", transcript.Turns())
	return transcript
}

// abort appends the terminal error record and ends the run. The accumulated
// transcript is preserved; no further sends occur.
func (e *Engine) abort(transcript Transcript, speaker string, err error) Transcript {
	e.logger.Warn("negotiation aborted", "speaker", speaker, "error", err)
	return append(transcript, TurnRecord{Err: err.Error()})
}

func (e *Engine) logTurn(turn int, speaker, reply string) {
	e.logger.Debug("turn complete", "turn", turn, "speaker", speaker, "chars", len(reply))
}

func (e *Engine) pause(ctx context.Context, speaker string) {
	if e.maxPause <= 0 {
		return
	}
	d := e.minPause
	if e.maxPause > e.minPause {
		d += rand.N(e.maxPause - e.minPause)
	}
	e.logger.Debug("considering a response", "speaker", speaker, "pause", d)
	e.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
