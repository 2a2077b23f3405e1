package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-dev/parley/internal/chat"
	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/negotiation"
	"github.com/parley-dev/parley/internal/persona"
	"github.com/parley-dev/parley/internal/summary"
)

// fakeClock and timedSession make negotiation runs deterministic: every send
// consumes a fixed amount of fake time instead of real latency.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type timedSession struct {
	inner chat.Session
	clock *fakeClock
	step  time.Duration
}

func (s *timedSession) Send(ctx context.Context, text string) (string, error) {
	defer s.clock.Advance(s.step)
	return s.inner.Send(ctx, text)
}

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(context.Context, string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func testCreds() config.Config {
	return config.Config{PrimaryKey: "key-one", SecondaryKey: "key-two"}
}

func testProfile(name string) persona.Profile {
	return persona.Profile{
		Name:       name,
		Profession: "envoy",
		Background: "from somewhere",
		Mood:       "calm",
		Behavior:   "direct",
		Objective:  "win the deal",
		Strengths:  "patience",
	}
}

func validRequestBody(t *testing.T) string {
	t.Helper()
	body, err := json.Marshal(NegotiationRequest{
		Topic:           "water rights",
		DurationSeconds: 1,
		Character1:      testProfile("Aditi"),
		Character2:      testProfile("Viktor"),
	})
	require.NoError(t, err)
	return string(body)
}

func newTestHandlers(creds config.Config, provider chat.Provider, clock *fakeClock, completer summary.Completer) *Handlers {
	engine := negotiation.New(negotiation.WithPacing(0, 0), negotiation.WithClock(clock.Now))
	return NewHandlers(creds, provider, engine, summary.New(completer), nil)
}

func postNegotiate(h *Handlers, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/negotiate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleNegotiate(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	h := newTestHandlers(testCreds(), chat.NewFakeProvider(), newFakeClock(), &fakeCompleter{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.HandleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ok", got.Status)
}

func TestHandleNegotiate(t *testing.T) {
	clock := newFakeClock()
	provider := chat.NewFakeProvider(
		&timedSession{inner: &chat.EchoSession{Prefix: "ack:"}, clock: clock, step: 600 * time.Millisecond},
		&timedSession{inner: &chat.EchoSession{Prefix: "ack:"}, clock: clock, step: 600 * time.Millisecond},
	)
	completer := &fakeCompleter{reply: "No agreement was reached."}
	h := newTestHandlers(testCreds(), provider, clock, completer)

	rec := postNegotiate(h, validRequestBody(t))
	require.Equal(t, http.StatusOK, rec.Code)

	var got NegotiationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, "water rights", got.NegotiationSummary.Topic)
	assert.Equal(t, "No agreement was reached.", got.NegotiationSummary.OutcomeAnalysis)
	require.Len(t, got.Participants, 2)
	assert.Equal(t, "Aditi", got.Participants[0].Name)
	assert.Equal(t, "Viktor", got.Participants[1].Name)

	require.Len(t, got.Transcript, 2)
	assert.Equal(t, "Aditi (from somewhere)", got.Transcript[0].Speaker)
	assert.Equal(t, "Viktor (from somewhere)", got.Transcript[1].Speaker)
	assert.True(t, strings.HasPrefix(got.Transcript[0].Message, "ack:"))
	assert.Equal(t, 1, completer.calls)

	// Each character's session was built with its own credential and the
	// instruction derived from its own profile.
	configs := provider.Configs()
	require.Len(t, configs, 2)
	assert.Equal(t, "key-one", configs[0].APIKey)
	assert.Equal(t, "key-two", configs[1].APIKey)
	assert.Equal(t, persona.DefaultModel, configs[0].Model)
	assert.Contains(t, configs[0].SystemInstruction, "Aditi")
	assert.Contains(t, configs[1].SystemInstruction, "Viktor")
}

func TestHandleNegotiateResponseFieldNames(t *testing.T) {
	clock := newFakeClock()
	provider := chat.NewFakeProvider(
		&timedSession{inner: &chat.EchoSession{Prefix: "a:"}, clock: clock, step: 600 * time.Millisecond},
		&timedSession{inner: &chat.EchoSession{Prefix: "b:"}, clock: clock, step: 600 * time.Millisecond},
	)
	h := newTestHandlers(testCreds(), provider, clock, &fakeCompleter{reply: "summary"})

	rec := postNegotiate(h, validRequestBody(t))
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Contains(t, raw, "negotiation_summary")
	require.Contains(t, raw, "participants")
	require.Contains(t, raw, "transcript")

	var summaryFields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["negotiation_summary"], &summaryFields))
	assert.Contains(t, summaryFields, "topic")
	assert.Contains(t, summaryFields, "duration_seconds")
	assert.Contains(t, summaryFields, "outcome_analysis")

	var turns []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["transcript"], &turns))
	require.NotEmpty(t, turns)
	assert.Contains(t, turns[0], "turn")
	assert.Contains(t, turns[0], "speaker")
	assert.Contains(t, turns[0], "message")
}

func TestHandleNegotiateValidation(t *testing.T) {
	noTopic := NegotiationRequest{Character1: testProfile("A"), Character2: testProfile("B")}
	noTopicBody, err := json.Marshal(noTopic)
	require.NoError(t, err)

	badChar := NegotiationRequest{Topic: "t", Character1: testProfile("A"), Character2: testProfile("B")}
	badChar.Character2.Objective = ""
	badCharBody, err := json.Marshal(badChar)
	require.NoError(t, err)

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "malformed body", body: "{not json", wantMsg: "invalid request body"},
		{name: "missing topic", body: string(noTopicBody), wantMsg: "topic is required"},
		{name: "invalid character", body: string(badCharBody), wantMsg: "character2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := chat.NewFakeProvider()
			h := newTestHandlers(testCreds(), provider, newFakeClock(), &fakeCompleter{})

			rec := postNegotiate(h, tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var got ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Contains(t, got.Error, tt.wantMsg)
			assert.Empty(t, provider.Configs(), "no sessions may be created for rejected requests")
		})
	}
}

func TestHandleNegotiateMissingCredentials(t *testing.T) {
	provider := chat.NewFakeProvider()
	h := newTestHandlers(config.Config{}, provider, newFakeClock(), &fakeCompleter{})

	rec := postNegotiate(h, validRequestBody(t))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var got ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Contains(t, got.Error, "API keys are not configured")
	assert.Empty(t, provider.Configs(), "credential check happens before any model work")
}

func TestHandleNegotiateSessionInitFailure(t *testing.T) {
	provider := chat.NewFakeProvider()
	provider.CreateErr = fmt.Errorf("model %q not found", "no-such-model")
	h := newTestHandlers(testCreds(), provider, newFakeClock(), &fakeCompleter{})

	rec := postNegotiate(h, validRequestBody(t))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var got ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Contains(t, got.Error, "failed to initialize model session")
	assert.Contains(t, got.Error, "no-such-model")
}

func TestHandleNegotiateRemoteFailureStillSucceeds(t *testing.T) {
	// The opening send fails: the request still completes with 200, a
	// one-record error transcript, and the fixed fallback summary.
	provider := chat.NewFakeProvider(
		&chat.FailingSession{Err: &chat.RemoteError{Op: "send message", Err: errors.New("quota exceeded")}},
		&chat.EchoSession{Prefix: "unused:"},
	)
	completer := &fakeCompleter{reply: "should not be called"}
	h := newTestHandlers(testCreds(), provider, newFakeClock(), completer)

	rec := postNegotiate(h, validRequestBody(t))

	require.Equal(t, http.StatusOK, rec.Code)
	var got NegotiationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	require.Len(t, got.Transcript, 1)
	assert.True(t, got.Transcript[0].IsError())
	assert.Contains(t, got.Transcript[0].Err, "quota exceeded")
	assert.Equal(t, summary.NotStarted, got.NegotiationSummary.OutcomeAnalysis)
	assert.Zero(t, completer.calls)
}
