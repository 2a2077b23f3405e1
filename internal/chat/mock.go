package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EchoSession replies with Prefix + input. Useful for end-to-end tests where
// each turn must visibly derive from the previous one.
type EchoSession struct {
	Prefix string

	mu    sync.Mutex
	calls int
}

func (s *EchoSession) Send(_ context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.Prefix + text, nil
}

// Calls returns how many sends this session has received.
func (s *EchoSession) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// ScriptedSession returns queued replies in order. Once the script is
// exhausted it fails every subsequent send, with FailErr if set.
type ScriptedSession struct {
	FailErr error

	mu       sync.Mutex
	replies  []string
	received []string
}

func NewScriptedSession(replies ...string) *ScriptedSession {
	return &ScriptedSession{replies: replies}
}

func (s *ScriptedSession) Send(_ context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, text)
	if len(s.replies) == 0 {
		if s.FailErr != nil {
			return "", s.FailErr
		}
		return "", &RemoteError{Op: "send message", Err: errors.New("script exhausted")}
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

// Received returns every message sent to this session, in order.
func (s *ScriptedSession) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.received))
	copy(out, s.received)
	return out
}

// FailingSession fails every send with Err.
type FailingSession struct {
	Err error
}

func (s *FailingSession) Send(context.Context, string) (string, error) {
	return "", s.Err
}

// FakeProvider hands out pre-built sessions in order and records the configs
// it was asked for, so tests can assert per-character key and model routing.
type FakeProvider struct {
	CreateErr error

	mu       sync.Mutex
	sessions []Session
	configs  []SessionConfig
}

func NewFakeProvider(sessions ...Session) *FakeProvider {
	return &FakeProvider{sessions: sessions}
}

func (p *FakeProvider) NewSession(_ context.Context, cfg SessionConfig) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.configs = append(p.configs, cfg)
	if p.CreateErr != nil {
		return nil, p.CreateErr
	}
	if len(p.sessions) == 0 {
		return nil, fmt.Errorf("fake provider: no sessions left (%d created)", len(p.configs)-1)
	}
	s := p.sessions[0]
	p.sessions = p.sessions[1:]
	return s, nil
}

// Configs returns the session configs requested so far.
func (p *FakeProvider) Configs() []SessionConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SessionConfig, len(p.configs))
	copy(out, p.configs)
	return out
}
