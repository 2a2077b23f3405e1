// Package chat abstracts a conversational model behind a minimal session
// capability so the negotiation engine stays provider-agnostic and testable.
package chat

import (
	"context"
	"fmt"
)

// Session is one side's ongoing exchange with a conversational model. The
// session preserves prior turns as context; Send blocks for the duration of
// the remote call.
type Session interface {
	Send(ctx context.Context, text string) (string, error)
}

// SessionConfig carries everything a session needs at construction time.
// Credentials are per-session by design: no ambient process-wide key exists,
// so concurrent negotiations cannot leak each other's configuration.
type SessionConfig struct {
	Model             string
	APIKey            string
	SystemInstruction string
}

// Provider constructs sessions against a concrete model backend.
type Provider interface {
	NewSession(ctx context.Context, cfg SessionConfig) (Session, error)
}

// RemoteError wraps a failed remote model call.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
