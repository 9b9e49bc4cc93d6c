// Package domain contains entities of the voice conversation client:
// session parameters, lifecycle states and error classification.
package domain

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// RoomAddressPlaceholder is the sentinel the UI uses before a real room is
// provisioned. A session configured with it stays Idle and makes no network
// calls.
const RoomAddressPlaceholder = "about:blank"

var ErrNoRoomAddress = errors.New("room address empty or placeholder")

var validate = validator.New()

// SessionConfig carries the immutable per-session parameters supplied by the
// conversation provisioning service.
type SessionConfig struct {
	RoomAddress string `json:"roomAddress" validate:"required"`
	Credential  string `json:"credential"`
}

// Validate checks that the config is joinable. Credential may be empty for
// rooms that permit anonymous join.
func (c SessionConfig) Validate() error {
	if c.RoomAddress == RoomAddressPlaceholder {
		return ErrNoRoomAddress
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("session config: %w", err)
	}
	return nil
}

// Pending reports whether the config is the "no session yet" state the UI
// mounts with.
func (c SessionConfig) Pending() bool {
	return c.RoomAddress == "" || c.RoomAddress == RoomAddressPlaceholder
}

// SessionState models the room connection lifecycle.
type SessionState string

const (
	StateIdle           SessionState = "idle"
	StateAuthenticating SessionState = "authenticating"
	StateProbingDevices SessionState = "probing_devices"
	StateJoining        SessionState = "joining"
	StateJoined         SessionState = "joined"
	StatePublishing     SessionState = "publishing"
	StateError          SessionState = "error"
	StateLeft           SessionState = "left"
)

// ErrorKind classifies where in the lifecycle a failure happened so the UI
// can surface distinct copy per class.
type ErrorKind string

const (
	ErrAuth      ErrorKind = "auth"
	ErrCapture   ErrorKind = "capture"
	ErrJoin      ErrorKind = "join"
	ErrTransport ErrorKind = "transport"
)

// SessionError attaches a classification to the underlying cause.
type SessionError struct {
	Kind ErrorKind
	Err  error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// NewSessionError wraps cause with a classification.
func NewSessionError(kind ErrorKind, cause error) *SessionError {
	return &SessionError{Kind: kind, Err: cause}
}

// KindOf extracts the classification from err, or "" when err carries none.
func KindOf(err error) ErrorKind {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
