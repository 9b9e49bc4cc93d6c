// Package core defines the contracts between the session state machine and
// the room SDK adapter. The app layer depends only on these interfaces; the
// concrete WebRTC client lives in internal/adapters/rtc.
package core

import (
	"context"

	"github.com/hieutrtr/numerologist-sub002/internal/domain"
)

type SessionID string

// DeviceHandle is an acquired local capture device. Closing it releases the
// microphone without leaving the room.
type DeviceHandle interface {
	Label() string
	Close() error
}

// RoomAPI is the surface of the external room service this client consumes.
// Authenticate must be callable without joining; StartCapture must be
// callable before Join so permission prompts and device listing happen ahead
// of publishing.
type RoomAPI interface {
	Authenticate(ctx context.Context, address, credential string) error
	StartCapture(ctx context.Context) (DeviceHandle, error)
	Join(ctx context.Context, address, credential string) error
	Leave() error

	// Events yields track lifecycle, audio-level and data-channel events for
	// the currently joined room. The channel is owned by the adapter and is
	// closed on Leave.
	Events() <-chan RoomEvent
}

type RoomEventType string

const (
	EventTrackStarted  RoomEventType = "track_started"
	EventTrackStopped  RoomEventType = "track_stopped"
	EventAudioLevel    RoomEventType = "audio_level"
	EventTranscription RoomEventType = "transcription"
	EventDisconnected  RoomEventType = "disconnected"
)

// RoomEvent is one event from the room connection. Only the fields relevant
// to Type are set.
type RoomEvent struct {
	Type          RoomEventType
	Level         float64 // dBFS, EventAudioLevel only
	Transcription *domain.TranscriptionResult
	Err           error // EventDisconnected only
}

// Transition describes one applied state change of a room session.
type Transition struct {
	From  domain.SessionState
	To    domain.SessionState
	Cause error // set when To == StateError
}

// TransitionSink observes session state changes. The conversation bridge is
// the only production implementation.
type TransitionSink interface {
	OnTransition(t Transition)
}

// RoomEventSink receives audio-level and data-channel events the session has
// already validated as current (stale-epoch events are filtered upstream).
type RoomEventSink interface {
	OnRoomEvent(e RoomEvent)
}
