package bridge

import (
	"errors"
	"testing"

	"github.com/hieutrtr/numerologist-sub002/internal/app/conversation"
	"github.com/hieutrtr/numerologist-sub002/internal/core"
	"github.com/hieutrtr/numerologist-sub002/internal/domain"
)

func transition(from, to domain.SessionState) core.Transition {
	return core.Transition{From: from, To: to}
}

func TestPublishingMirrorsRecording(t *testing.T) {
	t.Parallel()
	store := conversation.NewStore()
	b := New(store)

	b.OnTransition(transition(domain.StateJoined, domain.StatePublishing))
	if snap := store.Snapshot(); !snap.IsRecording {
		t.Error("IsRecording = false while publishing")
	}

	b.OnTransition(transition(domain.StatePublishing, domain.StateJoined))
	if snap := store.Snapshot(); snap.IsRecording {
		t.Error("IsRecording = true after publishing ended")
	}
}

func TestLeavingPublishingResetsAudioLevel(t *testing.T) {
	t.Parallel()
	store := conversation.NewStore()
	b := New(store)

	b.OnTransition(transition(domain.StateJoined, domain.StatePublishing))
	b.OnRoomEvent(core.RoomEvent{Type: core.EventAudioLevel, Level: -24.5})
	if snap := store.Snapshot(); snap.AudioLevel != -24.5 {
		t.Fatalf("AudioLevel = %v, want -24.5", snap.AudioLevel)
	}

	// any exit from publishing must read as silence before the next poll
	b.OnTransition(transition(domain.StatePublishing, domain.StateError))
	if snap := store.Snapshot(); snap.AudioLevel != domain.SilenceLevel {
		t.Errorf("AudioLevel = %v, want silence sentinel", snap.AudioLevel)
	}
}

func TestLevelsIgnoredWhenNotPublishing(t *testing.T) {
	t.Parallel()
	store := conversation.NewStore()
	b := New(store)

	b.OnTransition(transition(domain.StateJoining, domain.StateJoined))
	b.OnRoomEvent(core.RoomEvent{Type: core.EventAudioLevel, Level: -12})

	if snap := store.Snapshot(); snap.AudioLevel != domain.SilenceLevel {
		t.Errorf("AudioLevel = %v, want silence while not publishing", snap.AudioLevel)
	}
}

func TestTranscriptionLastWriteWins(t *testing.T) {
	t.Parallel()
	store := conversation.NewStore()
	b := New(store)

	b.OnRoomEvent(core.RoomEvent{Type: core.EventTranscription, Transcription: &domain.TranscriptionResult{Text: "xin", IsFinal: false}})
	snap := store.Snapshot()
	if snap.Transcription == nil || snap.Transcription.Text != "xin" {
		t.Fatalf("Transcription = %+v", snap.Transcription)
	}
	if !snap.IsProcessing {
		t.Error("IsProcessing = false for interim result")
	}

	b.OnRoomEvent(core.RoomEvent{Type: core.EventTranscription, Transcription: &domain.TranscriptionResult{Text: "xin chào", IsFinal: true}})
	snap = store.Snapshot()
	if snap.Transcription.Text != "xin chào" {
		t.Errorf("Transcription.Text = %q, want replacement", snap.Transcription.Text)
	}
	if snap.IsProcessing {
		t.Error("IsProcessing = true after final result")
	}
}

func TestErrorTransitionSurfaced(t *testing.T) {
	t.Parallel()
	store := conversation.NewStore()
	b := New(store)

	cause := domain.NewSessionError(domain.ErrJoin, errors.New("room full"))
	b.OnTransition(core.Transition{From: domain.StateJoining, To: domain.StateError, Cause: cause})

	snap := store.Snapshot()
	if !errors.Is(snap.Err, cause) {
		t.Errorf("Err = %v, want %v", snap.Err, cause)
	}
}

func TestLeftClearsActivityFlags(t *testing.T) {
	t.Parallel()
	store := conversation.NewStore()
	b := New(store)

	b.OnTransition(transition(domain.StateJoined, domain.StatePublishing))
	b.OnRoomEvent(core.RoomEvent{Type: core.EventTranscription, Transcription: &domain.TranscriptionResult{Text: "a"}})
	b.OnTransition(transition(domain.StatePublishing, domain.StateLeft))

	snap := store.Snapshot()
	if snap.IsRecording || snap.IsProcessing {
		t.Errorf("flags after leave: recording=%v processing=%v", snap.IsRecording, snap.IsProcessing)
	}
	if snap.AudioLevel != domain.SilenceLevel {
		t.Errorf("AudioLevel = %v, want silence", snap.AudioLevel)
	}
}
