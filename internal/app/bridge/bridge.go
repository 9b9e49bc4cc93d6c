// Package bridge mirrors room session transitions and media events into the
// conversation store. It is the store's only writer.
package bridge

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hieutrtr/numerologist-sub002/internal/app/conversation"
	"github.com/hieutrtr/numerologist-sub002/internal/core"
	"github.com/hieutrtr/numerologist-sub002/internal/domain"
)

// ConversationStateBridge implements core.TransitionSink and
// core.RoomEventSink for exactly one store.
type ConversationStateBridge struct {
	store *conversation.Store

	mu         sync.Mutex
	publishing bool
}

func New(store *conversation.Store) *ConversationStateBridge {
	return &ConversationStateBridge{store: store}
}

// OnTransition mirrors lifecycle changes. Leaving Publishing for any reason
// resets the audio level to the silence sentinel before the next observable
// read, so the waveform never shows activity after disconnect.
func (b *ConversationStateBridge) OnTransition(t core.Transition) {
	b.mu.Lock()
	wasPublishing := b.publishing
	b.publishing = t.To == domain.StatePublishing
	b.mu.Unlock()

	switch t.To {
	case domain.StatePublishing:
		b.store.SetRecording(true)
	case domain.StateError:
		b.store.SetError(t.Cause)
		log.Warn().Str("module", "bridge").Err(t.Cause).Msg("session error surfaced")
	}

	if wasPublishing && t.To != domain.StatePublishing {
		b.store.SetAudioLevel(domain.SilenceLevel)
		b.store.SetRecording(false)
	}
	if t.To == domain.StateLeft || t.To == domain.StateIdle {
		b.store.SetRecording(false)
		b.store.SetProcessing(false)
	}
}

// OnRoomEvent forwards audio levels verbatim while publishing and replaces
// the transcription wholesale (last-write-wins) on data-channel payloads.
func (b *ConversationStateBridge) OnRoomEvent(e core.RoomEvent) {
	switch e.Type {
	case core.EventAudioLevel:
		b.mu.Lock()
		publishing := b.publishing
		b.mu.Unlock()
		if publishing {
			b.store.SetAudioLevel(e.Level)
		}
	case core.EventTranscription:
		if e.Transcription == nil {
			return
		}
		b.store.SetTranscription(e.Transcription)
		b.store.SetProcessing(!e.Transcription.IsFinal)
	}
}
