// Package conversation holds the process-wide observable conversation state.
// The bridge is the only writer; UI code reads snapshots or subscribes.
package conversation

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hieutrtr/numerologist-sub002/internal/domain"
)

// Snapshot is a point-in-time copy of the observable state.
type Snapshot struct {
	IsRecording   bool
	IsProcessing  bool
	AudioLevel    float64
	Transcription *domain.TranscriptionResult
	Err           error
}

// Store is the single conversation state store. Writes fan out to
// subscribers without blocking: a slow subscriber misses intermediate
// snapshots, never stalls the writer.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
	subs []chan Snapshot
}

func NewStore() *Store {
	return &Store{snap: Snapshot{AudioLevel: domain.SilenceLevel}}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe registers a buffered listener for state changes. The returned
// cancel func removes the listener and closes its channel; calling it more
// than once is safe.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 16)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			for i, sub := range s.subs {
				if sub == ch {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					break
				}
			}
			close(ch)
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

func (s *Store) SetRecording(v bool) {
	s.update(func(sn *Snapshot) { sn.IsRecording = v })
}

func (s *Store) SetProcessing(v bool) {
	s.update(func(sn *Snapshot) { sn.IsProcessing = v })
}

func (s *Store) SetAudioLevel(level float64) {
	s.update(func(sn *Snapshot) { sn.AudioLevel = level })
}

func (s *Store) SetTranscription(t *domain.TranscriptionResult) {
	s.update(func(sn *Snapshot) { sn.Transcription = t })
}

func (s *Store) SetError(err error) {
	s.update(func(sn *Snapshot) { sn.Err = err })
}

// ClearTranscription drops the transcription and returns the audio level to
// the silence sentinel; the sentinel is part of the cleared baseline, not
// independent state.
func (s *Store) ClearTranscription() {
	s.update(func(sn *Snapshot) {
		sn.Transcription = nil
		sn.AudioLevel = domain.SilenceLevel
	})
}

// ClearConversation resets the conversation fields but keeps a surfaced
// error so the UI can still show it.
func (s *Store) ClearConversation() {
	s.update(func(sn *Snapshot) {
		sn.IsRecording = false
		sn.IsProcessing = false
		sn.Transcription = nil
		sn.AudioLevel = domain.SilenceLevel
	})
}

// Reset returns the store to its initial state.
func (s *Store) Reset() {
	s.update(func(sn *Snapshot) {
		*sn = Snapshot{AudioLevel: domain.SilenceLevel}
	})
}

// update mutates the snapshot and fans it out. Sends happen under the lock
// so a concurrent cancel cannot close a channel mid-send; they never block.
func (s *Store) update(mut func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mut(&s.snap)
	for _, ch := range s.subs {
		select {
		case ch <- s.snap:
		default:
			log.Debug().Str("module", "conversation").Msg("subscriber behind, snapshot dropped")
		}
	}
}
