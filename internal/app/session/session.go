// Package session drives one voice room's connection lifecycle: idle,
// pre-authorization, device probing, join, publish, teardown.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hieutrtr/numerologist-sub002/internal/core"
	"github.com/hieutrtr/numerologist-sub002/internal/domain"
)

// RoomSession owns the connection state machine for one voice call. All
// transitions funnel through apply, which drops completions belonging to a
// superseded room address (epoch mismatch).
type RoomSession struct {
	id     core.SessionID
	room   core.RoomAPI
	neg    *DeviceNegotiator
	sink   core.TransitionSink
	events core.RoomEventSink

	mu        sync.Mutex
	emitMu    sync.Mutex
	cfg       domain.SessionConfig
	state     domain.SessionState
	lastErr   error
	hasJoined bool
	joinedTo  string
	inFlight  bool
	epoch     uint64
	cancel    context.CancelFunc
	device    core.DeviceHandle
}

func NewRoomSession(room core.RoomAPI, sink core.TransitionSink, events core.RoomEventSink) *RoomSession {
	return &RoomSession{
		id:     core.SessionID(uuid.NewString()),
		room:   room,
		neg:    NewDeviceNegotiator(room),
		sink:   sink,
		events: events,
		state:  domain.StateIdle,
	}
}

func (s *RoomSession) ID() core.SessionID { return s.id }

func (s *RoomSession) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *RoomSession) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *RoomSession) HasJoined() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasJoined
}

// Configure applies session parameters. Safe to call repeatedly with the
// same parameters (UI re-renders): identical parameters are a no-op, so no
// duplicate connection attempt can start. A changed address or a rotated
// credential tears the current session down and restarts the full sequence.
// An empty or placeholder address keeps the session Idle with no network
// action, so dependent UI can mount before real parameters are known.
func (s *RoomSession) Configure(ctx context.Context, cfg domain.SessionConfig) {
	s.mu.Lock()
	if cfg == s.cfg {
		s.mu.Unlock()
		return
	}
	s.teardownLocked()
	s.cfg = cfg
	s.lastErr = nil
	if cfg.Pending() {
		if s.state != domain.StateIdle {
			s.emitLocked(s.applyLocked(domain.StateIdle, nil))
		} else {
			s.mu.Unlock()
		}
		return
	}
	s.startLocked(ctx)
	s.mu.Unlock()
}

// Retry re-enters the sequence from Authenticating after a failure. This is
// the only retry path; no step retries automatically.
func (s *RoomSession) Retry(ctx context.Context) {
	s.mu.Lock()
	if s.state != domain.StateError || s.cfg.Pending() {
		s.mu.Unlock()
		return
	}
	s.teardownLocked()
	s.lastErr = nil
	s.startLocked(ctx)
	s.mu.Unlock()
}

// Leave exits the room and ends the session. The audio level observers see
// the transition synchronously, before Leave returns.
func (s *RoomSession) Leave() {
	s.mu.Lock()
	if s.state == domain.StateLeft {
		s.mu.Unlock()
		return
	}
	s.teardownLocked()
	s.emitLocked(s.applyLocked(domain.StateLeft, nil))
}

// Close releases the session when the owning context unmounts.
func (s *RoomSession) Close() { s.Leave() }

// teardownLocked invalidates any in-flight negotiation and releases the
// device and room membership of the current epoch.
func (s *RoomSession) teardownLocked() {
	s.epoch++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.device != nil {
		_ = s.device.Close()
		s.device = nil
	}
	if s.hasJoined {
		_ = s.room.Leave()
	}
	s.hasJoined = false
	s.joinedTo = ""
	s.inFlight = false
}

func (s *RoomSession) startLocked(ctx context.Context) {
	s.epoch++
	ep := s.epoch
	cfg := s.cfg
	s.inFlight = true
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.run(runCtx, ep, cfg)
}

// run performs authenticate, capture and join strictly in that order for one
// room address. Every step re-validates the epoch before its transition is
// applied, so a late completion for a stale address never leaks into the
// session that replaced it.
func (s *RoomSession) run(ctx context.Context, ep uint64, cfg domain.SessionConfig) {
	if !s.apply(ep, domain.StateAuthenticating, nil) {
		return
	}

	dev, err := s.neg.Negotiate(ctx, cfg.RoomAddress, cfg.Credential, func(p Phase) {
		if p == PhaseCapture {
			s.apply(ep, domain.StateProbingDevices, nil)
		}
	})
	if err != nil {
		s.fail(ep, err)
		return
	}

	if !s.apply(ep, domain.StateJoining, nil) {
		_ = dev.Close()
		return
	}

	s.mu.Lock()
	skipJoin := s.hasJoined && s.joinedTo == cfg.RoomAddress
	s.mu.Unlock()
	if !skipJoin {
		if err := s.room.Join(ctx, cfg.RoomAddress, cfg.Credential); err != nil {
			_ = dev.Close()
			s.fail(ep, domain.NewSessionError(domain.ErrJoin, err))
			return
		}
	}

	s.mu.Lock()
	if ep != s.epoch {
		// the successor epoch shares the room client; a compensating leave
		// is only safe when no newer attempt has joined or is in flight
		orphaned := !s.hasJoined && !s.inFlight
		s.mu.Unlock()
		_ = dev.Close()
		if orphaned {
			_ = s.room.Leave()
		}
		return
	}
	s.hasJoined = true
	s.joinedTo = cfg.RoomAddress
	s.inFlight = false
	s.device = dev
	s.emitLocked(s.applyLocked(domain.StateJoined, nil))

	go s.pumpEvents(ep)
}

// pumpEvents maps room events onto session transitions for as long as the
// epoch stays current.
func (s *RoomSession) pumpEvents(ep uint64) {
	for e := range s.room.Events() {
		s.mu.Lock()
		current := ep == s.epoch
		state := s.state
		s.mu.Unlock()
		if !current {
			return
		}

		switch e.Type {
		case core.EventTrackStarted:
			if state == domain.StateJoined {
				s.apply(ep, domain.StatePublishing, nil)
			}
		case core.EventTrackStopped:
			if state == domain.StatePublishing {
				s.apply(ep, domain.StateJoined, nil)
			}
		case core.EventDisconnected:
			s.fail(ep, domain.NewSessionError(domain.ErrTransport, e.Err))
		case core.EventAudioLevel, core.EventTranscription:
			if s.events != nil {
				s.events.OnRoomEvent(e)
			}
		}
	}
}

func (s *RoomSession) fail(ep uint64, err error) {
	s.mu.Lock()
	if ep != s.epoch {
		s.mu.Unlock()
		log.Debug().Str("module", "session").Str("sid", string(s.id)).Err(err).Msg("stale failure dropped")
		return
	}
	s.inFlight = false
	if s.device != nil {
		_ = s.device.Close()
		s.device = nil
	}
	s.emitLocked(s.applyLocked(domain.StateError, err))
}

func (s *RoomSession) apply(ep uint64, to domain.SessionState, cause error) bool {
	s.mu.Lock()
	if ep != s.epoch {
		s.mu.Unlock()
		log.Debug().Str("module", "session").Str("sid", string(s.id)).Str("to", string(to)).Msg("stale transition dropped")
		return false
	}
	s.emitLocked(s.applyLocked(to, cause))
	return true
}

func (s *RoomSession) applyLocked(to domain.SessionState, cause error) core.Transition {
	from := s.state
	s.state = to
	if to == domain.StateError {
		s.lastErr = cause
	}
	return core.Transition{From: from, To: to, Cause: cause}
}

// emitLocked delivers t to the sink in application order. The caller must
// hold s.mu; the emit lock is taken before s.mu is released, so a transition
// applied later can never reach the sink first. Releases s.mu.
func (s *RoomSession) emitLocked(t core.Transition) {
	s.emitMu.Lock()
	s.mu.Unlock()
	defer s.emitMu.Unlock()

	ev := log.Info().Str("module", "session").Str("sid", string(s.id)).
		Str("from", string(t.From)).Str("to", string(t.To))
	if t.Cause != nil {
		ev = ev.Err(t.Cause)
	}
	ev.Msg("transition")
	if s.sink != nil {
		s.sink.OnTransition(t)
	}
}
