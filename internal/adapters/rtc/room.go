// Package rtc implements the room SDK over WebSocket signaling and WebRTC:
// pre-authorization, local capture, join/offer/answer, Opus publishing and
// the transcription data channel.
package rtc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/hieutrtr/numerologist-sub002/internal/adapters/audio"
	"github.com/hieutrtr/numerologist-sub002/internal/core"
	"github.com/hieutrtr/numerologist-sub002/internal/domain"
)

const transcriptionChannel = "transcription"

var (
	errNotAuthenticated = errors.New("room not authenticated")
	errNoCaptureDevice  = errors.New("no capture device negotiated")
)

// Capturer creates microphone capture sessions.
type Capturer interface {
	Start(ctx context.Context, cfg audio.Config) (audio.Session, error)
}

type Options struct {
	Audio         audio.Config
	SignalTimeout time.Duration
	WebRTC        *webrtc.Configuration
}

// RoomClient implements core.RoomAPI for one room at a time.
type RoomClient struct {
	capture Capturer
	opts    Options

	mu      sync.Mutex
	address string
	signal  *signalClient
	pc      *peerConnection
	capSess audio.Session
	events  chan core.RoomEvent
	cancel  context.CancelFunc
	closed  bool
}

func NewRoomClient(capture Capturer, opts Options) *RoomClient {
	return &RoomClient{capture: capture, opts: opts}
}

// Authenticate pre-authorizes against the room without joining. The signal
// connection is kept for the subsequent join.
func (c *RoomClient) Authenticate(ctx context.Context, address, credential string) error {
	sig, err := dialSignal(ctx, address, c.opts.SignalTimeout)
	if err != nil {
		return err
	}
	if _, err := sig.request(ctx, envelope{Type: "auth", Token: credential}, "auth-ok", c.opts.SignalTimeout); err != nil {
		sig.Close()
		return err
	}

	c.mu.Lock()
	if c.signal != nil {
		c.signal.Close()
	}
	c.signal = sig
	c.address = address
	c.mu.Unlock()

	log.Info().Str("module", "rtc").Str("room", address).Msg("pre-authorized")
	return nil
}

// StartCapture acquires the microphone. This is the step that triggers the
// permission prompt, deliberately ahead of the join.
func (c *RoomClient) StartCapture(ctx context.Context) (core.DeviceHandle, error) {
	sess, err := c.capture.Start(ctx, c.opts.Audio)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.capSess = sess
	c.mu.Unlock()
	return &deviceHandle{client: c, sess: sess}, nil
}

// Join performs the join and offer/answer exchange, then starts publishing
// the captured audio.
func (c *RoomClient) Join(ctx context.Context, address, credential string) error {
	c.mu.Lock()
	sig := c.signal
	capSess := c.capSess
	c.mu.Unlock()
	if sig == nil {
		return errNotAuthenticated
	}
	if capSess == nil {
		return errNoCaptureDevice
	}

	if _, err := sig.request(ctx, envelope{Type: "join", Room: address, Token: credential}, "joined", c.opts.SignalTimeout); err != nil {
		return err
	}

	cfg := defaultWebRTCConfig()
	if c.opts.WebRTC != nil {
		cfg = *c.opts.WebRTC
	}
	pc, err := newPeerConnection(cfg)
	if err != nil {
		return err
	}

	events := make(chan core.RoomEvent, 64)

	pc.onICECandidate(func(ci webrtc.ICECandidateInit) {
		env := envelope{Type: "candidate", Candidate: ci.Candidate, SDPMid: ci.SDPMid, SDPMLineIndex: ci.SDPMLineIndex}
		if err := sig.sendJSON(env); err != nil {
			log.Warn().Err(err).Str("module", "rtc").Msg("candidate not sent")
		}
	})
	pc.onDataPayload(func(data []byte) {
		var tr domain.TranscriptionResult
		if err := json.Unmarshal(data, &tr); err != nil {
			log.Error().Err(err).Str("module", "rtc").Msg("bad transcription payload")
			return
		}
		c.emit(core.RoomEvent{Type: core.EventTranscription, Transcription: &tr})
	})
	pc.onConnectionClosed(func() {
		c.emit(core.RoomEvent{Type: core.EventDisconnected, Err: errors.New("peer connection closed")})
	})
	sig.onCandidate = func(ci webrtc.ICECandidateInit) {
		if err := pc.addICECandidate(ci); err != nil {
			log.Warn().Err(err).Str("module", "rtc").Msg("remote candidate rejected")
		}
	}
	sig.onClosed = func(err error) {
		if err != nil {
			c.emit(core.RoomEvent{Type: core.EventDisconnected, Err: err})
		}
	}
	pc.start()

	sampleRate := c.opts.Audio.SampleRate
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	channels := c.opts.Audio.Channels
	if channels <= 0 {
		channels = 1
	}
	track, err := webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypeOpus,
		ClockRate: uint32(sampleRate),
		Channels:  uint16(channels),
	}, "audio", "numerologist-mic")
	if err != nil {
		pc.close()
		return err
	}

	offer, err := pc.createOfferWithTrack(track)
	if err != nil {
		pc.close()
		return err
	}
	answer, err := sig.request(ctx, envelope{Type: "offer", SDP: offer.SDP}, "answer", c.opts.SignalTimeout)
	if err != nil {
		pc.close()
		return err
	}
	if err := pc.applyAnswer(answer.SDP); err != nil {
		pc.close()
		return err
	}

	pub, err := newAudioPublisher(track, sampleRate, channels, rand.Uint32(), func(level float64) {
		c.emit(core.RoomEvent{Type: core.EventAudioLevel, Level: level})
	})
	if err != nil {
		pc.close()
		return fmt.Errorf("publisher: %w", err)
	}

	pubCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.pc = pc
	c.events = events
	c.cancel = cancel
	c.closed = false
	c.mu.Unlock()

	go func() {
		c.emit(core.RoomEvent{Type: core.EventTrackStarted})
		if err := pub.run(pubCtx, capSess); err != nil {
			log.Error().Err(err).Str("module", "rtc").Msg("publisher stopped")
		}
		c.emit(core.RoomEvent{Type: core.EventTrackStopped})
	}()

	log.Info().Str("module", "rtc").Str("room", address).Msg("joined")
	return nil
}

// Leave tears down the publisher, peer connection and signaling socket, and
// closes the event stream.
func (c *RoomClient) Leave() error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	pc := c.pc
	sig := c.signal
	events := c.events
	closed := c.closed
	c.pc = nil
	c.signal = nil
	c.events = nil
	c.closed = true
	c.address = ""
	c.mu.Unlock()

	if pc != nil {
		pc.close()
	}
	if sig != nil {
		sig.Close()
	}
	if events != nil && !closed {
		close(events)
	}
	return nil
}

func (c *RoomClient) Events() <-chan core.RoomEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

// emit delivers an event without blocking; a full buffer drops the event
// rather than stalling the media path.
func (c *RoomClient) emit(e core.RoomEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.events == nil {
		return
	}
	select {
	case c.events <- e:
	default:
		log.Debug().Str("module", "rtc").Str("type", string(e.Type)).Msg("event dropped")
	}
}

func (c *RoomClient) releaseCapture(sess audio.Session) {
	c.mu.Lock()
	if c.capSess == sess {
		c.capSess = nil
	}
	c.mu.Unlock()
}

type deviceHandle struct {
	client *RoomClient
	sess   audio.Session
}

func (h *deviceHandle) Label() string { return h.sess.Label() }

func (h *deviceHandle) Close() error {
	h.client.releaseCapture(h.sess)
	return h.sess.Stop()
}
