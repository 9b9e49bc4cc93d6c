package rtc

import (
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// peerConnection wraps the client side of the room's WebRTC connection:
// one outbound Opus track and the inbound transcription data channel.
type peerConnection struct {
	pc *webrtc.PeerConnection

	onICE    func(webrtc.ICECandidateInit)
	onData   func([]byte)
	onClosed func()
}

func defaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

func newPeerConnection(cfg webrtc.Configuration) (*peerConnection, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	return &peerConnection{pc: pc}, nil
}

func (c *peerConnection) start() {
	c.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Info().Str("module", "rtc").Str("ice_state", s.String()).Msg("ICE state")
	})

	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "rtc").Str("peer_connection_state", s.String()).Msg("Peer state")
		if s == webrtc.PeerConnectionStateFailed ||
			s == webrtc.PeerConnectionStateClosed {
			if c.onClosed != nil {
				c.onClosed()
			}
		}
	})

	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand != nil && c.onICE != nil {
			c.onICE(cand.ToJSON())
		}
	})

	c.pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		log.Info().Str("module", "rtc").Str("label", dc.Label()).Msg("data channel opened")
		if dc.Label() != transcriptionChannel {
			return
		}
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			if c.onData != nil {
				c.onData(msg.Data)
			}
		})
	})
}

// createOfferWithTrack attaches the local audio track and produces a
// gathered offer for the signaling exchange.
func (c *peerConnection) createOfferWithTrack(track webrtc.TrackLocal) (*webrtc.SessionDescription, error) {
	if _, err := c.pc.AddTrack(track); err != nil {
		return nil, err
	}
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return nil, err
	}

	gatherComplete := webrtc.GatheringCompletePromise(c.pc)
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return nil, err
	}
	<-gatherComplete

	return c.pc.LocalDescription(), nil
}

func (c *peerConnection) applyAnswer(sdp string) error {
	return c.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  sdp,
	})
}

func (c *peerConnection) addICECandidate(ci webrtc.ICECandidateInit) error {
	return c.pc.AddICECandidate(ci)
}

func (c *peerConnection) onICECandidate(fn func(webrtc.ICECandidateInit)) { c.onICE = fn }

func (c *peerConnection) onDataPayload(fn func([]byte)) { c.onData = fn }

func (c *peerConnection) onConnectionClosed(fn func()) { c.onClosed = fn }

func (c *peerConnection) close() {
	if c.pc == nil {
		return
	}
	if err := c.pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "rtc").Msg("close error")
	} else {
		log.Info().Str("module", "rtc").Msg("closed")
	}
}
