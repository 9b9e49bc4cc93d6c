package rtc

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
	"gopkg.in/hraban/opus.v2"

	"github.com/hieutrtr/numerologist-sub002/internal/domain"
)

const (
	opusPayloadType = 111
	frameDuration   = 20 * time.Millisecond
	rtpMTU          = 1200
	// level updates are throttled to one per levelEvery frames (~100ms)
	levelEvery = 5
)

// audioPublisher reads captured PCM, encodes 20ms Opus frames and writes
// them paced onto the local RTP track. It also meters the outbound signal,
// reporting dBFS levels through onLevel.
type audioPublisher struct {
	enc        *opus.Encoder
	track      *webrtc.TrackLocalStaticRTP
	packetizer rtp.Packetizer

	sampleRate   int
	frameSamples int

	onLevel func(float64)
}

func newAudioPublisher(track *webrtc.TrackLocalStaticRTP, sampleRate, channels int, ssrc uint32, onLevel func(float64)) (*audioPublisher, error) {
	enc, err := opus.NewEncoder(sampleRate, channels, opus.AppVoIP)
	if err != nil {
		return nil, err
	}
	if err := enc.SetBitrate(64000); err != nil {
		return nil, err
	}
	return &audioPublisher{
		enc:          enc,
		track:        track,
		packetizer:   rtp.NewPacketizer(rtpMTU, opusPayloadType, ssrc, &codecs.OpusPayloader{}, rtp.NewRandomSequencer(), uint32(sampleRate)),
		sampleRate:   sampleRate,
		frameSamples: sampleRate * channels / 50,
		onLevel:      onLevel,
	}, nil
}

// run pumps src until it is exhausted or ctx is canceled. Returns nil on a
// clean end of stream.
func (p *audioPublisher) run(ctx context.Context, src io.Reader) error {
	frameBytes := p.frameSamples * 2
	buf := make([]byte, frameBytes)
	pcm := make([]int16, p.frameSamples)
	opusBuf := make([]byte, 4000)

	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	frames := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if _, err := io.ReadFull(src, buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
		for i := range pcm {
			pcm[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
		}

		if p.onLevel != nil && frames%levelEvery == 0 {
			p.onLevel(levelDBFS(pcm))
		}
		frames++

		n, err := p.enc.Encode(pcm, opusBuf)
		if err != nil {
			log.Error().Err(err).Str("module", "rtc").Msg("opus encode")
			continue
		}
		payload := make([]byte, n)
		copy(payload, opusBuf[:n])

		for _, pkt := range p.packetizer.Packetize(payload, uint32(p.frameSamples)) {
			if err := p.track.WriteRTP(pkt); err != nil {
				return err
			}
		}
	}
}

// levelDBFS reports the RMS level of one frame in dBFS, floored at the
// silence sentinel.
func levelDBFS(samples []int16) float64 {
	if len(samples) == 0 {
		return domain.SilenceLevel
	}
	var sum float64
	for _, s := range samples {
		f := float64(s)
		sum += f * f
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms < 1 {
		return domain.SilenceLevel
	}
	db := 20 * math.Log10(rms/32768.0)
	if db < domain.SilenceLevel {
		db = domain.SilenceLevel
	}
	if db > 0 {
		db = 0
	}
	return db
}
