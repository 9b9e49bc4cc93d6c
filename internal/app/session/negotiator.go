package session

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/hieutrtr/numerologist-sub002/internal/core"
	"github.com/hieutrtr/numerologist-sub002/internal/domain"
)

// Phase identifies the negotiation step in progress.
type Phase string

const (
	PhaseAuthenticate Phase = "authenticate"
	PhaseCapture      Phase = "capture"
)

// DeviceNegotiator sequences room pre-authorization ahead of local capture.
// The order is load-bearing: capturing before authenticate can yield an
// unauthenticated, empty device list on some backends. It never joins.
type DeviceNegotiator struct {
	room core.RoomAPI
}

func NewDeviceNegotiator(room core.RoomAPI) *DeviceNegotiator {
	return &DeviceNegotiator{room: room}
}

// Negotiate authenticates against the room, then starts local capture.
// onPhase, when non-nil, is invoked as each step begins. Failures are
// classified ErrAuth or ErrCapture.
func (n *DeviceNegotiator) Negotiate(
	ctx context.Context,
	address, credential string,
	onPhase func(Phase),
) (core.DeviceHandle, error) {
	cfg := domain.SessionConfig{RoomAddress: address, Credential: credential}
	if err := cfg.Validate(); err != nil {
		return nil, domain.NewSessionError(domain.ErrAuth, err)
	}

	if onPhase != nil {
		onPhase(PhaseAuthenticate)
	}
	if err := n.room.Authenticate(ctx, address, credential); err != nil {
		log.Error().Err(err).Str("module", "session").Str("room", address).Msg("pre-authorization failed")
		return nil, domain.NewSessionError(domain.ErrAuth, err)
	}

	if onPhase != nil {
		onPhase(PhaseCapture)
	}
	dev, err := n.room.StartCapture(ctx)
	if err != nil {
		log.Error().Err(err).Str("module", "session").Str("room", address).Msg("local capture failed")
		return nil, domain.NewSessionError(domain.ErrCapture, err)
	}

	log.Info().Str("module", "session").Str("room", address).Str("device", dev.Label()).Msg("negotiated capture device")
	return dev, nil
}
