package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hieutrtr/numerologist-sub002/internal/adapters/audio"
	"github.com/hieutrtr/numerologist-sub002/internal/adapters/provision"
	"github.com/hieutrtr/numerologist-sub002/internal/adapters/rtc"
	"github.com/hieutrtr/numerologist-sub002/internal/app/bridge"
	"github.com/hieutrtr/numerologist-sub002/internal/app/conversation"
	"github.com/hieutrtr/numerologist-sub002/internal/app/session"
	"github.com/hieutrtr/numerologist-sub002/internal/config"
	"github.com/hieutrtr/numerologist-sub002/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	sessCfg := domain.SessionConfig{RoomAddress: cfg.RoomAddress, Credential: cfg.RoomToken}
	if sessCfg.Pending() {
		// No fixed room configured, provision one from the conversation API.
		client := provision.NewClient(cfg.APIBaseURL)
		sessCfg, err = client.CreateVoiceRoom(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to provision voice room")
		}
	}

	store := conversation.NewStore()
	br := bridge.New(store)
	capture := audio.NewCapture(cfg.Audio.FFmpegPath)
	room := rtc.NewRoomClient(capture, rtc.Options{
		Audio: audio.Config{
			SampleRate:  cfg.Audio.SampleRate,
			Channels:    cfg.Audio.Channels,
			InputFormat: cfg.Audio.InputFormat,
			InputDevice: cfg.Audio.InputDevice,
		},
		SignalTimeout: cfg.SignalTimeout,
	})
	sess := session.NewRoomSession(room, br, br)

	go watchConversation(store)

	sess.Configure(ctx, sessCfg)

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	sess.Leave()
	log.Info().Msg("Session ended")
}

// watchConversation prints transcripts and surfaced errors as they arrive.
func watchConversation(store *conversation.Store) {
	sub, cancel := store.Subscribe()
	defer cancel()

	var lastText string
	for snap := range sub {
		if snap.Err != nil {
			log.Error().Err(snap.Err).Msg("conversation error")
			continue
		}
		if snap.Transcription == nil || snap.Transcription.Text == lastText {
			continue
		}
		lastText = snap.Transcription.Text
		marker := "…"
		if snap.Transcription.IsFinal {
			marker = "✓"
		}
		fmt.Printf("%s %s\n", marker, snap.Transcription.Text)
	}
}
