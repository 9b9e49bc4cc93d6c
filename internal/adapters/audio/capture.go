// Package audio captures microphone PCM by piping ffmpeg's s16le output.
// Starting a capture is what triggers the OS permission prompt, so it must
// happen before the room join.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config describes how the microphone should be captured.
type Config struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// Session is a live capture session delivering little-endian 16-bit PCM.
type Session interface {
	io.ReadCloser
	Stop() error
	Label() string
}

// Capture starts microphone sessions using an external ffmpeg binary.
type Capture struct {
	command string
}

func NewCapture(command string) *Capture {
	if command == "" {
		command = "ffmpeg"
	}
	return &Capture{command: command}
}

// Start launches ffmpeg and waits briefly to catch immediate exits, which is
// how permission denials and missing devices surface.
func (c *Capture) Start(ctx context.Context, cfg Config) (Session, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	cmd := exec.CommandContext(ctx, c.command, captureArgs(cfg)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("capture stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start capture: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		detail := string(bytes.TrimSpace(stderr.Bytes()))
		if err != nil {
			return nil, fmt.Errorf("capture exited early: %w: %s", err, detail)
		}
		return nil, fmt.Errorf("capture exited early: %s", detail)
	case <-time.After(250 * time.Millisecond):
	}

	log.Info().Str("module", "audio").Str("device", cfg.InputDevice).Int("rate", cfg.SampleRate).Msg("capture started")
	return &captureSession{
		label:   cfg.InputDevice,
		stdout:  stdout,
		stderr:  &stderr,
		process: cmd.Process,
		waitErr: waitErr,
	}, nil
}

func captureArgs(cfg Config) []string {
	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}
}

type captureSession struct {
	label  string
	stdout io.ReadCloser
	stderr *bytes.Buffer

	process *os.Process
	waitErr <-chan error

	stopOnce sync.Once
	stopErr  error
}

func (s *captureSession) Label() string { return s.label }

func (s *captureSession) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *captureSession) Close() error { return s.Stop() }

// Stop interrupts ffmpeg, escalating to kill if it ignores the signal.
func (s *captureSession) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = ignoreExitStatus(err)
			}
		case <-time.After(1200 * time.Millisecond):
			if s.process != nil {
				_ = s.process.Kill()
			}
			if err, ok := <-s.waitErr; ok {
				s.stopErr = ignoreExitStatus(err)
			}
		}

		if closeErr := s.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) && s.stopErr == nil {
			s.stopErr = closeErr
		}
		if s.stopErr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, bytes.TrimSpace(s.stderr.Bytes()))
		}
		log.Info().Str("module", "audio").Str("device", s.label).Msg("capture stopped")
	})
	return s.stopErr
}

// ignoreExitStatus drops the nonzero status ffmpeg reports when interrupted.
func ignoreExitStatus(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
