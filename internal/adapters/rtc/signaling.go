package rtc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var errSignalClosed = errors.New("signal connection closed")

// envelope is the JSON message shape on the signaling socket. Only the
// fields relevant to Type are set.
type envelope struct {
	Type          string  `json:"type"`
	Token         string  `json:"token,omitempty"`
	Room          string  `json:"room,omitempty"`
	SDP           string  `json:"sdp,omitempty"`
	Error         string  `json:"error,omitempty"`
	Candidate     string  `json:"candidate,omitempty"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

// signalClient is the client end of the room's signaling socket.
// Request/reply exchanges (auth, join, offer) flow through replies; server
// initiated messages (candidates, bye) are dispatched to callbacks.
type signalClient struct {
	conn    *websocket.Conn
	send    chan []byte
	replies chan envelope

	onCandidate func(webrtc.ICECandidateInit)
	onClosed    func(error)

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// signalURL derives the websocket signaling endpoint from the opaque room
// address handed out by provisioning.
func signalURL(address string) (string, error) {
	u, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("room address: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("room address: unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}

func dialSignal(ctx context.Context, address string, timeout time.Duration) (*signalClient, error) {
	endpoint, err := signalURL(address)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial signal %s: %w", endpoint, err)
	}

	c := &signalClient{
		conn:    conn,
		send:    make(chan []byte, 32),
		replies: make(chan envelope, 8),
		done:    make(chan struct{}),
	}
	go c.writePump()
	go c.readPump()
	return c, nil
}

func (c *signalClient) writePump() {
	for {
		select {
		case <-c.done:
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "rtc.signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "rtc.signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (c *signalClient) readPump() {
	var readErr error
	defer func() {
		c.Close()
		if c.onClosed != nil {
			c.onClosed(readErr)
		}
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				readErr = nil
			default:
				readErr = err
			}
			return
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Error().Err(err).Str("module", "rtc.signal").Msg("bad json")
			continue
		}
		c.dispatch(env)
	}
}

func (c *signalClient) dispatch(env envelope) {
	switch env.Type {
	case "candidate":
		if c.onCandidate != nil {
			c.onCandidate(webrtc.ICECandidateInit{
				Candidate:     env.Candidate,
				SDPMid:        env.SDPMid,
				SDPMLineIndex: env.SDPMLineIndex,
			})
		}
	case "auth-ok", "joined", "answer", "error":
		select {
		case c.replies <- env:
		default:
			log.Warn().Str("module", "rtc.signal").Str("type", env.Type).Msg("reply dropped")
		}
	case "pong":
	default:
		log.Warn().Str("module", "rtc.signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (c *signalClient) sendJSON(env envelope) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errSignalClosed
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errors.New("signal backpressure")
	}
}

// request sends env and waits for a reply of the wanted type. A server
// "error" reply resolves the wait as a failure.
func (c *signalClient) request(ctx context.Context, env envelope, want string, timeout time.Duration) (envelope, error) {
	if err := c.sendJSON(env); err != nil {
		return envelope{}, err
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return envelope{}, ctx.Err()
		case <-c.done:
			return envelope{}, errSignalClosed
		case <-timer.C:
			return envelope{}, fmt.Errorf("signal %s: timed out waiting for %s", env.Type, want)
		case reply := <-c.replies:
			if reply.Type == "error" {
				return envelope{}, fmt.Errorf("signal %s rejected: %s", env.Type, reply.Error)
			}
			if reply.Type == want {
				return reply, nil
			}
			log.Warn().Str("module", "rtc.signal").Str("got", reply.Type).Str("want", want).Msg("out of order reply skipped")
		}
	}
}

func (c *signalClient) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	_ = c.conn.Close()
	c.mu.Unlock()
}
