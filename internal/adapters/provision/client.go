// Package provision is the HTTP client for the conversation API: voice room
// provisioning and conversation persistence.
package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hieutrtr/numerologist-sub002/internal/domain"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// VoiceRoom is the provisioning response: a room plus a scoped credential.
type VoiceRoom struct {
	RoomURL   string    `json:"room_url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateVoiceRoom provisions a room and credential for one conversation.
func (c *Client) CreateVoiceRoom(ctx context.Context) (domain.SessionConfig, error) {
	var room VoiceRoom
	if err := c.do(ctx, http.MethodPost, "/api/conversations/voice", nil, &room); err != nil {
		return domain.SessionConfig{}, err
	}
	log.Info().Str("module", "provision").Str("room", room.RoomURL).Msg("voice room provisioned")
	return domain.SessionConfig{RoomAddress: room.RoomURL, Credential: room.Token}, nil
}

// SaveConversation persists a completed conversation.
func (c *Client) SaveConversation(ctx context.Context, rec domain.ConversationRecord) (domain.ConversationRecord, error) {
	if err := rec.Validate(); err != nil {
		return domain.ConversationRecord{}, err
	}
	var saved domain.ConversationRecord
	if err := c.do(ctx, http.MethodPost, "/api/conversations", rec, &saved); err != nil {
		return domain.ConversationRecord{}, err
	}
	return saved, nil
}

// GetConversation fetches one conversation by ID.
func (c *Client) GetConversation(ctx context.Context, id string) (domain.ConversationRecord, error) {
	var rec domain.ConversationRecord
	if err := c.do(ctx, http.MethodGet, "/api/conversations/"+id, nil, &rec); err != nil {
		return domain.ConversationRecord{}, err
	}
	return rec, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
