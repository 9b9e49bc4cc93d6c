// Package http is the development conversation API: voice room provisioning,
// numerology profiles and conversation persistence.
package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hieutrtr/numerologist-sub002/internal/domain"
	"github.com/hieutrtr/numerologist-sub002/internal/numerology"
)

const tokenTTL = time.Hour

type API struct {
	roomBaseURL   string
	conversations *conversationStore
}

func NewAPI(roomBaseURL string) *API {
	return &API{
		roomBaseURL:   roomBaseURL,
		conversations: newConversationStore(),
	}
}

type voiceRoomResponse struct {
	RoomURL   string    `json:"room_url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleCreateVoiceRoom provisions a room address and a scoped credential
// for one conversation.
func (a *API) handleCreateVoiceRoom(c *gin.Context) {
	name := uuid.NewString()
	resp := voiceRoomResponse{
		RoomURL:   fmt.Sprintf("%s/rooms/%s", a.roomBaseURL, name),
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().UTC().Add(tokenTTL),
	}
	log.Info().Str("module", "transport.http").Str("room", resp.RoomURL).Str("sid", c.GetString("client_token")).Msg("voice room created")
	c.JSON(http.StatusCreated, resp)
}

type numerologyRequest struct {
	FullName  string `json:"full_name" binding:"required,max=100"`
	BirthDate string `json:"birth_date" binding:"required,datetime=2006-01-02"`
}

type numerologyResponse struct {
	Numbers         domain.NumerologyNumbers `json:"numbers"`
	Interpretations map[string]string        `json:"interpretations"`
}

func (a *API) handleNumerology(c *gin.Context) {
	var req numerologyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	birth, err := numerology.ParseBirthDate(req.BirthDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	numbers := numerology.Profile(req.FullName, birth, time.Now())
	resp := numerologyResponse{
		Numbers:         numbers,
		Interpretations: make(map[string]string, 4),
	}
	for t, v := range map[numerology.NumberType]int{
		numerology.TypeLifePath:    numbers.LifePath,
		numerology.TypeDestiny:     numbers.Destiny,
		numerology.TypeSoulUrge:    numbers.SoulUrge,
		numerology.TypePersonality: numbers.Personality,
	} {
		text, err := numerology.Interpretation(t, v)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		resp.Interpretations[string(t)] = text
	}
	c.JSON(http.StatusOK, resp)
}

func (a *API) handleSaveConversation(c *gin.Context) {
	var rec domain.ConversationRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := rec.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved := a.conversations.Save(c.GetString("client_token"), rec)
	c.JSON(http.StatusCreated, saved)
}

func (a *API) handleGetConversation(c *gin.Context) {
	rec, ok := a.conversations.Get(c.GetString("client_token"), c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrConversationNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (a *API) handleListConversations(c *gin.Context) {
	recs := a.conversations.List(c.GetString("client_token"))
	c.JSON(http.StatusOK, gin.H{"total": len(recs), "conversations": recs})
}
