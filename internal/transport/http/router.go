package http

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hieutrtr/numerologist-sub002/internal/config"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, api *API) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("NumerologistSessions", store))
	r.Use(ClientTokenMiddleware())

	log.Info().Str("module", "transport.http").Msg("router setup")

	g := r.Group("/api")
	g.POST("/conversations/voice", api.handleCreateVoiceRoom)
	g.POST("/numerology", api.handleNumerology)
	g.POST("/conversations", api.handleSaveConversation)
	g.GET("/conversations/:id", api.handleGetConversation)
	g.GET("/conversations", api.handleListConversations)

	return r
}
